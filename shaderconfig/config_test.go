package shaderconfig

import "testing"

const worldShaderSource = `
name = default.world
renderpass = Renderpass.Builtin.World
stages = vertex, fragment
stagefiles = default.world.spv
attribute = vec3, in_position
attribute = vec3, in_normal
attribute = vec2, in_texcoord
uniform = mat4, 0, view
uniform = mat4, 0, projection
uniform = vec4, 1, diffuse_color
uniform = samp,  1, diffuse_texture
use_instance = 1
use_local = 1
cull_mode = back
`

// S3 - Parser round-trip, per the spec's example config.
func TestParseWorldShaderRoundTrip(t *testing.T) {
	cfg, _, err := Parse(worldShaderSource)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Name != "default.world" {
		t.Errorf("Name = %q, want default.world", cfg.Name)
	}
	if len(cfg.Stages) != 2 {
		t.Fatalf("len(Stages) = %d, want 2", len(cfg.Stages))
	}

	wantAttrs := []Attribute{
		{Name: "in_position", Type: AttrVec3, Location: 0, Offset: 0, Size: 12},
		{Name: "in_normal", Type: AttrVec3, Location: 1, Offset: 12, Size: 12},
		{Name: "in_texcoord", Type: AttrVec2, Location: 2, Offset: 24, Size: 8},
	}
	for i, want := range wantAttrs {
		if i >= len(cfg.Attributes) {
			t.Fatalf("missing attribute %d", i)
		}
		got := cfg.Attributes[i]
		if got.Location != want.Location || got.Offset != want.Offset || got.Size != want.Size {
			t.Errorf("attribute %d = %+v, want %+v", i, got, want)
		}
	}

	if cfg.GlobalUBOSize != 128 {
		t.Errorf("GlobalUBOSize = %d, want 128", cfg.GlobalUBOSize)
	}
	if cfg.InstanceUBOSize != 16 {
		t.Errorf("InstanceUBOSize = %d, want 16", cfg.InstanceUBOSize)
	}
	if cfg.InstanceTextureCount != 1 {
		t.Errorf("InstanceTextureCount = %d, want 1", cfg.InstanceTextureCount)
	}
	if cfg.PushConstantSize != 0 {
		t.Errorf("PushConstantSize = %d, want 0", cfg.PushConstantSize)
	}
	if cfg.CullMode != CullBack {
		t.Errorf("CullMode = %v, want CullBack", cfg.CullMode)
	}
}

// P6 - Shader-layout determinism.
func TestLayoutIsDeterministic(t *testing.T) {
	a, _, err := Parse(worldShaderSource)
	if err != nil {
		t.Fatalf("Parse (1st): %v", err)
	}
	b, _, err := Parse(worldShaderSource)
	if err != nil {
		t.Fatalf("Parse (2nd): %v", err)
	}

	if len(a.Attributes) != len(b.Attributes) {
		t.Fatalf("attribute count differs")
	}
	for i := range a.Attributes {
		if a.Attributes[i] != b.Attributes[i] {
			t.Errorf("attribute %d differs: %+v vs %+v", i, a.Attributes[i], b.Attributes[i])
		}
	}
	if a.GlobalUBOSize != b.GlobalUBOSize || a.GlobalUBOStride != b.GlobalUBOStride {
		t.Errorf("global UBO layout differs")
	}
}

// P7 - Uniform register packing.
func TestUniformRegisterPacking(t *testing.T) {
	src := `
name = packing.test
stages = vertex
attribute = vec3, in_position
uniform = vec3, 0, a
uniform = vec3, 0, b
uniform = float, 0, c
uniform = mat4, 0, m
`
	cfg, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, u := range cfg.Uniforms {
		if u.Size == 0 || u.Size > 16 {
			continue
		}
		if u.Offset%16+u.Size > 16 {
			t.Errorf("uniform %s straddles a 16-byte boundary: offset=%d size=%d", u.Name, u.Offset, u.Size)
		}
	}
}

// P8 - UBO stride alignment.
func TestUBOStrideAlignment(t *testing.T) {
	cfg, _, err := Parse(worldShaderSource)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.GlobalUBOStride%UBOAlignment != 0 {
		t.Errorf("GlobalUBOStride = %d, not a multiple of %d", cfg.GlobalUBOStride, UBOAlignment)
	}
	if cfg.InstanceUBOStride%UBOAlignment != 0 {
		t.Errorf("InstanceUBOStride = %d, not a multiple of %d", cfg.InstanceUBOStride, UBOAlignment)
	}
	if cfg.PushConstantStride%4 != 0 {
		t.Errorf("PushConstantStride = %d, not a multiple of 4", cfg.PushConstantStride)
	}
}

func TestParseMissingNameFails(t *testing.T) {
	_, _, err := Parse("stages = vertex\n")
	if err == nil {
		t.Fatal("expected error for missing name")
	}
	var perr *ParseError
	if pe, ok := err.(*ParseError); ok {
		perr = pe
	} else {
		t.Fatalf("error is not *ParseError: %T", err)
	}
	if perr.Kind != ErrorMissingRequiredField {
		t.Errorf("Kind = %v, want ErrorMissingRequiredField", perr.Kind)
	}
}

func TestUnknownKeyWarnsNotFails(t *testing.T) {
	src := "name = x\nstages = vertex\nfrobnicate = 1\n"
	cfg, warnings, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Name != "x" {
		t.Errorf("Name = %q, want x", cfg.Name)
	}
	if len(warnings) == 0 {
		t.Error("expected a warning for unknown key")
	}
}

func TestCommentMarkersBothValid(t *testing.T) {
	src := "; comment\nname = x # trailing\nstages = vertex\n"
	cfg, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Name != "x" {
		t.Errorf("Name = %q, want x", cfg.Name)
	}
}
