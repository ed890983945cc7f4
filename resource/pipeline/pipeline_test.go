package pipeline

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
	"github.com/Panbok/vulkan-renderer-sub009/shaderconfig"
)

func TestAttributeVkFormatMapsEveryType(t *testing.T) {
	cases := map[shaderconfig.AttributeType]vk.Format{
		shaderconfig.AttrVec2: vk.FormatR32g32Sfloat,
		shaderconfig.AttrVec3: vk.FormatR32g32b32Sfloat,
		shaderconfig.AttrVec4: vk.FormatR32g32b32a32Sfloat,
	}
	for in, want := range cases {
		if got := attributeVkFormat(in); got != want {
			t.Errorf("attributeVkFormat(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestToVkCullModeMapsEveryMode(t *testing.T) {
	cases := map[shaderconfig.CullMode]vk.CullModeFlagBits{
		shaderconfig.CullBack:         vk.CullModeBackBit,
		shaderconfig.CullNone:         vk.CullModeNone,
		shaderconfig.CullFront:        vk.CullModeFrontBit,
		shaderconfig.CullFrontAndBack: vk.CullModeFrontAndBack,
	}
	for in, want := range cases {
		if got := toVkCullMode(in); got != want {
			t.Errorf("toVkCullMode(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestVkBoolRoundTrips(t *testing.T) {
	if vkBool(true) != vk.True {
		t.Error("vkBool(true) != vk.True")
	}
	if vkBool(false) != vk.False {
		t.Error("vkBool(false) != vk.False")
	}
}

func TestSameTexturesComparesByHandle(t *testing.T) {
	a := []backend.TextureHandle{{Handle: backend.NewHandle(1, 1)}, {Handle: backend.NewHandle(2, 1)}}
	b := []backend.TextureHandle{{Handle: backend.NewHandle(1, 1)}, {Handle: backend.NewHandle(2, 1)}}
	c := []backend.TextureHandle{{Handle: backend.NewHandle(1, 1)}, {Handle: backend.NewHandle(3, 1)}}

	if !sameTextures(a, b) {
		t.Error("expected a and b to be equal")
	}
	if sameTextures(a, c) {
		t.Error("expected a and c to differ")
	}
	if sameTextures(a, nil) {
		t.Error("expected a and nil to differ (length mismatch)")
	}
}

// TestApplyGlobalUniformElidesIdenticalBytes exercises P11 for the
// global UBO: identical bytes applied twice in succession must elide
// the second write and count it.
func TestApplyGlobalUniformElidesIdenticalBytes(t *testing.T) {
	p := &GraphicsPipeline{}
	data := []byte{1, 2, 3, 4}

	if !p.ApplyGlobalUniform(data) {
		t.Fatal("first call should report changed (no prior baseline)")
	}
	if n := p.GetAndResetDescriptorWritesAvoided(); n != 0 {
		t.Fatalf("writesAvoided after first call = %d, want 0", n)
	}

	if p.ApplyGlobalUniform(append([]byte(nil), data...)) {
		t.Fatal("identical bytes should report unchanged")
	}
	if n := p.GetAndResetDescriptorWritesAvoided(); n != 1 {
		t.Fatalf("writesAvoided after identical call = %d, want 1", n)
	}

	if !p.ApplyGlobalUniform([]byte{9, 9, 9, 9}) {
		t.Fatal("differing bytes should report changed")
	}
	if n := p.GetAndResetDescriptorWritesAvoided(); n != 0 {
		t.Fatalf("writesAvoided after a changed call = %d, want 0", n)
	}
}

// TestApplyInstanceUniformElidesIdenticalBytes exercises P11 for an
// instance UBO range, including the stale-handle error path.
func TestApplyInstanceUniformElidesIdenticalBytes(t *testing.T) {
	p := &GraphicsPipeline{instances: make([]instanceSlot, 1)}
	p.instances[0] = instanceSlot{inUse: true, generation: 1}
	h := backend.InstanceStateHandle{Handle: backend.NewHandle(0, 1)}
	data := []byte{5, 6, 7, 8}

	changed, err := p.ApplyInstanceUniform(h, data)
	if err != nil || !changed {
		t.Fatalf("first call: changed=%v err=%v, want true, nil", changed, err)
	}

	changed, err = p.ApplyInstanceUniform(h, append([]byte(nil), data...))
	if err != nil || changed {
		t.Fatalf("identical call: changed=%v err=%v, want false, nil", changed, err)
	}
	if n := p.GetAndResetDescriptorWritesAvoided(); n != 1 {
		t.Fatalf("writesAvoided = %d, want 1", n)
	}

	stale := backend.InstanceStateHandle{Handle: backend.NewHandle(0, 2)}
	if _, err := p.ApplyInstanceUniform(stale, data); err == nil {
		t.Fatal("expected an error for a stale generation")
	}
}

// TestUpdateInstanceStateElidesEachUnchangedTexture exercises P11's
// per-texture counting: both bindings elided counts as 2, matching
// "exactly the number of bindings" (global + instance UBOs + textures).
// Uses an already-bound slot (uboBound, matching lastTextures) so the
// call path never reaches vk.UpdateDescriptorSets.
func TestUpdateInstanceStateElidesEachUnchangedTexture(t *testing.T) {
	texA := backend.TextureHandle{Handle: backend.NewHandle(1, 1)}
	texB := backend.TextureHandle{Handle: backend.NewHandle(2, 1)}

	p := &GraphicsPipeline{instances: make([]instanceSlot, 1)}
	p.instances[0] = instanceSlot{
		inUse: true, generation: 1, uboBound: true,
		lastTextures: []backend.TextureHandle{texA, texB},
	}
	h := backend.InstanceStateHandle{Handle: backend.NewHandle(0, 1)}

	textures := []backend.TextureHandle{texA, texB}
	if err := p.UpdateInstanceState(nil, h, nil, 0, 0, textures, nil, nil); err != nil {
		t.Fatalf("UpdateInstanceState: %v", err)
	}
	if n := p.GetAndResetDescriptorWritesAvoided(); n != 2 {
		t.Fatalf("writesAvoided = %d, want 2 (both textures unchanged)", n)
	}
}
