package shaderconfig

import "strings"

// vertexExpectation is one entry in a vertex-type's expected attribute
// table: the canonical name and type of an attribute. Its byte offset is
// not stored here; computeAttributeLayout derives it by compaction.
type vertexExpectation struct {
	name string
	typ  AttributeType
}

var vertex3DExpectations = []vertexExpectation{
	{"in_position", AttrVec3},
	{"in_normal", AttrVec3},
	{"in_texcoord", AttrVec2},
	{"in_color", AttrVec4},
	{"in_tangent", AttrVec4},
}

var vertex2DTextExpectations = []vertexExpectation{
	{"in_position", AttrVec2},
	{"in_texcoord", AttrVec2},
	{"in_color", AttrVec4},
}

var vertex2DPlainExpectations = []vertexExpectation{
	{"in_position", AttrVec2},
	{"in_texcoord", AttrVec2},
}

// detectVertexType implements the spec's vertex-type detection rule:
// renderpass UI implies 2D; a 3D-shaped position/normal attribute implies
// 3D; otherwise 2D. The 2D-text vs 2D-plain split follows from which
// expectation table the declared attributes best match (text variant
// requires an in_color attribute; plain variant does not).
func detectVertexType(renderpassName string, attrs []rawAttribute) VertexType {
	if renderpassName == BuiltinRenderpassUI {
		if hasAttribute(attrs, "in_color") {
			return VertexType2DText
		}
		return VertexType2DPlain
	}
	for _, a := range attrs {
		if a.name == "in_position" && (a.typeTok == "vec3" || a.typeTok == "vec4") {
			return VertexType3D
		}
		if strings.HasPrefix(a.name, "in_normal") {
			return VertexType3D
		}
	}
	if hasAttribute(attrs, "in_color") {
		return VertexType2DText
	}
	return VertexType2DPlain
}

func hasAttribute(attrs []rawAttribute, name string) bool {
	for _, a := range attrs {
		if a.name == name {
			return true
		}
	}
	return false
}

func expectationsFor(vt VertexType) []vertexExpectation {
	switch vt {
	case VertexType3D:
		return vertex3DExpectations
	case VertexType2DText:
		return vertex2DTextExpectations
	default:
		return vertex2DPlainExpectations
	}
}

// computeAttributeLayout implements the spec's §4.8 attribute layout
// pass: pick the vertex-type's expectation table, and for each expected
// attribute find the matching declared one by exact name, assigning
// location = expectation index and offset by compaction. Missing expected
// attributes are warned (via the returned warnings slice) and default to
// a zero-valued slot so downstream offset math stays deterministic.
func computeAttributeLayout(vt VertexType, declared []rawAttribute) ([]Attribute, map[string]int, uint32, []string) {
	expectations := expectationsFor(vt)
	out := make([]Attribute, 0, len(expectations))
	index := make(map[string]int, len(expectations))
	var warnings []string

	var offset uint32
	for i, exp := range expectations {
		size := exp.typ.Size()
		attr := Attribute{
			Name:     exp.name,
			Type:     exp.typ,
			Location: uint32(i),
			Offset:   offset,
			Size:     size,
		}
		if !hasAttribute(declared, exp.name) {
			warnings = append(warnings, "missing expected attribute "+exp.name+", defaulting to zero")
		}
		out = append(out, attr)
		index[exp.name] = i
		offset += size
	}

	return out, index, offset, warnings
}

// computeUniformLayout implements the spec's §4.8 uniform layout pass:
// walk declared uniforms in order, assign sampler slots a scope-scoped
// texture-count index with offset/size 0, and pack non-sampler uniforms
// under std140-like alignment with the "no 16-byte straddle" register-
// packing rule. Running offsets are tracked per scope; LOCAL scope uses
// 4-byte alignment (push constants) instead of std140 alignment.
func computeUniformLayout(declared []rawUniform) ([]Uniform, map[string]int, uint32, uint32, uint32, int, int) {
	var running [3]uint32 // indexed by UniformScope
	var globalTex, instanceTex int

	out := make([]Uniform, 0, len(declared))
	index := make(map[string]int, len(declared))

	for i, u := range declared {
		typ, _ := uniformTypeFromString(u.typeTok)
		scope := UniformScope(atoiScope(u.scope))

		uni := Uniform{Name: u.name, Type: typ, Scope: scope}

		if typ == UniformSampler {
			switch scope {
			case ScopeGlobal:
				uni.Location = uint32(globalTex)
				globalTex++
			default:
				uni.Location = uint32(instanceTex)
				instanceTex++
			}
			uni.Offset = 0
			uni.Size = 0
		} else {
			size := typ.Size()
			var alignment uint32 = 4
			if scope != ScopeLocal {
				alignment = typ.std140Alignment()
			}
			offset := alignUp(running[scope], alignment)
			// Register-packing rule: a value <=16 bytes must not straddle
			// a 16-byte boundary.
			if size <= 16 && offset%16+size > 16 {
				offset = alignUp(offset, 16)
			}
			uni.Offset = offset
			uni.Size = size
			running[scope] = offset + size
		}

		out = append(out, uni)
		index[u.name] = i
	}

	globalSize := alignUp(running[ScopeGlobal], 16)
	instanceSize := alignUp(running[ScopeInstance], 16)
	pushConstantSize := running[ScopeLocal]

	return out, index, globalSize, instanceSize, pushConstantSize, globalTex, instanceTex
}

func atoiScope(s string) int {
	switch s {
	case "0":
		return 0
	case "1":
		return 1
	default:
		return 2
	}
}

func alignUp(v, alignment uint32) uint32 {
	if alignment == 0 {
		return v
	}
	rem := v % alignment
	if rem == 0 {
		return v
	}
	return v + (alignment - rem)
}
