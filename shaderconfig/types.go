// Package shaderconfig implements the C8 shader-config parser: a
// line-oriented, key=value text format describing a shader's stages,
// vertex attributes, and uniforms, plus the deterministic layout computer
// that turns a parsed Config into byte offsets, strides, and descriptor
// locations under std140-like packing rules.
//
// Grounded on the teacher's shader/pre_processor.go line-scan-with-line-
// numbers loop and shader/annotations.go's parseAnnotation validation
// style, generalized from WGSL @oxy: annotations to this format's plain
// key=value lines.
package shaderconfig

const (
	// ShaderNameMaxLength bounds the `name` value.
	ShaderNameMaxLength = 256
	// MaxAttributes bounds the number of `attribute` lines.
	MaxAttributes = 32
	// MaxUniforms bounds the number of `uniform` lines.
	MaxUniforms = 64
	// MaxLineLength bounds a single line's length.
	MaxLineLength = 4096
	// MaxKeyLength bounds a key token's length.
	MaxKeyLength = 128
	// MaxValueLength bounds a value token's length.
	MaxValueLength = 512
	// UBOAlignment is the required alignment for UBO strides.
	UBOAlignment = 256

	// BuiltinRenderpassWorld is the default target pass for 3D shaders.
	BuiltinRenderpassWorld = "Renderpass.Builtin.World"
	// BuiltinRenderpassUI is the default target pass for 2D shaders.
	BuiltinRenderpassUI = "Renderpass.Builtin.UI"
)

// StageKind identifies a shader stage.
type StageKind int

const (
	StageVertex StageKind = iota
	StageFragment
)

func (k StageKind) String() string {
	switch k {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// AttributeType is a vertex attribute's scalar/vector type.
type AttributeType int

const (
	AttrVec2 AttributeType = iota
	AttrVec3
	AttrVec4
)

// Size returns the attribute type's size in bytes.
func (t AttributeType) Size() uint32 {
	switch t {
	case AttrVec2:
		return 8
	case AttrVec3:
		return 12
	case AttrVec4:
		return 16
	default:
		return 0
	}
}

func (t AttributeType) String() string {
	switch t {
	case AttrVec2:
		return "vec2"
	case AttrVec3:
		return "vec3"
	case AttrVec4:
		return "vec4"
	default:
		return "unknown"
	}
}

// UniformType is a uniform's scalar/vector/matrix/resource type.
type UniformType int

const (
	UniformVec2 UniformType = iota
	UniformVec3
	UniformVec4
	UniformMat4
	UniformInt32
	UniformUint32
	UniformFloat
	UniformSampler
)

// Size returns the uniform type's size in bytes (0 for samplers, which
// occupy a descriptor slot rather than UBO bytes).
func (t UniformType) Size() uint32 {
	switch t {
	case UniformVec2:
		return 8
	case UniformVec3:
		return 12
	case UniformVec4:
		return 16
	case UniformMat4:
		return 64
	case UniformInt32, UniformUint32, UniformFloat:
		return 4
	case UniformSampler:
		return 0
	default:
		return 0
	}
}

// std140Alignment returns the alignment in bytes required before this
// uniform's offset, per the format's std140-like packing rule.
func (t UniformType) std140Alignment() uint32 {
	switch t {
	case UniformMat4, UniformVec4:
		return 16
	case UniformVec3:
		return 4
	case UniformVec2:
		return 4
	default:
		return 4
	}
}

func (t UniformType) String() string {
	switch t {
	case UniformVec2:
		return "vec2"
	case UniformVec3:
		return "vec3"
	case UniformVec4:
		return "vec4"
	case UniformMat4:
		return "mat4"
	case UniformInt32:
		return "int32"
	case UniformUint32:
		return "uint32"
	case UniformFloat:
		return "float"
	case UniformSampler:
		return "samp"
	default:
		return "unknown"
	}
}

// UniformScope controls how often a uniform's backing storage updates.
type UniformScope int

const (
	ScopeGlobal UniformScope = iota
	ScopeInstance
	ScopeLocal
)

// VertexType is the canonical vertex layout selected from the declared
// attributes and target render pass.
type VertexType int

const (
	VertexType3D VertexType = iota
	VertexType2DText
	VertexType2DPlain
)

// CullMode is the rasterizer cull mode.
type CullMode int

const (
	CullBack CullMode = iota
	CullNone
	CullFront
	CullFrontAndBack
)

func cullModeFromString(s string) (CullMode, bool) {
	switch s {
	case "none":
		return CullNone, true
	case "front":
		return CullFront, true
	case "back":
		return CullBack, true
	case "front_and_back":
		return CullFrontAndBack, true
	default:
		return CullBack, false
	}
}

// Stage is one parsed `stages` entry with its associated entry point and
// (once stagefiles is parsed) source filename.
type Stage struct {
	Kind       StageKind
	EntryPoint string
	Filename   string
}

// Attribute is a single vertex attribute after layout computation.
type Attribute struct {
	Name     string
	Type     AttributeType
	Location uint32
	Offset   uint32
	Size     uint32
}

// Uniform is a single uniform after layout computation.
type Uniform struct {
	Name     string
	Type     UniformType
	Scope    UniformScope
	Location uint32
	Offset   uint32
	Size     uint32
}

// Config is the fully parsed and laid-out shader configuration: the C8
// parser's output, consumed by the pipeline subsystem (C7/C10).
type Config struct {
	Name           string
	RenderpassName string
	Stages         []Stage
	Attributes     []Attribute
	Uniforms       []Uniform

	VertexType     VertexType
	AttributeStride uint32

	GlobalUBOSize     uint32
	GlobalUBOStride   uint32
	InstanceUBOSize   uint32
	InstanceUBOStride uint32
	PushConstantSize   uint32
	PushConstantStride uint32

	GlobalTextureCount   int
	InstanceTextureCount int

	CullMode    CullMode
	UseInstance bool
	UseLocal    bool

	attributeIndex map[string]int
	uniformIndex   map[string]int
}

// AttributeIndex returns the index of the named attribute and whether it
// was found.
func (c *Config) AttributeIndex(name string) (int, bool) {
	i, ok := c.attributeIndex[name]
	return i, ok
}

// UniformIndex returns the index of the named uniform and whether it was
// found.
func (c *Config) UniformIndex(name string) (int, bool) {
	i, ok := c.uniformIndex[name]
	return i, ok
}
