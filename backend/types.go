// Package backend defines the GPU backend contract (C9's virtual table)
// and the strongly-typed resource handles that cross it. Grounded on
// oxy-go's renderer_backend.go (BackendType/PresentMode enum shape), with
// the opaque-pointer/function-table pattern the spec's REDESIGN FLAGS
// section calls out replaced by a Go interface plus index+generation
// handle new-types (no raw pointer ever crosses this boundary), following
// the Generation-counter convention spaghettifunk-anima's resource types
// use for reload tracking.
package backend

import "github.com/Panbok/vulkan-renderer-sub009/shaderconfig"

// Type identifies the GPU backend implementation. Extensible; Vulkan is
// the only implemented variant.
type Type int

const (
	// Vulkan selects the Vulkan-based rendering backend.
	Vulkan Type = iota
)

// Domain tags a render pass with its rendering role, driving the
// attachment-derivation table in the render-pass registry.
type Domain int

const (
	DomainWorld Domain = iota
	DomainWorldTransparent
	DomainUI
	DomainShadow
	DomainPost
	DomainCompute
	DomainSkybox
)

func (d Domain) String() string {
	switch d {
	case DomainWorld:
		return "world"
	case DomainWorldTransparent:
		return "world_transparent"
	case DomainUI:
		return "ui"
	case DomainShadow:
		return "shadow"
	case DomainPost:
		return "post"
	case DomainCompute:
		return "compute"
	case DomainSkybox:
		return "skybox"
	default:
		return "unknown"
	}
}

// invalidIndex marks a handle's Index as not referring to any slot.
const invalidIndex = ^uint32(0)

// Handle is the common shape behind every resource handle: an index into
// a backend-owned slot table plus a generation counter, so a stale
// handle from a destroyed-and-reused slot is detectable rather than
// silently aliasing a new resource.
type Handle struct {
	Index      uint32
	Generation uint32
}

// IsValid reports whether Index refers to a slot at all (does not by
// itself guarantee the generation still matches a live resource).
func (h Handle) IsValid() bool { return h.Index != invalidIndex }

// BufferHandle identifies a device buffer created via CreateBuffer.
type BufferHandle struct{ Handle }

// TextureHandle identifies a texture created via CreateTexture.
type TextureHandle struct{ Handle }

// PipelineHandle identifies a graphics pipeline created via
// CreateGraphicsPipeline.
type PipelineHandle struct{ Handle }

// InstanceStateHandle identifies a per-instance descriptor-set slot
// acquired via AcquireInstanceState.
type InstanceStateHandle struct{ Handle }

// NewHandle constructs a resource handle from a slot index and
// generation, for use by backend implementations.
func NewHandle(index, generation uint32) Handle {
	return Handle{Index: index, Generation: generation}
}

// InvalidBufferHandle is the sentinel returned on failure; its Index is
// invalidIndex, not zero.
var InvalidBufferHandle = BufferHandle{Handle{Index: invalidIndex}}

// InvalidTextureHandle is the sentinel returned on failure; its Index is
// invalidIndex, not zero.
var InvalidTextureHandle = TextureHandle{Handle{Index: invalidIndex}}

// InvalidPipelineHandle is the sentinel returned on failure; its Index is
// invalidIndex, not zero.
var InvalidPipelineHandle = PipelineHandle{Handle{Index: invalidIndex}}

// InvalidInstanceStateHandle is the sentinel returned on failure; its
// Index is invalidIndex, not zero.
var InvalidInstanceStateHandle = InstanceStateHandle{Handle{Index: invalidIndex}}

// BufferUsage is a bitset of permitted uses for a buffer.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageIndirect
	BufferUsageTransferSrc
	BufferUsageTransferDst
)

// MemoryProperty is a bitset describing the memory type backing a
// buffer's allocation.
type MemoryProperty uint32

const (
	MemoryPropertyDeviceLocal MemoryProperty = 1 << iota
	MemoryPropertyHostVisible
	MemoryPropertyHostCoherent
)

// BufferDescription describes a buffer to create.
type BufferDescription struct {
	Size             uint64
	Usage            BufferUsage
	MemoryProperties MemoryProperty
}

// TextureType distinguishes a plain 2D texture from a 6-layer cube map.
type TextureType int

const (
	TextureType2D TextureType = iota
	TextureTypeCube
)

// WrapMode controls sampler addressing behavior at UV edges.
type WrapMode int

const (
	WrapRepeat WrapMode = iota
	WrapClampToEdge
	WrapMirroredRepeat
)

// FilterMode controls sampler minification/magnification filtering.
type FilterMode int

const (
	FilterLinear FilterMode = iota
	FilterNearest
)

// TextureProperty is a bitset of texture behavior flags.
type TextureProperty uint32

const (
	TexturePropertyWritable TextureProperty = 1 << iota
	TexturePropertyHasTransparency
)

// TextureDescription describes a texture to create.
type TextureDescription struct {
	Width, Height  uint32
	Channels       uint32
	Type           TextureType
	WrapU, WrapV   WrapMode
	WrapW          WrapMode
	MinFilter      FilterMode
	MagFilter      FilterMode
	AnisotropyMax  float32
	Properties     TextureProperty
	Generation     uint32
}

// GraphicsPipelineDescription describes a graphics pipeline to create
// from a parsed shader config and a target render-pass domain.
type GraphicsPipelineDescription struct {
	Config *shaderconfig.Config
	Domain Domain
	Wide   bool // viewport matches full swapchain extent (vs a sub-region)
}

// DeviceRequirements constrains device selection (C3): required queue
// families, extensions, and features a candidate physical device must
// support to be eligible.
type DeviceRequirements struct {
	RequireGraphicsQueue bool
	RequirePresentQueue  bool
	RequireTransferQueue bool
	DiscreteGPUPreferred bool
	RequiredExtensions   []string
	SamplerAnisotropy    bool
}

// DeviceInformation reports the selected physical device's identity,
// useful for logging and diagnostics.
type DeviceInformation struct {
	Name                string
	VendorID            uint32
	DeviceID             uint32
	DriverVersion       uint32
	APIVersion          uint32
	IsDiscreteGPU       bool
}

// IndirectDrawCommand matches the host GPU ABI for an indexed indirect
// draw: VkDrawIndexedIndirectCommand field order.
type IndirectDrawCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	VertexOffset  uint32
	FirstInstance uint32
}
