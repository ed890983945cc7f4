// Package texture implements C7's texture/sampler half: 2D and cube-map
// image creation, mip-chain generation, staged upload, and sampler
// configuration. Image/memory binding grounded on
// NOT-REAL-GAMES-vulkango's CreateImageWithMemory shape
// (image -> memory-requirements -> findMemoryType -> allocate -> bind)
// and mirstar13-3d-graphics's findMemoryType; the transfer path (staging
// buffer -> layout transition -> copy -> mip blit chain -> shader-read
// transition) has no matching pack example and is built fresh against
// standard Vulkan semantics, using resource/buffer for the staging
// buffer itself.
package texture

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
	"github.com/Panbok/vulkan-renderer-sub009/common"
	"github.com/Panbok/vulkan-renderer-sub009/resource/buffer"
)

// ErrDescriptionMismatch is returned by UpdateSampler when the caller's
// description names different dimensions/format/channels than the
// texture was created with; per spec §4.7 only sampler parameters may
// mutate through update_texture.
var ErrDescriptionMismatch = errors.New("texture: description dimensions/format/channels do not match existing texture")

// Texture is a device image plus its view, sampler, and backing memory.
type Texture struct {
	Handle backend.TextureHandle

	Width, Height uint32
	MipLevels     uint32
	Layers        uint32
	Format        vk.Format
	Properties    backend.TextureProperty
	Generation    uint32

	// Description is the description last used to build this texture's
	// sampler, kept so Resize can recreate a sampler with the same wrap/
	// filter/anisotropy settings without the caller re-supplying them
	// (backend.Backend.ResizeTexture carries no description parameter).
	Description backend.TextureDescription

	vkImage  vk.Image
	vkMemory vk.DeviceMemory
	View     vk.ImageView
	Sampler  vk.Sampler
}

// TransferContext bundles the command pool and queue used to record and
// submit the one-shot transfer command buffers that upload texture data.
type TransferContext struct {
	Device        vk.Device
	PhysicalDevice vk.PhysicalDevice
	CommandPool   vk.CommandPool
	Queue         vk.Queue
	Allocator     *vk.AllocationCallbacks
}

func (tc *TransferContext) beginSingleTime() (vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        tc.CommandPool,
		CommandBufferCount: 1,
	}
	cmds := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(tc.Device, &allocInfo, cmds); res != vk.Success {
		return nil, fmt.Errorf("vkAllocateCommandBuffers (transfer) failed: %d", res)
	}
	cmd := cmds[0]

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(cmd, &beginInfo); res != vk.Success {
		return nil, fmt.Errorf("vkBeginCommandBuffer (transfer) failed: %d", res)
	}
	return cmd, nil
}

func (tc *TransferContext) endSingleTime(cmd vk.CommandBuffer) error {
	if res := vk.EndCommandBuffer(cmd); res != vk.Success {
		return fmt.Errorf("vkEndCommandBuffer (transfer) failed: %d", res)
	}
	cmds := []vk.CommandBuffer{cmd}
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    cmds,
	}
	if res := vk.QueueSubmit(tc.Queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		return fmt.Errorf("vkQueueSubmit (transfer) failed: %d", res)
	}
	if res := vk.QueueWaitIdle(tc.Queue); res != vk.Success {
		return fmt.Errorf("vkQueueWaitIdle (transfer) failed: %d", res)
	}
	vk.FreeCommandBuffers(tc.Device, tc.CommandPool, 1, cmds)
	return nil
}

func mipLevelsFor(width, height uint32) uint32 {
	levels := uint32(1)
	dim := width
	if height > dim {
		dim = height
	}
	for dim > 1 {
		dim /= 2
		levels++
	}
	return levels
}

func formatForChannels(channels uint32) vk.Format {
	if channels == 1 {
		return vk.FormatR8Unorm
	}
	return vk.FormatR8g8b8a8Unorm
}

func toVkWrap(w backend.WrapMode) vk.SamplerAddressMode {
	switch w {
	case backend.WrapClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case backend.WrapMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	default:
		return vk.SamplerAddressModeRepeat
	}
}

// layersForType reports the array-layer count a texture's image, view,
// and upload size must use: 6 for a cube map's faces, 1 otherwise.
func layersForType(t backend.TextureType) uint32 {
	if t == backend.TextureTypeCube {
		return 6
	}
	return 1
}

func toVkFilter(f backend.FilterMode) vk.Filter {
	if f == backend.FilterNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

// Create builds a device texture (2D or cube map per description.Type),
// generates a full mip chain from staging, and leaves the image in
// SHADER_READ_ONLY_OPTIMAL layout, bound to a sampler built from
// description's wrap/filter/anisotropy settings.
func Create(tc *TransferContext, description backend.TextureDescription, staging *common.TextureStagingData) (*Texture, error) {
	layers := layersForType(description.Type)
	var createFlags vk.ImageCreateFlagBits
	if description.Type == backend.TextureTypeCube {
		createFlags = vk.ImageCreateCubeCompatibleBit
	}

	format := formatForChannels(description.Channels)
	mipLevels := mipLevelsFor(description.Width, description.Height)

	img, mem, err := createImageWithMemory(tc, description.Width, description.Height, layers, mipLevels, format, createFlags,
		vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit|vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit))
	if err != nil {
		return nil, err
	}

	properties := description.Properties
	if description.Channels == 4 {
		properties |= backend.TexturePropertyHasTransparency
	}

	tex := &Texture{
		Width: description.Width, Height: description.Height,
		MipLevels: mipLevels, Layers: layers, Format: format,
		Properties:  properties,
		Generation:  1,
		Description: description,
		vkImage:     img, vkMemory: mem,
	}

	if staging != nil {
		if err := tex.upload(tc, staging); err != nil {
			tex.Destroy(tc.Device, tc.Allocator)
			return nil, err
		}
	} else if err := tex.transitionLayout(tc, vk.ImageLayoutUndefined, vk.ImageLayoutShaderReadOnlyOptimal, 0, mipLevels); err != nil {
		tex.Destroy(tc.Device, tc.Allocator)
		return nil, err
	}

	view, err := createImageView(tc.Device, img, format, layers, mipLevels)
	if err != nil {
		tex.Destroy(tc.Device, tc.Allocator)
		return nil, err
	}
	tex.View = view

	sampler, err := createSampler(tc.Device, description)
	if err != nil {
		tex.Destroy(tc.Device, tc.Allocator)
		return nil, err
	}
	tex.Sampler = sampler

	return tex, nil
}

// Write replaces the texture's pixel contents in place and regenerates
// its mip chain; the image dimensions and format are unchanged.
func (t *Texture) Write(tc *TransferContext, staging *common.TextureStagingData) error {
	return t.upload(tc, staging)
}

func (t *Texture) upload(tc *TransferContext, staging *common.TextureStagingData) error {
	layerSize := uint64(staging.Width) * uint64(staging.Height) * 4
	total := layerSize * uint64(t.Layers)

	stagingBuf, err := buffer.Create(tc.Device, tc.PhysicalDevice, tc.Allocator, backend.BufferDescription{
		Size:             total,
		Usage:            backend.BufferUsageTransferSrc,
		MemoryProperties: backend.MemoryPropertyHostVisible | backend.MemoryPropertyHostCoherent,
	}, staging.Pixels)
	if err != nil {
		return fmt.Errorf("texture upload: staging buffer: %w", err)
	}
	defer buffer.Destroy(tc.Device, tc.Allocator, stagingBuf)

	if err := t.transitionLayout(tc, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal, 0, t.MipLevels); err != nil {
		return err
	}
	if err := t.copyBufferToImage(tc, stagingBuf.VkBuffer()); err != nil {
		return err
	}
	if t.MipLevels > 1 {
		if err := t.generateMips(tc); err != nil {
			return err
		}
	} else if err := t.transitionLayout(tc, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal, 0, t.MipLevels); err != nil {
		return err
	}
	return nil
}

func createImageWithMemory(tc *TransferContext, width, height, layers, mipLevels uint32, format vk.Format, flags vk.ImageCreateFlagBits, usage vk.ImageUsageFlags) (vk.Image, vk.DeviceMemory, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		Flags:     vk.ImageCreateFlags(flags),
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent:    vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels:     mipLevels,
		ArrayLayers:   layers,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var img vk.Image
	if res := vk.CreateImage(tc.Device, &createInfo, tc.Allocator, &img); res != vk.Success {
		return nil, nil, fmt.Errorf("vkCreateImage failed: %d", res)
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(tc.Device, img, &memReqs)
	memReqs.Deref()

	memType, err := findImageMemoryType(tc.PhysicalDevice, memReqs.MemoryTypeBits, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(tc.Device, img, tc.Allocator)
		return nil, nil, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(tc.Device, &allocInfo, tc.Allocator, &mem); res != vk.Success {
		vk.DestroyImage(tc.Device, img, tc.Allocator)
		return nil, nil, fmt.Errorf("vkAllocateMemory (image) failed: %d", res)
	}
	if res := vk.BindImageMemory(tc.Device, img, mem, 0); res != vk.Success {
		vk.FreeMemory(tc.Device, mem, tc.Allocator)
		vk.DestroyImage(tc.Device, img, tc.Allocator)
		return nil, nil, fmt.Errorf("vkBindImageMemory failed: %d", res)
	}
	return img, mem, nil
}

func findImageMemoryType(physicalDevice vk.PhysicalDevice, typeFilter uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(physicalDevice, &memProperties)
	memProperties.Deref()

	for i := uint32(0); i < memProperties.MemoryTypeCount; i++ {
		memProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && vk.MemoryPropertyFlagBits(memProperties.MemoryTypes[i].PropertyFlags)&properties == properties {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no suitable memory type for image filter=%#x properties=%v", typeFilter, properties)
}

func createImageView(device vk.Device, img vk.Image, format vk.Format, layers, mipLevels uint32) (vk.ImageView, error) {
	viewType := vk.ImageViewType2d
	if layers == 6 {
		viewType = vk.ImageViewTypeCube
	}
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: viewType,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     layers,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(device, &createInfo, nil, &view); res != vk.Success {
		return nil, fmt.Errorf("vkCreateImageView (texture) failed: %d", res)
	}
	return view, nil
}

func createSampler(device vk.Device, description backend.TextureDescription) (vk.Sampler, error) {
	anisotropyEnable := vk.False
	if description.AnisotropyMax > 1.0 {
		anisotropyEnable = vk.True
	}
	createInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               toVkFilter(description.MagFilter),
		MinFilter:               toVkFilter(description.MinFilter),
		AddressModeU:            toVkWrap(description.WrapU),
		AddressModeV:            toVkWrap(description.WrapV),
		AddressModeW:            toVkWrap(description.WrapW),
		AnisotropyEnable:        vk.Bool32(anisotropyEnable),
		MaxAnisotropy:           description.AnisotropyMax,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MinLod:                  0,
		MaxLod:                  float32(mipLevelsFor(description.Width, description.Height)),
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(device, &createInfo, nil, &sampler); res != vk.Success {
		return nil, fmt.Errorf("vkCreateSampler failed: %d", res)
	}
	return sampler, nil
}

func (t *Texture) transitionLayout(tc *TransferContext, oldLayout, newLayout vk.ImageLayout, baseMip, levelCount uint32) error {
	cmd, err := tc.beginSingleTime()
	if err != nil {
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               t.vkImage,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   baseMip,
			LevelCount:     levelCount,
			BaseArrayLayer: 0,
			LayerCount:     t.Layers,
		},
	}

	var srcStage, dstStage vk.PipelineStageFlagBits
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage, dstStage = vk.PipelineStageTopOfPipeBit, vk.PipelineStageTransferBit
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage, dstStage = vk.PipelineStageTransferBit, vk.PipelineStageFragmentShaderBit
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage, dstStage = vk.PipelineStageTopOfPipeBit, vk.PipelineStageFragmentShaderBit
	default:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		srcStage, dstStage = vk.PipelineStageTransferBit, vk.PipelineStageTransferBit
	}

	vk.CmdPipelineBarrier(cmd, vk.PipelineStageFlags(srcStage), vk.PipelineStageFlags(dstStage), 0,
		0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

	return tc.endSingleTime(cmd)
}

func (t *Texture) copyBufferToImage(tc *TransferContext, src vk.Buffer) error {
	cmd, err := tc.beginSingleTime()
	if err != nil {
		return err
	}

	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     t.Layers,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: t.Width, Height: t.Height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(cmd, src, t.vkImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})

	return tc.endSingleTime(cmd)
}

// generateMips blits each mip level down from the one above it, leaving
// every level in SHADER_READ_ONLY_OPTIMAL on completion.
func (t *Texture) generateMips(tc *TransferContext) error {
	cmd, err := tc.beginSingleTime()
	if err != nil {
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		Image:                t.vkImage,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseArrayLayer: 0,
			LayerCount:     t.Layers,
			LevelCount:     1,
		},
	}

	mipWidth, mipHeight := int32(t.Width), int32(t.Height)
	for i := uint32(1); i < t.MipLevels; i++ {
		barrier.SubresourceRange.BaseMipLevel = i - 1
		barrier.OldLayout = vk.ImageLayoutTransferDstOptimal
		barrier.NewLayout = vk.ImageLayoutTransferSrcOptimal
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		vk.CmdPipelineBarrier(cmd, vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

		nextWidth, nextHeight := mipWidth, mipHeight
		if nextWidth > 1 {
			nextWidth /= 2
		}
		if nextHeight > 1 {
			nextHeight /= 2
		}

		blit := vk.ImageBlit{
			SrcOffsets: [2]vk.Offset3D{{X: 0, Y: 0, Z: 0}, {X: mipWidth, Y: mipHeight, Z: 1}},
			SrcSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipLevel: i - 1, BaseArrayLayer: 0, LayerCount: t.Layers,
			},
			DstOffsets: [2]vk.Offset3D{{X: 0, Y: 0, Z: 0}, {X: nextWidth, Y: nextHeight, Z: 1}},
			DstSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipLevel: i, BaseArrayLayer: 0, LayerCount: t.Layers,
			},
		}
		vk.CmdBlitImage(cmd, t.vkImage, vk.ImageLayoutTransferSrcOptimal, t.vkImage, vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageBlit{blit}, vk.FilterLinear)

		barrier.OldLayout = vk.ImageLayoutTransferSrcOptimal
		barrier.NewLayout = vk.ImageLayoutShaderReadOnlyOptimal
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		vk.CmdPipelineBarrier(cmd, vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

		mipWidth, mipHeight = nextWidth, nextHeight
	}

	barrier.SubresourceRange.BaseMipLevel = t.MipLevels - 1
	barrier.OldLayout = vk.ImageLayoutTransferDstOptimal
	barrier.NewLayout = vk.ImageLayoutShaderReadOnlyOptimal
	barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
	barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
	vk.CmdPipelineBarrier(cmd, vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

	return tc.endSingleTime(cmd)
}

// UpdateSampler implements update_texture: only wrap/filter/anisotropy
// mutate. description's dimensions/format/channels must match t's,
// otherwise ErrDescriptionMismatch (the image, view, and pixel contents
// are never touched). The old sampler is destroyed only after a
// queue-idle wait, so in-flight draws reading it cannot race the swap.
func UpdateSampler(tc *TransferContext, t *Texture, description backend.TextureDescription) error {
	if description.Width != t.Width || description.Height != t.Height || formatForChannels(description.Channels) != t.Format ||
		description.Channels != t.Description.Channels {
		return ErrDescriptionMismatch
	}

	sampler, err := createSampler(tc.Device, description)
	if err != nil {
		return err
	}

	if res := vk.QueueWaitIdle(tc.Queue); res != vk.Success {
		vk.DestroySampler(tc.Device, sampler, nil)
		return fmt.Errorf("texture update: vkQueueWaitIdle failed: %d", res)
	}

	if t.Sampler != nil {
		vk.DestroySampler(tc.Device, t.Sampler, nil)
	}
	t.Sampler = sampler
	t.Description = description
	return nil
}

// Resize implements resize_texture: allocates a new image at the new
// dimensions (same format/layer count as t), optionally preserving t's
// contents by blitting (or copying, when the format can't filter-blit)
// into the new image, then builds a fresh sampler from t's stored
// description, swaps t's handle onto the result, and destroys the old
// image/sampler under a queue-idle wait.
func Resize(tc *TransferContext, t *Texture, width, height uint32, preserve bool) (*Texture, error) {
	mipLevels := mipLevelsFor(width, height)

	var createFlags vk.ImageCreateFlagBits
	if t.Layers == 6 {
		createFlags = vk.ImageCreateCubeCompatibleBit
	}

	img, mem, err := createImageWithMemory(tc, width, height, t.Layers, mipLevels, t.Format, createFlags,
		vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit|vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit))
	if err != nil {
		return nil, err
	}

	fresh := &Texture{
		Width: width, Height: height,
		MipLevels: mipLevels, Layers: t.Layers, Format: t.Format,
		Properties:  t.Properties,
		Generation:  t.Generation + 1,
		Description: t.Description,
		vkImage:     img, vkMemory: mem,
	}
	fresh.Description.Width, fresh.Description.Height = width, height

	if preserve {
		if err := fresh.preserveFrom(tc, t); err != nil {
			fresh.Destroy(tc.Device, tc.Allocator)
			return nil, err
		}
	} else if err := fresh.transitionLayout(tc, vk.ImageLayoutUndefined, vk.ImageLayoutShaderReadOnlyOptimal, 0, mipLevels); err != nil {
		fresh.Destroy(tc.Device, tc.Allocator)
		return nil, err
	}

	view, err := createImageView(tc.Device, img, t.Format, t.Layers, mipLevels)
	if err != nil {
		fresh.Destroy(tc.Device, tc.Allocator)
		return nil, err
	}
	fresh.View = view

	sampler, err := createSampler(tc.Device, fresh.Description)
	if err != nil {
		fresh.Destroy(tc.Device, tc.Allocator)
		return nil, err
	}
	fresh.Sampler = sampler

	if res := vk.QueueWaitIdle(tc.Queue); res != vk.Success {
		fresh.Destroy(tc.Device, tc.Allocator)
		return nil, fmt.Errorf("texture resize: vkQueueWaitIdle failed: %d", res)
	}

	fresh.Handle = t.Handle
	t.Destroy(tc.Device, tc.Allocator)
	return fresh, nil
}

// preserveFrom blits (or copies, when the format can't filter-blit) t's
// predecessor's mip-0 contents into t, scaled to t's dimensions, then
// regenerates t's mip chain from the result. t must be freshly created
// (UNDEFINED layout); old's mip 0 is left in TRANSFER_SRC_OPTIMAL, which
// is fine for Resize since it destroys old right afterwards.
func (t *Texture) preserveFrom(tc *TransferContext, old *Texture) error {
	if err := old.transitionLayout(tc, vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferSrcOptimal, 0, 1); err != nil {
		return err
	}
	if err := t.transitionLayout(tc, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal, 0, 1); err != nil {
		return err
	}

	cmd, err := tc.beginSingleTime()
	if err != nil {
		return err
	}

	if supportsLinearBlit(tc.PhysicalDevice, t.Format) {
		blit := vk.ImageBlit{
			SrcOffsets: [2]vk.Offset3D{{X: 0, Y: 0, Z: 0}, {X: int32(old.Width), Y: int32(old.Height), Z: 1}},
			SrcSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipLevel: 0, BaseArrayLayer: 0, LayerCount: old.Layers,
			},
			DstOffsets: [2]vk.Offset3D{{X: 0, Y: 0, Z: 0}, {X: int32(t.Width), Y: int32(t.Height), Z: 1}},
			DstSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipLevel: 0, BaseArrayLayer: 0, LayerCount: t.Layers,
			},
		}
		vk.CmdBlitImage(cmd, old.vkImage, vk.ImageLayoutTransferSrcOptimal, t.vkImage, vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageBlit{blit}, vk.FilterLinear)
	} else {
		w, h := old.Width, old.Height
		if t.Width < w {
			w = t.Width
		}
		if t.Height < h {
			h = t.Height
		}
		region := vk.ImageCopy{
			SrcSubresource: vk.ImageSubresourceLayers{AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipLevel: 0, BaseArrayLayer: 0, LayerCount: old.Layers},
			DstSubresource: vk.ImageSubresourceLayers{AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipLevel: 0, BaseArrayLayer: 0, LayerCount: t.Layers},
			Extent:         vk.Extent3D{Width: w, Height: h, Depth: 1},
		}
		vk.CmdCopyImage(cmd, old.vkImage, vk.ImageLayoutTransferSrcOptimal, t.vkImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.ImageCopy{region})
	}

	if err := tc.endSingleTime(cmd); err != nil {
		return err
	}

	if t.MipLevels > 1 {
		return t.generateMips(tc)
	}
	return t.transitionLayout(tc, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal, 0, 1)
}

// supportsLinearBlit reports whether format's optimal tiling supports a
// linear-filtered blit as a source/destination, per the device's format
// properties; Resize falls back to a non-scaling copy when it doesn't.
func supportsLinearBlit(physicalDevice vk.PhysicalDevice, format vk.Format) bool {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(physicalDevice, format, &props)
	props.Deref()
	return vk.FormatFeatureFlagBits(props.OptimalTilingFeatures)&vk.FormatFeatureSampledImageFilterLinearBit != 0
}

// Destroy releases the sampler, view, image, and backing memory.
func (t *Texture) Destroy(device vk.Device, allocator *vk.AllocationCallbacks) {
	if t == nil {
		return
	}
	if t.Sampler != nil {
		vk.DestroySampler(device, t.Sampler, nil)
		t.Sampler = nil
	}
	if t.View != nil {
		vk.DestroyImageView(device, t.View, nil)
		t.View = nil
	}
	if t.vkMemory != nil {
		vk.FreeMemory(device, t.vkMemory, allocator)
		t.vkMemory = nil
	}
	if t.vkImage != nil {
		vk.DestroyImage(device, t.vkImage, allocator)
		t.vkImage = nil
	}
}
