package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
	"github.com/Panbok/vulkan-renderer-sub009/common"
	"github.com/Panbok/vulkan-renderer-sub009/resource/buffer"
	"github.com/Panbok/vulkan-renderer-sub009/resource/pipeline"
	"github.com/Panbok/vulkan-renderer-sub009/resource/texture"
)

// bufferSlot, textureSlot, pipelineSlot hold one live resource plus the
// generation counter backing its handle, mirroring the free-list reuse
// scheme backend.Handle assumes (index stable across reuse, generation
// bumped so a stale handle is detectable).
type bufferSlot struct {
	inUse      bool
	generation uint32
	buf        *buffer.Buffer
}

type textureSlot struct {
	inUse      bool
	generation uint32
	tex        *texture.Texture
}

type pipelineSlot struct {
	inUse      bool
	generation uint32
	pipe        *pipeline.GraphicsPipeline
	globalBuf   *buffer.Buffer
	instanceBuf *buffer.Buffer // shared, fixed-stride instance UBO storage

	// lastInstance is the most recently acquired instance-state handle
	// for this pipeline. update_instance_state/pipeline_update_state
	// name only a pipeline, not an instance-state handle, so they always
	// target whichever instance slot the caller most recently acquired.
	lastInstance backend.InstanceStateHandle
}

// resourceTables owns every live buffer/texture/pipeline slot, keyed by
// handle index with free-list reuse.
type resourceTables struct {
	buffers       []bufferSlot
	buffersFree   []uint32
	textures      []textureSlot
	texturesFree  []uint32
	pipelines     []pipelineSlot
	pipelinesFree []uint32

	boundVertexBuffer vk.Buffer
	boundIndexBuffer  vk.Buffer
	activePipeline    *pipeline.GraphicsPipeline
}

func newResourceTables() resourceTables { return resourceTables{} }

func (b *Backend) transferContext() *texture.TransferContext {
	return &texture.TransferContext{
		Device: b.device, PhysicalDevice: b.physicalDevice,
		CommandPool: b.commandPool, Queue: b.graphicsQueue, Allocator: nil,
	}
}

// allocBufferSlot reserves a buffer slot (from the free list, else
// appending a fresh one), bumps its generation, and returns the handle
// indices.
func (t *resourceTables) allocBufferSlot() (index, generation uint32) {
	if n := len(t.buffersFree); n > 0 {
		index = t.buffersFree[n-1]
		t.buffersFree = t.buffersFree[:n-1]
	} else {
		index = uint32(len(t.buffers))
		t.buffers = append(t.buffers, bufferSlot{})
	}
	slot := &t.buffers[index]
	slot.inUse = true
	slot.generation++
	return index, slot.generation
}

func (t *resourceTables) allocTextureSlot() (index, generation uint32) {
	if n := len(t.texturesFree); n > 0 {
		index = t.texturesFree[n-1]
		t.texturesFree = t.texturesFree[:n-1]
	} else {
		index = uint32(len(t.textures))
		t.textures = append(t.textures, textureSlot{})
	}
	slot := &t.textures[index]
	slot.inUse = true
	slot.generation++
	return index, slot.generation
}

func (t *resourceTables) allocPipelineSlot() (index, generation uint32) {
	if n := len(t.pipelinesFree); n > 0 {
		index = t.pipelinesFree[n-1]
		t.pipelinesFree = t.pipelinesFree[:n-1]
	} else {
		index = uint32(len(t.pipelines))
		t.pipelines = append(t.pipelines, pipelineSlot{})
	}
	slot := &t.pipelines[index]
	slot.inUse = true
	slot.generation++
	return index, slot.generation
}

// CreateBuffer implements backend.Backend.
func (b *Backend) CreateBuffer(description backend.BufferDescription, initialData []byte) (backend.BufferHandle, error) {
	buf, err := buffer.Create(b.device, b.physicalDevice, nil, description, initialData)
	if err != nil {
		return backend.InvalidBufferHandle, err
	}

	index, generation := b.resources.allocBufferSlot()
	b.resources.buffers[index].buf = buf
	buf.Handle = backend.BufferHandle{Handle: backend.NewHandle(index, generation)}
	return buf.Handle, nil
}

// UpdateBuffer implements backend.Backend: an in-place write into the
// buffer's persistently mapped HOST_VISIBLE memory.
func (b *Backend) UpdateBuffer(h backend.BufferHandle, offset, size uint64, data []byte) error {
	slot, err := b.resolveBuffer(h)
	if err != nil {
		return err
	}
	return slot.buf.WriteAt(offset, data[:size])
}

// UploadBuffer implements backend.Backend: stages data through a
// temporary HOST_VISIBLE|HOST_COHERENT buffer and a one-shot transfer
// to the target's device memory, for DEVICE_LOCAL-only destinations
// UpdateBuffer cannot write directly.
func (b *Backend) UploadBuffer(h backend.BufferHandle, offset, size uint64, data []byte) error {
	slot, err := b.resolveBuffer(h)
	if err != nil {
		return err
	}

	staging, err := buffer.Create(b.device, b.physicalDevice, nil, backend.BufferDescription{
		Size:             size,
		Usage:            backend.BufferUsageTransferSrc,
		MemoryProperties: backend.MemoryPropertyHostVisible | backend.MemoryPropertyHostCoherent,
	}, data[:size])
	if err != nil {
		return fmt.Errorf("UploadBuffer: staging buffer: %w", err)
	}
	defer buffer.Destroy(b.device, nil, staging)

	cmd, err := b.beginOneShot()
	if err != nil {
		return err
	}
	region := vk.BufferCopy{SrcOffset: 0, DstOffset: vk.DeviceSize(offset), Size: vk.DeviceSize(size)}
	vk.CmdCopyBuffer(cmd, staging.VkBuffer(), slot.buf.VkBuffer(), 1, []vk.BufferCopy{region})
	return b.endOneShot(cmd)
}

func (b *Backend) beginOneShot() (vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType: vk.StructureTypeCommandBufferAllocateInfo, Level: vk.CommandBufferLevelPrimary,
		CommandPool: b.commandPool, CommandBufferCount: 1,
	}
	cmds := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(b.device, &allocInfo, cmds); res != vk.Success {
		return nil, fmt.Errorf("vkAllocateCommandBuffers (one-shot) failed: %d", res)
	}
	beginInfo := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo, Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)}
	if res := vk.BeginCommandBuffer(cmds[0], &beginInfo); res != vk.Success {
		return nil, fmt.Errorf("vkBeginCommandBuffer (one-shot) failed: %d", res)
	}
	return cmds[0], nil
}

func (b *Backend) endOneShot(cmd vk.CommandBuffer) error {
	if res := vk.EndCommandBuffer(cmd); res != vk.Success {
		return fmt.Errorf("vkEndCommandBuffer (one-shot) failed: %d", res)
	}
	cmds := []vk.CommandBuffer{cmd}
	submitInfo := vk.SubmitInfo{SType: vk.StructureTypeSubmitInfo, CommandBufferCount: 1, PCommandBuffers: cmds}
	if res := vk.QueueSubmit(b.graphicsQueue, 1, []vk.SubmitInfo{submitInfo}, nil); res != vk.Success {
		return fmt.Errorf("vkQueueSubmit (one-shot) failed: %d", res)
	}
	if res := vk.QueueWaitIdle(b.graphicsQueue); res != vk.Success {
		return fmt.Errorf("vkQueueWaitIdle (one-shot) failed: %d", res)
	}
	vk.FreeCommandBuffers(b.device, b.commandPool, 1, cmds)
	return nil
}

// DestroyBuffer implements backend.Backend.
func (b *Backend) DestroyBuffer(h backend.BufferHandle) {
	slot, err := b.resolveBuffer(h)
	if err != nil {
		return
	}
	buffer.Destroy(b.device, nil, slot.buf)
	freeSlot(&b.resources.buffersFree, h.Index)
	slot.inUse = false
	slot.buf = nil
}

// BindVertexBuffer implements backend.Backend.
func (b *Backend) BindVertexBuffer(h backend.BufferHandle, offset uint64) {
	slot, err := b.resolveBuffer(h)
	if err != nil {
		return
	}
	cmd := b.commandBuffers[b.currentImageIndex]
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{slot.buf.VkBuffer()}, []vk.DeviceSize{vk.DeviceSize(offset)})
	b.resources.boundVertexBuffer = slot.buf.VkBuffer()
}

// BindIndexBuffer implements backend.Backend.
func (b *Backend) BindIndexBuffer(h backend.BufferHandle, offset uint64) {
	slot, err := b.resolveBuffer(h)
	if err != nil {
		return
	}
	cmd := b.commandBuffers[b.currentImageIndex]
	vk.CmdBindIndexBuffer(cmd, slot.buf.VkBuffer(), vk.DeviceSize(offset), vk.IndexTypeUint32)
	b.resources.boundIndexBuffer = slot.buf.VkBuffer()
}

func (b *Backend) resolveBuffer(h backend.BufferHandle) (*bufferSlot, error) {
	if !h.IsValid() || int(h.Index) >= len(b.resources.buffers) {
		return nil, fmt.Errorf("vulkan: invalid buffer handle %+v", h)
	}
	slot := &b.resources.buffers[h.Index]
	if !slot.inUse || slot.generation != h.Generation {
		return nil, fmt.Errorf("vulkan: stale buffer handle %+v", h)
	}
	return slot, nil
}

// CreateTexture implements backend.Backend.
func (b *Backend) CreateTexture(description backend.TextureDescription, initialData []byte) (backend.TextureHandle, error) {
	var staging *common.TextureStagingData
	if initialData != nil {
		staging = &common.TextureStagingData{Width: description.Width, Height: description.Height, Pixels: initialData}
	}
	tex, err := texture.Create(b.transferContext(), description, staging)
	if err != nil {
		return backend.InvalidTextureHandle, err
	}

	index, generation := b.resources.allocTextureSlot()
	b.resources.textures[index].tex = tex
	tex.Handle = backend.TextureHandle{Handle: backend.NewHandle(index, generation)}
	return tex.Handle, nil
}

// UpdateTexture implements backend.Backend: mutates only the texture's
// sampler (wrap/filter/anisotropy); dimensions/format/channels must
// match the existing texture, per texture.UpdateSampler.
func (b *Backend) UpdateTexture(h backend.TextureHandle, description backend.TextureDescription) error {
	slot, err := b.resolveTexture(h)
	if err != nil {
		return err
	}
	return texture.UpdateSampler(b.transferContext(), slot.tex, description)
}

// WriteTexture implements backend.Backend: uploads a full replacement
// of the texture's pixel contents (region is presently whole-texture
// only; sub-region partial writes are not yet exercised by a host).
func (b *Backend) WriteTexture(h backend.TextureHandle, region backend.Region2D, data []byte) error {
	slot, err := b.resolveTexture(h)
	if err != nil {
		return err
	}
	staging := &common.TextureStagingData{Width: region.Width, Height: region.Height, Pixels: data}
	return slot.tex.Write(b.transferContext(), staging)
}

// ResizeTexture implements backend.Backend.
func (b *Backend) ResizeTexture(h backend.TextureHandle, width, height uint32, preserve bool) error {
	slot, err := b.resolveTexture(h)
	if err != nil {
		return err
	}
	fresh, err := texture.Resize(b.transferContext(), slot.tex, width, height, preserve)
	if err != nil {
		return err
	}
	slot.tex = fresh
	return nil
}

// DestroyTexture implements backend.Backend.
func (b *Backend) DestroyTexture(h backend.TextureHandle) {
	slot, err := b.resolveTexture(h)
	if err != nil {
		return
	}
	slot.tex.Destroy(b.device, nil)
	freeSlot(&b.resources.texturesFree, h.Index)
	slot.inUse = false
	slot.tex = nil
}

func (b *Backend) resolveTexture(h backend.TextureHandle) (*textureSlot, error) {
	if !h.IsValid() || int(h.Index) >= len(b.resources.textures) {
		return nil, fmt.Errorf("vulkan: invalid texture handle %+v", h)
	}
	slot := &b.resources.textures[h.Index]
	if !slot.inUse || slot.generation != h.Generation {
		return nil, fmt.Errorf("vulkan: stale texture handle %+v", h)
	}
	return slot, nil
}

const globalUBOUsage = backend.BufferUsageUniform

// CreateGraphicsPipeline implements backend.Backend.
func (b *Backend) CreateGraphicsPipeline(description backend.GraphicsPipelineDescription) (backend.PipelineHandle, error) {
	name, err := passNameForDomain(b.registry, description.Domain)
	if err != nil {
		return backend.InvalidPipelineHandle, err
	}
	pass, ok := b.registry.Get(name)
	if !ok {
		return backend.InvalidPipelineHandle, fmt.Errorf("vulkan: render pass %q not registered", name)
	}

	pipe, err := pipeline.Create(b.device, nil, pass.Handle, b.swapchainExtent, description, uint32(b.cfg.MaxDescriptorInstances))
	if err != nil {
		return backend.InvalidPipelineHandle, err
	}

	var globalBuf *buffer.Buffer
	if description.Config.GlobalUBOSize > 0 {
		globalBuf, err = buffer.Create(b.device, b.physicalDevice, nil, backend.BufferDescription{
			Size:             uint64(description.Config.GlobalUBOSize),
			Usage:            globalUBOUsage,
			MemoryProperties: backend.MemoryPropertyHostVisible | backend.MemoryPropertyHostCoherent,
		}, nil)
		if err != nil {
			pipeline.Destroy(b.device, nil, pipe)
			return backend.InvalidPipelineHandle, err
		}
		if err := pipe.BindGlobalBuffer(b.device, globalBuf.VkBuffer(), uint64(description.Config.GlobalUBOSize)); err != nil {
			buffer.Destroy(b.device, nil, globalBuf)
			pipeline.Destroy(b.device, nil, pipe)
			return backend.InvalidPipelineHandle, err
		}
	}

	var instanceBuf *buffer.Buffer
	if description.Config.InstanceUBOSize > 0 {
		instanceBuf, err = buffer.Create(b.device, b.physicalDevice, nil, backend.BufferDescription{
			Size:             uint64(description.Config.InstanceUBOSize) * uint64(b.cfg.MaxDescriptorInstances),
			Usage:            backend.BufferUsageUniform,
			MemoryProperties: backend.MemoryPropertyHostVisible | backend.MemoryPropertyHostCoherent,
		}, nil)
		if err != nil {
			if globalBuf != nil {
				buffer.Destroy(b.device, nil, globalBuf)
			}
			pipeline.Destroy(b.device, nil, pipe)
			return backend.InvalidPipelineHandle, err
		}
	}

	index, generation := b.resources.allocPipelineSlot()
	b.resources.pipelines[index].pipe = pipe
	b.resources.pipelines[index].globalBuf = globalBuf
	b.resources.pipelines[index].instanceBuf = instanceBuf
	pipe.Handle = backend.PipelineHandle{Handle: backend.NewHandle(index, generation)}
	return pipe.Handle, nil
}

// UpdateGlobalState implements backend.Backend: writes uniform into the
// pipeline's already-bound global UBO, eliding the write if uniform is
// identical to the last value applied (P11).
func (b *Backend) UpdateGlobalState(p backend.PipelineHandle, uniform []byte) error {
	slot, err := b.resolvePipeline(p)
	if err != nil {
		return err
	}
	if slot.globalBuf == nil {
		return fmt.Errorf("vulkan: pipeline %+v declares no global uniform", p)
	}
	if !slot.pipe.ApplyGlobalUniform(uniform) {
		return nil
	}
	return slot.globalBuf.WriteAt(0, uniform)
}

// UpdateInstanceState implements backend.Backend: writes data into the
// most recently acquired instance's UBO range (eliding the write if data
// is identical to the last value applied, per P11) and rewrites material's
// texture bindings into its descriptor set (eliding each unchanged
// texture binding individually, per P11).
func (b *Backend) UpdateInstanceState(p backend.PipelineHandle, data []byte, material backend.MaterialState) error {
	slot, err := b.resolvePipeline(p)
	if err != nil {
		return err
	}
	h := slot.lastInstance
	if !h.IsValid() {
		return fmt.Errorf("vulkan: pipeline %+v has no acquired instance state", p)
	}

	var uboOffset, uboSize uint64
	if slot.instanceBuf != nil && data != nil {
		uboSize = uint64(slot.pipe.Config.InstanceUBOSize)
		uboOffset = uint64(h.Index) * uboSize
		changed, err := slot.pipe.ApplyInstanceUniform(h, data)
		if err != nil {
			return err
		}
		if changed {
			if err := slot.instanceBuf.WriteAt(uboOffset, data); err != nil {
				return err
			}
		}
	}

	views := make([]vk.ImageView, len(material.Textures))
	samplers := make([]vk.Sampler, len(material.Textures))
	for i, th := range material.Textures {
		texSlot, err := b.resolveTexture(th)
		if err != nil {
			return err
		}
		views[i] = texSlot.tex.View
		samplers[i] = texSlot.tex.Sampler
	}

	var instanceVkBuf vk.Buffer
	if slot.instanceBuf != nil {
		instanceVkBuf = slot.instanceBuf.VkBuffer()
	}
	return slot.pipe.UpdateInstanceState(b.device, h, instanceVkBuf, uboOffset, uboSize, material.Textures, views, samplers)
}

// UpdatePipelineState implements backend.Backend: combined global +
// instance + material update in one call, matching pipeline_update_state.
func (b *Backend) UpdatePipelineState(p backend.PipelineHandle, uniform []byte, data []byte, material backend.MaterialState) error {
	if uniform != nil {
		if err := b.UpdateGlobalState(p, uniform); err != nil {
			return err
		}
	}
	return b.UpdateInstanceState(p, data, material)
}

// AcquireInstanceState implements backend.Backend.
func (b *Backend) AcquireInstanceState(p backend.PipelineHandle) (backend.InstanceStateHandle, error) {
	slot, err := b.resolvePipeline(p)
	if err != nil {
		return backend.InvalidInstanceStateHandle, err
	}
	h, err := slot.pipe.AcquireInstanceState(b.device)
	if err != nil {
		return backend.InvalidInstanceStateHandle, err
	}
	slot.lastInstance = h
	return h, nil
}

// ReleaseInstanceState implements backend.Backend.
func (b *Backend) ReleaseInstanceState(p backend.PipelineHandle, h backend.InstanceStateHandle) error {
	slot, err := b.resolvePipeline(p)
	if err != nil {
		return err
	}
	return slot.pipe.ReleaseInstanceState(h)
}

// DestroyPipeline implements backend.Backend.
func (b *Backend) DestroyPipeline(h backend.PipelineHandle) {
	slot, err := b.resolvePipeline(h)
	if err != nil {
		return
	}
	b.descriptorWritesAvoided += slot.pipe.GetAndResetDescriptorWritesAvoided()
	pipeline.Destroy(b.device, nil, slot.pipe)
	if slot.globalBuf != nil {
		buffer.Destroy(b.device, nil, slot.globalBuf)
	}
	if slot.instanceBuf != nil {
		buffer.Destroy(b.device, nil, slot.instanceBuf)
	}
	freeSlot(&b.resources.pipelinesFree, h.Index)
	slot.inUse = false
	slot.pipe = nil
	slot.globalBuf = nil
	slot.instanceBuf = nil
	slot.lastInstance = backend.InvalidInstanceStateHandle
}

func (b *Backend) resolvePipeline(h backend.PipelineHandle) (*pipelineSlot, error) {
	if !h.IsValid() || int(h.Index) >= len(b.resources.pipelines) {
		return nil, fmt.Errorf("vulkan: invalid pipeline handle %+v", h)
	}
	slot := &b.resources.pipelines[h.Index]
	if !slot.inUse || slot.generation != h.Generation {
		return nil, fmt.Errorf("vulkan: stale pipeline handle %+v", h)
	}
	return slot, nil
}

// Draw implements backend.Backend.
func (b *Backend) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	cmd := b.commandBuffers[b.currentImageIndex]
	vk.CmdDraw(cmd, vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawIndexed implements backend.Backend.
func (b *Backend) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	cmd := b.commandBuffers[b.currentImageIndex]
	vk.CmdDrawIndexed(cmd, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func freeSlot(free *[]uint32, index uint32) {
	*free = append(*free, index)
}
