// Package buffer implements C7/C10: device buffer creation and writes
// into persistently mapped host-visible memory, with an embedded offset
// sub-allocator per buffer. It has no typed vertex/index/uniform
// wrappers; staged uploads are done by the Vulkan backend. Grounded on
// mirstar13-3d-graphics's memory-type selection (findMemoryType) and
// MapMemory/vk.Memcopy usage, and on oxy-go's bind_group_provider
// buffer-map-keyed-by-binding shape, generalized to the spec's
// bump+free-list sub-allocator (§3 Buffer data model) since no pack
// example implements one.
package buffer

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
)

// Buffer is a device buffer plus its backing memory and sub-allocator.
type Buffer struct {
	Handle           backend.BufferHandle
	Size             uint64
	Usage            backend.BufferUsage
	MemoryProperties backend.MemoryProperty

	vkBuffer  vk.Buffer
	vkMemory  vk.DeviceMemory
	mappedPtr unsafe.Pointer // non-nil when HOST_VISIBLE and persistently mapped
	allocator *SubAllocator
}

// VkBuffer exposes the underlying vk.Buffer for command recording
// (vkCmdBindVertexBuffers/vkCmdBindIndexBuffer/vkCmdDrawIndexedIndirect).
func (b *Buffer) VkBuffer() vk.Buffer { return b.vkBuffer }

// VkMemory exposes the underlying vk.DeviceMemory, for callers that must
// issue a manual vkFlushMappedMemoryRanges (non-coherent memory tiers).
func (b *Buffer) VkMemory() vk.DeviceMemory { return b.vkMemory }

// Allocator exposes the per-buffer offset sub-allocator so callers can
// carve sub-regions (e.g. per-draw uniform ranges) out of a shared
// buffer.
func (b *Buffer) Allocator() *SubAllocator { return b.allocator }

func toVkUsage(usage backend.BufferUsage) vk.BufferUsageFlagBits {
	var flags vk.BufferUsageFlagBits
	if usage&backend.BufferUsageVertex != 0 {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if usage&backend.BufferUsageIndex != 0 {
		flags |= vk.BufferUsageIndexBufferBit
	}
	if usage&backend.BufferUsageUniform != 0 {
		flags |= vk.BufferUsageUniformBufferBit
	}
	if usage&backend.BufferUsageIndirect != 0 {
		flags |= vk.BufferUsageIndirectBufferBit
	}
	if usage&backend.BufferUsageTransferSrc != 0 {
		flags |= vk.BufferUsageTransferSrcBit
	}
	if usage&backend.BufferUsageTransferDst != 0 {
		flags |= vk.BufferUsageTransferDstBit
	}
	return flags
}

func toVkMemoryProperties(props backend.MemoryProperty) vk.MemoryPropertyFlagBits {
	var flags vk.MemoryPropertyFlagBits
	if props&backend.MemoryPropertyDeviceLocal != 0 {
		flags |= vk.MemoryPropertyDeviceLocalBit
	}
	if props&backend.MemoryPropertyHostVisible != 0 {
		flags |= vk.MemoryPropertyHostVisibleBit
	}
	if props&backend.MemoryPropertyHostCoherent != 0 {
		flags |= vk.MemoryPropertyHostCoherentBit
	}
	return flags
}

// findMemoryType scans the physical device's memory types for the first
// one matching both the buffer's required type bits and the requested
// property flags.
func findMemoryType(physicalDevice vk.PhysicalDevice, typeFilter uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(physicalDevice, &memProperties)
	memProperties.Deref()

	for i := uint32(0); i < memProperties.MemoryTypeCount; i++ {
		memProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && vk.MemoryPropertyFlagBits(memProperties.MemoryTypes[i].PropertyFlags)&properties == properties {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no suitable memory type for filter=%#x properties=%v", typeFilter, properties)
}

// Create allocates a device buffer of description.Size and binds device
// memory matching description.MemoryProperties. If HOST_VISIBLE, the
// memory is persistently mapped for the buffer's lifetime; initialData,
// if non-nil, is copied in immediately (host-visible buffers only —
// device-local buffers are populated via Upload's staging path instead).
func Create(device vk.Device, physicalDevice vk.PhysicalDevice, allocator *vk.AllocationCallbacks, description backend.BufferDescription, initialData []byte) (*Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(description.Size),
		Usage:       vk.BufferUsageFlags(toVkUsage(description.Usage)),
		SharingMode: vk.SharingModeExclusive,
	}

	var vkBuf vk.Buffer
	if res := vk.CreateBuffer(device, &createInfo, allocator, &vkBuf); res != vk.Success {
		return nil, fmt.Errorf("vkCreateBuffer failed: %d", res)
	}

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, vkBuf, &memReqs)
	memReqs.Deref()

	wantProps := toVkMemoryProperties(description.MemoryProperties)
	memType, err := findMemoryType(physicalDevice, memReqs.MemoryTypeBits, wantProps)
	if err != nil {
		// No type carries every requested property. If DEVICE_LOCAL was
		// requested alongside HOST_VISIBLE, retry without DEVICE_LOCAL
		// before failing outright (spec §4.6 step 3).
		bothLocalAndVisible := wantProps&vk.MemoryPropertyDeviceLocalBit != 0 && wantProps&vk.MemoryPropertyHostVisibleBit != 0
		if !bothLocalAndVisible {
			vk.DestroyBuffer(device, vkBuf, allocator)
			return nil, err
		}
		memType, err = findMemoryType(physicalDevice, memReqs.MemoryTypeBits, wantProps&^vk.MemoryPropertyDeviceLocalBit)
		if err != nil {
			vk.DestroyBuffer(device, vkBuf, allocator)
			return nil, err
		}
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}
	var vkMem vk.DeviceMemory
	if res := vk.AllocateMemory(device, &allocInfo, allocator, &vkMem); res != vk.Success {
		vk.DestroyBuffer(device, vkBuf, allocator)
		return nil, fmt.Errorf("vkAllocateMemory failed: %d", res)
	}

	if res := vk.BindBufferMemory(device, vkBuf, vkMem, 0); res != vk.Success {
		vk.FreeMemory(device, vkMem, allocator)
		vk.DestroyBuffer(device, vkBuf, allocator)
		return nil, fmt.Errorf("vkBindBufferMemory failed: %d", res)
	}

	buf := &Buffer{
		Size:             description.Size,
		Usage:            description.Usage,
		MemoryProperties: description.MemoryProperties,
		vkBuffer:         vkBuf,
		vkMemory:         vkMem,
		allocator:        NewSubAllocator(description.Size),
	}

	if description.MemoryProperties&backend.MemoryPropertyHostVisible != 0 {
		var mapped unsafe.Pointer
		if res := vk.MapMemory(device, vkMem, 0, vk.DeviceSize(description.Size), 0, &mapped); res != vk.Success {
			Destroy(device, allocator, buf)
			return nil, fmt.Errorf("vkMapMemory failed: %d", res)
		}
		buf.mappedPtr = mapped
		if initialData != nil {
			buf.WriteAt(0, initialData)
		}
	}

	return buf, nil
}

// WriteAt copies data into the buffer's persistently mapped region at
// offset. Only valid for HOST_VISIBLE buffers; callers are responsible
// for keeping offset+len(data) within Size.
func (b *Buffer) WriteAt(offset uint64, data []byte) error {
	if b.mappedPtr == nil {
		return fmt.Errorf("buffer: WriteAt on a buffer with no mapped memory (not HOST_VISIBLE)")
	}
	if offset+uint64(len(data)) > b.Size {
		return fmt.Errorf("buffer: WriteAt out of range: offset=%d len=%d size=%d", offset, len(data), b.Size)
	}
	dst := unsafe.Pointer(uintptr(b.mappedPtr) + uintptr(offset))
	vk.Memcopy(dst, data)
	return nil
}

// Destroy unmaps (if mapped), frees device memory, and destroys the
// vk.Buffer.
func Destroy(device vk.Device, allocator *vk.AllocationCallbacks, b *Buffer) {
	if b == nil {
		return
	}
	if b.mappedPtr != nil {
		vk.UnmapMemory(device, b.vkMemory)
		b.mappedPtr = nil
	}
	if b.vkMemory != nil {
		vk.FreeMemory(device, b.vkMemory, allocator)
		b.vkMemory = nil
	}
	if b.vkBuffer != nil {
		vk.DestroyBuffer(device, b.vkBuffer, allocator)
		b.vkBuffer = nil
	}
}
