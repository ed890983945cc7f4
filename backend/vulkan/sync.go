package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// createCommandPoolAndBuffers allocates one primary command buffer per
// swapchain image, matching the teacher's createCommandPool/
// createCommandBuffers shape (mirstar13-3d-graphics's initVulkan call
// sequence), generalized to the actual swapchain image count rather than
// a fixed constant.
func (b *Backend) createCommandPoolAndBuffers() error {
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: b.graphicsFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(b.device, &poolInfo, nil, &pool); res != vk.Success {
		return fmt.Errorf("vkCreateCommandPool failed: %d", res)
	}
	b.commandPool = pool

	return b.allocateCommandBuffers()
}

// allocateCommandBuffers (re)allocates one command buffer per swapchain
// image. Used at init time and by the resize protocol's step 6 (free
// and reallocate per-image command buffers).
func (b *Backend) allocateCommandBuffers() error {
	if len(b.commandBuffers) > 0 {
		vk.FreeCommandBuffers(b.device, b.commandPool, uint32(len(b.commandBuffers)), b.commandBuffers)
		b.commandBuffers = nil
	}

	count := len(b.images)
	buffers := make([]vk.CommandBuffer, count)
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        b.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}
	if res := vk.AllocateCommandBuffers(b.device, &allocInfo, buffers); res != vk.Success {
		return fmt.Errorf("vkAllocateCommandBuffers failed: %d", res)
	}
	b.commandBuffers = buffers
	return nil
}

// createSyncObjects creates one image-available/render-finished
// semaphore pair and one fence per in-flight frame slot, plus the
// per-image images_in_flight fence tracking table (initially all nil),
// per spec §4.2.
func (b *Backend) createSyncObjects() error {
	n := b.maxInFlightFrames
	b.imageAvailableSems = make([]vk.Semaphore, n)
	b.renderFinishedSems = make([]vk.Semaphore, n)
	b.inFlightFences = make([]vk.Fence, n)

	semInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	fenceInfo := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo, Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit)}

	for i := 0; i < n; i++ {
		if res := vk.CreateSemaphore(b.device, &semInfo, nil, &b.imageAvailableSems[i]); res != vk.Success {
			return fmt.Errorf("vkCreateSemaphore (image available %d) failed: %d", i, res)
		}
		if res := vk.CreateSemaphore(b.device, &semInfo, nil, &b.renderFinishedSems[i]); res != vk.Success {
			return fmt.Errorf("vkCreateSemaphore (render finished %d) failed: %d", i, res)
		}
		if res := vk.CreateFence(b.device, &fenceInfo, nil, &b.inFlightFences[i]); res != vk.Success {
			return fmt.Errorf("vkCreateFence (%d) failed: %d", i, res)
		}
	}

	if len(b.imagesInFlight) != len(b.images) {
		b.imagesInFlight = make([]vk.Fence, len(b.images))
	}
	return nil
}

func (b *Backend) destroySyncObjects() {
	for i := range b.imageAvailableSems {
		if b.imageAvailableSems[i] != nil {
			vk.DestroySemaphore(b.device, b.imageAvailableSems[i], nil)
		}
		if b.renderFinishedSems[i] != nil {
			vk.DestroySemaphore(b.device, b.renderFinishedSems[i], nil)
		}
		if b.inFlightFences[i] != nil {
			vk.DestroyFence(b.device, b.inFlightFences[i], nil)
		}
	}
	b.imageAvailableSems = nil
	b.renderFinishedSems = nil
	b.inFlightFences = nil
	b.imagesInFlight = nil
}
