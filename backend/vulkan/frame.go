package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

const fenceWaitTimeout = ^uint64(0)

// BeginFrame implements backend.Backend's 7-step begin_frame algorithm
// (spec §4.2): wait the current frame's fence, acquire the next
// swapchain image (recreating and retrying once on OUT_OF_DATE), wait
// on whichever frame last used that image (images_in_flight tracking,
// distinct from the per-frame in_flight_fences), claim the image for
// this frame, reset the frame fence, and begin recording its command
// buffer. Grounded on mirstar13-3d-graphics's Present for the overall
// fence-wait/acquire/reset shape; the images_in_flight bookkeeping and
// recreate-on-OUT_OF_DATE retry have no direct teacher counterpart and
// are built fresh from the spec's stricter requirement.
func (b *Backend) BeginFrame(dt float32) error {
	if res := vk.WaitForFences(b.device, 1, []vk.Fence{b.inFlightFences[b.currentFrame]}, vk.True, fenceWaitTimeout); res != vk.Success {
		return fmt.Errorf("vkWaitForFences failed: %d", res)
	}

	imageIndex, err := b.acquireNextImage()
	if err != nil {
		return err
	}

	if b.imagesInFlight[imageIndex] != nil {
		if res := vk.WaitForFences(b.device, 1, []vk.Fence{b.imagesInFlight[imageIndex]}, vk.True, fenceWaitTimeout); res != vk.Success {
			return fmt.Errorf("vkWaitForFences (image in flight) failed: %d", res)
		}
	}
	b.imagesInFlight[imageIndex] = b.inFlightFences[b.currentFrame]

	if res := vk.ResetFences(b.device, 1, []vk.Fence{b.inFlightFences[b.currentFrame]}); res != vk.Success {
		return fmt.Errorf("vkResetFences failed: %d", res)
	}

	cmd := b.commandBuffers[imageIndex]
	if res := vk.ResetCommandBuffer(cmd, vk.CommandBufferResetFlags(0)); res != vk.Success {
		return fmt.Errorf("vkResetCommandBuffer failed: %d", res)
	}
	beginInfo := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	if res := vk.BeginCommandBuffer(cmd, &beginInfo); res != vk.Success {
		return fmt.Errorf("vkBeginCommandBuffer failed: %d", res)
	}

	b.currentImageIndex = imageIndex
	b.swapchainImageIsPresentReady = false
	if b.indirectRing != nil {
		b.indirectRing.BeginFrame(b.currentFrame)
	}
	return nil
}

// acquireNextImage acquires the next presentable image, recreating the
// swapchain and retrying exactly once if the first attempt reports
// OUT_OF_DATE.
func (b *Backend) acquireNextImage() (uint32, error) {
	var imageIndex uint32
	res := vk.AcquireNextImage(b.device, b.swapchain, fenceWaitTimeout, b.imageAvailableSems[b.currentFrame], nil, &imageIndex)
	if res == vk.ErrorOutOfDate {
		if err := b.recreateSwapchain(); err != nil {
			return 0, err
		}
		res = vk.AcquireNextImage(b.device, b.swapchain, fenceWaitTimeout, b.imageAvailableSems[b.currentFrame], nil, &imageIndex)
	}
	if res != vk.Success && res != vk.Suboptimal {
		return 0, fmt.Errorf("vkAcquireNextImageKHR failed: %d", res)
	}
	return imageIndex, nil
}

// EndFrame implements backend.Backend's 10-step end_frame algorithm
// (spec §4.2): transitions the swapchain image to PRESENT_SRC if no
// terminal render pass already left it present-ready, ends and submits
// the command buffer gated on the acquire semaphore and signalling the
// render-finished semaphore and frame fence, presents, recreates the
// swapchain on OUT_OF_DATE/SUBOPTIMAL or a pending resize, and advances
// current_frame.
func (b *Backend) EndFrame(dt float32) error {
	cmd := b.commandBuffers[b.currentImageIndex]

	if !b.swapchainImageIsPresentReady {
		b.transitionImageToPresent(cmd, b.images[b.currentImageIndex])
	}

	if res := vk.EndCommandBuffer(cmd); res != vk.Success {
		return fmt.Errorf("vkEndCommandBuffer failed: %d", res)
	}

	waitSemaphores := []vk.Semaphore{b.imageAvailableSems[b.currentFrame]}
	waitStages := []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}
	signalSemaphores := []vk.Semaphore{b.renderFinishedSems[b.currentFrame]}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      waitSemaphores,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    signalSemaphores,
	}
	if res := vk.QueueSubmit(b.graphicsQueue, 1, []vk.SubmitInfo{submitInfo}, b.inFlightFences[b.currentFrame]); res != vk.Success {
		return fmt.Errorf("vkQueueSubmit failed: %d", res)
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount:  1,
		PWaitSemaphores:     signalSemaphores,
		SwapchainCount:      1,
		PSwapchains:         []vk.Swapchain{b.swapchain},
		PImageIndices:       []uint32{b.currentImageIndex},
	}
	res := vk.QueuePresent(b.presentQueue, &presentInfo)
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal || b.recreateRequested {
		if err := b.recreateSwapchain(); err != nil {
			return err
		}
	} else if res != vk.Success {
		return fmt.Errorf("vkQueuePresentKHR failed: %d", res)
	}

	b.currentFrame = (b.currentFrame + 1) % b.maxInFlightFrames
	return nil
}

// transitionImageToPresent records the image-memory barrier moving
// image from its current (color-attachment or undefined) layout to
// PRESENT_SRC, needed whenever the last render pass of the frame did
// not already leave it present-ready (e.g. a frame with no terminal UI
// pass, or a COMPUTE-only frame).
func (b *Backend) transitionImageToPresent(cmd vk.CommandBuffer, image vk.Image) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           vk.ImageLayoutColorAttachmentOptimal,
		NewLayout:           vk.ImageLayoutPresentSrc,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}
