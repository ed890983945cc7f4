package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// recreateSwapchain implements the 10-step swapchain recreation
// protocol (spec §4.3): idempotent while already in progress, waits the
// graphics queue idle, tears down the attachment-dependent objects
// (framebuffers, depth image, registry passes, per-image command
// buffers), rebuilds the swapchain chaining from the old handle, and
// rebuilds everything that depends on it. Aborts without destroying the
// old swapchain if the window is minimised (zero extent).
func (b *Backend) recreateSwapchain() error {
	if b.recreateRequested {
		return nil
	}
	b.recreateRequested = true
	defer func() { b.recreateRequested = false }()

	if res := vk.QueueWaitIdle(b.graphicsQueue); res != vk.Success {
		return fmt.Errorf("vkQueueWaitIdle failed: %d", res)
	}

	b.destroyFramebuffers()
	b.destroyDepthResources()
	if b.registry != nil {
		b.registry.Destroy()
		b.registry = nil
	}
	for i := range b.imagesInFlight {
		b.imagesInFlight[i] = nil
	}

	old := b.swapchain
	oldImageViews := b.imageViews
	oldImages := b.images
	b.imageViews = nil
	b.images = nil

	result, err := b.createSwapchain(old)
	if err != nil {
		b.imageViews = oldImageViews
		b.images = oldImages
		return err
	}
	if result.swapchain == nil {
		// Minimised: leave the old swapchain alive and retry on the next
		// resize notification.
		b.imageViews = oldImageViews
		b.images = oldImages
		return nil
	}

	for _, v := range oldImageViews {
		vk.DestroyImageView(b.device, v, nil)
	}
	if old != nil {
		vk.DestroySwapchain(b.device, old, nil)
	}

	b.swapchain = result.swapchain
	b.colorFormat = result.format
	b.swapchainExtent = result.extent
	b.images = result.images
	b.imageViews = result.imageViews

	if err := b.allocateCommandBuffers(); err != nil {
		return err
	}
	if err := b.createDepthResources(); err != nil {
		return err
	}

	if err := b.rebuildRenderPasses(); err != nil {
		return err
	}

	if len(b.imagesInFlight) != len(b.images) {
		b.imagesInFlight = make([]vk.Fence, len(b.images))
	}

	b.maxInFlightFrames = len(b.images)
	if b.cfg.BufferingFrames < b.maxInFlightFrames {
		b.maxInFlightFrames = b.cfg.BufferingFrames
	}
	if b.currentFrame >= b.maxInFlightFrames {
		b.currentFrame = 0
	}
	if err := b.createIndirectRing(); err != nil {
		return err
	}

	if b.onRenderTargetRefreshRequired != nil {
		b.onRenderTargetRefreshRequired()
	}
	b.activeNamedRenderPass = ""
	b.activePass = nil

	return nil
}
