package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/config"
)

// chooseSurfaceFormat prefers {B8G8R8A8_SRGB, SRGB_NONLINEAR}, falling
// back to the first reported format, per spec §4.3.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		f.Deref()
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	formats[0].Deref()
	return formats[0]
}

// choosePresentMode tries preferred first, falls back to FIFO
// (guaranteed present on every implementation) per spec §4.3.
func choosePresentMode(available []vk.PresentMode, preferred config.PresentMode) vk.PresentMode {
	want := vk.PresentModeFifo
	switch preferred {
	case config.PresentModeMailbox:
		want = vk.PresentModeMailbox
	case config.PresentModeImmediate:
		want = vk.PresentModeImmediate
	case config.PresentModeFIFO:
		want = vk.PresentModeFifo
	}
	for _, m := range available {
		if m == want {
			return want
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the surface's current extent if fixed (not the
// special 0xFFFFFFFF sentinel), otherwise the window pixel size clamped
// to [minImageExtent, maxImageExtent], per spec §4.3.
func chooseExtent(caps vk.SurfaceCapabilities, windowWidth, windowHeight int) vk.Extent2D {
	caps.Deref()
	caps.CurrentExtent.Deref()
	if caps.CurrentExtent.Width != ^uint32(0) {
		return caps.CurrentExtent
	}
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	w := clampU32(uint32(windowWidth), caps.MinImageExtent.Width, caps.MaxImageExtent.Width)
	h := clampU32(uint32(windowHeight), caps.MinImageExtent.Height, caps.MaxImageExtent.Height)
	return vk.Extent2D{Width: w, Height: h}
}

func clampU32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

// createSwapchainResult bundles the device objects createSwapchain
// produces, so recreateSwapchain can swap them in atomically.
type createSwapchainResult struct {
	swapchain  vk.Swapchain
	format     vk.Format
	extent     vk.Extent2D
	images     []vk.Image
	imageViews []vk.ImageView
}

// createSwapchain builds a new swapchain, optionally chaining from old
// (the previous handle, reused as oldSwapchain so the driver can
// transition resources smoothly per spec §4.3 step 5). Returns a zero
// result (swapchain == nil) without error if the window is minimised
// (zero extent), per the "abort without destroying the old swapchain"
// rule.
func (b *Backend) createSwapchain(old vk.Swapchain) (createSwapchainResult, error) {
	var caps vk.SurfaceCapabilities
	vk.GetPhysicalDeviceSurfaceCapabilities(b.physicalDevice, b.surface, &caps)
	caps.Deref()

	windowWidth, windowHeight := b.window.PixelSize()
	extent := chooseExtent(caps, windowWidth, windowHeight)
	if extent.Width == 0 || extent.Height == 0 {
		return createSwapchainResult{}, nil
	}

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(b.physicalDevice, b.surface, &formatCount, nil)
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(b.physicalDevice, b.surface, &formatCount, formats)
	surfaceFormat := chooseSurfaceFormat(formats)

	var presentModeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(b.physicalDevice, b.surface, &presentModeCount, nil)
	presentModes := make([]vk.PresentMode, presentModeCount)
	vk.GetPhysicalDeviceSurfacePresentModes(b.physicalDevice, b.surface, &presentModeCount, presentModes)
	presentMode := choosePresentMode(presentModes, b.cfg.PreferredPresentMode)

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          b.surface,
		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     old,
	}
	if b.graphicsFamily != b.presentFamily {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{b.graphicsFamily, b.presentFamily}
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchain vk.Swapchain
	if res := vk.CreateSwapchain(b.device, &createInfo, nil, &swapchain); res != vk.Success {
		return createSwapchainResult{}, fmt.Errorf("vkCreateSwapchain failed: %d", res)
	}

	var imgCount uint32
	vk.GetSwapchainImages(b.device, swapchain, &imgCount, nil)
	images := make([]vk.Image, imgCount)
	vk.GetSwapchainImages(b.device, swapchain, &imgCount, images)

	views := make([]vk.ImageView, len(images))
	for i, img := range images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    img,
			ViewType: vk.ImageViewType2d,
			Format:   surfaceFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		var view vk.ImageView
		if res := vk.CreateImageView(b.device, &viewInfo, nil, &view); res != vk.Success {
			return createSwapchainResult{}, fmt.Errorf("vkCreateImageView (swapchain image %d) failed: %d", i, res)
		}
		views[i] = view
	}

	return createSwapchainResult{
		swapchain: swapchain, format: surfaceFormat.Format, extent: extent,
		images: images, imageViews: views,
	}, nil
}

// chooseDepthFormat scans candidate depth formats for the first one
// supporting DEPTH_STENCIL_ATTACHMENT with optimal tiling, grounded on
// the standard Vulkan findSupportedFormat idiom (mirstar13-3d-graphics
// fixes this to D32_SFLOAT directly; generalized here with a fallback
// list since device support is not guaranteed).
func chooseDepthFormat(physicalDevice vk.PhysicalDevice) vk.Format {
	candidates := []vk.Format{vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint}
	for _, format := range candidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(physicalDevice, format, &props)
		props.Deref()
		if vk.FormatFeatureFlagBits(props.OptimalTilingFeatures)&vk.FormatFeatureDepthStencilAttachmentBit != 0 {
			return format
		}
	}
	return vk.FormatD32Sfloat
}

func (b *Backend) createDepthResources() error {
	format := b.depthFormat
	img, mem, err := createImageWithMemory(b.device, b.physicalDevice, b.swapchainExtent.Width, b.swapchainExtent.Height, format,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit))
	if err != nil {
		return err
	}
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectDepthBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(b.device, &viewInfo, nil, &view); res != vk.Success {
		vk.DestroyImage(b.device, img, nil)
		vk.FreeMemory(b.device, mem, nil)
		return fmt.Errorf("vkCreateImageView (depth) failed: %d", res)
	}
	b.depthImage, b.depthMemory, b.depthView = img, mem, view
	return nil
}

func (b *Backend) destroyDepthResources() {
	if b.depthView != nil {
		vk.DestroyImageView(b.device, b.depthView, nil)
		b.depthView = nil
	}
	if b.depthImage != nil {
		vk.DestroyImage(b.device, b.depthImage, nil)
		b.depthImage = nil
	}
	if b.depthMemory != nil {
		vk.FreeMemory(b.device, b.depthMemory, nil)
		b.depthMemory = nil
	}
}

func createImageWithMemory(device vk.Device, physicalDevice vk.PhysicalDevice, width, height uint32, format vk.Format, usage vk.ImageUsageFlags) (vk.Image, vk.DeviceMemory, error) {
	createInfo := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var img vk.Image
	if res := vk.CreateImage(device, &createInfo, nil, &img); res != vk.Success {
		return nil, nil, fmt.Errorf("vkCreateImage failed: %d", res)
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, img, &memReqs)
	memReqs.Deref()

	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(physicalDevice, &memProperties)
	memProperties.Deref()

	var memType uint32
	found := false
	for i := uint32(0); i < memProperties.MemoryTypeCount; i++ {
		memProperties.MemoryTypes[i].Deref()
		if memReqs.MemoryTypeBits&(1<<i) != 0 && memProperties.MemoryTypes[i].PropertyFlags&vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit) != 0 {
			memType, found = i, true
			break
		}
	}
	if !found {
		vk.DestroyImage(device, img, nil)
		return nil, nil, fmt.Errorf("no device-local memory type for image")
	}

	allocInfo := vk.MemoryAllocateInfo{SType: vk.StructureTypeMemoryAllocateInfo, AllocationSize: memReqs.Size, MemoryTypeIndex: memType}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(device, &allocInfo, nil, &mem); res != vk.Success {
		vk.DestroyImage(device, img, nil)
		return nil, nil, fmt.Errorf("vkAllocateMemory (image) failed: %d", res)
	}
	if res := vk.BindImageMemory(device, img, mem, 0); res != vk.Success {
		vk.FreeMemory(device, mem, nil)
		vk.DestroyImage(device, img, nil)
		return nil, nil, fmt.Errorf("vkBindImageMemory failed: %d", res)
	}
	return img, mem, nil
}

func (b *Backend) destroySwapchainImageViews() {
	for _, v := range b.imageViews {
		vk.DestroyImageView(b.device, v, nil)
	}
	b.imageViews = nil
	b.images = nil
}
