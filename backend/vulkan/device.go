package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
	"github.com/Panbok/vulkan-renderer-sub009/config"
)

// validationLayerName is the standard Khronos validation layer, enabled
// only when config.Config.EnableValidationLayers is set.
const validationLayerName = "VK_LAYER_KHRONOS_validation\x00"

// createInstance builds the vk.Instance, requesting window's reported
// surface extensions plus the validation layer if cfg enables it.
// Grounded on mirstar13-3d-graphics's initVulkan (vk.Init/ApplicationInfo/
// InstanceCreateInfo sequence).
func createInstance(cfg *config.Config, window backend.Window) (vk.Instance, error) {
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("vulkan: vk.Init failed: %w", err)
	}

	appName := cfg.ApplicationName
	if appName == "" {
		appName = "vulkan-renderer"
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   appName + "\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "vulkan-renderer-sub009\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.MakeVersion(1, 1, 0),
	}

	extensions := window.RequiredInstanceExtensions()
	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}
	if cfg.EnableValidationLayers {
		instanceInfo.EnabledLayerCount = 1
		instanceInfo.PpEnabledLayerNames = []string{validationLayerName}
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&instanceInfo, nil, &instance); res != vk.Success {
		return nil, fmt.Errorf("vkCreateInstance failed: %d", res)
	}
	vk.InitInstance(instance)
	return instance, nil
}

// queueFamilies holds the graphics/present family indices selected for a
// candidate physical device, and whether each requirement was satisfied.
type queueFamilies struct {
	graphics      uint32
	present       uint32
	hasGraphics   bool
	hasPresent    bool
}

func findQueueFamilies(device vk.PhysicalDevice, surface vk.Surface) queueFamilies {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, props)

	var qf queueFamilies
	for i, p := range props {
		p.Deref()
		if p.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			qf.graphics = uint32(i)
			qf.hasGraphics = true
		}

		var presentSupport vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &presentSupport)
		if presentSupport.B() {
			qf.present = uint32(i)
			qf.hasPresent = true
		}

		if qf.hasGraphics && qf.hasPresent {
			break
		}
	}
	return qf
}

// isDeviceSuitable reports whether device satisfies requirements: every
// requested queue family is present and every requested extension is
// supported. Grounded on mirstar13-3d-graphics's isDeviceSuitable,
// generalized from a hard-coded graphics+present check to
// backend.DeviceRequirements.
func isDeviceSuitable(device vk.PhysicalDevice, surface vk.Surface, requirements backend.DeviceRequirements) (queueFamilies, bool) {
	qf := findQueueFamilies(device, surface)
	if requirements.RequireGraphicsQueue && !qf.hasGraphics {
		return qf, false
	}
	if requirements.RequirePresentQueue && !qf.hasPresent {
		return qf, false
	}
	// Transfer work runs on the graphics queue (no dedicated transfer
	// queue is selected); any graphics-capable family supports transfer.
	if requirements.RequireTransferQueue && !qf.hasGraphics {
		return qf, false
	}

	if len(requirements.RequiredExtensions) > 0 && !deviceSupportsExtensions(device, requirements.RequiredExtensions) {
		return qf, false
	}

	return qf, true
}

func deviceSupportsExtensions(device vk.PhysicalDevice, required []string) bool {
	var count uint32
	vk.EnumerateDeviceExtensionProperties(device, "", &count, nil)
	available := make([]vk.ExtensionProperties, count)
	vk.EnumerateDeviceExtensionProperties(device, "", &count, available)

	have := make(map[string]bool, count)
	for _, ext := range available {
		ext.Deref()
		have[vk.ToString(ext.ExtensionName[:])] = true
	}
	for _, want := range required {
		if !have[want] {
			return false
		}
	}
	return true
}

// pickPhysicalDevice enumerates devices and selects the first suitable
// one, preferring a discrete GPU when requirements.DiscreteGPUPreferred
// is set and more than one candidate qualifies.
func pickPhysicalDevice(instance vk.Instance, surface vk.Surface, requirements backend.DeviceRequirements) (vk.PhysicalDevice, queueFamilies, error) {
	var count uint32
	vk.EnumeratePhysicalDevices(instance, &count, nil)
	if count == 0 {
		return nil, queueFamilies{}, fmt.Errorf("vulkan: no physical device with Vulkan support")
	}
	devices := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(instance, &count, devices)

	var fallback vk.PhysicalDevice
	var fallbackQF queueFamilies
	haveFallback := false

	for _, device := range devices {
		qf, ok := isDeviceSuitable(device, surface, requirements)
		if !ok {
			continue
		}
		if !requirements.DiscreteGPUPreferred || isDiscreteGPU(device) {
			return device, qf, nil
		}
		if !haveFallback {
			fallback, fallbackQF, haveFallback = device, qf, true
		}
	}

	if haveFallback {
		return fallback, fallbackQF, nil
	}
	return nil, queueFamilies{}, fmt.Errorf("vulkan: no suitable physical device found")
}

func isDiscreteGPU(device vk.PhysicalDevice) bool {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &props)
	props.Deref()
	return props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu
}

// deviceInformationOf reports the selected device's identity for
// get_device_information.
func deviceInformationOf(device vk.PhysicalDevice) backend.DeviceInformation {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &props)
	props.Deref()
	return backend.DeviceInformation{
		Name:          vk.ToString(props.DeviceName[:]),
		VendorID:      props.VendorID,
		DeviceID:      props.DeviceID,
		DriverVersion: props.DriverVersion,
		APIVersion:    props.ApiVersion,
		IsDiscreteGPU: props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu,
	}
}

// createLogicalDevice creates the device and retrieves its graphics and
// present queues, deduplicating identical queue families. Grounded on
// mirstar13-3d-graphics's createLogicalDevice, generalized to accept
// requirements.RequiredExtensions in addition to VK_KHR_swapchain and
// requirements.SamplerAnisotropy as an enabled feature.
func createLogicalDevice(physicalDevice vk.PhysicalDevice, qf queueFamilies, requirements backend.DeviceRequirements) (vk.Device, vk.Queue, vk.Queue, error) {
	unique := map[uint32]bool{qf.graphics: true, qf.present: true}
	priorities := []float32{1.0}

	var queueInfos []vk.DeviceQueueCreateInfo
	for family := range unique {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: priorities,
		})
	}

	extensions := append([]string{"VK_KHR_swapchain\x00"}, requirements.RequiredExtensions...)

	features := []vk.PhysicalDeviceFeatures{{}}
	if requirements.SamplerAnisotropy {
		features[0].SamplerAnisotropy = vk.True
	}

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		PEnabledFeatures:        features,
	}

	var device vk.Device
	if res := vk.CreateDevice(physicalDevice, &createInfo, nil, &device); res != vk.Success {
		return nil, nil, nil, fmt.Errorf("vkCreateDevice failed: %d", res)
	}

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(device, qf.graphics, 0, &graphicsQueue)
	vk.GetDeviceQueue(device, qf.present, 0, &presentQueue)
	return device, graphicsQueue, presentQueue, nil
}
