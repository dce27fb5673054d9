package gpu

import (
	"fmt"

	"github.com/vulkan-go/vulkan"
)

// Context owns the Vulkan instance, physical device, logical device, and
// the queues the video pipeline submits work to. One Context is shared by
// every session's compositor and encoder; there is exactly one GPU backing
// the server process.
type Context struct {
	Instance       vulkan.Instance
	PhysicalDevice vulkan.PhysicalDevice
	Device         vulkan.Device

	GraphicsQueue      vulkan.Queue
	GraphicsQueueIndex uint32
	EncodeQueue        vulkan.Queue
	EncodeQueueIndex   uint32

	RenderNode *RenderNode
}

// Properties reports the subset of physical device limits and feature
// flags the video pipeline and surface compositor need to know about.
type Properties struct {
	DeviceName        string
	MaxImageDimension2D uint32
	SupportsH264Encode bool
	SupportsH265Encode bool
}

// NewContext creates a Vulkan instance, selects the first enumerated
// physical device, picks its first graphics queue family and first video
// encode queue family (falling back to the graphics family when no family
// exposes video encode), and opens a logical device with those queues plus
// the extensions the encode pipeline and dma-buf import path require.
func NewContext(appName string) (*Context, error) {
	instance, err := createInstance(appName)
	if err != nil {
		return nil, err
	}

	phys, err := selectPhysicalDevice(instance)
	if err != nil {
		vulkan.DestroyInstance(instance, nil)
		return nil, err
	}

	gfxIdx, encIdx, err := selectQueueFamilies(phys)
	if err != nil {
		vulkan.DestroyInstance(instance, nil)
		return nil, err
	}

	device, err := createLogicalDevice(phys, gfxIdx, encIdx)
	if err != nil {
		vulkan.DestroyInstance(instance, nil)
		return nil, err
	}

	var gfxQueue, encQueue vulkan.Queue
	vulkan.GetDeviceQueue(device, gfxIdx, 0, &gfxQueue)
	vulkan.GetDeviceQueue(device, encIdx, 0, &encQueue)

	return &Context{
		Instance:           instance,
		PhysicalDevice:     phys,
		Device:             device,
		GraphicsQueue:      gfxQueue,
		GraphicsQueueIndex: gfxIdx,
		EncodeQueue:        encQueue,
		EncodeQueueIndex:   encIdx,
	}, nil
}

// Close waits for the device to go idle, then tears down the device and
// instance. The RenderNode, if attached, is left open; its owner closes it.
func (c *Context) Close() error {
	if c.Device != nil {
		vulkan.DeviceWaitIdle(c.Device)
		vulkan.DestroyDevice(c.Device, nil)
	}
	if c.Instance != nil {
		vulkan.DestroyInstance(c.Instance, nil)
	}
	return nil
}

func createInstance(appName string) (vulkan.Instance, error) {
	appInfo := vulkan.ApplicationInfo{
		SType:      vulkan.StructureTypeApplicationInfo,
		PApplicationName: appName,
		ApiVersion: vulkan.ApiVersion12,
	}
	createInfo := vulkan.InstanceCreateInfo{
		SType:            vulkan.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}

	var instance vulkan.Instance
	if ret := vulkan.CreateInstance(&createInfo, nil, &instance); ret != vulkan.Success {
		return nil, fmt.Errorf("gpu: create instance: %v", ret)
	}
	return instance, nil
}

func selectPhysicalDevice(instance vulkan.Instance) (vulkan.PhysicalDevice, error) {
	var count uint32
	vulkan.EnumeratePhysicalDevices(instance, &count, nil)
	if count == 0 {
		return nil, fmt.Errorf("gpu: no vulkan physical devices found")
	}

	devices := make([]vulkan.PhysicalDevice, count)
	if ret := vulkan.EnumeratePhysicalDevices(instance, &count, devices); ret != vulkan.Success {
		return nil, fmt.Errorf("gpu: enumerate physical devices: %v", ret)
	}

	return devices[0], nil
}

func selectQueueFamilies(phys vulkan.PhysicalDevice) (graphics, encode uint32, err error) {
	var count uint32
	vulkan.GetPhysicalDeviceQueueFamilyProperties(phys, &count, nil)
	families := make([]vulkan.QueueFamilyProperties, count)
	vulkan.GetPhysicalDeviceQueueFamilyProperties(phys, &count, families)

	gfxIdx, gfxFound := uint32(0), false
	encIdx, encFound := uint32(0), false

	for i, f := range families {
		flags := vulkan.QueueFlagBits(f.QueueFlags)
		if !gfxFound && flags&vulkan.QueueGraphicsBit != 0 {
			gfxIdx, gfxFound = uint32(i), true
		}
		if !encFound && flags&vulkan.QueueFlagBits(0x00002000) != 0 { // VK_QUEUE_VIDEO_ENCODE_BIT_KHR
			encIdx, encFound = uint32(i), true
		}
	}

	if !gfxFound {
		return 0, 0, fmt.Errorf("gpu: no graphics queue family")
	}
	if !encFound {
		// Fall back to the graphics queue; SelectRateControlMode's
		// EncodeCapabilities reporting handles the case where the
		// driver doesn't expose hardware video encode at all.
		encIdx = gfxIdx
	}

	return gfxIdx, encIdx, nil
}

func createLogicalDevice(phys vulkan.PhysicalDevice, gfxIdx, encIdx uint32) (vulkan.Device, error) {
	priorities := []float32{1.0}

	queueIndices := []uint32{gfxIdx}
	if encIdx != gfxIdx {
		queueIndices = append(queueIndices, encIdx)
	}

	queueInfos := make([]vulkan.DeviceQueueCreateInfo, len(queueIndices))
	for i, idx := range queueIndices {
		queueInfos[i] = vulkan.DeviceQueueCreateInfo{
			SType:            vulkan.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: idx,
			QueueCount:       1,
			PQueuePriorities: priorities,
		}
	}

	extensions := []string{
		"VK_KHR_timeline_semaphore",
		"VK_KHR_external_memory_fd",
		"VK_EXT_external_memory_dma_buf",
	}

	createInfo := vulkan.DeviceCreateInfo{
		SType:                 vulkan.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:  uint32(len(queueInfos)),
		PQueueCreateInfos:     queueInfos,
		EnabledExtensionCount: uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	var device vulkan.Device
	if ret := vulkan.CreateDevice(phys, &createInfo, nil, &device); ret != vulkan.Success {
		return nil, fmt.Errorf("gpu: create device: %v", ret)
	}
	return device, nil
}
