package gpu

import (
	"fmt"
	"unsafe"

	"github.com/vulkan-go/vulkan"
)

// waitTimeoutNanos bounds how long TimelinePoint.Wait blocks on the device
// before giving up and returning an error; a GPU hang shouldn't wedge the
// whole process.
const waitTimeoutNanos = 1_000_000_000 // 1 second

// TimelineSemaphore wraps a Vulkan timeline semaphore: unlike a binary
// semaphore, its counter only increases, so a TimelinePoint captured at one
// moment can always be waited on or polled later regardless of how many
// submissions have since signaled the same semaphore.
type TimelineSemaphore struct {
	device vulkan.Device
	sema   vulkan.Semaphore
}

// TimelinePoint is a specific counter value on a TimelineSemaphore: the
// thing a submission actually waits for or signals.
type TimelinePoint struct {
	timeline *TimelineSemaphore
	value    uint64
}

// NewTimelineSemaphore creates a timeline semaphore on device, starting at
// initialValue.
func NewTimelineSemaphore(device vulkan.Device, initialValue uint64) (*TimelineSemaphore, error) {
	typeInfo := vulkan.SemaphoreTypeCreateInfo{
		SType:         vulkan.StructureTypeSemaphoreTypeCreateInfo,
		SemaphoreType: vulkan.SemaphoreTypeTimeline,
		InitialValue:  initialValue,
	}
	createInfo := vulkan.SemaphoreCreateInfo{
		SType: vulkan.StructureTypeSemaphoreCreateInfo,
		PNext: unsafe.Pointer(&typeInfo),
	}

	var sema vulkan.Semaphore
	if ret := vulkan.CreateSemaphore(device, &createInfo, nil, &sema); ret != vulkan.Success {
		return nil, fmt.Errorf("gpu: create timeline semaphore: %v", ret)
	}

	return &TimelineSemaphore{device: device, sema: sema}, nil
}

// Point returns the TimelinePoint representing the given counter value on
// this timeline.
func (t *TimelineSemaphore) Point(value uint64) TimelinePoint {
	return TimelinePoint{timeline: t, value: value}
}

// Semaphore returns the raw handle, for building submit-info wait/signal
// semaphore arrays.
func (t *TimelineSemaphore) Semaphore() vulkan.Semaphore {
	return t.sema
}

// Close waits for the device to finish with the semaphore and destroys it.
func (t *TimelineSemaphore) Close(device vulkan.Device) {
	vulkan.DeviceWaitIdle(device)
	vulkan.DestroySemaphore(device, t.sema, nil)
}

// Value returns the counter value this point represents.
func (p TimelinePoint) Value() uint64 {
	return p.value
}

// Timeline returns the semaphore this point belongs to.
func (p TimelinePoint) Timeline() *TimelineSemaphore {
	return p.timeline
}

// Add returns a new point value steps further along the same timeline,
// e.g. allocating the next submission's signal value from the last one
// handed out.
func (p TimelinePoint) Add(steps uint64) TimelinePoint {
	return TimelinePoint{timeline: p.timeline, value: p.value + steps}
}

// Wait blocks the calling goroutine until the timeline's counter reaches
// this point's value, or waitTimeoutNanos elapses.
func (p TimelinePoint) Wait() error {
	waitInfo := vulkan.SemaphoreWaitInfo{
		SType:          vulkan.StructureTypeSemaphoreWaitInfo,
		SemaphoreCount: 1,
		PSemaphores:    []vulkan.Semaphore{p.timeline.sema},
		PValues:        []uint64{p.value},
	}
	ret := vulkan.WaitSemaphores(p.timeline.device, &waitInfo, waitTimeoutNanos)
	if ret != vulkan.Success {
		return fmt.Errorf("gpu: wait on timeline point %d: %v", p.value, ret)
	}
	return nil
}

// Signal advances the timeline's counter to this point's value from the
// host side, without a GPU submission (used to unblock a consumer after a
// CPU-side step completes, e.g. a dma-buf import has been validated).
func (p TimelinePoint) Signal() error {
	signalInfo := vulkan.SemaphoreSignalInfo{
		SType:     vulkan.StructureTypeSemaphoreSignalInfo,
		Semaphore: p.timeline.sema,
		Value:     p.value,
	}
	if ret := vulkan.SignalSemaphore(p.timeline.device, &signalInfo); ret != vulkan.Success {
		return fmt.Errorf("gpu: signal timeline point %d: %v", p.value, ret)
	}
	return nil
}

// Poll reports whether the timeline's counter has already reached this
// point's value, without blocking.
func (p TimelinePoint) Poll() (bool, error) {
	var value uint64
	if ret := vulkan.GetSemaphoreCounterValue(p.timeline.device, p.timeline.sema, &value); ret != vulkan.Success {
		return false, fmt.Errorf("gpu: poll timeline semaphore: %v", ret)
	}
	return value >= p.value, nil
}
