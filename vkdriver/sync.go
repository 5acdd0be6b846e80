package vkdriver

import (
	"github.com/andewx/vkcube"
	vk "github.com/vulkan-go/vulkan"
)

// CreateFence creates a fence, optionally in the signaled state.
func (d *Driver) CreateFence(signaled bool) (vkcube.Fence, error) {
	var flags vk.FenceCreateFlags
	if signaled {
		flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	ret := vk.CreateFence(d.device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: flags,
	}, nil, &fence)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.Fence(d.fences.put(fence)), nil
}

func (d *Driver) DestroyFence(h vkcube.Fence) {
	if fence, ok := d.fences.take(uint64(h)); ok {
		vk.DestroyFence(d.device, fence, nil)
	}
}

// WaitForFence blocks up to timeout nanoseconds. Expiry is ErrDeviceHang.
func (d *Driver) WaitForFence(h vkcube.Fence, timeout uint64) error {
	ret := vk.WaitForFences(d.device, 1, []vk.Fence{d.fences.get(uint64(h))}, vk.True, timeout)
	return newError(ret)
}

// ResetFence returns the fence to the unsignaled state.
func (d *Driver) ResetFence(h vkcube.Fence) error {
	return newError(vk.ResetFences(d.device, 1, []vk.Fence{d.fences.get(uint64(h))}))
}

// CreateSemaphore creates a binary semaphore.
func (d *Driver) CreateSemaphore() (vkcube.Semaphore, error) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(d.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.Semaphore(d.semaphores.put(sem)), nil
}

func (d *Driver) DestroySemaphore(h vkcube.Semaphore) {
	if sem, ok := d.semaphores.take(uint64(h)); ok {
		vk.DestroySemaphore(d.device, sem, nil)
	}
}

// AcquireNextImage acquires a presentable image and signals signal once it is
// ready. Out of date and suboptimal results are mapped as in QueuePresent.
func (d *Driver) AcquireNextImage(swapchain vkcube.Swapchain, timeout uint64, signal vkcube.Semaphore) (uint32, bool, error) {
	var index uint32
	ret := vk.AcquireNextImage(d.device, d.swapchains.get(uint64(swapchain)), timeout,
		d.semaphores.get(uint64(signal)), vk.NullFence, &index)
	suboptimal, err := presentResult(ret)
	return index, suboptimal, err
}

// QueueSubmit submits one batch. Zero semaphores and fence are omitted.
func (d *Driver) QueueSubmit(queue vkcube.Queue, submit vkcube.Submission) error {
	cmds := make([]vk.CommandBuffer, len(submit.CommandBuffers))
	for i, h := range submit.CommandBuffers {
		cmds[i] = d.commandBuffers.get(uint64(h))
	}
	info := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(cmds)),
		PCommandBuffers:    cmds,
	}
	if submit.Wait != 0 {
		info.WaitSemaphoreCount = 1
		info.PWaitSemaphores = []vk.Semaphore{d.semaphores.get(uint64(submit.Wait))}
		info.PWaitDstStageMask = []vk.PipelineStageFlags{vk.PipelineStageFlags(submit.WaitStage)}
	}
	if submit.Signal != 0 {
		info.SignalSemaphoreCount = 1
		info.PSignalSemaphores = []vk.Semaphore{d.semaphores.get(uint64(submit.Signal))}
	}
	fence := vk.NullFence
	if submit.Fence != 0 {
		fence = d.fences.get(uint64(submit.Fence))
	}
	return newError(vk.QueueSubmit(d.queues.get(uint64(queue)), 1, []vk.SubmitInfo{info}, fence))
}

// QueuePresent queues the image for presentation after present.Wait. A
// suboptimal swapchain is reported through the bool, not as an error.
func (d *Driver) QueuePresent(queue vkcube.Queue, present vkcube.Presentation) (bool, error) {
	ret := vk.QueuePresent(d.queues.get(uint64(queue)), &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.semaphores.get(uint64(present.Wait))},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{d.swapchains.get(uint64(present.Swapchain))},
		PImageIndices:      []uint32{present.ImageIndex},
	})
	return presentResult(ret)
}
