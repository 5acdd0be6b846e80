package vkdriver

import (
	"github.com/andewx/vkcube"
	vk "github.com/vulkan-go/vulkan"
)

// CreateCommandPool creates a pool whose buffers may be reset individually.
func (d *Driver) CreateCommandPool(family uint32) (vkcube.CommandPool, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(d.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: family,
	}, nil, &pool)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.CommandPool(d.commandPools.put(pool)), nil
}

// DestroyCommandPool frees the pool and every buffer allocated from it.
func (d *Driver) DestroyCommandPool(h vkcube.CommandPool) {
	if pool, ok := d.commandPools.take(uint64(h)); ok {
		vk.DestroyCommandPool(d.device, pool, nil)
	}
}

// AllocateCommandBuffer allocates one primary command buffer from pool.
func (d *Driver) AllocateCommandBuffer(pool vkcube.CommandPool) (vkcube.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(d.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPools.get(uint64(pool)),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, buffers)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.CommandBuffer(d.commandBuffers.put(buffers[0])), nil
}

func (d *Driver) FreeCommandBuffer(pool vkcube.CommandPool, h vkcube.CommandBuffer) {
	if cmd, ok := d.commandBuffers.take(uint64(h)); ok {
		vk.FreeCommandBuffers(d.device, d.commandPools.get(uint64(pool)), 1, []vk.CommandBuffer{cmd})
	}
}

// begin starts a recording that may be resubmitted while pending.
func begin(cmd vk.CommandBuffer, flags vk.CommandBufferUsageFlagBits) error {
	return newError(vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(flags),
	}))
}

// RecordDraw records the cube pass for one swapchain image, followed by the
// ownership release when presentation happens on another queue family.
func (d *Driver) RecordDraw(h vkcube.CommandBuffer, rec vkcube.DrawRecording) (err error) {
	defer checkErr(&err)

	cmd := d.commandBuffers.get(uint64(h))
	orPanic(begin(cmd, vk.CommandBufferUsageSimultaneousUseBit))

	clearValues := []vk.ClearValue{
		vk.NewClearValue([]float32{0.2, 0.2, 0.2, 1.0}),
		vk.NewClearDepthStencil(1.0, 0),
	}
	area := vk.Rect2D{Extent: toExtent2D(rec.Extent)}
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      d.renderPasses.get(uint64(rec.RenderPass)),
		Framebuffer:     d.framebuffers.get(uint64(rec.Framebuffer)),
		RenderArea:      area,
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, d.pipelines.get(uint64(rec.Pipeline)))
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, d.pipelineLayouts.get(uint64(rec.PipelineLayout)),
		0, 1, []vk.DescriptorSet{d.descriptorSets.get(uint64(rec.DescriptorSet))}, 0, nil)
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{{
		Width:    float32(rec.Extent.Width),
		Height:   float32(rec.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{area})
	vk.CmdDraw(cmd, rec.VertexCount, 1, 0, 0)
	vk.CmdEndRenderPass(cmd)

	if rec.Release != nil {
		vk.CmdPipelineBarrier(cmd,
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{
				d.ownershipBarrier(*rec.Release, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), 0),
			})
	}
	return newError(vk.EndCommandBuffer(cmd))
}

// RecordOwnershipAcquire records the present queue half of an ownership
// transfer whose release RecordDraw recorded.
func (d *Driver) RecordOwnershipAcquire(h vkcube.CommandBuffer, transfer vkcube.OwnershipTransfer) (err error) {
	defer checkErr(&err)

	cmd := d.commandBuffers.get(uint64(h))
	orPanic(begin(cmd, vk.CommandBufferUsageSimultaneousUseBit))
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{
			d.ownershipBarrier(transfer, 0, vk.AccessFlags(vk.AccessColorAttachmentWriteBit)),
		})
	return newError(vk.EndCommandBuffer(cmd))
}

func (d *Driver) ownershipBarrier(t vkcube.OwnershipTransfer, src, dst vk.AccessFlags) vk.ImageMemoryBarrier {
	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       src,
		DstAccessMask:       dst,
		OldLayout:           vk.ImageLayoutPresentSrc,
		NewLayout:           vk.ImageLayoutPresentSrc,
		SrcQueueFamilyIndex: t.SrcFamily,
		DstQueueFamilyIndex: t.DstFamily,
		Image:               d.images.get(uint64(t.Image)),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
}

// RecordSetup records one-shot initialization work: layout transitions
// around image copies.
func (d *Driver) RecordSetup(h vkcube.CommandBuffer, rec vkcube.SetupRecording) (err error) {
	defer checkErr(&err)

	cmd := d.commandBuffers.get(uint64(h))
	orPanic(begin(cmd, vk.CommandBufferUsageOneTimeSubmitBit))
	for _, t := range rec.Before {
		d.recordTransition(cmd, t)
	}
	for _, c := range rec.Copies {
		layers := vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		}
		vk.CmdCopyImage(cmd,
			d.images.get(uint64(c.Src)), vk.ImageLayoutTransferSrcOptimal,
			d.images.get(uint64(c.Dst)), vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageCopy{{
				SrcSubresource: layers,
				DstSubresource: layers,
				Extent: vk.Extent3D{
					Width:  c.Extent.Width,
					Height: c.Extent.Height,
					Depth:  1,
				},
			}})
	}
	for _, t := range rec.After {
		d.recordTransition(cmd, t)
	}
	return newError(vk.EndCommandBuffer(cmd))
}

func (d *Driver) recordTransition(cmd vk.CommandBuffer, t vkcube.LayoutTransition) {
	src, dst := transitionAccess(t.OldLayout, t.NewLayout)
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       src,
			DstAccessMask:       dst,
			OldLayout:           vk.ImageLayout(t.OldLayout),
			NewLayout:           vk.ImageLayout(t.NewLayout),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               d.images.get(uint64(t.Image)),
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(t.Aspect),
				LevelCount: 1,
				LayerCount: 1,
			},
		}})
}

// transitionAccess picks the access masks for a layout transition.
func transitionAccess(oldLayout, newLayout vkcube.ImageLayout) (src, dst vk.AccessFlags) {
	if oldLayout == vkcube.ImageLayoutPreinitialized {
		src = vk.AccessFlags(vk.AccessHostWriteBit)
	}
	switch newLayout {
	case vkcube.ImageLayoutTransferDstOptimal:
		dst = vk.AccessFlags(vk.AccessTransferWriteBit)
	case vkcube.ImageLayoutTransferSrcOptimal:
		dst = vk.AccessFlags(vk.AccessTransferReadBit)
	case vkcube.ImageLayoutColorAttachmentOptimal:
		dst = vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
	case vkcube.ImageLayoutDepthStencilAttachmentOptimal:
		dst = vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	case vkcube.ImageLayoutShaderReadOnlyOptimal:
		dst = vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessInputAttachmentReadBit)
	}
	if oldLayout == vkcube.ImageLayoutTransferDstOptimal {
		src |= vk.AccessFlags(vk.AccessTransferWriteBit)
	}
	return src, dst
}
