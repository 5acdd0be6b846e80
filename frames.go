package vkcube

import "github.com/pkg/errors"

// FrameSlot addresses a frame pool entry by the acquired image index.
type FrameSlot uint32

// frameResources is everything dedicated to one swapchain image.
type frameResources struct {
	Image         Image
	View          ImageView
	Uniform       Buffer
	UniformMemory Memory
	// Mapped stays mapped for the whole generation.
	Mapped        []byte
	Framebuffer   Framebuffer
	DescriptorSet DescriptorSet
	Draw          CommandBuffer
	// Ownership acquires the image on the present queue. Only set for a
	// separate present queue.
	Ownership CommandBuffer
}

type framePool struct {
	entries []frameResources
}

type commandPools struct {
	Graphics CommandPool
	// Present is only created for a separate present queue.
	Present CommandPool
}

func (p *framePool) len() int {
	return len(p.entries)
}

func (p *framePool) at(slot FrameSlot) *frameResources {
	return &p.entries[slot]
}

// frameSetup is what every pool entry is built against.
type frameSetup struct {
	Device   *DeviceContext
	Pools    commandPools
	Pipeline *pipelineState
	Depth    *depthResource
	Textures []textureObject
	Extent   Extent
	// Payload is the initial uniform content.
	Payload []byte
}

// newFramePool builds one entry per swapchain image and records its commands.
// The pool takes ownership of views.
func newFramePool(d Driver, sc *swapchainState, views []ImageView, setup frameSetup) (_ *framePool, err error) {
	p := &framePool{entries: make([]frameResources, 0, len(sc.Images))}
	defer func() {
		if err != nil {
			built := len(p.entries)
			p.release(d, setup.Pools)
			for _, v := range views[built:] {
				d.DestroyImageView(v)
			}
		}
	}()

	bindings := make([]TextureBinding, len(setup.Textures))
	for i, tex := range setup.Textures {
		bindings[i] = TextureBinding{Sampler: tex.Sampler, View: tex.View}
	}
	dev := setup.Device

	for i, img := range sc.Images {
		p.entries = append(p.entries, frameResources{Image: img, View: views[i]})
		f := &p.entries[i]

		if f.Uniform, f.UniformMemory, err = d.CreateBuffer(UniformSize, BufferUsageUniform); err != nil {
			return nil, errors.Wrap(err, "create uniform buffer")
		}
		if f.Mapped, err = d.MapMemory(f.UniformMemory, UniformSize); err != nil {
			return nil, errors.Wrap(err, "map uniform buffer")
		}
		copy(f.Mapped, setup.Payload)

		if f.Framebuffer, err = d.CreateFramebuffer(FramebufferInfo{
			RenderPass:  setup.Pipeline.RenderPass,
			Attachments: []ImageView{f.View, setup.Depth.View},
			Extent:      setup.Extent,
		}); err != nil {
			return nil, errors.Wrap(err, "create framebuffer")
		}

		if f.DescriptorSet, err = d.AllocateDescriptorSet(setup.Pipeline.DescriptorPool, setup.Pipeline.SetLayout); err != nil {
			return nil, errors.Wrap(err, "allocate descriptor set")
		}
		d.UpdateDescriptorSet(f.DescriptorSet, DescriptorWrite{
			Buffer:   f.Uniform,
			Range:    UniformSize,
			Textures: bindings,
		})

		if f.Draw, err = d.AllocateCommandBuffer(setup.Pools.Graphics); err != nil {
			return nil, errors.Wrap(err, "allocate draw command buffer")
		}
		rec := DrawRecording{
			RenderPass:     setup.Pipeline.RenderPass,
			Framebuffer:    f.Framebuffer,
			Pipeline:       setup.Pipeline.Pipeline,
			PipelineLayout: setup.Pipeline.PipelineLayout,
			DescriptorSet:  f.DescriptorSet,
			Extent:         setup.Extent,
			VertexCount:    CubeVertexCount,
		}
		var transfer OwnershipTransfer
		if dev.SeparatePresentQueue {
			transfer = OwnershipTransfer{Image: img, SrcFamily: dev.GraphicsFamily, DstFamily: dev.PresentFamily}
			rec.Release = &transfer
		}
		if err = d.RecordDraw(f.Draw, rec); err != nil {
			return nil, errors.Wrap(err, "record draw commands")
		}

		if dev.SeparatePresentQueue {
			if f.Ownership, err = d.AllocateCommandBuffer(setup.Pools.Present); err != nil {
				return nil, errors.Wrap(err, "allocate ownership command buffer")
			}
			if err = d.RecordOwnershipAcquire(f.Ownership, transfer); err != nil {
				return nil, errors.Wrap(err, "record ownership transfer")
			}
		}
	}
	return p, nil
}

// release frees every entry. Descriptor sets are reclaimed with their pool.
func (p *framePool) release(d Driver, pools commandPools) {
	for i := range p.entries {
		f := &p.entries[i]
		if f.Framebuffer != 0 {
			d.DestroyFramebuffer(f.Framebuffer)
		}
		if f.View != 0 {
			d.DestroyImageView(f.View)
		}
		if f.Mapped != nil {
			d.UnmapMemory(f.UniformMemory)
		}
		if f.Uniform != 0 {
			d.DestroyBuffer(f.Uniform, f.UniformMemory)
		}
		if f.Draw != 0 {
			d.FreeCommandBuffer(pools.Graphics, f.Draw)
		}
		if f.Ownership != 0 {
			d.FreeCommandBuffer(pools.Present, f.Ownership)
		}
	}
	p.entries = nil
}
