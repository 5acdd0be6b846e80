package vkcube

import (
	"github.com/pkg/errors"
)

// Engine drives presentation of the spinning cube. It is not safe for
// concurrent use: Draw, Resize and Cleanup must be called from one goroutine.
type Engine struct {
	Animation Animation

	driver   Driver
	cfg      Config
	log      *Logger
	surfaces SurfaceProvider
	assets   Assets

	disc     *Discovery
	surface  Surface
	dev      *DeviceContext
	pools    commandPools
	ring     *syncRing
	textures []textureObject
	model    *cubeModel

	width, height uint32

	// One swapchain generation.
	swapchain *swapchainState
	depth     *depthResource
	pipeline  *pipelineState
	frames    *framePool

	prepared bool
}

// New discovers the device, creates the surface through surfaces and prepares
// the first swapchain generation.
func New(d Driver, cfg Config, surfaces SurfaceProvider, assets Assets, logger *Logger) (e *Engine, err error) {
	if logger == nil {
		logger = stderrLogger
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if len(assets.Textures) < cfg.TextureCount {
		return nil, errors.Errorf("vkcube: %d textures configured, %d provided", cfg.TextureCount, len(assets.Textures))
	}
	e = &Engine{
		Animation: Animation{SpinAngle: cfg.SpinAngle},
		driver:    d,
		cfg:       cfg,
		log:       logger,
		surfaces:  surfaces,
		assets:    assets,
		width:     cfg.Width,
		height:    cfg.Height,
		model:     newCubeModel(),
	}
	defer func() {
		if err != nil {
			e.Cleanup(true)
			e = nil
		}
	}()
	defer checkErr(&err)

	e.disc, err = Discover(d, cfg, logger)
	orPanic(err)
	e.surface, err = surfaces(e.disc.Instance)
	must(err, "create surface")
	e.dev, err = CreateDeviceContext(d, e.disc, e.surface, logger)
	orPanic(err)

	e.pools.Graphics, err = d.CreateCommandPool(e.dev.GraphicsFamily)
	must(err, "create graphics command pool")
	if e.dev.SeparatePresentQueue {
		e.pools.Present, err = d.CreateCommandPool(e.dev.PresentFamily)
		must(err, "create present command pool")
	}
	e.ring, err = newSyncRing(d, e.dev.SeparatePresentQueue)
	orPanic(err)
	e.textures, err = prepareTextures(d, e.dev, e.pools.Graphics, assets.Textures[:cfg.TextureCount], cfg.UseStagingBuffer, logger)
	orPanic(err)

	e.prepare()
	return e, nil
}

// prepare builds a swapchain generation, retiring the current swapchain as
// its predecessor.
func (e *Engine) prepare() {
	var old Swapchain
	if e.swapchain != nil {
		old = e.swapchain.Handle
	}
	sc, views, err := createSwapchain(e.driver, e.dev, e.surface, e.cfg.PresentMode, e.width, e.height, old, e.log)
	if sc != nil {
		e.swapchain = sc
	}
	orPanic(err)
	e.width, e.height = sc.Extent.Width, sc.Extent.Height
	e.model.setExtent(sc.Extent)

	e.depth, err = newDepthResource(e.driver, sc.Extent)
	if err != nil {
		e.destroyViews(views)
		orPanic(err)
	}
	e.pipeline, err = newPipelineState(e.driver, sc.Format, uint32(len(sc.Images)), uint32(len(e.textures)), e.assets)
	if err != nil {
		e.destroyViews(views)
		orPanic(err)
	}

	payload := make([]byte, UniformSize)
	mvp := e.model.mvp()
	encodeUniform(payload, &mvp)
	e.frames, err = newFramePool(e.driver, sc, views, frameSetup{
		Device:   e.dev,
		Pools:    e.pools,
		Pipeline: e.pipeline,
		Depth:    e.depth,
		Textures: e.textures,
		Extent:   sc.Extent,
		Payload:  payload,
	})
	orPanic(err)
	e.prepared = true
}

func (e *Engine) destroyViews(views []ImageView) {
	for _, v := range views {
		e.driver.DestroyImageView(v)
	}
}

// releaseGeneration frees everything tied to the current swapchain
// generation except the swapchain itself.
func (e *Engine) releaseGeneration() {
	e.prepared = false
	if e.frames != nil {
		e.frames.release(e.driver, e.pools)
		e.frames = nil
	}
	if e.pipeline != nil {
		e.pipeline.release(e.driver)
		e.pipeline = nil
	}
	if e.depth != nil {
		e.depth.release(e.driver)
		e.depth = nil
	}
}

// recreate drains the device and rebuilds the swapchain generation.
func (e *Engine) recreate() {
	must(e.driver.DeviceWaitIdle(), "wait for device idle")
	e.releaseGeneration()
	e.prepare()
}

// recreateSurface replaces a lost surface and builds a fresh swapchain for it.
func (e *Engine) recreateSurface() {
	e.log.Warn.Println("vulkan: surface lost, recreating")
	must(e.driver.DeviceWaitIdle(), "wait for device idle")
	e.releaseGeneration()
	if e.swapchain != nil {
		e.driver.DestroySwapchain(e.swapchain.Handle)
		e.swapchain = nil
	}
	e.driver.DestroySurface(e.disc.Instance, e.surface)
	e.surface = 0

	surface, err := e.surfaces(e.disc.Instance)
	must(err, "recreate surface")
	e.surface = surface
	ok, err := e.driver.SurfaceSupport(e.dev.GPU, e.dev.PresentFamily, surface)
	must(err, "query present support")
	if !ok {
		orPanic(fatalf(FatalPresentUnsupported, "family %d", e.dev.PresentFamily))
	}
	e.prepare()
}

// Draw renders and presents one frame. An out-of-date or lost surface is
// recovered from before returning.
func (e *Engine) Draw() (err error) {
	defer checkErr(&err)
	if !e.prepared {
		return ErrNotPrepared
	}
	d := e.driver
	timeout := e.cfg.timeout()
	slot := e.ring.current()

	err = d.WaitForFence(slot.Fence, timeout)
	if errors.Is(err, ErrDeviceHang) {
		return err
	}
	must(err, "wait for frame fence")

	var index uint32
	for acquired := false; !acquired; {
		idx, suboptimal, err := d.AcquireNextImage(e.swapchain.Handle, timeout, slot.Acquired)
		switch {
		case err == nil:
			if suboptimal {
				e.log.Info.Println("vulkan: swapchain suboptimal")
			}
			index, acquired = idx, true
		case errors.Is(err, ErrOutOfDate):
			e.recreate()
		case errors.Is(err, ErrSurfaceLost):
			e.recreateSurface()
		case errors.Is(err, ErrDeviceHang):
			return err
		default:
			must(err, "acquire next image")
		}
	}
	// The fence is reset after the acquire, not straight after the wait. An
	// acquire that fails or triggers recovery must leave the slot signaled,
	// or the next wait on it never returns.
	must(d.ResetFence(slot.Fence), "reset frame fence")

	frame := e.frames.at(FrameSlot(index))
	e.updateUniform(frame)

	must(d.QueueSubmit(e.dev.GraphicsQueue, Submission{
		Wait:           slot.Acquired,
		WaitStage:      PipelineStageColorAttachmentOutput,
		CommandBuffers: []CommandBuffer{frame.Draw},
		Signal:         slot.DrawComplete,
		Fence:          slot.Fence,
	}), "submit draw")

	presentWait := slot.DrawComplete
	if e.dev.SeparatePresentQueue {
		must(d.QueueSubmit(e.dev.PresentQueue, Submission{
			Wait:           slot.DrawComplete,
			WaitStage:      PipelineStageColorAttachmentOutput,
			CommandBuffers: []CommandBuffer{frame.Ownership},
			Signal:         slot.OwnershipReleased,
		}), "submit ownership transfer")
		presentWait = slot.OwnershipReleased
	}

	suboptimal, err := d.QueuePresent(e.dev.PresentQueue, Presentation{
		Wait:       presentWait,
		Swapchain:  e.swapchain.Handle,
		ImageIndex: index,
	})
	e.ring.advance()
	switch {
	case err == nil:
		if suboptimal {
			e.log.Info.Println("vulkan: swapchain suboptimal")
		}
	case errors.Is(err, ErrOutOfDate):
		e.recreate()
	case errors.Is(err, ErrSurfaceLost):
		e.recreateSurface()
	default:
		must(err, "present")
	}
	return nil
}

// updateUniform advances the animation and rewrites the image's MVP. The
// slot fence wait guarantees the GPU is no longer reading it.
func (e *Engine) updateUniform(frame *frameResources) {
	if !e.Animation.Paused {
		e.model.spin(e.Animation.SpinAngle)
	}
	mvp := e.model.mvp()
	encodeMVP(frame.Mapped, &mvp)
}

// Resize records the new window size and rebuilds the swapchain generation.
// Zero sizes and calls before the first preparation are ignored.
func (e *Engine) Resize(width, height uint32) (err error) {
	defer checkErr(&err)
	if width == 0 || height == 0 {
		return nil
	}
	e.width, e.height = width, height
	if !e.prepared {
		return nil
	}
	e.recreate()
	return nil
}

// Prepare rebuilds the swapchain generation after Cleanup(false).
func (e *Engine) Prepare() (err error) {
	defer checkErr(&err)
	if e.prepared {
		return nil
	}
	if e.dev == nil {
		return ErrNotPrepared
	}
	e.prepare()
	return nil
}

// Cleanup releases the swapchain generation. With forExit it also destroys
// the sync ring, textures, command pools, swapchain, surface, device and
// instance. It may be called more than once.
func (e *Engine) Cleanup(forExit bool) (err error) {
	defer checkErr(&err)
	d := e.driver
	if e.dev != nil {
		must(d.DeviceWaitIdle(), "wait for device idle")
	}
	e.releaseGeneration()
	if !forExit {
		return nil
	}

	if e.ring != nil {
		e.ring.destroy(d)
		e.ring = nil
	}
	for i := range e.textures {
		e.textures[i].release(d)
	}
	e.textures = nil
	if e.pools.Present != 0 {
		d.DestroyCommandPool(e.pools.Present)
	}
	if e.pools.Graphics != 0 {
		d.DestroyCommandPool(e.pools.Graphics)
	}
	e.pools = commandPools{}
	if e.swapchain != nil {
		d.DestroySwapchain(e.swapchain.Handle)
		e.swapchain = nil
	}
	if e.dev != nil {
		d.DestroyDevice(e.dev.Device)
		e.dev = nil
	}
	if e.disc != nil {
		if e.surface != 0 {
			d.DestroySurface(e.disc.Instance, e.surface)
			e.surface = 0
		}
		d.DestroyInstance(e.disc.Instance)
		e.disc = nil
	}
	return nil
}

// Extent is the size of the current swapchain images.
func (e *Engine) Extent() Extent {
	return Extent{Width: e.width, Height: e.height}
}

// DeviceContext exposes the device and queue selection. Nil after a full
// cleanup.
func (e *Engine) DeviceContext() *DeviceContext {
	return e.dev
}
