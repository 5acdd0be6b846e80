package vkcube

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeFence models the host-visible fence states the frame loop relies on.
type fakeFence struct {
	signaled bool
	pending  bool
}

type fakeSubmit struct {
	Queue Queue
	Submission
}

// fakeDriver is an in-memory Driver. It counts live objects per kind and
// records violations of the synchronization rules in errs instead of failing,
// so tests can assert on them at the end.
type fakeDriver struct {
	next uint64
	live map[string]map[uint64]bool
	errs []string

	// Capabilities reported to the engine.
	layers          []string
	instanceExts    []string
	deviceExts      []string
	gpuCount        int
	families        []QueueFamily
	presentFamilies map[uint32]bool
	caps            SurfaceCapabilities
	formats         []SurfaceFormat
	modes           []PresentMode
	textureSupport  FormatSupport

	// Scripted results, consumed one per call. A nil entry is success.
	acquireResults []error
	presentResults []error
	waitResults    []error
	suboptimal     bool

	instanceInfos  []InstanceInfo
	deviceInfos    []DeviceInfo
	swapchainInfos []SwapchainInfo
	swapchainImgs  map[Swapchain][]Image
	acquired       map[Swapchain]uint32
	lastIndex      uint32
	memory         map[Memory][]byte
	fences         map[Fence]*fakeFence
	semaphores     map[Semaphore]bool
	draws          map[CommandBuffer]DrawRecording
	ownership      map[CommandBuffer]OwnershipTransfer
	setups         []SetupRecording
	written        map[Image]TexturePixels
	submits        []fakeSubmit
	presents       []Presentation
	waitTimeouts   []uint64
	surfaceCount   int
	pending        int
	maxPending     int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		live:           make(map[string]map[uint64]bool),
		layers:         []string{KhronosValidationLayer},
		instanceExts:   []string{SurfaceExtension, "VK_KHR_xcb_surface", "VK_KHR_win32_surface", "VK_EXT_metal_surface", DebugReportExtension},
		deviceExts:     []string{SwapchainExtension},
		gpuCount:       1,
		families:       []QueueFamily{{Flags: QueueGraphics | QueueCompute | QueueTransfer, Count: 1}},
		caps:           SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8, CurrentExtent: Extent{Width: UndefinedExtent, Height: UndefinedExtent}, SupportedTransforms: SurfaceTransformIdentity, CurrentTransform: SurfaceTransformIdentity, SupportedCompositeAlpha: CompositeAlphaOpaque},
		formats:        []SurfaceFormat{{Format: FormatB8G8R8A8Srgb}, {Format: FormatB8G8R8A8Unorm}},
		modes:          []PresentMode{PresentModeFifo, PresentModeMailbox},
		textureSupport: FormatSupport{LinearSampled: true, OptimalSampled: true},
		swapchainImgs:  make(map[Swapchain][]Image),
		acquired:       make(map[Swapchain]uint32),
		memory:         make(map[Memory][]byte),
		fences:         make(map[Fence]*fakeFence),
		semaphores:     make(map[Semaphore]bool),
		draws:          make(map[CommandBuffer]DrawRecording),
		ownership:      make(map[CommandBuffer]OwnershipTransfer),
		written:        make(map[Image]TexturePixels),
	}
}

// separatePresent makes family 0 graphics-only and family 1 present-only.
func (f *fakeDriver) separatePresent() {
	f.families = []QueueFamily{{Flags: QueueGraphics, Count: 1}, {Flags: QueueTransfer, Count: 1}}
	f.presentFamilies = map[uint32]bool{1: true}
}

func (f *fakeDriver) fail(format string, args ...interface{}) {
	f.errs = append(f.errs, fmt.Sprintf(format, args...))
}

func (f *fakeDriver) create(kind string) uint64 {
	f.next++
	if f.live[kind] == nil {
		f.live[kind] = make(map[uint64]bool)
	}
	f.live[kind][f.next] = true
	return f.next
}

func (f *fakeDriver) destroy(kind string, h uint64) {
	if h == 0 {
		f.fail("destroy null %s", kind)
		return
	}
	if !f.live[kind][h] {
		f.fail("destroy unknown %s %d", kind, h)
		return
	}
	delete(f.live[kind], h)
}

func (f *fakeDriver) count(kind string) int {
	return len(f.live[kind])
}

// liveKinds lists kinds with objects still alive.
func (f *fakeDriver) liveKinds(except ...string) []string {
	skip := make(map[string]bool)
	for _, k := range except {
		skip[k] = true
	}
	var kinds []string
	for kind, objs := range f.live {
		if len(objs) > 0 && !skip[kind] {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func (f *fakeDriver) surfaces() SurfaceProvider {
	return func(Instance) (Surface, error) {
		f.surfaceCount++
		return Surface(f.create("surface")), nil
	}
}

func (f *fakeDriver) ValidationLayers() ([]string, error)   { return f.layers, nil }
func (f *fakeDriver) InstanceExtensions() ([]string, error) { return f.instanceExts, nil }

func (f *fakeDriver) CreateInstance(info InstanceInfo) (Instance, error) {
	f.instanceInfos = append(f.instanceInfos, info)
	return Instance(f.create("instance")), nil
}

func (f *fakeDriver) DestroyInstance(instance Instance) {
	if kinds := f.liveKinds("instance"); len(kinds) > 0 {
		f.fail("instance destroyed with live %v", kinds)
	}
	f.destroy("instance", uint64(instance))
}

func (f *fakeDriver) PhysicalDevices(Instance) ([]PhysicalDevice, error) {
	gpus := make([]PhysicalDevice, f.gpuCount)
	for i := range gpus {
		gpus[i] = PhysicalDevice(1000 + i)
	}
	return gpus, nil
}

func (f *fakeDriver) DeviceExtensions(PhysicalDevice) ([]string, error) { return f.deviceExts, nil }

func (f *fakeDriver) DeviceProperties(gpu PhysicalDevice) DeviceProperties {
	return DeviceProperties{Name: fmt.Sprintf("fake gpu %d", gpu), Type: DeviceTypeDiscreteGPU}
}

func (f *fakeDriver) QueueFamilies(PhysicalDevice) []QueueFamily { return f.families }

func (f *fakeDriver) FormatSupport(PhysicalDevice, Format) FormatSupport { return f.textureSupport }

func (f *fakeDriver) SurfaceSupport(_ PhysicalDevice, family uint32, surface Surface) (bool, error) {
	if !f.live["surface"][uint64(surface)] {
		f.fail("present support queried for dead surface %d", surface)
	}
	if f.presentFamilies == nil {
		return true, nil
	}
	return f.presentFamilies[family], nil
}

func (f *fakeDriver) SurfaceCapabilities(PhysicalDevice, Surface) (SurfaceCapabilities, error) {
	return f.caps, nil
}

func (f *fakeDriver) SurfaceFormats(PhysicalDevice, Surface) ([]SurfaceFormat, error) {
	return f.formats, nil
}

func (f *fakeDriver) PresentModes(PhysicalDevice, Surface) ([]PresentMode, error) {
	return f.modes, nil
}

func (f *fakeDriver) DestroySurface(_ Instance, surface Surface) {
	f.destroy("surface", uint64(surface))
}

func (f *fakeDriver) CreateDevice(_ PhysicalDevice, info DeviceInfo) (Device, error) {
	f.deviceInfos = append(f.deviceInfos, info)
	return Device(f.create("device")), nil
}

func (f *fakeDriver) DestroyDevice(device Device) {
	if kinds := f.liveKinds("instance", "surface", "device"); len(kinds) > 0 {
		f.fail("device destroyed with live %v", kinds)
	}
	f.destroy("device", uint64(device))
}

func (f *fakeDriver) Queue(family uint32) Queue { return Queue(500 + family) }

// retireAll completes every submitted batch.
func (f *fakeDriver) retireAll() {
	for _, fence := range f.fences {
		if fence.pending {
			fence.pending, fence.signaled = false, true
		}
	}
	f.pending = 0
}

func (f *fakeDriver) DeviceWaitIdle() error {
	f.retireAll()
	return nil
}

func (f *fakeDriver) QueueWaitIdle(Queue) error {
	f.retireAll()
	return nil
}

func (f *fakeDriver) CreateSwapchain(info SwapchainInfo) (Swapchain, error) {
	if info.Old != 0 && !f.live["swapchain"][uint64(info.Old)] {
		f.fail("old swapchain %d is not alive", info.Old)
	}
	f.swapchainInfos = append(f.swapchainInfos, info)
	sc := Swapchain(f.create("swapchain"))
	images := make([]Image, info.MinImageCount)
	for i := range images {
		f.next++
		images[i] = Image(f.next)
	}
	f.swapchainImgs[sc] = images
	return sc, nil
}

func (f *fakeDriver) DestroySwapchain(sc Swapchain) {
	f.destroy("swapchain", uint64(sc))
	delete(f.swapchainImgs, sc)
}

func (f *fakeDriver) SwapchainImages(sc Swapchain) ([]Image, error) {
	return f.swapchainImgs[sc], nil
}

func (f *fakeDriver) CreateImage(info ImageInfo) (Image, Memory, error) {
	img := Image(f.create("image"))
	mem := Memory(f.create("memory"))
	f.memory[mem] = make([]byte, info.Extent.Width*info.Extent.Height*4)
	return img, mem, nil
}

func (f *fakeDriver) DestroyImage(img Image, mem Memory) {
	f.destroy("image", uint64(img))
	f.destroy("memory", uint64(mem))
	delete(f.memory, mem)
}

func (f *fakeDriver) WriteImage(img Image, mem Memory, px TexturePixels) error {
	f.written[img] = px
	copy(f.memory[mem], px.RGBA)
	return nil
}

func (f *fakeDriver) CreateImageView(ImageViewInfo) (ImageView, error) {
	return ImageView(f.create("view")), nil
}

func (f *fakeDriver) DestroyImageView(v ImageView) { f.destroy("view", uint64(v)) }

func (f *fakeDriver) CreateSampler() (Sampler, error) { return Sampler(f.create("sampler")), nil }

func (f *fakeDriver) DestroySampler(s Sampler) { f.destroy("sampler", uint64(s)) }

func (f *fakeDriver) CreateBuffer(size uint64, _ BufferUsage) (Buffer, Memory, error) {
	buf := Buffer(f.create("buffer"))
	mem := Memory(f.create("memory"))
	f.memory[mem] = make([]byte, size)
	return buf, mem, nil
}

func (f *fakeDriver) DestroyBuffer(buf Buffer, mem Memory) {
	f.destroy("buffer", uint64(buf))
	f.destroy("memory", uint64(mem))
	delete(f.memory, mem)
}

func (f *fakeDriver) MapMemory(mem Memory, size uint64) ([]byte, error) {
	data, ok := f.memory[mem]
	if !ok || uint64(len(data)) < size {
		return nil, fmt.Errorf("fake: cannot map %d bytes of memory %d", size, mem)
	}
	f.create("mapping")
	return data[:size], nil
}

func (f *fakeDriver) UnmapMemory(Memory) {
	for h := range f.live["mapping"] {
		f.destroy("mapping", h)
		return
	}
	f.fail("unmap without mapping")
}

func (f *fakeDriver) CreateRenderPass(RenderPassInfo) (RenderPass, error) {
	return RenderPass(f.create("renderpass")), nil
}

func (f *fakeDriver) DestroyRenderPass(p RenderPass) { f.destroy("renderpass", uint64(p)) }

func (f *fakeDriver) CreateDescriptorSetLayout(uint32) (DescriptorSetLayout, error) {
	return DescriptorSetLayout(f.create("setlayout")), nil
}

func (f *fakeDriver) DestroyDescriptorSetLayout(l DescriptorSetLayout) {
	f.destroy("setlayout", uint64(l))
}

func (f *fakeDriver) CreatePipelineLayout(DescriptorSetLayout) (PipelineLayout, error) {
	return PipelineLayout(f.create("pipelinelayout")), nil
}

func (f *fakeDriver) DestroyPipelineLayout(l PipelineLayout) { f.destroy("pipelinelayout", uint64(l)) }

func (f *fakeDriver) CreatePipelineCache() (PipelineCache, error) {
	return PipelineCache(f.create("cache")), nil
}

func (f *fakeDriver) DestroyPipelineCache(c PipelineCache) { f.destroy("cache", uint64(c)) }

func (f *fakeDriver) CreateGraphicsPipeline(PipelineInfo) (Pipeline, error) {
	return Pipeline(f.create("pipeline")), nil
}

func (f *fakeDriver) DestroyPipeline(p Pipeline) { f.destroy("pipeline", uint64(p)) }

func (f *fakeDriver) CreateDescriptorPool(uint32, uint32) (DescriptorPool, error) {
	return DescriptorPool(f.create("descpool")), nil
}

func (f *fakeDriver) DestroyDescriptorPool(p DescriptorPool) { f.destroy("descpool", uint64(p)) }

func (f *fakeDriver) AllocateDescriptorSet(DescriptorPool, DescriptorSetLayout) (DescriptorSet, error) {
	f.next++
	return DescriptorSet(f.next), nil
}

func (f *fakeDriver) UpdateDescriptorSet(DescriptorSet, DescriptorWrite) {}

func (f *fakeDriver) CreateFramebuffer(FramebufferInfo) (Framebuffer, error) {
	return Framebuffer(f.create("framebuffer")), nil
}

func (f *fakeDriver) DestroyFramebuffer(fb Framebuffer) { f.destroy("framebuffer", uint64(fb)) }

func (f *fakeDriver) CreateCommandPool(uint32) (CommandPool, error) {
	return CommandPool(f.create("cmdpool")), nil
}

func (f *fakeDriver) DestroyCommandPool(p CommandPool) { f.destroy("cmdpool", uint64(p)) }

func (f *fakeDriver) AllocateCommandBuffer(pool CommandPool) (CommandBuffer, error) {
	if !f.live["cmdpool"][uint64(pool)] {
		f.fail("allocate from dead command pool %d", pool)
	}
	return CommandBuffer(f.create("cmdbuffer")), nil
}

func (f *fakeDriver) FreeCommandBuffer(_ CommandPool, cmd CommandBuffer) {
	f.destroy("cmdbuffer", uint64(cmd))
	delete(f.draws, cmd)
	delete(f.ownership, cmd)
}

func (f *fakeDriver) RecordDraw(cmd CommandBuffer, rec DrawRecording) error {
	f.draws[cmd] = rec
	return nil
}

func (f *fakeDriver) RecordOwnershipAcquire(cmd CommandBuffer, t OwnershipTransfer) error {
	f.ownership[cmd] = t
	return nil
}

func (f *fakeDriver) RecordSetup(_ CommandBuffer, rec SetupRecording) error {
	f.setups = append(f.setups, rec)
	return nil
}

func (f *fakeDriver) CreateFence(signaled bool) (Fence, error) {
	h := Fence(f.create("fence"))
	f.fences[h] = &fakeFence{signaled: signaled}
	return h, nil
}

func (f *fakeDriver) DestroyFence(h Fence) {
	if fence := f.fences[h]; fence != nil && fence.pending {
		f.fail("fence %d destroyed while pending", h)
	}
	f.destroy("fence", uint64(h))
	delete(f.fences, h)
}

// WaitForFence retires a pending fence at once.
func (f *fakeDriver) WaitForFence(h Fence, timeout uint64) error {
	f.waitTimeouts = append(f.waitTimeouts, timeout)
	if len(f.waitResults) > 0 {
		err := f.waitResults[0]
		f.waitResults = f.waitResults[1:]
		if err != nil {
			return err
		}
	}
	fence := f.fences[h]
	switch {
	case fence == nil:
		return fmt.Errorf("fake: wait on unknown fence %d", h)
	case fence.pending:
		fence.pending, fence.signaled = false, true
		f.pending--
	case !fence.signaled:
		f.fail("wait on fence %d that will never signal", h)
		return ErrDeviceHang
	}
	return nil
}

func (f *fakeDriver) ResetFence(h Fence) error {
	fence := f.fences[h]
	if fence == nil || fence.pending {
		f.fail("reset of pending or unknown fence %d", h)
		return nil
	}
	fence.signaled = false
	return nil
}

func (f *fakeDriver) CreateSemaphore() (Semaphore, error) {
	h := Semaphore(f.create("semaphore"))
	f.semaphores[h] = false
	return h, nil
}

func (f *fakeDriver) DestroySemaphore(h Semaphore) {
	f.destroy("semaphore", uint64(h))
	delete(f.semaphores, h)
}

func (f *fakeDriver) signal(h Semaphore) {
	if f.semaphores[h] {
		f.fail("semaphore %d signaled twice", h)
	}
	f.semaphores[h] = true
}

func (f *fakeDriver) wait(h Semaphore) {
	if !f.semaphores[h] {
		f.fail("wait on unsignaled semaphore %d", h)
	}
	f.semaphores[h] = false
}

func (f *fakeDriver) AcquireNextImage(sc Swapchain, _ uint64, signal Semaphore) (uint32, bool, error) {
	if len(f.acquireResults) > 0 {
		err := f.acquireResults[0]
		f.acquireResults = f.acquireResults[1:]
		if err != nil {
			return 0, false, err
		}
	}
	images := f.swapchainImgs[sc]
	if len(images) == 0 {
		return 0, false, fmt.Errorf("fake: acquire from unknown swapchain %d", sc)
	}
	f.signal(signal)
	index := f.acquired[sc] % uint32(len(images))
	f.acquired[sc]++
	f.lastIndex = index
	return index, f.suboptimal, nil
}

func (f *fakeDriver) QueueSubmit(queue Queue, submit Submission) error {
	if submit.Wait != 0 {
		f.wait(submit.Wait)
	}
	if submit.Signal != 0 {
		f.signal(submit.Signal)
	}
	if submit.Fence != 0 {
		fence := f.fences[submit.Fence]
		switch {
		case fence == nil:
			f.fail("submit with unknown fence %d", submit.Fence)
		case fence.signaled || fence.pending:
			f.fail("submit with fence %d that was not reset", submit.Fence)
		default:
			fence.pending = true
			f.pending++
			if f.pending > f.maxPending {
				f.maxPending = f.pending
			}
		}
	}
	f.submits = append(f.submits, fakeSubmit{Queue: queue, Submission: submit})
	return nil
}

func (f *fakeDriver) QueuePresent(_ Queue, present Presentation) (bool, error) {
	f.wait(present.Wait)
	f.presents = append(f.presents, present)
	if len(f.presentResults) > 0 {
		err := f.presentResults[0]
		f.presentResults = f.presentResults[1:]
		if err != nil {
			return false, err
		}
	}
	return f.suboptimal, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PlatformSurfaceExtension = "VK_KHR_xcb_surface"
	return cfg
}

func testAssets(count int) Assets {
	a := Assets{VertexShader: []byte{3, 2, 35, 7}, FragmentShader: []byte{3, 2, 35, 7}}
	for i := 0; i < count; i++ {
		a.Textures = append(a.Textures, Checkerboard(8, 2))
	}
	return a
}

// newTestEngine builds an engine on f and registers a check that every
// object is released and no rule was broken.
func newTestEngine(t *testing.T, f *fakeDriver, cfg Config) *Engine {
	t.Helper()
	e, err := New(f, cfg, f.surfaces(), testAssets(cfg.TextureCount), NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, e.Cleanup(true))
		require.Empty(t, f.liveKinds(), "objects leaked")
		require.Empty(t, f.errs)
	})
	return e
}
