package vkcube

// Opaque object handles issued by a Driver. The zero value of every handle
// is the null object.
type (
	Instance            uint64
	Surface             uint64
	PhysicalDevice      uint64
	Device              uint64
	Queue               uint64
	Swapchain           uint64
	Image               uint64
	ImageView           uint64
	Memory              uint64
	Buffer              uint64
	Sampler             uint64
	RenderPass          uint64
	DescriptorSetLayout uint64
	PipelineLayout      uint64
	PipelineCache       uint64
	Pipeline            uint64
	DescriptorPool      uint64
	DescriptorSet       uint64
	Framebuffer         uint64
	CommandPool         uint64
	CommandBuffer       uint64
	Fence               uint64
	Semaphore           uint64
)

// SurfaceProvider creates a presentation surface for the given instance. It is
// called once during initialization and again whenever the surface is lost.
type SurfaceProvider func(instance Instance) (Surface, error)

// InfiniteTimeout blocks a wait until the object is signaled.
const InfiniteTimeout = ^uint64(0)

// UndefinedExtent is reported as the current surface extent when the surface
// size is determined by the swapchain.
const UndefinedExtent = ^uint32(0)

type Extent struct {
	Width  uint32
	Height uint32
}

type InstanceInfo struct {
	AppName    string
	Layers     []string
	Extensions []string
	// Debug installs a debug report callback routed to the driver's logger.
	Debug bool
}

type DeviceInfo struct {
	// QueueFamilies holds one entry per distinct family, one queue each.
	QueueFamilies []uint32
	// QueuePriority is given to every queue.
	QueuePriority float32
	Extensions    []string
	Layers        []string
}

type DeviceProperties struct {
	Name       string
	Type       DeviceType
	APIVersion uint32
	VendorID   uint32
	DeviceID   uint32
}

type QueueFamily struct {
	Flags QueueFlags
	Count uint32
}

type SurfaceCapabilities struct {
	MinImageCount           uint32
	MaxImageCount           uint32
	CurrentExtent           Extent
	SupportedTransforms     SurfaceTransform
	CurrentTransform        SurfaceTransform
	SupportedCompositeAlpha CompositeAlpha
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// FormatSupport reports whether a format may be sampled with each tiling.
type FormatSupport struct {
	LinearSampled  bool
	OptimalSampled bool
}

type SwapchainInfo struct {
	Surface        Surface
	MinImageCount  uint32
	Format         Format
	ColorSpace     ColorSpace
	Extent         Extent
	PreTransform   SurfaceTransform
	CompositeAlpha CompositeAlpha
	PresentMode    PresentMode
	Old            Swapchain
}

type ImageInfo struct {
	Extent Extent
	Format Format
	Tiling ImageTiling
	Usage  ImageUsage
	// HostVisible selects host-visible memory, otherwise device-local.
	HostVisible bool
}

type ImageViewInfo struct {
	Image  Image
	Format Format
	Aspect ImageAspect
}

type RenderPassInfo struct {
	ColorFormat Format
	DepthFormat Format
}

type PipelineInfo struct {
	Layout         PipelineLayout
	RenderPass     RenderPass
	Cache          PipelineCache
	VertexShader   []byte
	FragmentShader []byte
}

type FramebufferInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent
}

// TextureBinding is one element of the combined image sampler array.
type TextureBinding struct {
	Sampler Sampler
	View    ImageView
}

type DescriptorWrite struct {
	Buffer   Buffer
	Range    uint64
	Textures []TextureBinding
}

// OwnershipTransfer describes a queue family ownership handoff of a
// presentable image.
type OwnershipTransfer struct {
	Image     Image
	SrcFamily uint32
	DstFamily uint32
}

type DrawRecording struct {
	RenderPass     RenderPass
	Framebuffer    Framebuffer
	Pipeline       Pipeline
	PipelineLayout PipelineLayout
	DescriptorSet  DescriptorSet
	Extent         Extent
	VertexCount    uint32
	// Release is recorded after the render pass when presentation happens on
	// another queue family.
	Release *OwnershipTransfer
}

type LayoutTransition struct {
	Image     Image
	Aspect    ImageAspect
	OldLayout ImageLayout
	NewLayout ImageLayout
}

type ImageCopy struct {
	Src    Image
	Dst    Image
	Extent Extent
}

// SetupRecording is a one-shot initialization recording: Before transitions,
// then Copies, then After transitions.
type SetupRecording struct {
	Before []LayoutTransition
	Copies []ImageCopy
	After  []LayoutTransition
}

type Submission struct {
	Wait           Semaphore
	WaitStage      PipelineStage
	CommandBuffers []CommandBuffer
	Signal         Semaphore
	Fence          Fence
}

type Presentation struct {
	Wait       Semaphore
	Swapchain  Swapchain
	ImageIndex uint32
}

// Driver is the boundary between the presentation engine and the GPU API.
// Object calls after CreateDevice operate on that device.
//
// Failures are returned as errors. Presentation calls report out-of-date and
// lost surfaces as ErrOutOfDate and ErrSurfaceLost, a suboptimal swapchain as a
// true suboptimal flag, and expired waits as ErrDeviceHang.
type Driver interface {
	ValidationLayers() ([]string, error)
	InstanceExtensions() ([]string, error)
	CreateInstance(info InstanceInfo) (Instance, error)
	DestroyInstance(instance Instance)

	PhysicalDevices(instance Instance) ([]PhysicalDevice, error)
	DeviceExtensions(gpu PhysicalDevice) ([]string, error)
	DeviceProperties(gpu PhysicalDevice) DeviceProperties
	QueueFamilies(gpu PhysicalDevice) []QueueFamily
	FormatSupport(gpu PhysicalDevice, format Format) FormatSupport

	SurfaceSupport(gpu PhysicalDevice, family uint32, surface Surface) (bool, error)
	SurfaceCapabilities(gpu PhysicalDevice, surface Surface) (SurfaceCapabilities, error)
	SurfaceFormats(gpu PhysicalDevice, surface Surface) ([]SurfaceFormat, error)
	PresentModes(gpu PhysicalDevice, surface Surface) ([]PresentMode, error)
	DestroySurface(instance Instance, surface Surface)

	CreateDevice(gpu PhysicalDevice, info DeviceInfo) (Device, error)
	DestroyDevice(device Device)
	Queue(family uint32) Queue
	DeviceWaitIdle() error
	QueueWaitIdle(queue Queue) error

	CreateSwapchain(info SwapchainInfo) (Swapchain, error)
	DestroySwapchain(swapchain Swapchain)
	SwapchainImages(swapchain Swapchain) ([]Image, error)

	CreateImage(info ImageInfo) (Image, Memory, error)
	DestroyImage(image Image, memory Memory)
	// WriteImage copies tightly packed RGBA rows into a host-visible linear
	// image, honouring the image's row pitch.
	WriteImage(image Image, memory Memory, pixels TexturePixels) error
	CreateImageView(info ImageViewInfo) (ImageView, error)
	DestroyImageView(view ImageView)
	CreateSampler() (Sampler, error)
	DestroySampler(sampler Sampler)

	// CreateBuffer creates a host-visible, host-coherent buffer.
	CreateBuffer(size uint64, usage BufferUsage) (Buffer, Memory, error)
	DestroyBuffer(buffer Buffer, memory Memory)
	MapMemory(memory Memory, size uint64) ([]byte, error)
	UnmapMemory(memory Memory)

	CreateRenderPass(info RenderPassInfo) (RenderPass, error)
	DestroyRenderPass(pass RenderPass)
	CreateDescriptorSetLayout(textureCount uint32) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(layout DescriptorSetLayout)
	CreatePipelineLayout(setLayout DescriptorSetLayout) (PipelineLayout, error)
	DestroyPipelineLayout(layout PipelineLayout)
	CreatePipelineCache() (PipelineCache, error)
	DestroyPipelineCache(cache PipelineCache)
	CreateGraphicsPipeline(info PipelineInfo) (Pipeline, error)
	DestroyPipeline(pipeline Pipeline)

	CreateDescriptorPool(maxSets, textureCount uint32) (DescriptorPool, error)
	DestroyDescriptorPool(pool DescriptorPool)
	AllocateDescriptorSet(pool DescriptorPool, layout DescriptorSetLayout) (DescriptorSet, error)
	UpdateDescriptorSet(set DescriptorSet, write DescriptorWrite)

	CreateFramebuffer(info FramebufferInfo) (Framebuffer, error)
	DestroyFramebuffer(framebuffer Framebuffer)

	CreateCommandPool(family uint32) (CommandPool, error)
	DestroyCommandPool(pool CommandPool)
	AllocateCommandBuffer(pool CommandPool) (CommandBuffer, error)
	FreeCommandBuffer(pool CommandPool, cmd CommandBuffer)
	RecordDraw(cmd CommandBuffer, rec DrawRecording) error
	RecordOwnershipAcquire(cmd CommandBuffer, transfer OwnershipTransfer) error
	RecordSetup(cmd CommandBuffer, rec SetupRecording) error

	CreateFence(signaled bool) (Fence, error)
	DestroyFence(fence Fence)
	WaitForFence(fence Fence, timeout uint64) error
	ResetFence(fence Fence) error
	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(semaphore Semaphore)

	AcquireNextImage(swapchain Swapchain, timeout uint64, signal Semaphore) (index uint32, suboptimal bool, err error)
	QueueSubmit(queue Queue, submit Submission) error
	QueuePresent(queue Queue, present Presentation) (suboptimal bool, err error)
}
