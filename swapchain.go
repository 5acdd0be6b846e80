package vkcube

import "github.com/pkg/errors"

// swapchainState is one generation of the swapchain. The presentable images
// belong to the swapchain; their views are handed to the frame pool.
type swapchainState struct {
	Handle      Swapchain
	Format      Format
	ColorSpace  ColorSpace
	PresentMode PresentMode
	Extent      Extent
	Images      []Image
}

// ResolveExtent returns the surface extent, or the caller size when the
// surface leaves the extent to the swapchain.
func ResolveExtent(caps SurfaceCapabilities, width, height uint32) Extent {
	if caps.CurrentExtent.Width == UndefinedExtent && caps.CurrentExtent.Height == UndefinedExtent {
		return Extent{Width: width, Height: height}
	}
	return caps.CurrentExtent
}

// ChoosePresentMode accepts FIFO, which every surface supports, or a requested
// mode the surface lists. Anything else is fatal.
func ChoosePresentMode(requested PresentMode, supported []PresentMode) (PresentMode, error) {
	if requested == PresentModeFifo {
		return PresentModeFifo, nil
	}
	for _, mode := range supported {
		if mode == requested {
			return mode, nil
		}
	}
	return 0, fatalf(FatalUnsupportedPresentMode, "%s not in %v", requested, supported)
}

// ClampImageCount raises desired to min and lowers it to max when max is set.
func ClampImageCount(desired, min, max uint32) uint32 {
	count := desired
	if count < min {
		count = min
	}
	if max > 0 && count > max {
		count = max
	}
	return count
}

// ChoosePreTransform keeps images unrotated when the surface allows it,
// otherwise it uses the current transform.
func ChoosePreTransform(caps SurfaceCapabilities) SurfaceTransform {
	if caps.SupportedTransforms&SurfaceTransformIdentity != 0 {
		return SurfaceTransformIdentity
	}
	return caps.CurrentTransform
}

var compositeAlphaPreference = []CompositeAlpha{
	CompositeAlphaOpaque,
	CompositeAlphaPreMultiplied,
	CompositeAlphaPostMultiplied,
	CompositeAlphaInherit,
}

// ChooseCompositeAlpha picks the first supported mode in preference order.
func ChooseCompositeAlpha(supported CompositeAlpha) CompositeAlpha {
	for _, alpha := range compositeAlphaPreference {
		if supported&alpha != 0 {
			return alpha
		}
	}
	return CompositeAlphaOpaque
}

// ChooseSurfaceFormat prefers an 8-bit UNORM BGRA or RGBA format. A lone
// undefined entry leaves the choice to us.
func ChooseSurfaceFormat(formats []SurfaceFormat) (SurfaceFormat, error) {
	if len(formats) == 0 {
		return SurfaceFormat{}, &FatalError{Kind: FatalNoSurfaceFormat}
	}
	if len(formats) == 1 && formats[0].Format == FormatUndefined {
		return SurfaceFormat{Format: FormatB8G8R8A8Unorm, ColorSpace: formats[0].ColorSpace}, nil
	}
	for _, f := range formats {
		if f.Format == FormatB8G8R8A8Unorm || f.Format == FormatR8G8B8A8Unorm {
			return f, nil
		}
	}
	return formats[0], nil
}

// createSwapchain builds a swapchain generation, handing old over as its
// predecessor. old is destroyed only once the new swapchain exists.
func createSwapchain(d Driver, dev *DeviceContext, surface Surface, requested PresentMode,
	width, height uint32, old Swapchain, logger *Logger) (*swapchainState, []ImageView, error) {

	caps, err := d.SurfaceCapabilities(dev.GPU, surface)
	if err != nil {
		return nil, nil, errors.Wrap(err, "query surface capabilities")
	}
	formats, err := d.SurfaceFormats(dev.GPU, surface)
	if err != nil {
		return nil, nil, errors.Wrap(err, "query surface formats")
	}
	format, err := ChooseSurfaceFormat(formats)
	if err != nil {
		return nil, nil, err
	}
	modes, err := d.PresentModes(dev.GPU, surface)
	if err != nil {
		return nil, nil, errors.Wrap(err, "query present modes")
	}
	mode, err := ChoosePresentMode(requested, modes)
	if err != nil {
		return nil, nil, err
	}

	sc := &swapchainState{
		Format:      format.Format,
		ColorSpace:  format.ColorSpace,
		PresentMode: mode,
		Extent:      ResolveExtent(caps, width, height),
	}
	handle, err := d.CreateSwapchain(SwapchainInfo{
		Surface:        surface,
		MinImageCount:  ClampImageCount(DesiredImageCount, caps.MinImageCount, caps.MaxImageCount),
		Format:         sc.Format,
		ColorSpace:     sc.ColorSpace,
		Extent:         sc.Extent,
		PreTransform:   ChoosePreTransform(caps),
		CompositeAlpha: ChooseCompositeAlpha(caps.SupportedCompositeAlpha),
		PresentMode:    mode,
		Old:            old,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "create swapchain")
	}
	if old != 0 {
		d.DestroySwapchain(old)
	}
	sc.Handle = handle

	sc.Images, err = d.SwapchainImages(handle)
	if err != nil {
		return sc, nil, errors.Wrap(err, "get swapchain images")
	}
	views := make([]ImageView, 0, len(sc.Images))
	for _, img := range sc.Images {
		view, err := d.CreateImageView(ImageViewInfo{
			Image:  img,
			Format: sc.Format,
			Aspect: ImageAspectColor,
		})
		if err != nil {
			for _, v := range views {
				d.DestroyImageView(v)
			}
			return sc, nil, errors.Wrap(err, "create swapchain image view")
		}
		views = append(views, view)
	}
	logger.Info.Printf("vulkan: swapchain %dx%d, %d images, %s", sc.Extent.Width, sc.Extent.Height, len(sc.Images), mode)
	return sc, views, nil
}
