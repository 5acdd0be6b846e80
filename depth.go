package vkcube

import "github.com/pkg/errors"

// DepthFormat is the format of the shared depth attachment.
const DepthFormat = FormatD16Unorm

type depthResource struct {
	Image  Image
	Memory Memory
	View   ImageView
}

func newDepthResource(d Driver, extent Extent) (*depthResource, error) {
	img, mem, err := d.CreateImage(ImageInfo{
		Extent: extent,
		Format: DepthFormat,
		Tiling: ImageTilingOptimal,
		Usage:  ImageUsageDepthStencilAttachment,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create depth image")
	}
	view, err := d.CreateImageView(ImageViewInfo{Image: img, Format: DepthFormat, Aspect: ImageAspectDepth})
	if err != nil {
		d.DestroyImage(img, mem)
		return nil, errors.Wrap(err, "create depth view")
	}
	return &depthResource{Image: img, Memory: mem, View: view}, nil
}

func (r *depthResource) release(d Driver) {
	d.DestroyImageView(r.View)
	d.DestroyImage(r.Image, r.Memory)
}
