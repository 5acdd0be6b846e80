package vkcube

import "github.com/pkg/errors"

// TextureFormat is the format every texture is uploaded in.
const TextureFormat = FormatR8G8B8A8Unorm

type textureObject struct {
	Image   Image
	Memory  Memory
	View    ImageView
	Sampler Sampler
	Layout  ImageLayout
}

func (t *textureObject) release(d Driver) {
	if t.Sampler != 0 {
		d.DestroySampler(t.Sampler)
	}
	if t.View != 0 {
		d.DestroyImageView(t.View)
	}
	if t.Image != 0 {
		d.DestroyImage(t.Image, t.Memory)
	}
	*t = textureObject{}
}

// texturePath is how a texture reaches the device.
type texturePath int

const (
	textureLinear texturePath = iota + 1
	textureStaged
)

// chooseTexturePath samples linear images directly when allowed, otherwise
// copies through a staging image into an optimally tiled one.
func chooseTexturePath(support FormatSupport, useStaging bool) (texturePath, error) {
	switch {
	case support.LinearSampled && !useStaging:
		return textureLinear, nil
	case support.OptimalSampled:
		return textureStaged, nil
	}
	return 0, &FatalError{Kind: FatalUnsupportedTextureFormat}
}

// prepareTextures uploads pixels and leaves every texture in the shader read
// layout. Staging images are destroyed once their copy has completed.
func prepareTextures(d Driver, dev *DeviceContext, pool CommandPool, pixels []TexturePixels,
	useStaging bool, logger *Logger) (_ []textureObject, err error) {

	path, err := chooseTexturePath(d.FormatSupport(dev.GPU, TextureFormat), useStaging)
	if err != nil {
		return nil, err
	}

	textures := make([]textureObject, 0, len(pixels))
	var staging []textureObject
	defer func() {
		for i := range staging {
			staging[i].release(d)
		}
		if err != nil {
			for i := range textures {
				textures[i].release(d)
			}
		}
	}()

	var setup SetupRecording
	for _, px := range pixels {
		extent := Extent{Width: px.Width, Height: px.Height}
		switch path {
		case textureLinear:
			tex, err := newTextureImage(d, px, ImageTilingLinear, ImageUsageSampled, true)
			if err != nil {
				return nil, err
			}
			textures = append(textures, tex)
			setup.Before = append(setup.Before, LayoutTransition{
				Image: tex.Image, Aspect: ImageAspectColor,
				OldLayout: ImageLayoutPreinitialized, NewLayout: ImageLayoutShaderReadOnlyOptimal,
			})
		case textureStaged:
			src, err := newTextureImage(d, px, ImageTilingLinear, ImageUsageTransferSrc, true)
			if err != nil {
				return nil, err
			}
			staging = append(staging, src)
			tex, err := newTextureImage(d, px, ImageTilingOptimal, ImageUsageTransferDst|ImageUsageSampled, false)
			if err != nil {
				return nil, err
			}
			textures = append(textures, tex)
			setup.Before = append(setup.Before,
				LayoutTransition{Image: src.Image, Aspect: ImageAspectColor,
					OldLayout: ImageLayoutPreinitialized, NewLayout: ImageLayoutTransferSrcOptimal},
				LayoutTransition{Image: tex.Image, Aspect: ImageAspectColor,
					OldLayout: ImageLayoutPreinitialized, NewLayout: ImageLayoutTransferDstOptimal},
			)
			setup.Copies = append(setup.Copies, ImageCopy{Src: src.Image, Dst: tex.Image, Extent: extent})
			setup.After = append(setup.After, LayoutTransition{
				Image: tex.Image, Aspect: ImageAspectColor,
				OldLayout: ImageLayoutTransferDstOptimal, NewLayout: ImageLayoutShaderReadOnlyOptimal,
			})
		}
		logger.Info.Printf("vulkan: loaded texture %dx%d", px.Width, px.Height)
	}

	if err := flushSetup(d, dev, pool, setup); err != nil {
		return nil, err
	}

	for i := range textures {
		tex := &textures[i]
		tex.Layout = ImageLayoutShaderReadOnlyOptimal
		if tex.Sampler, err = d.CreateSampler(); err != nil {
			return nil, errors.Wrap(err, "create sampler")
		}
		if tex.View, err = d.CreateImageView(ImageViewInfo{Image: tex.Image, Format: TextureFormat, Aspect: ImageAspectColor}); err != nil {
			return nil, errors.Wrap(err, "create texture view")
		}
	}
	return textures, nil
}

func newTextureImage(d Driver, px TexturePixels, tiling ImageTiling, usage ImageUsage, hostVisible bool) (textureObject, error) {
	img, mem, err := d.CreateImage(ImageInfo{
		Extent:      Extent{Width: px.Width, Height: px.Height},
		Format:      TextureFormat,
		Tiling:      tiling,
		Usage:       usage,
		HostVisible: hostVisible,
	})
	if err != nil {
		return textureObject{}, errors.Wrap(err, "create texture image")
	}
	tex := textureObject{Image: img, Memory: mem, Layout: ImageLayoutPreinitialized}
	if hostVisible {
		if err := d.WriteImage(img, mem, px); err != nil {
			tex.release(d)
			return textureObject{}, errors.Wrap(err, "write texture image")
		}
	}
	return tex, nil
}

// flushSetup records rec into a one-shot command buffer, submits it on the
// graphics queue and waits for it to retire.
func flushSetup(d Driver, dev *DeviceContext, pool CommandPool, rec SetupRecording) error {
	cmd, err := d.AllocateCommandBuffer(pool)
	if err != nil {
		return errors.Wrap(err, "allocate setup command buffer")
	}
	defer d.FreeCommandBuffer(pool, cmd)

	if err := d.RecordSetup(cmd, rec); err != nil {
		return errors.Wrap(err, "record setup commands")
	}
	if err := d.QueueSubmit(dev.GraphicsQueue, Submission{CommandBuffers: []CommandBuffer{cmd}}); err != nil {
		return errors.Wrap(err, "submit setup commands")
	}
	return errors.Wrap(d.QueueWaitIdle(dev.GraphicsQueue), "wait for setup commands")
}
