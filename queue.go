package vkcube

import "github.com/pkg/errors"

// DeviceContext is the logical device and its queues. It is read-only after
// creation.
type DeviceContext struct {
	GPU        PhysicalDevice
	Properties DeviceProperties
	Device     Device

	GraphicsFamily uint32
	PresentFamily  uint32
	// SeparatePresentQueue is set when presentation happens on another queue
	// family and images must change ownership before present.
	SeparatePresentQueue bool

	GraphicsQueue Queue
	// PresentQueue aliases GraphicsQueue unless SeparatePresentQueue is set.
	PresentQueue Queue
}

// SelectQueueFamilies picks the graphics and present families. A family that
// does both wins outright; otherwise the first graphics family and the first
// present family are paired.
func SelectQueueFamilies(families []QueueFamily, presentSupport func(family uint32) (bool, error)) (graphics, present uint32, separate bool, err error) {
	const none = ^uint32(0)
	graphics, present = none, none
	for i, family := range families {
		idx := uint32(i)
		supported, err := presentSupport(idx)
		if err != nil {
			return 0, 0, false, errors.Wrapf(err, "query present support of family %d", idx)
		}
		isGraphics := family.Flags&QueueGraphics != 0
		if isGraphics && supported {
			return idx, idx, false, nil
		}
		if isGraphics && graphics == none {
			graphics = idx
		}
		if supported && present == none {
			present = idx
		}
	}
	if graphics == none || present == none {
		return 0, 0, false, &FatalError{Kind: FatalNoQueueFamilies}
	}
	return graphics, present, graphics != present, nil
}

// CreateDeviceContext selects queue families against surface and creates the
// logical device with every feature disabled.
func CreateDeviceContext(d Driver, disc *Discovery, surface Surface, logger *Logger) (*DeviceContext, error) {
	graphics, present, separate, err := SelectQueueFamilies(disc.QueueFamilies, func(family uint32) (bool, error) {
		return d.SurfaceSupport(disc.GPU, family, surface)
	})
	if err != nil {
		return nil, err
	}

	families := []uint32{graphics}
	if separate {
		families = append(families, present)
	}
	device, err := d.CreateDevice(disc.GPU, DeviceInfo{
		QueueFamilies: families,
		QueuePriority: 0,
		Extensions:    disc.DeviceExtensions,
		Layers:        disc.Layers,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create device")
	}

	ctx := &DeviceContext{
		GPU:                  disc.GPU,
		Properties:           disc.Properties,
		Device:               device,
		GraphicsFamily:       graphics,
		PresentFamily:        present,
		SeparatePresentQueue: separate,
		GraphicsQueue:        d.Queue(graphics),
	}
	ctx.PresentQueue = ctx.GraphicsQueue
	if separate {
		ctx.PresentQueue = d.Queue(present)
		logger.Info.Printf("vulkan: graphics family %d, separate present family %d", graphics, present)
	} else {
		logger.Info.Printf("vulkan: graphics and present on family %d", graphics)
	}
	return ctx, nil
}
