package vkcube

import (
	"github.com/pkg/errors"
)

// Discovery records the instance and the physical device chosen for the run
// along with the capabilities queried from it.
type Discovery struct {
	Instance      Instance
	GPU           PhysicalDevice
	Properties    DeviceProperties
	QueueFamilies []QueueFamily
	// Layers are enabled on both the instance and the device.
	Layers           []string
	DeviceExtensions []string
}

// Discover creates the instance and selects the first physical device,
// failing fatally when a required layer or extension is missing.
func Discover(d Driver, cfg Config, logger *Logger) (disc *Discovery, err error) {
	var layers []string
	if cfg.Validate {
		available, err := d.ValidationLayers()
		if err != nil {
			return nil, errors.Wrap(err, "enumerate validation layers")
		}
		if missing := checkExisting(available, []string{cfg.ValidationLayer}); len(missing) > 0 {
			return nil, fatalf(FatalMissingLayer, "%s (is the Vulkan SDK installed?)", missing[0])
		}
		layers = []string{cfg.ValidationLayer}
	}

	available, err := d.InstanceExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate instance extensions")
	}
	if missing := checkExisting(available, []string{cfg.SurfaceExtension}); len(missing) > 0 {
		return nil, fatalf(FatalMissingSurfaceExtension, "%s", missing[0])
	}
	if missing := checkExisting(available, []string{cfg.PlatformSurfaceExtension}); len(missing) > 0 {
		return nil, fatalf(FatalMissingPlatformSurfaceExtension, "%s", missing[0])
	}
	extensions := []string{cfg.SurfaceExtension, cfg.PlatformSurfaceExtension}
	debug := cfg.Validate && len(checkExisting(available, []string{DebugReportExtension})) == 0
	if debug {
		extensions = append(extensions, DebugReportExtension)
	}
	logger.Info.Printf("vulkan: enabling %d instance extensions, %d layers", len(extensions), len(layers))

	instance, err := d.CreateInstance(InstanceInfo{
		AppName:    cfg.AppName,
		Layers:     layers,
		Extensions: extensions,
		Debug:      debug,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}
	defer func() {
		if err != nil {
			d.DestroyInstance(instance)
		}
	}()

	gpus, err := d.PhysicalDevices(instance)
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	if len(gpus) == 0 {
		return nil, &FatalError{Kind: FatalNoPhysicalDevice}
	}
	// The first device is taken as is; no capability scoring.
	gpu := gpus[0]

	deviceExtensions, err := d.DeviceExtensions(gpu)
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}
	if missing := checkExisting(deviceExtensions, []string{SwapchainExtension}); len(missing) > 0 {
		return nil, fatalf(FatalMissingDeviceExtension, "%s", missing[0])
	}

	props := d.DeviceProperties(gpu)
	logger.Info.Printf("vulkan: selected device %q (%s) of %d", props.Name, props.Type, len(gpus))

	return &Discovery{
		Instance:         instance,
		GPU:              gpu,
		Properties:       props,
		QueueFamilies:    d.QueueFamilies(gpu),
		Layers:           layers,
		DeviceExtensions: []string{SwapchainExtension},
	}, nil
}

// checkExisting returns the required names absent from actual.
func checkExisting(actual, required []string) (missing []string) {
	existing := make(map[string]struct{}, len(actual))
	for _, name := range actual {
		existing[name] = struct{}{}
	}
	for _, name := range required {
		if _, ok := existing[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
