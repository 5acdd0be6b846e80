package vkcube

import (
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// FrameLag is the number of frames the CPU may submit ahead of the GPU.
	FrameLag = 2
	// DesiredImageCount asks for triple buffering before clamping.
	DesiredImageCount = 3
	MaxTextures       = 4

	SurfaceExtension       = "VK_KHR_surface"
	SwapchainExtension     = "VK_KHR_swapchain"
	DebugReportExtension   = "VK_EXT_debug_report"
	KhronosValidationLayer = "VK_LAYER_KHRONOS_validation"
	defaultAppName         = "vkcube"
	defaultSize            = 500
)

// Config holds the engine settings, usually read from a YAML file.
type Config struct {
	AppName     string      `yaml:"app_name"`
	Width       uint32      `yaml:"width"`
	Height      uint32      `yaml:"height"`
	PresentMode PresentMode `yaml:"present_mode"`

	// Validate enables the validation layer; a missing layer is fatal.
	Validate        bool   `yaml:"validate"`
	ValidationLayer string `yaml:"validation_layer"`

	SurfaceExtension         string `yaml:"surface_extension"`
	PlatformSurfaceExtension string `yaml:"platform_surface_extension"`

	// UseStagingBuffer forces the optimal tiling upload path for textures.
	UseStagingBuffer bool `yaml:"use_staging_buffer"`
	TextureCount     int  `yaml:"texture_count"`

	// SpinAngle is the model rotation in degrees applied every frame.
	SpinAngle float32 `yaml:"spin_angle"`

	// FrameTimeout bounds the fence and acquire waits. Zero waits forever.
	FrameTimeout time.Duration `yaml:"frame_timeout"`

	LogDir string `yaml:"log_dir"`
}

// DefaultConfig is a 500x500 FIFO window with validation on and one texture.
func DefaultConfig() Config {
	return Config{
		AppName:                  defaultAppName,
		Width:                    defaultSize,
		Height:                   defaultSize,
		PresentMode:              PresentModeFifo,
		Validate:                 true,
		ValidationLayer:          KhronosValidationLayer,
		SurfaceExtension:         SurfaceExtension,
		PlatformSurfaceExtension: PlatformSurfaceExtension(runtime.GOOS),
		TextureCount:             1,
		SpinAngle:                4,
	}
}

// PlatformSurfaceExtension names the window-system surface extension of goos.
func PlatformSurfaceExtension(goos string) string {
	switch goos {
	case "windows":
		return "VK_KHR_win32_surface"
	case "darwin", "ios":
		return "VK_EXT_metal_surface"
	case "android":
		return "VK_KHR_android_surface"
	default:
		return "VK_KHR_xcb_surface"
	}
}

// LoadConfig overlays the YAML file at path on DefaultConfig. A missing file
// yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Check()
}

// Check rejects settings the engine cannot start with.
func (c Config) Check() error {
	switch {
	case c.Width == 0 || c.Height == 0:
		return errors.Errorf("config: invalid window size %dx%d", c.Width, c.Height)
	case c.TextureCount < 1 || c.TextureCount > MaxTextures:
		return errors.Errorf("config: texture_count must be in [1, %d], got %d", MaxTextures, c.TextureCount)
	case c.Validate && c.ValidationLayer == "":
		return errors.New("config: validation requested without a validation layer")
	}
	return nil
}

func (c Config) timeout() uint64 {
	if c.FrameTimeout <= 0 {
		return InfiniteTimeout
	}
	return uint64(c.FrameTimeout.Nanoseconds())
}

func (m *PresentMode) UnmarshalYAML(value *yaml.Node) error {
	return m.UnmarshalText([]byte(value.Value))
}
