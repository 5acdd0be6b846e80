package main

import (
	"flag"
	"runtime"

	"github.com/andewx/vkcube"
	"github.com/andewx/vkcube/vkdriver"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/closer"
)

var (
	configPath = flag.String("config", "vkcube.yaml", "engine configuration file")
	shaderDir  = flag.String("shaders", "shaders", "directory holding cube.vert.spv and cube.frag.spv")
)

func init() {
	// glfw and the presentation engine must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()

	cfg, err := vkcube.LoadConfig(*configPath)
	orFatal(err)
	logger, err := vkcube.NewLogger(cfg.LogDir)
	orFatal(err)

	orFatal(glfw.Init())
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	orFatal(vk.Init())

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.AppName, nil, nil)
	orFatal(err)
	if cfg.PlatformSurfaceExtension == vkcube.PlatformSurfaceExtension(runtime.GOOS) {
		cfg.PlatformSurfaceExtension = platformExtension(window.GetRequiredInstanceExtensions(), cfg.PlatformSurfaceExtension)
	}

	assets, err := vkcube.LoadAssets(*shaderDir, cfg.TextureCount)
	orFatal(err)

	driver := vkdriver.New(logger)
	surfaces := driver.SurfaceProvider(func(instance vk.Instance) (vk.Surface, error) {
		ptr, err := window.CreateWindowSurface(instance, nil)
		if err != nil {
			return vk.NullSurface, errors.Wrap(err, "create window surface")
		}
		return vk.SurfaceFromPointer(ptr), nil
	})
	engine, err := vkcube.New(driver, cfg, surfaces, assets, logger)
	if err != nil {
		logger.Fatal(err, glfw.Terminate)
	}
	logger.Info.Printf("vkcube: presenting %dx%d", engine.Extent().Width, engine.Extent().Height)

	cleanup := func() {
		if err := engine.Cleanup(true); err != nil {
			logger.Error.Println(err)
		}
		window.Destroy()
		glfw.Terminate()
	}
	// closer runs its hooks on its own goroutine; the loop does the cleanup.
	exit := newShutdown()
	closer.Bind(func() {
		exit.request()
		logger.Close()
	})
	defer closer.Close()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if err := engine.Resize(uint32(width), uint32(height)); err != nil {
			logger.Fatal(err, cleanup)
		}
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeySpace:
			engine.Animation.Paused = !engine.Animation.Paused
		case glfw.KeyLeft:
			engine.Animation.SpinAngle -= 0.5
		case glfw.KeyRight:
			engine.Animation.SpinAngle += 0.5
		}
	})

	for !window.ShouldClose() && !exit.requested() {
		if width, height := window.GetFramebufferSize(); width == 0 || height == 0 {
			// Minimized; nothing can be presented.
			glfw.WaitEventsTimeout(0.1)
			continue
		}
		if err := engine.Draw(); err != nil {
			logger.Fatal(err, cleanup)
		}
		glfw.PollEvents()
	}
	cleanup()
	exit.done()
}

// platformExtension picks the window-system surface extension glfw asks for.
func platformExtension(required []string, fallback string) string {
	for _, ext := range required {
		if ext != vkcube.SurfaceExtension {
			return ext
		}
	}
	return fallback
}

func orFatal(err error) {
	if err != nil {
		vkcube.Fatal(err)
	}
}
