package vkcube

import (
	"fmt"

	"github.com/pkg/errors"
)

// Transient presentation conditions. The frame loop recovers from the first
// two on its own; ErrDeviceHang is only returned with a finite FrameTimeout.
var (
	ErrOutOfDate   = errors.New("vkcube: swapchain out of date")
	ErrSurfaceLost = errors.New("vkcube: surface lost")
	ErrDeviceHang  = errors.New("vkcube: wait timed out, device may be hung")
	ErrNotPrepared = errors.New("vkcube: engine is not prepared")
)

type FatalKind int

const (
	FatalMissingLayer FatalKind = iota + 1
	FatalMissingSurfaceExtension
	FatalMissingPlatformSurfaceExtension
	FatalNoPhysicalDevice
	FatalMissingDeviceExtension
	FatalNoQueueFamilies
	FatalUnsupportedPresentMode
	FatalUnsupportedTextureFormat
	FatalNoSurfaceFormat
	FatalPresentUnsupported
)

var fatalMessages = map[FatalKind]string{
	FatalMissingLayer:                    "required validation layer is missing",
	FatalMissingSurfaceExtension:         "surface extension is missing",
	FatalMissingPlatformSurfaceExtension: "platform surface extension is missing",
	FatalNoPhysicalDevice:                "no physical device found",
	FatalMissingDeviceExtension:          "swapchain device extension is missing",
	FatalNoQueueFamilies:                 "could not find both graphics and present queues",
	FatalUnsupportedPresentMode:          "present mode unsupported",
	FatalUnsupportedTextureFormat:        "no support for R8G8B8A8_UNORM as texture image format",
	FatalNoSurfaceFormat:                 "no surface format available",
	FatalPresentUnsupported:              "recreated surface is not supported by the present queue",
}

func (k FatalKind) String() string {
	if msg, ok := fatalMessages[k]; ok {
		return msg
	}
	return fmt.Sprintf("fatal(%d)", int(k))
}

// FatalError is a configuration or capability defect of the host the engine
// cannot work around.
type FatalError struct {
	Kind   FatalKind
	Detail string
}

func (e *FatalError) Error() string {
	if e.Detail == "" {
		return "vkcube: " + e.Kind.String()
	}
	return "vkcube: " + e.Kind.String() + ": " + e.Detail
}

func fatalf(kind FatalKind, format string, args ...interface{}) *FatalError {
	return &FatalError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err is a FatalError, returning its kind.
func IsFatal(err error) (FatalKind, bool) {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// Fatal runs finalizers, records err in the fatal log and exits the process.
func Fatal(err error, finalizers ...func()) {
	stderrLogger.Fatal(err, finalizers...)
}

func orPanic(err error) {
	if err != nil {
		panic(err)
	}
}

// must asserts a driver call succeeded.
func must(err error, what string) {
	orPanic(errors.Wrap(err, what))
}

func checkErr(err *error) {
	if v := recover(); v != nil {
		if e, ok := v.(error); ok {
			*err = e
			return
		}
		*err = fmt.Errorf("%+v", v)
	}
}
