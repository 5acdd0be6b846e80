package vkdriver

import (
	"fmt"
	"runtime"

	"github.com/andewx/vkcube"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

// newError converts a result into an error annotated with the calling
// function. Presentation results map onto the engine's sentinels.
func newError(ret vk.Result) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate:
		return vkcube.ErrOutOfDate
	case vk.ErrorSurfaceLost:
		return vkcube.ErrSurfaceLost
	case vk.Timeout:
		return vkcube.ErrDeviceHang
	}
	err := vk.Error(ret)
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			return errors.Wrapf(err, "vulkan error (%d) on %s", ret, fn.Name())
		}
	}
	return errors.Wrapf(err, "vulkan error (%d)", ret)
}

// presentResult splits a suboptimal result off as a flag.
func presentResult(ret vk.Result) (suboptimal bool, err error) {
	if ret == vk.Suboptimal {
		return true, nil
	}
	return false, newError(ret)
}

func orPanic(err error) {
	if err != nil {
		panic(err)
	}
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
