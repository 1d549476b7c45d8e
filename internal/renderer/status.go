package renderer

import (
	"errors"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"gpudisplay/internal/backend"
	"gpudisplay/pkg/egl"
)

// classify maps a wgpu failure to an *egl.Error. A lost device becomes
// ContextLost; everything else keeps the most specific code it can.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var e *egl.Error
	if errors.As(err, &e) {
		return err
	}

	var werr *wgpu.Error
	if errors.As(err, &werr) {
		switch werr.Type {
		case wgpu.ErrorType_DeviceLost:
			return egl.Wrap(egl.ContextLost, "", err)
		case wgpu.ErrorType_OutOfMemory:
			return egl.Wrap(egl.BadAlloc, "", err)
		case wgpu.ErrorType_Validation:
			return egl.Wrap(egl.BadParameter, "", err)
		}
	}
	if errors.Is(err, backend.ErrDeviceLost) {
		return egl.Wrap(egl.ContextLost, "", err)
	}
	return egl.Wrap(egl.BadAlloc, "", err)
}
