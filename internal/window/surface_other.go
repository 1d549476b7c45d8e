//go:build !darwin && !linux

package window

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

func createSurface(*wgpu.Instance, *glfw.Window) (*wgpu.Surface, error) {
	return nil, ErrUnsupportedPlatform
}
