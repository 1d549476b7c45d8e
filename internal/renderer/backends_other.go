//go:build !darwin

package renderer

import "github.com/rajveermalviya/go-webgpu/wgpu"

var defaultBackends = wgpu.InstanceBackend_Primary
