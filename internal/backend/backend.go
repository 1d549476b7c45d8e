// Package backend declares the contracts between the display layer and a
// GPU rendering backend, and keeps the registry of available backends.
package backend

import (
	"errors"
	"fmt"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrDeviceLost is returned when the GPU device is gone and must be reset.
	ErrDeviceLost = errors.New("backend: device lost")
)

// Format is a surface buffer format
type Format int

const (
	FormatNone Format = iota
	FormatRGBA8
	FormatBGRA8
	FormatDepth24Stencil8
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatDepth24Stencil8:
		return "D24S8"
	default:
		return "none"
	}
}

// LUID identifies a graphics adapter
type LUID struct {
	HighPart uint32
	LowPart  uint32
}

func (l LUID) String() string {
	return fmt.Sprintf("%08x%08x", l.HighPart, l.LowPart)
}

// Window is a native window a surface can present to. Implementations are
// compared by identity, so they must be comparable (pointer types).
type Window interface {
	// ClientSize returns the current size of the drawable client area.
	ClientSize() (width, height int, err error)
}

// Target describes what a swap chain presents to. Exactly one of Window or
// the offscreen geometry is meaningful.
type Target struct {
	Window      Window
	ShareHandle uintptr
	Width       int
	Height      int
}

// IsWindow reports whether t presents to a native window.
func (t Target) IsWindow() bool { return t.Window != nil }

// SwapChain is a GPU presentation buffer chain. Methods return nil on
// success, an error wrapping egl.ErrContextLost when the device is gone,
// or another error carrying its failure code.
type SwapChain interface {
	// Reset applies size and swap interval in one step.
	Reset(width, height, interval int) error

	// Resize changes the buffer size keeping the current interval.
	Resize(width, height int) error

	// SwapRect presents the given region of the back buffer.
	SwapRect(x, y, width, height int) error

	// Recreate rebuilds the chain with its current parameters.
	Recreate() error

	// Release frees GPU resources. The chain must not be used afterwards.
	Release()
}

// Context is a client rendering context created by a backend.
type Context interface {
	// MakeCurrent binds the context to the given draw and read chains.
	// Both are nil when the context is being unbound.
	MakeCurrent(draw, read SwapChain) error

	// MarkLost puts the context in the lost state.
	MarkLost()

	// Release frees the context.
	Release()
}

// Backend is a GPU rendering backend owned by a display.
type Backend interface {
	// Name returns the backend identifier (e.g., "wgpu").
	Name() string

	CreateSwapChain(target Target, color, depthStencil Format) (SwapChain, error)
	CreateContext(share Context, notifyResets, robustAccess bool) (Context, error)

	// ResetDevice recreates the GPU device after loss. All swap chains must
	// be released before calling it.
	ResetDevice() error

	// TestDeviceLost reports whether the device is currently lost.
	TestDeviceLost() bool

	// NotifyDeviceLost latches the lost state.
	NotifyDeviceLost()

	MinSwapInterval() int
	MaxSwapInterval() int
	MaxTextureWidth() int
	MaxTextureHeight() int
	NonPower2TextureSupport() bool

	// LUID returns the adapter identity when the backend knows it.
	LUID() (LUID, bool)

	// Release frees the backend. It must not be used afterwards.
	Release()
}
