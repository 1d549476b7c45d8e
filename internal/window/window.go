// Package window wraps a glfw window as a native window for the display
// layer. glfw must be driven from the main OS thread.
package window

import (
	"errors"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"
	"go.uber.org/zap"

	"gpudisplay/internal/config"
)

var (
	ErrClosed              = errors.New("window: closed")
	ErrUnsupportedPlatform = errors.New("window: no WebGPU surface support on this platform")
)

// Init initializes glfw.
func Init() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("GLFW init failed: %w", err)
	}
	return nil
}

// Terminate releases glfw. Every window must be destroyed first.
func Terminate() {
	glfw.Terminate()
}

// PollEvents processes pending window events.
func PollEvents() {
	glfw.PollEvents()
}

// Window is a glfw window without a client API; it presents through
// WebGPU surfaces.
type Window struct {
	win *glfw.Window
	log *zap.Logger

	onResize func(width, height int)
	onKey    func(key glfw.Key)
}

// New opens a window sized and titled from cfg.
func New(cfg config.Window, log *zap.Logger) (*Window, error) {
	if log == nil {
		log = zap.NewNop()
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(cfg.Resizable))
	glfw.WindowHint(glfw.CocoaRetinaFramebuffer, glfw.True)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("window creation failed: %w", err)
	}

	w := &Window{win: win, log: log.Named("window")}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.log.Debug("framebuffer resized", zap.Int("width", width), zap.Int("height", height))
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
	win.SetKeyCallback(func(gw *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		if key == glfw.KeyEscape {
			gw.SetShouldClose(true)
		}
		if w.onKey != nil {
			w.onKey(key)
		}
	})
	return w, nil
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

// ClientSize returns the framebuffer size in pixels.
func (w *Window) ClientSize() (int, int, error) {
	if w.closed() {
		return 0, 0, ErrClosed
	}
	width, height := w.win.GetFramebufferSize()
	return width, height, nil
}

// CreateSurface creates a WebGPU surface presenting to w.
func (w *Window) CreateSurface(instance *wgpu.Instance) (*wgpu.Surface, error) {
	if w.closed() {
		return nil, ErrClosed
	}
	return createSurface(instance, w.win)
}

// OnResize sets the framebuffer resize callback.
func (w *Window) OnResize(fn func(width, height int)) { w.onResize = fn }

// OnKey sets the key press callback. Escape always closes the window.
func (w *Window) OnKey(fn func(key glfw.Key)) { w.onKey = fn }

func (w *Window) ShouldClose() bool {
	return w.closed() || w.win.ShouldClose()
}

func (w *Window) SetTitle(title string) {
	if !w.closed() {
		w.win.SetTitle(title)
	}
}

// Destroy closes the window. It may be called more than once.
func (w *Window) Destroy() {
	if !w.closed() {
		w.win.Destroy()
		w.win = nil
	}
}

// closed reports whether w has no live glfw window, including a nil w.
func (w *Window) closed() bool { return w == nil || w.win == nil }
