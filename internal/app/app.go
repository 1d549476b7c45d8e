// Package app runs the demo: one window surface presenting every frame, an
// offscreen texture surface, and recovery when the GPU device is lost.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"gpudisplay/internal/backend"
	"gpudisplay/internal/config"
	"gpudisplay/internal/display"
	"gpudisplay/internal/inspect"
	"gpudisplay/internal/renderer"
	"gpudisplay/internal/window"
	"gpudisplay/pkg/egl"
)

// mainThread identifies the locked OS thread in the registry.
const mainThread display.ThreadID = 1

const offscreenSize = 256

type App struct {
	cfg config.Config
	log *zap.Logger

	window   *window.Window
	registry *display.Registry
	thread   *display.Thread
	display  *display.Display

	surface   *display.Surface
	offscreen *display.Surface
	context   *display.Context
	preview   *previewTexture

	inspect *inspect.Server

	resized bool
	drill   bool
}

// New opens the window and builds the display, surfaces and context. The
// calling goroutine is locked to its OS thread for the life of the app.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	runtime.LockOSThread()
	if log == nil {
		log = zap.NewNop()
	}

	if err := window.Init(); err != nil {
		return nil, err
	}
	win, err := window.New(cfg.Window, log)
	if err != nil {
		window.Terminate()
		return nil, err
	}

	factory, err := backendFactory(cfg.Backend)
	if err != nil {
		win.Destroy()
		window.Terminate()
		return nil, err
	}

	reg := display.NewRegistry()
	app := &App{
		cfg:      cfg,
		log:      log.Named("app"),
		window:   win,
		registry: reg,
		thread:   reg.Thread(mainThread),
		display: display.New(factory,
			display.WithLogger(log),
			display.WithVendor(cfg.Display.Vendor),
			display.WithSwapInterval(cfg.Display.SwapInterval),
			display.WithRegistry(reg),
		),
		preview: &previewTexture{log: log.Named("preview")},
	}

	if err := app.setup(); err != nil {
		app.Cleanup()
		return nil, err
	}

	win.OnResize(func(int, int) { app.resized = true })
	win.OnKey(app.handleKey)

	if cfg.Inspect.Enabled {
		app.inspect = inspect.NewServer(cfg.Inspect.Addr, log)
		go func() {
			if err := app.inspect.Start(); err != nil {
				app.log.Error("inspect server failed", zap.Error(err))
			}
		}()
		app.publish()
	}

	return app, nil
}

func backendFactory(cfg config.Backend) (backend.Factory, error) {
	if cfg.Name == renderer.Name {
		return renderer.NewFactory(renderer.Options{HighPerformance: cfg.HighPerformance}), nil
	}
	f, err := backend.Lookup(cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("backend %q (available: %v): %w", cfg.Name, backend.Available(), err)
	}
	return f, nil
}

func (app *App) setup() error {
	th := app.thread
	d := app.display

	if err := d.Initialize(th); err != nil {
		return fmt.Errorf("display init failed: %w", err)
	}
	th.SetAPI(egl.OpenGLES)

	var err error
	app.surface, err = d.CreateWindowSurface(th, app.window, egl.Attribs(egl.RenderBuffer, egl.BackBuffer))
	if err != nil {
		return fmt.Errorf("window surface creation failed: %w", err)
	}

	app.offscreen, err = d.CreateOffscreenSurface(th, 0, egl.Attribs(
		egl.Width, offscreenSize,
		egl.Height, offscreenSize,
		egl.TextureFormat, egl.TextureRGBA,
		egl.TextureTarget, egl.Texture2D,
	))
	if err != nil {
		return fmt.Errorf("offscreen surface creation failed: %w", err)
	}

	return app.bind()
}

// bind creates the context, makes it current and attaches the preview
// texture to the offscreen surface.
func (app *App) bind() error {
	th := app.thread
	d := app.display

	ctx, err := d.CreateContext(th, nil, false, true)
	if err != nil {
		return fmt.Errorf("context creation failed: %w", err)
	}
	app.context = ctx

	if err := d.MakeCurrent(th, app.surface, app.surface, ctx); err != nil {
		return fmt.Errorf("make current failed: %w", err)
	}
	if err := d.BindTexImage(th, app.offscreen, app.preview); err != nil {
		return fmt.Errorf("texture bind failed: %w", err)
	}
	return nil
}

func (app *App) handleKey(key glfw.Key) {
	switch key {
	case glfw.KeyL:
		app.drill = true
	case glfw.KeyV:
		next := 1
		if config.GetSwapInterval() > 0 {
			next = 0
		}
		config.SetSwapInterval(next)
		if err := app.display.SwapInterval(app.thread, config.GetSwapInterval()); err != nil {
			app.log.Warn("swap interval change failed", zap.Error(err))
		}
	}
}

// Run presents frames until the window closes or ctx is done.
func (app *App) Run(ctx context.Context) error {
	ctx = display.WithThread(ctx, app.thread)
	var drills <-chan struct{}
	if app.inspect != nil {
		drills = app.inspect.Drills()
	}

	lastTime := time.Now()
	frames := 0

	for !app.window.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-drills:
			app.drill = true
		default:
		}

		window.PollEvents()
		if err := app.frame(ctx); err != nil {
			return err
		}

		frames++
		if time.Since(lastTime) >= time.Second {
			app.window.SetTitle(fmt.Sprintf("%s | FPS: %d | interval: %d",
				app.cfg.Window.Title, frames, app.surface.SwapInterval()))
			app.publish()
			frames = 0
			lastTime = time.Now()
		}
	}
	return nil
}

func (app *App) frame(ctx context.Context) error {
	th := display.ThreadFrom(ctx)
	d := app.display

	if app.drill {
		app.drill = false
		app.log.Warn("simulating device loss")
		d.NotifyDeviceLost(th)
	}
	if app.resized {
		app.resized = false
		app.surface.CheckForOutOfDateSwapChain(th)
	}

	err := multierr.Append(
		d.SwapBuffers(th, app.offscreen),
		d.SwapBuffers(th, app.surface),
	)
	switch {
	case err == nil:
		return nil
	case egl.IsContextLost(err):
		return app.recover(th)
	default:
		app.log.Warn("swap failed", zap.Error(err))
		return nil
	}
}

// recover replaces the lost context and restores the device.
func (app *App) recover(th *display.Thread) error {
	d := app.display
	app.log.Warn("device lost, recovering")

	if err := d.MakeCurrent(th, nil, nil, nil); err != nil {
		return err
	}
	if app.context != nil {
		if err := d.DestroyContext(th, app.context); err != nil {
			return err
		}
		app.context = nil
	}
	if err := d.RestoreLostDevice(th); err != nil {
		return fmt.Errorf("device recovery failed: %w", err)
	}
	if err := app.bind(); err != nil {
		return err
	}

	app.log.Info("device recovered")
	app.publish()
	return nil
}

func (app *App) publish() {
	if app.inspect != nil {
		app.inspect.Publish(app.display.Snapshot())
	}
}

// Cleanup tears everything down in reverse order of creation.
func (app *App) Cleanup() {
	if app.inspect != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := app.inspect.Stop(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			app.log.Warn("inspect server shutdown failed", zap.Error(err))
		}
		cancel()
	}
	if app.display != nil {
		app.display.MakeCurrent(app.thread, nil, nil, nil)
		app.display.Terminate()
	}
	app.registry.Forget(mainThread)
	if app.window != nil {
		app.window.Destroy()
	}
	window.Terminate()
}

// previewTexture stands in for the client texture sampling the offscreen
// surface.
type previewTexture struct {
	log *zap.Logger
}

func (t *previewTexture) ReleaseTexImage() {
	t.log.Debug("offscreen image released")
}
