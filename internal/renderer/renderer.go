// Package renderer implements the display backend on WebGPU. Window
// surfaces present through a wgpu swap chain and offscreen surfaces render
// into textures. Everything here must run on the OS thread that owns the
// window.
package renderer

import (
	"errors"
	"fmt"

	"github.com/rajveermalviya/go-webgpu/wgpu"
	"go.uber.org/zap"

	"gpudisplay/internal/backend"
	"gpudisplay/pkg/egl"
)

// Name is the registry name of this backend.
const Name = "wgpu"

var (
	ErrNoInstance        = errors.New("renderer: failed to create WebGPU instance")
	ErrUnsupportedWindow = errors.New("renderer: window cannot create a WebGPU surface")
	ErrShareHandle       = errors.New("renderer: share handles are not supported")
)

// Swap intervals wgpu can express: immediate or vsync.
const (
	minSwapInterval = 0
	maxSwapInterval = 1
)

// Clear color of presented frames
var clearColor = wgpu.Color{R: 0.627, G: 0.765, B: 0.812, A: 1.0}

func init() {
	backend.Register(Name, NewFactory(Options{}))
}

// SurfaceSource is implemented by windows that can present through wgpu.
type SurfaceSource interface {
	CreateSurface(instance *wgpu.Instance) (*wgpu.Surface, error)
}

// Options tunes adapter and device selection
type Options struct {
	// HighPerformance prefers a discrete adapter
	HighPerformance bool

	// Label names the device in driver diagnostics
	Label string
}

// NewFactory returns a backend.Factory building a Backend with opts.
func NewFactory(opts Options) backend.Factory {
	return func(log *zap.Logger) (backend.Backend, error) {
		b, err := New(log, opts)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// Backend is a backend.Backend on a single wgpu device.
type Backend struct {
	log  *zap.Logger
	opts Options

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	props      wgpu.AdapterProperties
	maxTexture int

	// One wgpu surface per window, kept across device resets
	surfaces map[backend.Window]*wgpu.Surface

	lost bool
}

// New creates the instance, adapter and device.
func New(log *zap.Logger, opts Options) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Label == "" {
		opts.Label = "gpudisplay"
	}
	b := &Backend{
		log:      log.Named("wgpu"),
		opts:     opts,
		surfaces: make(map[backend.Window]*wgpu.Surface),
	}

	b.instance = wgpu.CreateInstance(&wgpu.InstanceDescriptor{
		Backends: defaultBackends,
	})
	if b.instance == nil {
		return nil, ErrNoInstance
	}
	if err := b.requestAdapter(); err != nil {
		b.Release()
		return nil, err
	}
	if err := b.requestDevice(); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

func (b *Backend) requestAdapter() error {
	pref := wgpu.PowerPreference_LowPower
	if b.opts.HighPerformance {
		pref = wgpu.PowerPreference_HighPerformance
	}
	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: pref,
	})
	if err != nil {
		return fmt.Errorf("adapter request failed: %w", err)
	}
	b.adapter = adapter
	b.props = adapter.GetProperties()
	b.maxTexture = int(adapter.GetLimits().Limits.MaxTextureDimension2D)

	b.log.Info("adapter selected",
		zap.String("name", b.props.Name),
		zap.String("driver", b.props.DriverDescription),
	)
	return nil
}

func (b *Backend) requestDevice() error {
	device, err := b.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: b.opts.Label,
	})
	if err != nil {
		return fmt.Errorf("device request failed: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()
	return nil
}

func (b *Backend) releaseDevice() {
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
}

func (b *Backend) Name() string { return Name }

func (b *Backend) CreateSwapChain(target backend.Target, color, depthStencil backend.Format) (backend.SwapChain, error) {
	if b.lost {
		return nil, egl.ErrContextLost
	}
	if !target.IsWindow() {
		if target.ShareHandle != 0 {
			return nil, egl.Wrap(egl.BadParameter, "", ErrShareHandle)
		}
		return &offscreenChain{
			b:           b,
			colorFormat: textureFormat(color),
			depthFormat: textureFormat(depthStencil),
		}, nil
	}

	surface, err := b.surfaceFor(target.Window)
	if err != nil {
		return nil, err
	}
	return &windowChain{
		b:       b,
		surface: surface,
		format:  surface.GetPreferredFormat(b.adapter),
		mode:    presentMode(1),
	}, nil
}

func (b *Backend) surfaceFor(win backend.Window) (*wgpu.Surface, error) {
	if s, ok := b.surfaces[win]; ok {
		return s, nil
	}
	src, ok := win.(SurfaceSource)
	if !ok {
		return nil, egl.Wrap(egl.BadSurface, "", fmt.Errorf("%w: %T", ErrUnsupportedWindow, win))
	}
	s, err := src.CreateSurface(b.instance)
	if err != nil {
		return nil, egl.Wrap(egl.BadSurface, "", fmt.Errorf("surface creation failed: %w", err))
	}
	b.surfaces[win] = s
	return s, nil
}

func (b *Backend) CreateContext(share backend.Context, notifyResets, robustAccess bool) (backend.Context, error) {
	if b.lost {
		return nil, egl.ErrContextLost
	}
	var sc *wgpuContext
	if share != nil {
		var ok bool
		if sc, ok = share.(*wgpuContext); !ok || sc.b != b {
			return nil, egl.Errorf(egl.BadContext, "", "share context from another backend")
		}
	}
	return &wgpuContext{
		b:            b,
		share:        sc,
		notifyResets: notifyResets,
		robustAccess: robustAccess,
	}, nil
}

// ResetDevice drops the device and requests a new one. When the adapter
// refuses, a new adapter is requested as well.
func (b *Backend) ResetDevice() error {
	b.releaseDevice()
	if err := b.requestDevice(); err != nil {
		b.log.Warn("device request on the current adapter failed", zap.Error(err))
		if b.adapter != nil {
			b.adapter.Release()
			b.adapter = nil
		}
		if err := b.requestAdapter(); err != nil {
			return err
		}
		if err := b.requestDevice(); err != nil {
			return err
		}
	}
	b.lost = false
	b.log.Info("device recreated")
	return nil
}

func (b *Backend) TestDeviceLost() bool { return b.lost }

func (b *Backend) NotifyDeviceLost() {
	if !b.lost {
		b.log.Warn("device marked lost")
	}
	b.lost = true
}

// check classifies err and latches the lost state on device loss.
func (b *Backend) check(err error) error {
	err = classify(err)
	if egl.IsContextLost(err) && !b.lost {
		b.log.Warn("device lost", zap.Error(err))
		b.lost = true
	}
	return err
}

func (b *Backend) MinSwapInterval() int { return minSwapInterval }
func (b *Backend) MaxSwapInterval() int { return maxSwapInterval }

func (b *Backend) MaxTextureWidth() int  { return b.maxTexture }
func (b *Backend) MaxTextureHeight() int { return b.maxTexture }

func (b *Backend) NonPower2TextureSupport() bool { return true }

// LUID identifies the adapter by PCI vendor and device id.
func (b *Backend) LUID() (backend.LUID, bool) {
	return luidOf(b.props.VendorId, b.props.DeviceId)
}

func luidOf(vendor, device uint32) (backend.LUID, bool) {
	if vendor == 0 && device == 0 {
		return backend.LUID{}, false
	}
	return backend.LUID{HighPart: vendor, LowPart: device}, true
}

// Release frees every GPU object. Swap chains must be released first.
func (b *Backend) Release() {
	for win, s := range b.surfaces {
		s.Release()
		delete(b.surfaces, win)
	}
	b.releaseDevice()
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// clear encodes a pass clearing view and submits it.
func (b *Backend) clear(view *wgpu.TextureView) error {
	encoder, err := b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{})
	if err != nil {
		return b.check(err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOp_Clear,
			StoreOp:    wgpu.StoreOp_Store,
			ClearValue: clearColor,
		}},
	})
	pass.End()

	cmdBuffer, err := encoder.Finish(&wgpu.CommandBufferDescriptor{})
	if err != nil {
		return b.check(err)
	}
	defer cmdBuffer.Release()

	b.queue.Submit(cmdBuffer)
	return nil
}

func textureFormat(f backend.Format) wgpu.TextureFormat {
	switch f {
	case backend.FormatRGBA8:
		return wgpu.TextureFormat_RGBA8Unorm
	case backend.FormatBGRA8:
		return wgpu.TextureFormat_BGRA8Unorm
	case backend.FormatDepth24Stencil8:
		return wgpu.TextureFormat_Depth24PlusStencil8
	default:
		return wgpu.TextureFormat_Undefined
	}
}

// presentMode maps a swap interval to a present mode. wgpu cannot wait for
// more than one vertical blank, so every positive interval means vsync.
func presentMode(interval int) wgpu.PresentMode {
	if interval <= 0 {
		return wgpu.PresentMode_Immediate
	}
	return wgpu.PresentMode_Fifo
}
