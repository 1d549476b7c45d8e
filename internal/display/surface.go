package display

import (
	"go.uber.org/zap"

	"gpudisplay/internal/backend"
	"gpudisplay/pkg/egl"
)

// Buffer formats requested for every swap chain.
const (
	colorFormat        = backend.FormatRGBA8
	depthStencilFormat = backend.FormatDepth24Stencil8
)

// Texture is a client texture that can present a surface's contents.
// The surface only references it.
type Texture interface {
	// ReleaseTexImage detaches the texture from the surface image.
	ReleaseTexImage()
}

// Surface is a drawable target: the client area of a window, or an
// offscreen buffer that may be bound to a texture. It owns its swap chain.
type Surface struct {
	id      uint64
	display *Display
	log     *zap.Logger

	// Exactly one of window or the offscreen geometry is meaningful.
	window      backend.Window
	shareHandle uintptr

	swapChain backend.SwapChain

	width  int
	height int

	textureFormat egl.Attrib
	textureTarget egl.Attrib

	swapInterval      int
	swapIntervalDirty bool

	texture Texture
}

func newWindowSurface(d *Display, id uint64, win backend.Window) *Surface {
	s := &Surface{
		id:            id,
		display:       d,
		log:           d.log.With(zap.Uint64("surface", id), zap.Bool("window", true)),
		window:        win,
		width:         -1,
		height:        -1,
		textureFormat: egl.NoTexture,
		textureTarget: egl.NoTexture,
		swapInterval:  -1,
	}
	s.SetSwapInterval(d.swapInterval)
	return s
}

func newOffscreenSurface(d *Display, id uint64, shareHandle uintptr, cfg pbufferConfig) *Surface {
	s := &Surface{
		id:            id,
		display:       d,
		log:           d.log.With(zap.Uint64("surface", id), zap.Bool("window", false)),
		shareHandle:   shareHandle,
		width:         cfg.width,
		height:        cfg.height,
		textureFormat: cfg.textureFormat,
		textureTarget: cfg.textureTarget,
		swapInterval:  -1,
	}
	s.SetSwapInterval(d.swapInterval)
	return s
}

func (s *Surface) initialize(th *Thread) error {
	return s.resetSwapChain(th)
}

// Release frees the swap chain and detaches any bound texture. It may be
// called more than once.
func (s *Surface) Release() {
	if s.swapChain != nil {
		s.swapChain.Release()
		s.swapChain = nil
	}
	if s.texture != nil {
		tex := s.texture
		s.texture = nil
		tex.ReleaseTexImage()
	}
}

// ResetSwapChain creates a new swap chain sized to the window client area,
// or to the creation size for offscreen surfaces.
func (s *Surface) ResetSwapChain(th *Thread) error {
	const op = "ResetSwapChain"
	if s.display == nil || !s.display.IsInitialized() {
		return th.fail(op, egl.ErrNotInitialized)
	}
	if !s.display.IsValidSurface(s) {
		return th.fail(op, egl.ErrBadSurface)
	}
	if err := s.resetSwapChain(th); err != nil {
		return th.fail(op, err)
	}
	th.succeed()
	return nil
}

func (s *Surface) resetSwapChain(th *Thread) error {
	if s.swapChain != nil {
		s.swapChain.Release()
		s.swapChain = nil
	}

	width, height := s.width, s.height
	if s.window != nil {
		var err error
		width, height, err = s.window.ClientSize()
		if err != nil {
			s.log.Error("could not retrieve the window dimensions", zap.Error(err))
			return egl.Wrap(egl.BadSurface, "", err)
		}
	}

	target := backend.Target{
		Window:      s.window,
		ShareHandle: s.shareHandle,
		Width:       width,
		Height:      height,
	}
	sc, err := s.display.backend.CreateSwapChain(target, colorFormat, depthStencilFormat)
	if err != nil {
		// backend codes survive; bare errors become BadAlloc
		return egl.Wrap(egl.CodeOf(err), "", err)
	}
	if sc == nil {
		return egl.ErrBadAlloc
	}
	s.swapChain = sc

	if err := s.reset(th, width, height); err != nil {
		sc.Release()
		s.swapChain = nil
		return err
	}

	s.log.Debug("swap chain created", zap.Int("width", width), zap.Int("height", height),
		zap.Int("interval", s.swapInterval))
	return nil
}

// reset applies geometry and the current swap interval to the live chain.
func (s *Surface) reset(th *Thread, width, height int) error {
	if err := s.swapChain.Reset(width, height, s.swapInterval); err != nil {
		return s.escalate(th, err)
	}

	s.width = width
	s.height = height
	s.swapIntervalDirty = false
	return nil
}

// resize applies geometry only, keeping the interval the chain has.
func (s *Surface) resize(th *Thread, width, height int) error {
	if err := s.swapChain.Resize(width, height); err != nil {
		return s.escalate(th, err)
	}

	s.width = width
	s.height = height
	return nil
}

// escalate turns a lost device into a display-wide notification. Other
// failures are returned unchanged.
func (s *Surface) escalate(th *Thread, err error) error {
	if egl.IsContextLost(err) {
		s.log.Warn("device lost", zap.Error(err))
		s.display.notifyDeviceLost(th)
		return egl.Wrap(egl.ContextLost, "", err)
	}
	return err
}

// Swap presents the whole surface.
func (s *Surface) Swap(th *Thread) error {
	return s.SwapRect(th, 0, 0, s.width, s.height)
}

// SwapRect presents a region of the surface. The region is clamped to the
// surface bounds; an empty region succeeds without presenting.
func (s *Surface) SwapRect(th *Thread, x, y, width, height int) error {
	if err := s.swapRect(th, x, y, width, height); err != nil {
		return th.fail("SwapRect", err)
	}
	th.succeed()
	return nil
}

func (s *Surface) swapRect(th *Thread, x, y, width, height int) error {
	if s.swapChain == nil || width <= 0 || height <= 0 {
		return nil
	}

	if x < 0 {
		width += x
		x = 0
	}
	if y < 0 {
		height += y
		y = 0
	}
	width = min(width, s.width-x)
	height = min(height, s.height-y)
	if width <= 0 || height <= 0 {
		return nil
	}

	if err := s.swapChain.SwapRect(x, y, width, height); err != nil {
		return s.escalate(th, err)
	}

	s.checkForOutOfDateSwapChain(th)
	return nil
}

// CheckForOutOfDateSwapChain brings the swap chain in line with the window
// size and the pending swap interval. It reports whether anything changed.
func (s *Surface) CheckForOutOfDateSwapChain(th *Thread) bool {
	return s.checkForOutOfDateSwapChain(th)
}

func (s *Surface) checkForOutOfDateSwapChain(th *Thread) bool {
	if s.swapChain == nil {
		return false
	}

	clientWidth, clientHeight := s.width, s.height
	if s.window != nil {
		var err error
		clientWidth, clientHeight, err = s.window.ClientSize()
		if err != nil {
			s.log.Error("could not retrieve the window dimensions", zap.Error(err))
			return false
		}
	}

	sizeDirty := clientWidth != s.width || clientHeight != s.height
	intervalDirty := s.swapIntervalDirty
	if !sizeDirty && !intervalDirty {
		return false
	}

	var err error
	if intervalDirty {
		err = s.reset(th, clientWidth, clientHeight)
	} else {
		// grow now to avoid losing contents
		err = s.resize(th, clientWidth, clientHeight)
	}
	if err != nil {
		s.log.Warn("swap chain update failed", zap.Error(err))
	}

	if th.DrawSurface() == s {
		s.display.rebind(th)
	}
	return true
}

// SetSwapInterval clamps interval to the backend range and marks it for
// application at the next swap chain reset.
func (s *Surface) SetSwapInterval(interval int) {
	if b := s.display.backend; b != nil {
		interval = max(interval, b.MinSwapInterval())
		interval = min(interval, b.MaxSwapInterval())
	}
	if s.swapInterval == interval {
		return
	}
	s.swapInterval = interval
	s.swapIntervalDirty = true
}

func (s *Surface) ID() uint64 { return s.id }

func (s *Surface) Width() int  { return s.width }
func (s *Surface) Height() int { return s.height }

// Window returns the window s presents to, or nil for offscreen surfaces.
func (s *Surface) Window() backend.Window { return s.window }

func (s *Surface) IsWindow() bool { return s.window != nil }

func (s *Surface) ShareHandle() uintptr { return s.shareHandle }

func (s *Surface) TextureFormat() egl.Attrib { return s.textureFormat }
func (s *Surface) TextureTarget() egl.Attrib { return s.textureTarget }

// SwapChain returns the live swap chain, or nil when there is none.
func (s *Surface) SwapChain() backend.SwapChain { return s.swapChain }

func (s *Surface) SwapInterval() int { return s.swapInterval }

// SwapIntervalDirty reports whether an interval change awaits a reset.
func (s *Surface) SwapIntervalDirty() bool { return s.swapIntervalDirty }

func (s *Surface) BoundTexture() Texture { return s.texture }

// SetBoundTexture records the texture presenting s. Pass nil to clear it.
func (s *Surface) SetBoundTexture(tex Texture) { s.texture = tex }
