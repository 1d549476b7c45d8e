package display

import (
	"go.uber.org/zap"

	"gpudisplay/internal/backend"
	"gpudisplay/pkg/egl"
)

// MakeCurrent binds ctx to draw and read on the calling thread. Passing
// nil for all three releases the thread's current binding.
func (d *Display) MakeCurrent(th *Thread, draw, read *Surface, ctx *Context) error {
	const op = "MakeCurrent"
	if draw == nil && read == nil && ctx == nil {
		if cur := th.Context(); cur != nil && cur.impl != nil {
			if err := cur.impl.MakeCurrent(nil, nil); err != nil {
				d.log.Debug("context unbind failed", zap.Error(err))
			}
		}
		th.SetDisplay(nil)
		th.SetDrawSurface(nil)
		th.SetReadSurface(nil)
		th.SetContext(nil)
		th.succeed()
		return nil
	}

	if !d.IsInitialized() {
		return th.fail(op, egl.ErrNotInitialized)
	}
	if ctx == nil || !d.IsValidContext(ctx) {
		return th.fail(op, egl.ErrBadContext)
	}
	if draw == nil || read == nil {
		return th.fail(op, egl.Errorf(egl.BadMatch, op, "context bound without surfaces"))
	}
	if !d.IsValidSurface(draw) || !d.IsValidSurface(read) {
		return th.fail(op, egl.ErrBadSurface)
	}
	if ctx.lost {
		return th.fail(op, egl.ErrContextLost)
	}

	if err := ctx.impl.MakeCurrent(draw.swapChain, read.swapChain); err != nil {
		if egl.IsContextLost(err) {
			d.notifyDeviceLost(th)
		}
		return th.fail(op, err)
	}

	th.SetDisplay(d)
	th.SetDrawSurface(draw)
	th.SetReadSurface(read)
	th.SetContext(ctx)
	th.succeed()
	return nil
}

// rebind makes the thread's context pick up the current swap chains of its
// draw and read surfaces.
func (d *Display) rebind(th *Thread) {
	ctx := th.Context()
	if ctx == nil || ctx.impl == nil {
		return
	}
	var draw, read backend.SwapChain
	if s := th.DrawSurface(); s != nil {
		draw = s.swapChain
	}
	if s := th.ReadSurface(); s != nil {
		read = s.swapChain
	}
	if err := ctx.impl.MakeCurrent(draw, read); err != nil {
		d.log.Warn("context rebind failed", zap.Error(err))
	}
}

// SwapBuffers presents s.
func (d *Display) SwapBuffers(th *Thread, s *Surface) error {
	const op = "SwapBuffers"
	if !d.IsInitialized() {
		return th.fail(op, egl.ErrNotInitialized)
	}
	if !d.IsValidSurface(s) {
		return th.fail(op, egl.ErrBadSurface)
	}
	return s.Swap(th)
}

// SwapInterval sets the swap interval of the thread's current draw surface.
func (d *Display) SwapInterval(th *Thread, interval int) error {
	const op = "SwapInterval"
	if !d.IsInitialized() {
		return th.fail(op, egl.ErrNotInitialized)
	}
	s := th.DrawSurface()
	if s == nil || !d.IsValidSurface(s) {
		return th.fail(op, egl.ErrBadSurface)
	}
	s.SetSwapInterval(interval)
	th.succeed()
	return nil
}

// BindTexImage binds tex to the image of an offscreen texture surface.
func (d *Display) BindTexImage(th *Thread, s *Surface, tex Texture) error {
	const op = "BindTexImage"
	if !d.IsValidSurface(s) {
		return th.fail(op, egl.ErrBadSurface)
	}
	if s.window != nil || s.textureFormat == egl.NoTexture {
		return th.fail(op, egl.Errorf(egl.BadMatch, op, "surface has no texture format"))
	}
	if s.texture != nil {
		return th.fail(op, egl.Errorf(egl.BadAccess, op, "surface already bound to a texture"))
	}
	s.SetBoundTexture(tex)
	th.succeed()
	return nil
}

// ReleaseTexImage detaches the texture bound to s, if any.
func (d *Display) ReleaseTexImage(th *Thread, s *Surface) error {
	const op = "ReleaseTexImage"
	if !d.IsValidSurface(s) {
		return th.fail(op, egl.ErrBadSurface)
	}
	if s.window != nil || s.textureFormat == egl.NoTexture {
		return th.fail(op, egl.Errorf(egl.BadMatch, op, "surface has no texture format"))
	}
	if tex := s.texture; tex != nil {
		s.texture = nil
		tex.ReleaseTexImage()
	}
	th.succeed()
	return nil
}
