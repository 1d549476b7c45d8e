package renderer

import (
	"go.uber.org/zap"

	"gpudisplay/internal/backend"
	"gpudisplay/pkg/egl"
)

// wgpuContext tracks a client context. WebGPU has no context object: all
// contexts record into the backend's single device and queue.
type wgpuContext struct {
	b     *Backend
	share *wgpuContext

	notifyResets bool
	robustAccess bool
	lost         bool

	draw, read backend.SwapChain
}

func (c *wgpuContext) MakeCurrent(draw, read backend.SwapChain) error {
	if draw == nil && read == nil {
		c.draw, c.read = nil, nil
		return nil
	}
	if c.lost || c.b.lost {
		return egl.ErrContextLost
	}
	c.draw, c.read = draw, read
	return nil
}

func (c *wgpuContext) MarkLost() {
	c.lost = true
	c.b.log.Debug("context lost", zap.Bool("notify_resets", c.notifyResets))
}

func (c *wgpuContext) Release() {
	c.draw, c.read = nil, nil
	c.share = nil
}
