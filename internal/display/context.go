package display

import "gpudisplay/internal/backend"

// Context is a rendering context tracked by a Display. Its backend
// implementation is opaque here.
type Context struct {
	id                uint64
	display           *Display
	impl              backend.Context
	share             *Context
	resetNotification bool
	robustAccess      bool
	lost              bool
}

// ID returns the handle value of c, unique within its Display.
func (c *Context) ID() uint64 { return c.id }

// ResetNotificationEnabled reports whether the application asked to be
// told about device resets.
func (c *Context) ResetNotificationEnabled() bool { return c.resetNotification }

func (c *Context) RobustAccess() bool { return c.robustAccess }

// Share returns the context c shares objects with, or nil.
func (c *Context) Share() *Context { return c.share }

// IsLost reports whether the device was lost while c was alive.
func (c *Context) IsLost() bool { return c.lost }

// Impl returns the backend context.
func (c *Context) Impl() backend.Context { return c.impl }

// markLost moves c to the lost state. Only the first call has an effect.
func (c *Context) markLost() {
	if c.lost {
		return
	}
	c.lost = true
	if c.impl != nil {
		c.impl.MarkLost()
	}
}

func (c *Context) release() {
	if c.impl != nil {
		c.impl.Release()
		c.impl = nil
	}
}
