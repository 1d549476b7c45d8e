package renderer

import (
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"gpudisplay/pkg/egl"
)

// windowChain presents to a window surface.
type windowChain struct {
	b       *Backend
	surface *wgpu.Surface
	format  wgpu.TextureFormat
	mode    wgpu.PresentMode

	chain         *wgpu.SwapChain
	width, height int
}

func (c *windowChain) Reset(width, height, interval int) error {
	c.mode = presentMode(interval)
	return c.configure(width, height)
}

func (c *windowChain) Resize(width, height int) error {
	return c.configure(width, height)
}

func (c *windowChain) Recreate() error {
	return c.configure(c.width, c.height)
}

func (c *windowChain) configure(width, height int) error {
	if c.b.lost {
		return egl.ErrContextLost
	}
	c.releaseChain()
	c.width, c.height = width, height
	if width <= 0 || height <= 0 {
		// minimized: nothing to present until the next resize
		return nil
	}

	chain, err := c.b.device.CreateSwapChain(c.surface, &wgpu.SwapChainDescriptor{
		Usage:       wgpu.TextureUsage_RenderAttachment,
		Format:      c.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: c.mode,
	})
	if err != nil {
		return c.b.check(err)
	}
	c.chain = chain
	return nil
}

// SwapRect presents the next frame. wgpu presents whole frames, so the
// rectangle only bounds what the caller expects to change.
func (c *windowChain) SwapRect(x, y, width, height int) error {
	if c.b.lost {
		return egl.ErrContextLost
	}
	if c.chain == nil {
		return nil
	}

	view, err := c.chain.GetCurrentTextureView()
	if err != nil {
		return c.b.check(err)
	}
	defer view.Release()

	if err := c.b.clear(view); err != nil {
		return err
	}
	c.chain.Present()
	return nil
}

func (c *windowChain) releaseChain() {
	if c.chain != nil {
		c.chain.Release()
		c.chain = nil
	}
}

// Release frees the swap chain. The window surface stays cached on the
// backend for the next chain.
func (c *windowChain) Release() {
	c.releaseChain()
}

// offscreenChain renders into a color texture with an optional
// depth/stencil texture.
type offscreenChain struct {
	b           *Backend
	colorFormat wgpu.TextureFormat
	depthFormat wgpu.TextureFormat

	color *wgpu.Texture
	view  *wgpu.TextureView
	depth *wgpu.Texture

	width, height int
}

func (c *offscreenChain) Reset(width, height, _ int) error {
	return c.configure(width, height)
}

func (c *offscreenChain) Resize(width, height int) error {
	return c.configure(width, height)
}

func (c *offscreenChain) Recreate() error {
	return c.configure(c.width, c.height)
}

func (c *offscreenChain) configure(width, height int) error {
	if c.b.lost {
		return egl.ErrContextLost
	}
	c.releaseTextures()
	c.width, c.height = width, height

	size := wgpu.Extent3D{
		Width:              uint32(width),
		Height:             uint32(height),
		DepthOrArrayLayers: 1,
	}
	color, err := c.b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "offscreen_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension_2D,
		Format:        c.colorFormat,
		Usage:         wgpu.TextureUsage_RenderAttachment | wgpu.TextureUsage_TextureBinding | wgpu.TextureUsage_CopySrc,
	})
	if err != nil {
		return c.b.check(err)
	}
	c.color = color

	c.view, err = color.CreateView(&wgpu.TextureViewDescriptor{
		Format:          c.colorFormat,
		Dimension:       wgpu.TextureViewDimension_2D,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspect_All,
	})
	if err != nil {
		c.releaseTextures()
		return c.b.check(err)
	}

	if c.depthFormat != wgpu.TextureFormat_Undefined {
		c.depth, err = c.b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "offscreen_depth_stencil",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension_2D,
			Format:        c.depthFormat,
			Usage:         wgpu.TextureUsage_RenderAttachment,
		})
		if err != nil {
			c.releaseTextures()
			return c.b.check(err)
		}
	}
	return nil
}

// SwapRect flushes rendering into the color texture. Offscreen surfaces
// have nothing to present.
func (c *offscreenChain) SwapRect(x, y, width, height int) error {
	if c.b.lost {
		return egl.ErrContextLost
	}
	if c.view == nil {
		return nil
	}
	return c.b.clear(c.view)
}

func (c *offscreenChain) releaseTextures() {
	if c.view != nil {
		c.view.Release()
		c.view = nil
	}
	if c.color != nil {
		c.color.Release()
		c.color = nil
	}
	if c.depth != nil {
		c.depth.Release()
		c.depth = nil
	}
}

func (c *offscreenChain) Release() {
	c.releaseTextures()
}
