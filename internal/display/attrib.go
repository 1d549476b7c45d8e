package display

import "gpudisplay/pkg/egl"

func parseWindowAttribs(attrs egl.AttribList) error {
	for _, a := range attrs {
		switch a.Key {
		case egl.RenderBuffer:
			switch a.Value {
			case egl.BackBuffer:
			case egl.SingleBuffer:
				// rendering to the front buffer is not supported
				return egl.Errorf(egl.BadMatch, "", "%v not supported", a.Value)
			default:
				return egl.Errorf(egl.BadAttribute, "", "%v = %v", a.Key, a.Value)
			}
		case egl.VGColorspace, egl.VGAlphaFormat:
			return egl.Errorf(egl.BadMatch, "", "%v not supported", a.Key)
		default:
			return egl.Errorf(egl.BadAttribute, "", "unrecognized attribute %v", a.Key)
		}
	}
	return nil
}

// pbufferConfig is the parsed attribute list of an offscreen surface
type pbufferConfig struct {
	width         int
	height        int
	textureFormat egl.Attrib
	textureTarget egl.Attrib
	largest       bool
}

func parseOffscreenAttribs(attrs egl.AttribList) (pbufferConfig, error) {
	cfg := pbufferConfig{
		textureFormat: egl.NoTexture,
		textureTarget: egl.NoTexture,
	}
	for _, a := range attrs {
		switch a.Key {
		case egl.Width:
			cfg.width = int(a.Value)
		case egl.Height:
			cfg.height = int(a.Value)
		case egl.LargestPbuffer:
			cfg.largest = a.Value != egl.False
		case egl.TextureFormat:
			switch a.Value {
			case egl.NoTexture, egl.TextureRGB, egl.TextureRGBA:
				cfg.textureFormat = a.Value
			default:
				return cfg, egl.Errorf(egl.BadAttribute, "", "%v = %v", a.Key, a.Value)
			}
		case egl.TextureTarget:
			switch a.Value {
			case egl.NoTexture, egl.Texture2D:
				cfg.textureTarget = a.Value
			default:
				return cfg, egl.Errorf(egl.BadAttribute, "", "%v = %v", a.Key, a.Value)
			}
		case egl.MipmapTexture:
			if a.Value != egl.False {
				return cfg, egl.Errorf(egl.BadAttribute, "", "mipmapped surfaces not supported")
			}
		case egl.VGColorspace, egl.VGAlphaFormat:
			return cfg, egl.Errorf(egl.BadMatch, "", "%v not supported", a.Key)
		default:
			return cfg, egl.Errorf(egl.BadAttribute, "", "unrecognized attribute %v", a.Key)
		}
	}
	return cfg, nil
}

// validate checks the parsed geometry and texture binding. nonPow2 reports
// whether the backend samples non-power-of-two textures.
func (cfg pbufferConfig) validate(nonPow2 bool) error {
	if cfg.width < 0 || cfg.height < 0 {
		return egl.Errorf(egl.BadParameter, "", "negative size %dx%d", cfg.width, cfg.height)
	}
	if cfg.width == 0 || cfg.height == 0 {
		return egl.Errorf(egl.BadAttribute, "", "zero size %dx%d", cfg.width, cfg.height)
	}
	if cfg.textureFormat != egl.NoTexture && !nonPow2 && (!isPow2(cfg.width) || !isPow2(cfg.height)) {
		return egl.Errorf(egl.BadMatch, "", "texture size %dx%d is not a power of two", cfg.width, cfg.height)
	}
	if (cfg.textureFormat == egl.NoTexture) != (cfg.textureTarget == egl.NoTexture) {
		return egl.Errorf(egl.BadMatch, "", "texture format %v with target %v", cfg.textureFormat, cfg.textureTarget)
	}
	return nil
}

func isPow2(x int) bool {
	return x > 0 && x&(x-1) == 0
}
