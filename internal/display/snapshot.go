package display

import "gpudisplay/pkg/egl"

// Snapshot is a point-in-time copy of a display's state. It shares nothing
// with the display and may be read from any goroutine.
type Snapshot struct {
	Initialized bool          `json:"initialized"`
	Backend     string        `json:"backend,omitempty"`
	Vendor      string        `json:"vendor,omitempty"`
	DeviceLost  bool          `json:"device_lost"`
	Surfaces    []SurfaceInfo `json:"surfaces"`
	Contexts    []ContextInfo `json:"contexts"`
}

type SurfaceInfo struct {
	ID            uint64 `json:"id"`
	Window        bool   `json:"window"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	SwapInterval  int    `json:"swap_interval"`
	IntervalDirty bool   `json:"interval_dirty"`
	SwapChain     bool   `json:"swap_chain"`
	TextureFormat string `json:"texture_format,omitempty"`
	BoundTexture  bool   `json:"bound_texture"`
}

type ContextInfo struct {
	ID                uint64 `json:"id"`
	ResetNotification bool   `json:"reset_notification"`
	RobustAccess      bool   `json:"robust_access"`
	Lost              bool   `json:"lost"`
}

// Snapshot copies the current state of d.
func (d *Display) Snapshot() Snapshot {
	snap := Snapshot{
		Initialized: d.IsInitialized(),
		Vendor:      d.vendorString,
		Surfaces:    []SurfaceInfo{},
		Contexts:    []ContextInfo{},
	}
	if d.backend != nil {
		snap.Backend = d.backend.Name()
		snap.DeviceLost = d.backend.TestDeviceLost()
	}
	for _, s := range d.Surfaces() {
		info := SurfaceInfo{
			ID:            s.id,
			Window:        s.window != nil,
			Width:         s.width,
			Height:        s.height,
			SwapInterval:  s.swapInterval,
			IntervalDirty: s.swapIntervalDirty,
			SwapChain:     s.swapChain != nil,
			BoundTexture:  s.texture != nil,
		}
		if s.textureFormat != egl.NoTexture {
			info.TextureFormat = s.textureFormat.String()
		}
		snap.Surfaces = append(snap.Surfaces, info)
	}
	for _, c := range d.Contexts() {
		snap.Contexts = append(snap.Contexts, ContextInfo{
			ID:                c.id,
			ResetNotification: c.resetNotification,
			RobustAccess:      c.robustAccess,
			Lost:              c.lost,
		})
	}
	return snap
}
