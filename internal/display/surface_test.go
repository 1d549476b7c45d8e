package display

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gpudisplay/pkg/egl"
)

func TestWindowSurfaceInitialState(t *testing.T) {
	b := newFakeBackend()
	d, th := newTestDisplay(t, b)
	win := &fakeWindow{width: 320, height: 200}

	s, err := d.CreateWindowSurface(th, win, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Width() != 320 || s.Height() != 200 {
		t.Errorf("size = %dx%d, want 320x200", s.Width(), s.Height())
	}
	if s.SwapInterval() != 1 || s.SwapIntervalDirty() {
		t.Errorf("interval = %d dirty = %v, want 1 clean", s.SwapInterval(), s.SwapIntervalDirty())
	}
	sc := chainOf(t, s)
	if sc.target.Window != win || sc.interval != 1 {
		t.Errorf("swap chain target %+v interval %d", sc.target, sc.interval)
	}
	if s.TextureFormat() != egl.NoTexture || s.TextureTarget() != egl.NoTexture {
		t.Error("window surface has a texture binding")
	}
}

func TestSetSwapIntervalClamps(t *testing.T) {
	b := newFakeBackend()
	b.minInterval, b.maxInterval = 1, 3
	d, th := newTestDisplay(t, b)
	s, err := d.CreateWindowSurface(th, &fakeWindow{width: 8, height: 8}, nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{2, 2},
		{3, 3},
		{10, 3},
	}
	for _, tt := range tests {
		s.SetSwapInterval(tt.in)
		if got := s.SwapInterval(); got != tt.want {
			t.Errorf("SetSwapInterval(%d): interval = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSetSwapIntervalSameValueStaysClean(t *testing.T) {
	b := newFakeBackend()
	d, th := newTestDisplay(t, b)
	s, err := d.CreateWindowSurface(th, &fakeWindow{width: 8, height: 8}, nil)
	if err != nil {
		t.Fatal(err)
	}

	s.SetSwapInterval(9)
	if !s.SwapIntervalDirty() {
		t.Fatal("interval change not marked dirty")
	}
	if chainOf(t, s).interval != 1 {
		t.Error("interval applied eagerly")
	}
	if !s.CheckForOutOfDateSwapChain(th) {
		t.Fatal("CheckForOutOfDateSwapChain() = false with a dirty interval")
	}
	if chainOf(t, s).interval != 4 {
		t.Errorf("swap chain interval = %d, want 4", chainOf(t, s).interval)
	}

	// 9 and 4 both clamp to the applied value.
	s.SetSwapInterval(9)
	s.SetSwapInterval(4)
	if s.SwapIntervalDirty() {
		t.Error("re-setting the effective interval marked it dirty")
	}
}

// Interval change with unchanged window size takes the full reset path.
func TestCheckForOutOfDateSwapChainIntervalReset(t *testing.T) {
	b := newFakeBackend()
	d, th := newTestDisplay(t, b)
	s, err := d.CreateWindowSurface(th, &fakeWindow{width: 640, height: 480}, nil)
	if err != nil {
		t.Fatal(err)
	}
	sc := chainOf(t, s)
	resets, resizes := sc.resets, sc.resizes

	s.SetSwapInterval(0)
	if !s.CheckForOutOfDateSwapChain(th) {
		t.Error("CheckForOutOfDateSwapChain() = false, want true")
	}
	if sc.resets != resets+1 || sc.resizes != resizes {
		t.Errorf("resets +%d resizes +%d, want a single reset", sc.resets-resets, sc.resizes-resizes)
	}
	if s.SwapIntervalDirty() {
		t.Error("interval still dirty")
	}
	if s.Width() != 640 || s.Height() != 480 {
		t.Errorf("size = %dx%d, want 640x480", s.Width(), s.Height())
	}
	if sc.interval != 0 {
		t.Errorf("swap chain interval = %d, want 0", sc.interval)
	}
}

func TestCheckForOutOfDateSwapChainResize(t *testing.T) {
	b := newFakeBackend()
	d, th := newTestDisplay(t, b)
	win := &fakeWindow{width: 100, height: 100}
	s, err := d.CreateWindowSurface(th, win, nil)
	if err != nil {
		t.Fatal(err)
	}
	sc := chainOf(t, s)

	if s.CheckForOutOfDateSwapChain(th) {
		t.Error("CheckForOutOfDateSwapChain() = true with nothing changed")
	}

	win.width, win.height = 150, 90
	resets := sc.resets
	if !s.CheckForOutOfDateSwapChain(th) {
		t.Fatal("CheckForOutOfDateSwapChain() = false after a resize")
	}
	if sc.resizes != 1 || sc.resets != resets {
		t.Errorf("resizes = %d resets +%d, want one resize only", sc.resizes, sc.resets-resets)
	}
	if s.Width() != 150 || s.Height() != 90 {
		t.Errorf("size = %dx%d, want 150x90", s.Width(), s.Height())
	}

	win.err = errFake
	win.width = 10
	if s.CheckForOutOfDateSwapChain(th) {
		t.Error("CheckForOutOfDateSwapChain() = true when the window size is unavailable")
	}
}

func TestCheckForOutOfDateSwapChainRebindsCurrent(t *testing.T) {
	b := newFakeBackend()
	d, th := newTestDisplay(t, b)
	win := &fakeWindow{width: 64, height: 64}
	s, _ := d.CreateWindowSurface(th, win, nil)
	other, _ := d.CreateWindowSurface(th, &fakeWindow{width: 64, height: 64}, nil)
	c, err := d.CreateContext(th, nil, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.MakeCurrent(th, s, s, c); err != nil {
		t.Fatal(err)
	}
	fc := b.contexts[0]
	binds := fc.binds

	win.width = 128
	if !s.CheckForOutOfDateSwapChain(th) {
		t.Fatal("CheckForOutOfDateSwapChain() = false")
	}
	if fc.binds != binds+1 || fc.draw != s.SwapChain() {
		t.Errorf("binds +%d, want a rebind to the current surface", fc.binds-binds)
	}

	// Not the current draw surface: no rebind.
	other.SetSwapInterval(0)
	binds = fc.binds
	if !other.CheckForOutOfDateSwapChain(th) {
		t.Fatal("CheckForOutOfDateSwapChain() = false")
	}
	if fc.binds != binds {
		t.Error("non-current surface rebound the context")
	}
}

func TestSwapRectClamping(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h int
		want       [][4]int
	}{
		{"full", 0, 0, 100, 50, [][4]int{{0, 0, 100, 50}}},
		{"clamped right bottom", 90, 40, 30, 30, [][4]int{{90, 40, 10, 10}}},
		{"negative origin", -10, -5, 20, 20, [][4]int{{0, 0, 10, 15}}},
		{"fully outside", 200, 200, 10, 10, nil},
		{"on the edge", 100, 0, 10, 10, nil},
		{"zero area", 10, 10, 0, 5, nil},
		{"origin near max int", math.MaxInt - 5, 0, 10, 10, nil},
		{"bottom near max int", 0, math.MaxInt - 5, 10, 10, nil},
		{"negative size", 10, 10, -5, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			d, th := newTestDisplay(t, b)
			s, err := d.CreateOffscreenSurface(th, 0, egl.Attribs(egl.Width, 100, egl.Height, 50))
			if err != nil {
				t.Fatal(err)
			}
			th.SetError(egl.BadAccess)

			if err := s.SwapRect(th, tt.x, tt.y, tt.w, tt.h); err != nil {
				t.Fatalf("SwapRect() error = %v", err)
			}
			if th.Error() != egl.Success {
				t.Errorf("thread error = %v, want success", th.Error())
			}
			if diff := cmp.Diff(tt.want, chainOf(t, s).swaps); diff != "" {
				t.Errorf("presented rects mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResetSwapChain(t *testing.T) {
	b := newFakeBackend()
	d, th := newTestDisplay(t, b)
	s, _ := d.CreateOffscreenSurface(th, 0, egl.Attribs(egl.Width, 32, egl.Height, 16))
	old := chainOf(t, s)

	if err := s.ResetSwapChain(th); err != nil {
		t.Fatalf("ResetSwapChain() error = %v", err)
	}
	if !old.released {
		t.Error("previous swap chain not released")
	}
	if sc := chainOf(t, s); sc == old || sc.width != 32 || sc.height != 16 {
		t.Errorf("new chain %dx%d, want a fresh 32x16 chain", sc.width, sc.height)
	}
}

func TestResetSwapChainInvalidSurface(t *testing.T) {
	t.Run("terminated display", func(t *testing.T) {
		b := newFakeBackend()
		d, th := newTestDisplay(t, b)
		s, _ := d.CreateOffscreenSurface(th, 0, egl.Attribs(egl.Width, 8, egl.Height, 8))
		d.Terminate()
		created := len(b.chains)

		wantCode(t, th, s.ResetSwapChain(th), egl.NotInitialized)
		if len(b.chains) != created {
			t.Error("swap chain created for a terminated display")
		}
	})
	t.Run("destroyed surface", func(t *testing.T) {
		b := newFakeBackend()
		d, th := newTestDisplay(t, b)
		s, _ := d.CreateOffscreenSurface(th, 0, egl.Attribs(egl.Width, 8, egl.Height, 8))
		if err := d.DestroySurface(th, s); err != nil {
			t.Fatal(err)
		}
		created := len(b.chains)

		wantCode(t, th, s.ResetSwapChain(th), egl.BadSurface)
		if len(b.chains) != created || s.SwapChain() != nil {
			t.Error("destroyed surface got a swap chain")
		}
	})
	t.Run("detached surface", func(t *testing.T) {
		th := NewRegistry().Thread(1)
		wantCode(t, th, (&Surface{}).ResetSwapChain(th), egl.NotInitialized)
	})
}

func TestSwapWithoutSwapChain(t *testing.T) {
	b := newFakeBackend()
	d, th := newTestDisplay(t, b)
	s, _ := d.CreateWindowSurface(th, &fakeWindow{width: 10, height: 10}, nil)
	s.Release()
	s.Release()

	if err := d.SwapBuffers(th, s); err != nil {
		t.Errorf("SwapBuffers() without a swap chain error = %v", err)
	}
}

func TestSwapChecksForOutOfDateSwapChain(t *testing.T) {
	b := newFakeBackend()
	d, th := newTestDisplay(t, b)
	win := &fakeWindow{width: 10, height: 10}
	s, _ := d.CreateWindowSurface(th, win, nil)

	win.width, win.height = 20, 30
	if err := s.Swap(th); err != nil {
		t.Fatal(err)
	}
	sc := chainOf(t, s)
	if diff := cmp.Diff([][4]int{{0, 0, 10, 10}}, sc.swaps); diff != "" {
		t.Errorf("swap rects mismatch (-want +got):\n%s", diff)
	}
	if s.Width() != 20 || s.Height() != 30 {
		t.Errorf("size after swap = %dx%d, want 20x30", s.Width(), s.Height())
	}
}

func TestSwapFailure(t *testing.T) {
	b := newFakeBackend()
	d, th := newTestDisplay(t, b)
	s, _ := d.CreateOffscreenSurface(th, 0, egl.Attribs(egl.Width, 4, egl.Height, 4))
	chainOf(t, s).swapErr = egl.ErrBadSurface

	err := s.Swap(th)
	wantCode(t, th, err, egl.BadSurface)
	if b.TestDeviceLost() {
		t.Error("ordinary failure marked the device lost")
	}
}

func TestContextLostEscalates(t *testing.T) {
	tests := []struct {
		name string
		run  func(th *Thread, s *Surface, win *fakeWindow, sc *fakeSwapChain) error
	}{
		{"swap", func(th *Thread, s *Surface, win *fakeWindow, sc *fakeSwapChain) error {
			sc.swapErr = egl.ErrContextLost
			return s.Swap(th)
		}},
		{"reset", func(th *Thread, s *Surface, win *fakeWindow, sc *fakeSwapChain) error {
			sc.resetErr = egl.ErrContextLost
			s.SetSwapInterval(0)
			s.CheckForOutOfDateSwapChain(th)
			return nil
		}},
		{"resize", func(th *Thread, s *Surface, win *fakeWindow, sc *fakeSwapChain) error {
			sc.resizeErr = egl.ErrContextLost
			win.width = 99
			s.CheckForOutOfDateSwapChain(th)
			return nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			d, th := newTestDisplay(t, b)
			win := &fakeWindow{width: 16, height: 16}
			s, _ := d.CreateWindowSurface(th, win, nil)
			c, _ := d.CreateContext(th, nil, false, false)

			err := tt.run(th, s, win, chainOf(t, s))
			if err != nil && egl.CodeOf(err) != egl.ContextLost {
				t.Errorf("error = %v, want context lost", err)
			}
			if th.Error() != egl.ContextLost {
				t.Errorf("thread error = %v, want context lost", th.Error())
			}
			if !b.TestDeviceLost() || !c.IsLost() {
				t.Error("device loss did not reach the display")
			}
			if s.Width() != 16 || s.Height() != 16 {
				t.Errorf("size changed to %dx%d on failure", s.Width(), s.Height())
			}
			if b.resets != 0 {
				t.Error("escalation attempted recovery")
			}
		})
	}
}

func TestSurfaceReleaseDetachesTexture(t *testing.T) {
	b := newFakeBackend()
	d, th := newTestDisplay(t, b)
	s, _ := d.CreateOffscreenSurface(th, 0, egl.Attribs(egl.Width, 4, egl.Height, 4))
	tex := &fakeTexture{}
	s.SetBoundTexture(tex)
	if s.BoundTexture() != tex {
		t.Fatal("BoundTexture() did not return the bound texture")
	}

	s.Release()
	s.Release()
	if tex.releases != 1 || s.BoundTexture() != nil || s.SwapChain() != nil {
		t.Errorf("after Release: texture releases = %d, chain = %v", tex.releases, s.SwapChain())
	}

	if err := s.ResetSwapChain(th); err != nil {
		t.Fatalf("ResetSwapChain() error = %v", err)
	}
	if s.SwapChain() == nil || s.Width() != 4 {
		t.Error("ResetSwapChain() did not restore the offscreen chain")
	}
}
