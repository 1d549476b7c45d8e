package display

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"gpudisplay/internal/backend"
	"gpudisplay/pkg/egl"
)

var errFake = errors.New("fake failure")

type fakeWindow struct {
	width, height int
	err           error
}

func (w *fakeWindow) ClientSize() (int, int, error) {
	if w.err != nil {
		return 0, 0, w.err
	}
	return w.width, w.height, nil
}

type fakeBackend struct {
	events []string

	lost       bool
	resetErr   error
	resets     int
	createErr  error
	contextErr error

	minInterval, maxInterval int
	nonPow2                  bool
	luid                     *backend.LUID

	// chainReset is installed as resetErr on every new chain
	chainReset error

	chains   []*fakeSwapChain
	contexts []*fakeContext
	released bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{minInterval: 0, maxInterval: 4, nonPow2: true}
}

func (b *fakeBackend) factory() backend.Factory {
	return func(*zap.Logger) (backend.Backend, error) { return b, nil }
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) CreateSwapChain(target backend.Target, color, depthStencil backend.Format) (backend.SwapChain, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	sc := &fakeSwapChain{backend: b, id: len(b.chains) + 1, target: target, resetErr: b.chainReset}
	b.chains = append(b.chains, sc)
	b.events = append(b.events, fmt.Sprintf("create chain %d", sc.id))
	return sc, nil
}

func (b *fakeBackend) CreateContext(share backend.Context, notifyResets, robustAccess bool) (backend.Context, error) {
	if b.contextErr != nil {
		return nil, b.contextErr
	}
	c := &fakeContext{backend: b, id: len(b.contexts) + 1}
	b.contexts = append(b.contexts, c)
	return c, nil
}

func (b *fakeBackend) ResetDevice() error {
	b.resets++
	b.events = append(b.events, "reset device")
	if b.resetErr != nil {
		return b.resetErr
	}
	b.lost = false
	return nil
}

func (b *fakeBackend) TestDeviceLost() bool { return b.lost }
func (b *fakeBackend) NotifyDeviceLost() { b.lost = true }
func (b *fakeBackend) MinSwapInterval() int { return b.minInterval }
func (b *fakeBackend) MaxSwapInterval() int { return b.maxInterval }
func (b *fakeBackend) MaxTextureWidth() int { return 8192 }
func (b *fakeBackend) MaxTextureHeight() int { return 8192 }
func (b *fakeBackend) NonPower2TextureSupport() bool { return b.nonPow2 }

func (b *fakeBackend) LUID() (backend.LUID, bool) {
	if b.luid == nil {
		return backend.LUID{}, false
	}
	return *b.luid, true
}

func (b *fakeBackend) Release() {
	b.released = true
	b.events = append(b.events, "release backend")
}

type fakeSwapChain struct {
	backend *fakeBackend
	id      int
	target  backend.Target

	width, height, interval int

	resetErr, resizeErr, swapErr error

	resets, resizes, recreates int
	swaps                      [][4]int
	released                   bool
}

func (sc *fakeSwapChain) Reset(width, height, interval int) error {
	sc.resets++
	if sc.resetErr != nil {
		return sc.resetErr
	}
	sc.width, sc.height, sc.interval = width, height, interval
	return nil
}

func (sc *fakeSwapChain) Resize(width, height int) error {
	sc.resizes++
	if sc.resizeErr != nil {
		return sc.resizeErr
	}
	sc.width, sc.height = width, height
	return nil
}

func (sc *fakeSwapChain) SwapRect(x, y, width, height int) error {
	sc.swaps = append(sc.swaps, [4]int{x, y, width, height})
	return sc.swapErr
}

func (sc *fakeSwapChain) Recreate() error {
	sc.recreates++
	return nil
}

func (sc *fakeSwapChain) Release() {
	sc.released = true
	sc.backend.events = append(sc.backend.events, fmt.Sprintf("release chain %d", sc.id))
}

type fakeContext struct {
	backend    *fakeBackend
	id         int
	lostCalls  int
	released   bool
	binds      int
	draw, read backend.SwapChain
	makeErr    error
}

func (c *fakeContext) MakeCurrent(draw, read backend.SwapChain) error {
	c.binds++
	if c.makeErr != nil {
		return c.makeErr
	}
	c.draw, c.read = draw, read
	return nil
}

func (c *fakeContext) MarkLost() { c.lostCalls++ }

func (c *fakeContext) Release() {
	c.released = true
	c.backend.events = append(c.backend.events, fmt.Sprintf("release context %d", c.id))
}

type fakeTexture struct {
	releases int
}

func (t *fakeTexture) ReleaseTexImage() { t.releases++ }

// newTestDisplay returns an initialized display over b and a thread record.
func newTestDisplay(t *testing.T, b *fakeBackend) (*Display, *Thread) {
	t.Helper()
	reg := NewRegistry()
	th := reg.Thread(1)
	d := New(b.factory(), WithRegistry(reg))
	if err := d.Initialize(th); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(d.Terminate)
	return d, th
}

func chainOf(t *testing.T, s *Surface) *fakeSwapChain {
	t.Helper()
	sc, ok := s.SwapChain().(*fakeSwapChain)
	if !ok {
		t.Fatalf("surface %d has swap chain %T, want *fakeSwapChain", s.ID(), s.SwapChain())
	}
	return sc
}

func wantCode(t *testing.T, th *Thread, err error, want egl.ErrorCode) {
	t.Helper()
	if got := egl.CodeOf(err); got != want {
		t.Errorf("error code = %v (%v), want %v", got, err, want)
	}
	if got := th.Error(); got != want {
		t.Errorf("thread error = %v, want %v", got, want)
	}
}
