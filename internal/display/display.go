// Package display manages the lifecycle of a rendering backend and of the
// surfaces and contexts created against it, including recovery after the
// GPU device is lost.
//
// A Display has a single logical owner; it does no locking. Per-thread
// state (last error, bound surfaces and context) lives in Thread records
// that callers obtain from a Registry and pass to each operation.
package display

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"gpudisplay/internal/backend"
	"gpudisplay/pkg/egl"
)

const defaultVendor = "gpudisplay"

// Display owns one backend and every surface and context created on it.
type Display struct {
	log      *zap.Logger
	factory  backend.Factory
	registry *Registry

	vendor       string
	swapInterval int

	backend  backend.Backend
	surfaces map[*Surface]struct{}
	contexts map[*Context]struct{}
	nextID   uint64

	vendorString string
}

// Option configures a Display
type Option func(*Display)

// WithLogger sets the logger. The display logs under the name "display".
func WithLogger(l *zap.Logger) Option {
	return func(d *Display) {
		if l != nil {
			d.log = l.Named("display")
		}
	}
}

// WithVendor sets the prefix of the vendor string.
func WithVendor(vendor string) Option {
	return func(d *Display) { d.vendor = vendor }
}

// WithSwapInterval sets the interval requested for new surfaces.
func WithSwapInterval(interval int) Option {
	return func(d *Display) { d.swapInterval = interval }
}

// WithRegistry lets Terminate and Destroy* clear thread records that
// still reference this display.
func WithRegistry(r *Registry) Option {
	return func(d *Display) { d.registry = r }
}

// New creates an uninitialized display that builds its backend with factory.
func New(factory backend.Factory, opts ...Option) *Display {
	d := &Display{
		log:          zap.NewNop(),
		factory:      factory,
		vendor:       defaultVendor,
		swapInterval: 1,
		surfaces:     make(map[*Surface]struct{}),
		contexts:     make(map[*Context]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Initialize creates the backend. It does nothing if the display is
// already initialized.
func (d *Display) Initialize(th *Thread) error {
	const op = "Initialize"
	if d.IsInitialized() {
		th.succeed()
		return nil
	}

	var b backend.Backend
	var err error
	if d.factory != nil {
		b, err = d.factory(d.log)
	}
	if err != nil || b == nil {
		if b != nil {
			b.Release()
		}
		d.Terminate()
		if err == nil {
			err = backend.ErrBackendNotAvailable
		}
		d.log.Error("backend creation failed", zap.Error(err))
		return th.fail(op, egl.Wrap(egl.NotInitialized, op, err))
	}
	d.backend = b

	// Capabilities are not cached here; querying them confirms the backend
	// responds.
	d.log.Debug("backend capabilities",
		zap.String("backend", b.Name()),
		zap.Int("min_swap_interval", b.MinSwapInterval()),
		zap.Int("max_swap_interval", b.MaxSwapInterval()),
		zap.Int("max_texture_width", b.MaxTextureWidth()),
		zap.Int("max_texture_height", b.MaxTextureHeight()),
	)

	d.initVendorString()
	d.log.Info("display initialized", zap.String("vendor", d.vendorString))

	th.succeed()
	return nil
}

// Terminate destroys every surface, then every context, then the backend.
// It may be called any number of times.
func (d *Display) Terminate() {
	for s := range d.surfaces {
		d.destroySurface(s)
	}
	for c := range d.contexts {
		d.destroyContext(c)
	}
	if d.backend != nil {
		d.backend.Release()
		d.backend = nil
		d.log.Info("display terminated")
	}
	if d.registry != nil {
		d.registry.each(func(t *Thread) { t.unbind(d) })
	}
}

func (d *Display) IsInitialized() bool { return d.backend != nil }

// Backend returns the backend, or nil before Initialize. Callers query
// capability limits here directly.
func (d *Display) Backend() backend.Backend { return d.backend }

// VendorString returns the vendor string computed at initialization.
func (d *Display) VendorString() string { return d.vendorString }

func (d *Display) initVendorString() {
	d.vendorString = d.vendor
	if luid, ok := d.backend.LUID(); ok {
		d.vendorString += fmt.Sprintf(" (adapter LUID: %08x%08x)", luid.HighPart, luid.LowPart)
	}
}

func (d *Display) newID() uint64 {
	d.nextID++
	return d.nextID
}

// CreateWindowSurface creates a surface presenting to win.
func (d *Display) CreateWindowSurface(th *Thread, win backend.Window, attrs egl.AttribList) (*Surface, error) {
	const op = "CreateWindowSurface"
	if !d.IsInitialized() {
		return nil, th.fail(op, egl.ErrNotInitialized)
	}
	if err := parseWindowAttribs(attrs); err != nil {
		return nil, th.fail(op, err)
	}
	if win == nil {
		return nil, th.fail(op, errNilWindow)
	}
	if d.HasExistingWindowSurface(win) {
		return nil, th.fail(op, egl.Errorf(egl.BadAlloc, op, "window already has a surface"))
	}
	if d.backend.TestDeviceLost() {
		if err := d.restoreLostDevice(th); err != nil {
			return nil, th.fail(op, err)
		}
	}

	s := newWindowSurface(d, d.newID(), win)
	if err := s.initialize(th); err != nil {
		s.Release()
		return nil, th.fail(op, err)
	}
	d.surfaces[s] = struct{}{}

	s.log.Info("surface created", zap.Int("width", s.width), zap.Int("height", s.height))
	th.succeed()
	return s, nil
}

// CreateOffscreenSurface creates an offscreen surface sized by attrs.
// shareHandle is passed through to the backend.
func (d *Display) CreateOffscreenSurface(th *Thread, shareHandle uintptr, attrs egl.AttribList) (*Surface, error) {
	const op = "CreateOffscreenSurface"
	if !d.IsInitialized() {
		return nil, th.fail(op, egl.ErrNotInitialized)
	}
	cfg, err := parseOffscreenAttribs(attrs)
	if err != nil {
		return nil, th.fail(op, err)
	}
	if cfg.largest {
		d.log.Debug("largest pbuffer requested, using the requested size")
	}
	if err := cfg.validate(d.backend.NonPower2TextureSupport()); err != nil {
		return nil, th.fail(op, err)
	}
	if d.backend.TestDeviceLost() {
		if err := d.restoreLostDevice(th); err != nil {
			return nil, th.fail(op, err)
		}
	}

	s := newOffscreenSurface(d, d.newID(), shareHandle, cfg)
	if err := s.initialize(th); err != nil {
		s.Release()
		return nil, th.fail(op, err)
	}
	d.surfaces[s] = struct{}{}

	s.log.Info("surface created", zap.Int("width", s.width), zap.Int("height", s.height))
	th.succeed()
	return s, nil
}

// CreateContext creates a context, optionally sharing objects with share.
func (d *Display) CreateContext(th *Thread, share *Context, notifyResets, robustAccess bool) (*Context, error) {
	const op = "CreateContext"
	if !d.IsInitialized() {
		return nil, th.fail(op, egl.ErrNotInitialized)
	}
	if share != nil && !d.IsValidContext(share) {
		return nil, th.fail(op, egl.Errorf(egl.BadContext, op, "unknown share context"))
	}
	if d.backend.TestDeviceLost() {
		if err := d.restoreLostDevice(th); err != nil {
			return nil, th.fail(op, err)
		}
	}

	var shareImpl backend.Context
	if share != nil {
		shareImpl = share.impl
	}
	impl, err := d.backend.CreateContext(shareImpl, notifyResets, robustAccess)
	if err != nil {
		return nil, th.fail(op, err)
	}
	if impl == nil {
		return nil, th.fail(op, egl.ErrBadAlloc)
	}

	c := &Context{
		id:                d.newID(),
		display:           d,
		impl:              impl,
		share:             share,
		resetNotification: notifyResets,
		robustAccess:      robustAccess,
	}
	d.contexts[c] = struct{}{}

	d.log.Debug("context created", zap.Uint64("context", c.id), zap.Bool("notify_resets", notifyResets))
	th.succeed()
	return c, nil
}

// DestroySurface releases s and removes it from the display.
func (d *Display) DestroySurface(th *Thread, s *Surface) error {
	if !d.IsValidSurface(s) {
		return th.fail("DestroySurface", egl.ErrBadSurface)
	}
	d.destroySurface(s)
	th.succeed()
	return nil
}

func (d *Display) destroySurface(s *Surface) {
	s.Release()
	delete(d.surfaces, s)
	if d.registry != nil {
		d.registry.each(func(t *Thread) {
			if t.draw == s {
				t.draw = nil
			}
			if t.read == s {
				t.read = nil
			}
		})
	}
}

// DestroyContext releases c and removes it from the display.
func (d *Display) DestroyContext(th *Thread, c *Context) error {
	if !d.IsValidContext(c) {
		return th.fail("DestroyContext", egl.ErrBadContext)
	}
	d.destroyContext(c)
	th.succeed()
	return nil
}

func (d *Display) destroyContext(c *Context) {
	c.release()
	delete(d.contexts, c)
	if d.registry != nil {
		d.registry.each(func(t *Thread) {
			if t.context == c {
				t.context = nil
			}
		})
	}
}

// NotifyDeviceLost marks the backend and every context lost and records
// ContextLost for th. It does not attempt recovery.
func (d *Display) NotifyDeviceLost(th *Thread) {
	d.notifyDeviceLost(th)
}

func (d *Display) notifyDeviceLost(th *Thread) {
	if d.backend != nil {
		d.backend.NotifyDeviceLost()
	}
	for c := range d.contexts {
		c.markLost()
	}
	th.SetError(egl.ContextLost)
}

// RecreateSwapChains asks every live swap chain to rebuild itself.
func (d *Display) RecreateSwapChains() error {
	var errs error
	for s := range d.surfaces {
		if s.swapChain == nil {
			continue
		}
		if err := s.swapChain.Recreate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("surface %d: %w", s.id, err))
		}
	}
	if errs != nil {
		d.log.Warn("swap chain recreation failed", zap.Error(errs))
	}
	return errs
}

func (d *Display) IsValidContext(c *Context) bool {
	_, ok := d.contexts[c]
	return ok
}

func (d *Display) IsValidSurface(s *Surface) bool {
	_, ok := d.surfaces[s]
	return ok
}

// HasExistingWindowSurface reports whether a live surface presents to win.
func (d *Display) HasExistingWindowSurface(win backend.Window) bool {
	for s := range d.surfaces {
		if s.window != nil && s.window == win {
			return true
		}
	}
	return false
}

// Surfaces returns the live surfaces ordered by ID.
func (d *Display) Surfaces() []*Surface {
	out := make([]*Surface, 0, len(d.surfaces))
	for s := range d.surfaces {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Contexts returns the live contexts ordered by ID.
func (d *Display) Contexts() []*Context {
	out := make([]*Context, 0, len(d.contexts))
	for c := range d.contexts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
