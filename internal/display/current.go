package display

import (
	"context"
	"sync"

	"gpudisplay/pkg/egl"
)

// ThreadID identifies a calling thread to the Registry. Callers choose the
// values; the app uses one id per OS-locked goroutine.
type ThreadID uint64

// Thread is the current state of one calling thread. A Thread must only be
// used by the thread it belongs to. All methods accept a nil receiver:
// setters do nothing and getters return defaults.
type Thread struct {
	err     egl.ErrorCode
	api     egl.API
	display *Display
	draw    *Surface
	read    *Surface
	context *Context
}

func (t *Thread) Error() egl.ErrorCode {
	if t == nil {
		return egl.Success
	}
	return t.err
}

func (t *Thread) SetError(code egl.ErrorCode) {
	if t != nil {
		t.err = code
	}
}

func (t *Thread) API() egl.API {
	if t == nil {
		return egl.NoAPI
	}
	return t.api
}

func (t *Thread) SetAPI(api egl.API) {
	if t != nil {
		t.api = api
	}
}

func (t *Thread) Display() *Display {
	if t == nil {
		return nil
	}
	return t.display
}

func (t *Thread) SetDisplay(d *Display) {
	if t != nil {
		t.display = d
	}
}

func (t *Thread) DrawSurface() *Surface {
	if t == nil {
		return nil
	}
	return t.draw
}

func (t *Thread) SetDrawSurface(s *Surface) {
	if t != nil {
		t.draw = s
	}
}

func (t *Thread) ReadSurface() *Surface {
	if t == nil {
		return nil
	}
	return t.read
}

func (t *Thread) SetReadSurface(s *Surface) {
	if t != nil {
		t.read = s
	}
}

func (t *Thread) Context() *Context {
	if t == nil {
		return nil
	}
	return t.context
}

func (t *Thread) SetContext(c *Context) {
	if t != nil {
		t.context = c
	}
}

// fail records the code of err and returns it as an *egl.Error for op.
func (t *Thread) fail(op string, err error) error {
	e := opError(op, err)
	t.SetError(e.Code)
	return e
}

// succeed records success.
func (t *Thread) succeed() {
	t.SetError(egl.Success)
}

// unbind drops every reference the record holds into d.
func (t *Thread) unbind(d *Display) {
	if t.display == d {
		t.display = nil
	}
	if t.draw != nil && t.draw.display == d {
		t.draw = nil
	}
	if t.read != nil && t.read.display == d {
		t.read = nil
	}
	if t.context != nil && t.context.display == d {
		t.context = nil
	}
}

// Registry owns the per-thread records. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	threads map[ThreadID]*Thread
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{threads: make(map[ThreadID]*Thread)}
}

// Thread returns the record for id, creating it on first access.
func (r *Registry) Thread(id ThreadID) *Thread {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.threads[id]
	if !ok {
		t = &Thread{}
		r.threads[id] = t
	}
	return t
}

// Forget drops the record for id.
func (r *Registry) Forget(id ThreadID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, id)
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.threads)
}

func (r *Registry) each(fn func(*Thread)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.threads {
		fn(t)
	}
}

type threadKey struct{}

// WithThread returns a copy of ctx carrying t.
func WithThread(ctx context.Context, t *Thread) context.Context {
	return context.WithValue(ctx, threadKey{}, t)
}

// ThreadFrom returns the record carried by ctx, or nil.
func ThreadFrom(ctx context.Context) *Thread {
	t, _ := ctx.Value(threadKey{}).(*Thread)
	return t
}
