package proxy

import (
	"runtime"
	"sync"
	"sync/atomic"
	"weak"

	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/resource"
)

// Ref is the proxy's link to its native handle.
type Ref struct {
	handle resource.Handle
	kind   string
	stale  atomic.Bool
}

// Handle returns the native handle this proxy stands for.
func (r *Ref) Handle() resource.Handle { return r.handle }

// Valid reports whether the handle has not been invalidated.
func (r *Ref) Valid() bool { return !r.stale.Load() }

// Check returns a stale-handle error once the handle was invalidated.
func (r *Ref) Check() error {
	if r.stale.Load() {
		return errors.StaleHandle(uint32(r.handle), r.kind)
	}
	return nil
}

// Config holds registry options.
type Config struct {
	// InitialCapacity is a size hint for the handle map.
	InitialCapacity int
}

// DefaultConfig returns the default registry options.
func DefaultConfig() Config {
	return Config{InitialCapacity: 64}
}

type slot[T any] struct {
	proxy weak.Pointer[T]
	ref   *Ref
	gen   uint64
}

type reclaimed struct {
	handle resource.Handle
	gen    uint64
}

// Registry maps native handles to proxies of type T.
type Registry[T any] struct {
	slots     map[resource.Handle]*slot[T]
	resolving map[resource.Handle]*Ref
	kind      string
	gen       uint64
	mu        sync.Mutex

	queue   []reclaimed
	queueMu sync.Mutex
}

// New creates a registry. kind names the entity in errors and logs.
func New[T any](kind string, cfg Config) *Registry[T] {
	return &Registry[T]{
		slots:     make(map[resource.Handle]*slot[T], cfg.InitialCapacity),
		resolving: make(map[resource.Handle]*Ref),
		kind:      kind,
	}
}

// Resolve returns the proxy for h, calling factory to build one if none is
// live. Handle 0 yields (nil, nil) and factory is not called.
func (r *Registry[T]) Resolve(h resource.Handle, factory func(*Ref) (*T, error)) (*T, error) {
	if h == 0 {
		return nil, nil
	}

	r.mu.Lock()
	r.purge()
	if s, ok := r.slots[h]; ok {
		if p := s.proxy.Value(); p != nil {
			r.mu.Unlock()
			return p, nil
		}
		delete(r.slots, h)
	}
	if _, busy := r.resolving[h]; busy {
		r.mu.Unlock()
		panic(errors.IdentityConflict(errors.PhaseResolve,
			"%s handle %#x resolved again while its proxy is being built", r.kind, uint32(h)))
	}
	ref := &Ref{handle: h, kind: r.kind}
	r.resolving[h] = ref
	r.mu.Unlock()

	p, err := r.build(h, ref, factory)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.resolving, h)

	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.NullValueRejected(errors.PhaseResolve, nil, r.kind)
	}
	// invalidated while factory ran
	if err := ref.Check(); err != nil {
		return nil, err
	}

	r.gen++
	gen := r.gen
	r.slots[h] = &slot[T]{proxy: weak.Make(p), ref: ref, gen: gen}
	runtime.AddCleanup(p, r.enqueue, reclaimed{handle: h, gen: gen})

	Logger().Debug("proxy created", zap.String("kind", r.kind), zap.Uint32("handle", uint32(h)))
	return p, nil
}

func (r *Registry[T]) build(h resource.Handle, ref *Ref, factory func(*Ref) (*T, error)) (p *T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.mu.Lock()
			delete(r.resolving, h)
			r.mu.Unlock()
			panic(rec)
		}
	}()
	return factory(ref)
}

// Lookup returns the live proxy for h without building one.
func (r *Registry[T]) Lookup(h resource.Handle) (*T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge()

	s, ok := r.slots[h]
	if !ok {
		return nil, false
	}
	p := s.proxy.Value()
	return p, p != nil
}

// Invalidate marks the proxy for h stale and forgets the handle. A proxy
// still being built for h is marked too, and its Resolve fails with a
// stale-handle error. It reports whether a proxy was registered or being
// built.
func (r *Registry[T]) Invalidate(h resource.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge()

	if ref, ok := r.resolving[h]; ok {
		ref.stale.Store(true)
		Logger().Debug("proxy invalidated while resolving", zap.String("kind", r.kind), zap.Uint32("handle", uint32(h)))
		return true
	}
	s, ok := r.slots[h]
	if !ok {
		return false
	}
	s.ref.stale.Store(true)
	delete(r.slots, h)

	Logger().Debug("proxy invalidated", zap.String("kind", r.kind), zap.Uint32("handle", uint32(h)))
	return true
}

// InvalidateAll marks every registered proxy stale.
func (r *Registry[T]) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for h, s := range r.slots {
		s.ref.stale.Store(true)
		delete(r.slots, h)
	}
	for _, ref := range r.resolving {
		ref.stale.Store(true)
	}
	r.queueMu.Lock()
	r.queue = nil
	r.queueMu.Unlock()
}

// OnResourceEvent invalidates proxies whose native entity was destroyed.
func (r *Registry[T]) OnResourceEvent(e resource.Event) {
	if e.Type == resource.EventDestroyed {
		r.Invalidate(e.Handle)
	}
}

// Len returns the number of live proxies.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge()

	n := 0
	for _, s := range r.slots {
		if s.proxy.Value() != nil {
			n++
		}
	}
	return n
}

// Each calls fn for a snapshot of the live proxies. fn may resolve or
// invalidate handles.
func (r *Registry[T]) Each(fn func(resource.Handle, *T) bool) {
	type pair struct {
		h resource.Handle
		p *T
	}

	r.mu.Lock()
	r.purge()
	snapshot := make([]pair, 0, len(r.slots))
	for h, s := range r.slots {
		if p := s.proxy.Value(); p != nil {
			snapshot = append(snapshot, pair{h, p})
		}
	}
	r.mu.Unlock()

	for _, e := range snapshot {
		if !fn(e.h, e.p) {
			return
		}
	}
}

func (r *Registry[T]) enqueue(rc reclaimed) {
	r.queueMu.Lock()
	r.queue = append(r.queue, rc)
	r.queueMu.Unlock()
}

// purge drops slots whose proxies were reclaimed. Caller holds r.mu.
func (r *Registry[T]) purge() {
	r.queueMu.Lock()
	queue := r.queue
	r.queue = nil
	r.queueMu.Unlock()

	for _, rc := range queue {
		if s, ok := r.slots[rc.handle]; ok && s.gen == rc.gen {
			delete(r.slots, rc.handle)
		}
	}
}
