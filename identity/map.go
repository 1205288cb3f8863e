package identity

import (
	"reflect"
	"runtime"
	"sync"
	"weak"

	"github.com/wippyai/script-bridge/errors"
)

// Key is the reference identity of a native value. Slices are identified
// by their header: two slices share an identity only when they view the
// same backing array with the same length and capacity.
type Key struct {
	typ  reflect.Type
	addr uintptr
	len  int
	cap  int
}

// Type returns the dynamic type of the identified value.
func (k Key) Type() reflect.Type { return k.typ }

// Of returns the identity of v. Only non-nil pointers, maps, channels and
// slices with capacity have one. Pointers to zero-sized values and slices of
// zero-sized elements are excluded because distinct zero-sized allocations
// may share an address.
func Of(v any) (Key, bool) {
	if v == nil {
		return Key{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() || rv.Type().Elem().Size() == 0 {
			return Key{}, false
		}
	case reflect.Map, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return Key{}, false
		}
	case reflect.Slice:
		if rv.Cap() == 0 || rv.Type().Elem().Size() == 0 {
			return Key{}, false
		}
		return Key{typ: rv.Type(), addr: rv.Pointer(), len: rv.Len(), cap: rv.Cap()}, true
	default:
		return Key{}, false
	}
	return Key{typ: rv.Type(), addr: rv.Pointer()}, true
}

type entry[V any] struct {
	ref weak.Pointer[V]
	gen uint64
}

type reclaimed struct {
	key Key
	gen uint64
}

// Map is a weak identity map. It is safe for concurrent use.
type Map[V any] struct {
	entries map[Key]entry[V]
	gen     uint64
	mu      sync.Mutex

	queue   []reclaimed
	queueMu sync.Mutex
}

// New creates a map with an initial capacity hint.
func New[V any](capacity int) *Map[V] {
	return &Map[V]{entries: make(map[Key]entry[V], capacity)}
}

// Get returns the live value registered for native's identity.
func (m *Map[V]) Get(native any) (*V, bool) {
	key, ok := Of(native)
	if !ok {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.purge()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	v := e.ref.Value()
	if v == nil {
		delete(m.entries, key)
		return nil, false
	}
	return v, true
}

// Put registers v for native's identity. Natives without identity are
// ignored. Registering a different live value for an identity that already
// has one is an identity conflict.
func (m *Map[V]) Put(native any, v *V) error {
	if v == nil {
		return errors.NullValueRejected(errors.PhaseWrap, nil, reflect.TypeOf(v).String())
	}
	key, ok := Of(native)
	if !ok {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.purge()

	if e, ok := m.entries[key]; ok {
		if cur := e.ref.Value(); cur != nil {
			if cur == v {
				return nil
			}
			return errors.IdentityConflict(errors.PhaseWrap,
				"%s at %#x already has a live wrapper", key.typ, key.addr)
		}
	}

	m.gen++
	gen := m.gen
	m.entries[key] = entry[V]{ref: weak.Make(v), gen: gen}
	runtime.AddCleanup(v, m.enqueue, reclaimed{key: key, gen: gen})
	return nil
}

// Delete removes the entry for native's identity.
func (m *Map[V]) Delete(native any) {
	key, ok := Of(native)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purge()
	delete(m.entries, key)
}

// Len returns the number of entries whose values are still live.
func (m *Map[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purge()

	n := 0
	for _, e := range m.entries {
		if e.ref.Value() != nil {
			n++
		}
	}
	return n
}

// Range calls fn for a snapshot of the live entries. fn may modify the map.
func (m *Map[V]) Range(fn func(Key, *V) bool) {
	type pair struct {
		key Key
		val *V
	}

	m.mu.Lock()
	m.purge()
	snapshot := make([]pair, 0, len(m.entries))
	for k, e := range m.entries {
		if v := e.ref.Value(); v != nil {
			snapshot = append(snapshot, pair{k, v})
		}
	}
	m.mu.Unlock()

	for _, p := range snapshot {
		if !fn(p.key, p.val) {
			return
		}
	}
}

// Clear removes every entry.
func (m *Map[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purge()
	clear(m.entries)
}

// enqueue runs on the runtime's cleanup goroutine.
func (m *Map[V]) enqueue(r reclaimed) {
	m.queueMu.Lock()
	m.queue = append(m.queue, r)
	m.queueMu.Unlock()
}

// purge drops entries whose values were reclaimed. Caller holds m.mu.
// An entry is only removed when its generation matches, so a cleanup for an
// old wrapper never evicts a newer wrapper registered under the same key.
func (m *Map[V]) purge() {
	m.queueMu.Lock()
	queue := m.queue
	m.queue = nil
	m.queueMu.Unlock()

	for _, r := range queue {
		if e, ok := m.entries[r.key]; ok && e.gen == r.gen {
			delete(m.entries, r.key)
		}
	}
}
