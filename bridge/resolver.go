package bridge

import (
	"reflect"
	"sync"

	"github.com/wippyai/script-bridge/errors"
)

var mapType = reflect.TypeFor[Map]()

// ctor is one registered constructor.
type ctor struct {
	fn     reflect.Value
	out    reflect.Type
	hasErr bool
}

// constructors is the resolved construction strategy for a target type.
// deref and addr adapt a constructor registered for *T or T to a target
// of T or *T.
type constructors struct {
	fromMap *ctor
	zero    *ctor
	deref   bool
	addr    bool
}

func (c *constructors) empty() bool {
	return c.fromMap == nil && c.zero == nil
}

// Resolver holds the constructors used for coercion. Lookups are memoized
// per target type, negative results included; registering a constructor
// invalidates the memo for its type.
type Resolver struct {
	table map[reflect.Type]*constructors
	memo  sync.Map // reflect.Type -> *constructors
	mu    sync.RWMutex
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{table: make(map[reflect.Type]*constructors)}
}

var defaultResolver = NewResolver()

// DefaultResolver returns the process-wide resolver used by factories that
// are not configured with their own.
func DefaultResolver() *Resolver { return defaultResolver }

// RegisterConstructor registers fn with the process-wide resolver.
func RegisterConstructor(fn any) error {
	return defaultResolver.Register(fn)
}

// Register adds a constructor. Accepted shapes:
//
//	func() T
//	func() (T, error)
//	func(bridge.Map) T
//	func(bridge.Map) (T, error)
//
// A later registration of the same shape for T replaces the earlier one.
func (r *Resolver) Register(fn any) error {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return errors.Registration(errors.PhaseCoerce, "constructor",
			errors.InvalidInput(errors.PhaseCoerce, "constructor must be a non-nil function"))
	}
	ft := fv.Type()

	c := &ctor{fn: fv}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return errors.Registration(errors.PhaseCoerce, ft.String(),
				errors.InvalidInput(errors.PhaseCoerce, "second result must be error"))
		}
		c.hasErr = true
	default:
		return errors.Registration(errors.PhaseCoerce, ft.String(),
			errors.InvalidInput(errors.PhaseCoerce, "constructor must return T or (T, error)"))
	}
	c.out = ft.Out(0)

	fromMap := ft.NumIn() == 1 && ft.In(0) == mapType
	if ft.NumIn() != 0 && !fromMap {
		return errors.Registration(errors.PhaseCoerce, ft.String(),
			errors.InvalidInput(errors.PhaseCoerce, "constructor must take no arguments or a bridge.Map"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.table[c.out]
	if !ok {
		entry = &constructors{}
		r.table[c.out] = entry
	}
	if fromMap {
		entry.fromMap = c
	} else {
		entry.zero = c
	}

	// the pointer and value forms of the type resolve through this entry
	r.memo.Delete(c.out)
	if c.out.Kind() == reflect.Pointer {
		r.memo.Delete(c.out.Elem())
	} else {
		r.memo.Delete(reflect.PointerTo(c.out))
	}
	return nil
}

// Constructible reports whether t has a constructor.
func (r *Resolver) Constructible(t reflect.Type) bool {
	return !r.lookup(t).empty()
}

func (r *Resolver) lookup(t reflect.Type) *constructors {
	if c, ok := r.memo.Load(t); ok {
		return c.(*constructors)
	}
	c := r.discover(t)
	r.memo.Store(t, c)
	return c
}

// discover finds constructors for t: registered for t itself, or for *t
// (dereferenced), or for the element of a pointer target (addressed).
func (r *Resolver) discover(t reflect.Type) *constructors {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.table[t]; ok {
		cp := *c
		return &cp
	}
	if c, ok := r.table[reflect.PointerTo(t)]; ok {
		cp := *c
		cp.deref = true
		return &cp
	}
	if t.Kind() == reflect.Pointer {
		if c, ok := r.table[t.Elem()]; ok {
			cp := *c
			cp.addr = true
			return &cp
		}
	}
	return &constructors{}
}

// call invokes a constructor and adapts its result to the target form.
func (c *constructors) call(k *ctor, args []reflect.Value) (reflect.Value, error) {
	out := k.fn.Call(args)
	if k.hasErr && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	v := out[0]
	switch {
	case c.deref:
		if v.IsNil() {
			return reflect.Value{}, errors.NullValueRejected(errors.PhaseCoerce, nil, k.out.String())
		}
		return v.Elem(), nil
	case c.addr:
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p, nil
	}
	return v, nil
}
