package bridge

import (
	"reflect"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/identity"
	"github.com/wippyai/script-bridge/script"
)

// Config holds factory options.
type Config struct {
	// Hooks are consulted before the default dispatch. Nil means no hooks.
	Hooks *Hooks
	// Resolver supplies constructors for coercion. Nil means the process-wide
	// default resolver.
	Resolver *Resolver
	// Names maps Go member names to script property names.
	Names NameMapper
	// CacheCapacity is a size hint for the identity cache.
	CacheCapacity int
}

// DefaultConfig returns the default factory options.
func DefaultConfig() Config {
	return Config{
		Names:         LowerCamel,
		CacheCapacity: 256,
	}
}

// Factory converts values between the native and script sides of one
// engine instance.
type Factory struct {
	engine   script.Engine
	cache    *identity.Map[Wrapper]
	hooks    *Hooks
	resolver *Resolver
	names    NameMapper
	types    sync.Map // reflect.Type -> *typeInfo
}

// New creates a factory with default options.
func New(e script.Engine) *Factory {
	return NewWithConfig(e, DefaultConfig())
}

// NewWithConfig creates a factory with the given options.
func NewWithConfig(e script.Engine, cfg Config) *Factory {
	if cfg.Hooks == nil {
		cfg.Hooks = NewHooks()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = defaultResolver
	}
	if cfg.Names == nil {
		cfg.Names = LowerCamel
	}
	return &Factory{
		engine:   e,
		cache:    identity.New[Wrapper](cfg.CacheCapacity),
		hooks:    cfg.Hooks,
		resolver: cfg.Resolver,
		names:    cfg.Names,
	}
}

// Engine returns the script engine this factory serves.
func (f *Factory) Engine() script.Engine { return f.engine }

// Hooks returns the factory's extension hooks.
func (f *Factory) Hooks() *Hooks { return f.hooks }

// Resolver returns the factory's constructor resolver.
func (f *Factory) Resolver() *Resolver { return f.resolver }

// CacheLen returns the number of live wrappers in the identity cache.
func (f *Factory) CacheLen() int { return f.cache.Len() }

// Wrapper pairs a native value with its script representation. The script
// value holds the wrapper, so a wrapper lives exactly as long as scripts can
// reach it.
type Wrapper struct {
	native any
	value  script.Value
}

// Native returns the wrapped native value.
func (w *Wrapper) Native() any { return w.native }

// Value returns the script representation.
func (w *Wrapper) Value() script.Value { return w.value }

// hold returns fn as a function that keeps w reachable for as long as the
// script function built from it is.
func (w *Wrapper) hold(fn script.HostFunc) script.HostFunc {
	return func(args []script.Value) (script.Value, error) {
		defer runtime.KeepAlive(w)
		return fn(args)
	}
}

// nativeView is implemented by adapters working on a copy of a Go value
// (arrays and structs) to report the copy's current state.
type nativeView interface {
	nativeValue() any
}

type enveloped interface {
	wrapper() *Wrapper
	host() any
}

type objectEnvelope struct {
	script.HostObject
	w *Wrapper
}

func (e *objectEnvelope) wrapper() *Wrapper { return e.w }
func (e *objectEnvelope) host() any         { return e.HostObject }

type arrayEnvelope struct {
	script.HostArray
	w *Wrapper
}

func (e *arrayEnvelope) wrapper() *Wrapper { return e.w }
func (e *arrayEnvelope) host() any         { return e.HostArray }

// Wrap converts a native value to its script representation.
//
// Nil becomes null, script values pass through unchanged and primitives
// cross by value. Pointers, maps and channels keep their identity: wrapping
// the same value again yields the same script object for as long as the
// script holds it.
func (f *Factory) Wrap(v any) (script.Value, error) {
	return f.WrapAs(v, nil)
}

// WrapAs is Wrap with a declared type. The dynamic type of v always decides
// the representation; the declared type only contributes hints (CharType
// turns integer code points into one-character strings).
func (f *Factory) WrapAs(v any, declared reflect.Type) (script.Value, error) {
	if v == nil {
		return f.engine.Null(), nil
	}
	if f.engine.IsScriptValue(v) {
		return v, nil
	}

	switch x := v.(type) {
	case *ScriptMap:
		return x.value, nil
	case *ScriptList:
		return x.value, nil
	case *Callable:
		return x.value, nil
	case *Wrapper:
		return x.value, nil
	case Char:
		return f.engine.ToValue(string(rune(x))), nil
	}

	rv := reflect.ValueOf(v)
	if isNil(rv) {
		return f.engine.Null(), nil
	}
	if declared == CharType && rv.CanInt() {
		return f.engine.ToValue(string(rune(rv.Int()))), nil
	}
	if p, ok := primitive(rv); ok {
		return f.engine.ToValue(p), nil
	}

	if w, ok := f.cache.Get(v); ok {
		return w.value, nil
	}

	impl, err := f.adapt(v, rv)
	if err != nil {
		return nil, err
	}

	w := &Wrapper{native: v}
	var cached bool
	w.value, cached, err = f.expose(impl, w, rv)
	if err != nil {
		return nil, err
	}
	if !cached {
		return w.value, nil
	}
	if err := f.cache.Put(v, w); err != nil {
		panic(err)
	}
	return w.value, nil
}

// adapt picks the host-side implementation for v: an extension hook first,
// then the capability dispatch.
func (f *Factory) adapt(v any, rv reflect.Value) (any, error) {
	if hook, ok := f.hooks.lookup(rv.Type()); ok {
		impl, err := hook.Wrap(f, v)
		if err != nil {
			return nil, errors.New(errors.PhaseWrap, errors.KindRegistration).
				GoType(rv.Type().String()).
				Detail("extension hook failed").
				Cause(err).
				Build()
		}
		if impl != nil {
			Logger().Debug("hook wrap", zap.Stringer("type", rv.Type()))
			return impl, nil
		}
	}

	switch n := v.(type) {
	case script.HostObject, script.HostArray, script.HostFunc:
		return n, nil
	case Map:
		return &mapView{f: f, m: n}, nil
	case List:
		return &listArray{f: f, list: n}, nil
	}

	switch rv.Kind() {
	case reflect.Array:
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		return &sliceAdapter{f: f, rv: cp, copied: true}, nil
	case reflect.Slice:
		return &sliceAdapter{f: f, rv: rv}, nil
	case reflect.Pointer:
		switch rv.Elem().Kind() {
		case reflect.Array:
			return &sliceAdapter{f: f, rv: rv.Elem()}, nil
		case reflect.Slice:
			return &sliceAdapter{f: f, rv: rv.Elem(), growable: true}, nil
		}
	case reflect.Map:
		return &mapObject{f: f, rv: rv}, nil
	case reflect.Func:
		return f.goFunc(rv), nil
	}
	return f.object(rv), nil
}

// expose builds the script value for impl. Every value it reports as cached
// keeps w reachable; a script value returned by a hook cannot, so identity
// of those is left to the hook.
func (f *Factory) expose(impl any, w *Wrapper, rv reflect.Value) (script.Value, bool, error) {
	switch h := impl.(type) {
	case script.HostObject:
		return f.engine.NewObject(&objectEnvelope{HostObject: h, w: w}), true, nil
	case script.HostArray:
		return f.engine.NewArray(&arrayEnvelope{HostArray: h, w: w}), true, nil
	case script.HostFunc:
		return f.engine.NewFunction(funcName(rv), w.hold(h)), true, nil
	case func([]script.Value) (script.Value, error):
		return f.engine.NewFunction(funcName(rv), w.hold(h)), true, nil
	}
	if f.engine.IsScriptValue(impl) {
		return impl, false, nil
	}
	return nil, false, errors.New(errors.PhaseWrap, errors.KindTypeMismatch).
		GoType(reflect.TypeOf(impl).String()).
		Detail("hook returned neither a host object, host array nor host function").
		Build()
}

// Unwrap converts a script value to its native form. Wrappers yield the
// wrapped native value, primitives yield bool, int64, float64 or string.
// Script functions, arrays and other objects yield the *Callable,
// *ScriptList and *ScriptMap views over them, which wrap back to the same
// script value. Null and undefined yield nil; native values pass through.
func (f *Factory) Unwrap(v any) any {
	if v == nil || !f.engine.IsScriptValue(v) {
		return v
	}
	if f.engine.IsNullish(v) {
		return nil
	}
	if p, ok := f.engine.Primitive(v); ok {
		return p
	}
	if h, ok := f.engine.Host(v); ok {
		if e, ok := h.(enveloped); ok {
			if nv, ok := e.host().(nativeView); ok {
				return nv.nativeValue()
			}
			return e.wrapper().native
		}
		return h
	}
	if fn, ok := f.engine.Function(v); ok {
		return &Callable{f: f, fn: fn, value: v}
	}
	if obj, ok := f.engine.Object(v); ok {
		if f.engine.IsArray(v) {
			return &ScriptList{f: f, obj: obj, value: v}
		}
		return &ScriptMap{f: f, obj: obj, value: v, record: f.engine.IsRecord(v)}
	}
	return v
}

// WrapAll wraps each value in order.
func (f *Factory) WrapAll(values ...any) ([]script.Value, error) {
	out := make([]script.Value, len(values))
	for i, v := range values {
		w, err := f.Wrap(v)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func (f *Factory) isNullish(v any) bool {
	if v == nil {
		return true
	}
	if f.engine.IsScriptValue(v) {
		return f.engine.IsNullish(v)
	}
	return isNil(reflect.ValueOf(v))
}

// scriptType names v for error messages.
func (f *Factory) scriptType(v any) string {
	if v == nil {
		return "null"
	}
	if f.engine.IsScriptValue(v) {
		return f.engine.TypeName(v)
	}
	return reflect.TypeOf(v).String()
}

func isNil(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return true
	}
	return false
}

// primitive returns the script-facing form of bool, number and string kinds.
func primitive(rv reflect.Value) (any, bool) {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > 1<<63-1 {
			return float64(u), true
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		return rv.String(), true
	}
	return nil, false
}
