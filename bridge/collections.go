package bridge

import (
	"cmp"
	"reflect"
	"slices"
	"strconv"

	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/script"
)

// Map is a native key/value collection. Keys are integers or strings.
type Map interface {
	Len() int
	// Get returns the value stored under key and whether it is present.
	Get(key any) (any, bool)
	// Put stores value under key and returns the previous value.
	Put(key, value any) (any, error)
	// Remove deletes key and returns the removed value.
	Remove(key any) (any, bool)
	// Keys returns a snapshot of the current keys.
	Keys() []any
}

// List is a native indexed collection.
type List interface {
	Len() int
	Index(i int) (any, error)
	SetIndex(i int, v any) error
}

// Resizable is implemented by lists whose length can change.
type Resizable interface {
	SetLen(n int) error
}

// ElemTyper is implemented by collections that hold one Go element type.
// Values stored from scripts are coerced to it.
type ElemTyper interface {
	ElemType() reflect.Type
}

// AsMap returns the native map view of v: the native map behind a wrapper,
// a reflection view of a Go map, or a *ScriptMap over a script object.
func (f *Factory) AsMap(v any) (Map, bool) {
	return f.mapOf(f.Unwrap(v))
}

// AsList returns the native list view of v: the native list behind a
// wrapper, a reflection view of a Go slice or array, or a *ScriptList over a
// script array.
func (f *Factory) AsList(v any) (List, bool) {
	return f.listOf(f.Unwrap(v))
}

func (f *Factory) mapOf(native any) (Map, bool) {
	switch m := native.(type) {
	case nil:
		return nil, false
	case Map:
		return m, true
	}
	rv := reflect.ValueOf(native)
	if rv.Kind() == reflect.Map && !rv.IsNil() {
		return &goMap{f: f, rv: rv}, true
	}
	return nil, false
}

func (f *Factory) listOf(native any) (List, bool) {
	switch l := native.(type) {
	case nil:
		return nil, false
	case List:
		return l, true
	}
	rv := reflect.ValueOf(native)
	switch rv.Kind() {
	case reflect.Slice:
		return &sliceAdapter{f: f, rv: rv}, true
	case reflect.Pointer:
		switch rv.Elem().Kind() {
		case reflect.Array:
			return &sliceAdapter{f: f, rv: rv.Elem()}, true
		case reflect.Slice:
			return &sliceAdapter{f: f, rv: rv.Elem(), growable: true}, true
		}
	}
	return nil, false
}

// goKey converts a script key to a key of a Go map with key type kt.
func goKey(k script.Key, kt reflect.Type) (reflect.Value, bool) {
	switch kt.Kind() {
	case reflect.String:
		return reflect.ValueOf(k.String()).Convert(kt), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !k.IsInt() {
			return reflect.Value{}, false
		}
		v := reflect.New(kt).Elem()
		if v.OverflowInt(int64(k.Int())) {
			return reflect.Value{}, false
		}
		v.SetInt(int64(k.Int()))
		return v, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if !k.IsInt() || k.Int() < 0 {
			return reflect.Value{}, false
		}
		v := reflect.New(kt).Elem()
		if v.OverflowUint(uint64(k.Int())) {
			return reflect.Value{}, false
		}
		v.SetUint(uint64(k.Int()))
		return v, true
	case reflect.Interface:
		if kt.NumMethod() == 0 {
			return reflect.ValueOf(k.Value()), true
		}
	}
	return reflect.Value{}, false
}

// sortedKeys orders integer keys numerically ahead of string keys, matching
// the script property order for integer-like names.
func sortedKeys(keys []script.Key) []script.Key {
	slices.SortFunc(keys, func(a, b script.Key) int {
		switch {
		case a.IsInt() && b.IsInt():
			return cmp.Compare(a.Int(), b.Int())
		case a.IsInt():
			return -1
		case b.IsInt():
			return 1
		}
		return cmp.Compare(a.String(), b.String())
	})
	return keys
}

// mapObject exposes a Go map to scripts as an object.
type mapObject struct {
	f  *Factory
	rv reflect.Value
}

func (m *mapObject) key(name string) (reflect.Value, bool) {
	return goKey(script.NameKey(name), m.rv.Type().Key())
}

func (m *mapObject) Get(key string) (script.Value, error) {
	k, ok := m.key(key)
	if !ok {
		return nil, nil
	}
	v := m.rv.MapIndex(k)
	if !v.IsValid() {
		return nil, nil
	}
	return m.f.WrapAs(v.Interface(), m.rv.Type().Elem())
}

func (m *mapObject) Set(key string, v script.Value) error {
	k, ok := m.key(key)
	if !ok {
		return errors.UnsupportedKeyType(errors.PhaseUnwrap, key)
	}
	cv, err := m.f.coerce(v, m.rv.Type().Elem(), []string{key})
	if err != nil {
		return err
	}
	m.rv.SetMapIndex(k, cv)
	return nil
}

func (m *mapObject) Has(key string) bool {
	k, ok := m.key(key)
	return ok && m.rv.MapIndex(k).IsValid()
}

func (m *mapObject) Delete(key string) bool {
	if k, ok := m.key(key); ok {
		m.rv.SetMapIndex(k, reflect.Value{})
	}
	return true
}

func (m *mapObject) Keys() []string {
	keys := make([]script.Key, 0, m.rv.Len())
	iter := m.rv.MapRange()
	for iter.Next() {
		if k, ok := script.KeyOf(iter.Key().Interface()); ok {
			keys = append(keys, k)
		}
	}
	names := make([]string, len(keys))
	for i, k := range sortedKeys(keys) {
		names[i] = k.String()
	}
	return names
}

// goMap is the native Map view of a Go map.
type goMap struct {
	f  *Factory
	rv reflect.Value
}

func (m *goMap) Len() int { return m.rv.Len() }

func (m *goMap) ElemType() reflect.Type { return m.rv.Type().Elem() }

func (m *goMap) key(key any) (reflect.Value, bool) {
	k, ok := script.KeyOf(key)
	if !ok {
		return reflect.Value{}, false
	}
	return goKey(k, m.rv.Type().Key())
}

func (m *goMap) Get(key any) (any, bool) {
	k, ok := m.key(key)
	if !ok {
		return nil, false
	}
	v := m.rv.MapIndex(k)
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

func (m *goMap) Put(key, value any) (any, error) {
	k, ok := m.key(key)
	if !ok {
		return nil, errors.UnsupportedKeyType(errors.PhaseUnwrap, key)
	}
	cv, err := m.f.coerce(value, m.rv.Type().Elem(), nil)
	if err != nil {
		return nil, err
	}
	var prev any
	if old := m.rv.MapIndex(k); old.IsValid() {
		prev = old.Interface()
	}
	m.rv.SetMapIndex(k, cv)
	return prev, nil
}

func (m *goMap) Remove(key any) (any, bool) {
	k, ok := m.key(key)
	if !ok {
		return nil, false
	}
	old := m.rv.MapIndex(k)
	if !old.IsValid() {
		return nil, false
	}
	m.rv.SetMapIndex(k, reflect.Value{})
	return old.Interface(), true
}

func (m *goMap) Keys() []any {
	keys := make([]script.Key, 0, m.rv.Len())
	iter := m.rv.MapRange()
	for iter.Next() {
		if k, ok := script.KeyOf(iter.Key().Interface()); ok {
			keys = append(keys, k)
		}
	}
	out := make([]any, len(keys))
	for i, k := range sortedKeys(keys) {
		out[i] = k.Value()
	}
	return out
}

// mapView exposes a native Map to scripts as an object.
type mapView struct {
	f *Factory
	m Map
}

func (v *mapView) Get(key string) (script.Value, error) {
	val, ok := v.m.Get(script.NameKey(key).Value())
	if !ok {
		return nil, nil
	}
	var declared reflect.Type
	if et, ok := v.m.(ElemTyper); ok {
		declared = et.ElemType()
	}
	return v.f.WrapAs(val, declared)
}

func (v *mapView) Set(key string, val script.Value) error {
	var native any
	if et, ok := v.m.(ElemTyper); ok {
		cv, err := v.f.coerce(val, et.ElemType(), []string{key})
		if err != nil {
			return err
		}
		native = cv.Interface()
	} else {
		native = v.f.Unwrap(val)
	}
	_, err := v.m.Put(script.NameKey(key).Value(), native)
	return err
}

func (v *mapView) Has(key string) bool {
	_, ok := v.m.Get(script.NameKey(key).Value())
	return ok
}

func (v *mapView) Delete(key string) bool {
	v.m.Remove(script.NameKey(key).Value())
	return true
}

func (v *mapView) Keys() []string {
	keys := v.m.Keys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if sk, ok := script.KeyOf(k); ok {
			names = append(names, sk.String())
		}
	}
	return names
}

// sliceAdapter serves Go arrays and slices both as a script array and as a
// native List. Arrays and plain slices have a fixed length; a pointer to a
// slice can grow and shrink.
type sliceAdapter struct {
	f        *Factory
	rv       reflect.Value
	growable bool
	copied   bool
}

func (s *sliceAdapter) Len() int { return s.rv.Len() }

func (s *sliceAdapter) ElemType() reflect.Type { return s.rv.Type().Elem() }

func (s *sliceAdapter) Get(i int) (script.Value, error) {
	if i < 0 || i >= s.rv.Len() {
		return nil, nil
	}
	return s.f.WrapAs(s.rv.Index(i).Interface(), s.rv.Type().Elem())
}

func (s *sliceAdapter) Set(i int, v script.Value) error {
	cv, err := s.f.coerce(v, s.rv.Type().Elem(), []string{strconv.Itoa(i)})
	if err != nil {
		return err
	}
	return s.store(i, cv)
}

func (s *sliceAdapter) store(i int, cv reflect.Value) error {
	if i < 0 {
		return errors.OutOfBounds(errors.PhaseUnwrap, nil, i, s.rv.Len())
	}
	if i >= s.rv.Len() {
		if !s.growable {
			return errors.OutOfBounds(errors.PhaseUnwrap, nil, i, s.rv.Len())
		}
		if err := s.SetLen(i + 1); err != nil {
			return err
		}
	}
	s.rv.Index(i).Set(cv)
	return nil
}

func (s *sliceAdapter) SetLen(n int) error {
	cur := s.rv.Len()
	if n == cur {
		return nil
	}
	if !s.growable {
		return errors.Unsupported(errors.PhaseUnwrap, "length of a fixed size array cannot change")
	}
	if n < 0 {
		return errors.OutOfBounds(errors.PhaseUnwrap, nil, n, cur)
	}
	if n < cur {
		s.rv.Set(s.rv.Slice(0, n))
		return nil
	}
	s.rv.Set(reflect.AppendSlice(s.rv, reflect.MakeSlice(s.rv.Type(), n-cur, n-cur)))
	return nil
}

func (s *sliceAdapter) Index(i int) (any, error) {
	if i < 0 || i >= s.rv.Len() {
		return nil, errors.OutOfBounds(errors.PhaseWrap, nil, i, s.rv.Len())
	}
	return s.rv.Index(i).Interface(), nil
}

func (s *sliceAdapter) SetIndex(i int, v any) error {
	cv, err := s.f.coerce(v, s.rv.Type().Elem(), []string{strconv.Itoa(i)})
	if err != nil {
		return err
	}
	return s.store(i, cv)
}

func (s *sliceAdapter) nativeValue() any {
	if !s.copied && s.rv.CanAddr() {
		return s.rv.Addr().Interface()
	}
	return s.rv.Interface()
}

// listArray exposes a native List to scripts as an array.
type listArray struct {
	f    *Factory
	list List
}

func (l *listArray) Len() int { return l.list.Len() }

func (l *listArray) Get(i int) (script.Value, error) {
	if i < 0 || i >= l.list.Len() {
		return nil, nil
	}
	v, err := l.list.Index(i)
	if err != nil {
		return nil, err
	}
	var declared reflect.Type
	if et, ok := l.list.(ElemTyper); ok {
		declared = et.ElemType()
	}
	return l.f.WrapAs(v, declared)
}

func (l *listArray) Set(i int, v script.Value) error {
	var native any
	if et, ok := l.list.(ElemTyper); ok {
		cv, err := l.f.coerce(v, et.ElemType(), []string{strconv.Itoa(i)})
		if err != nil {
			return err
		}
		native = cv.Interface()
	} else {
		native = l.f.Unwrap(v)
	}
	if i >= l.list.Len() {
		r, ok := l.list.(Resizable)
		if !ok {
			return errors.OutOfBounds(errors.PhaseUnwrap, nil, i, l.list.Len())
		}
		if err := r.SetLen(i + 1); err != nil {
			return err
		}
	}
	return l.list.SetIndex(i, native)
}

func (l *listArray) SetLen(n int) error {
	if n == l.list.Len() {
		return nil
	}
	r, ok := l.list.(Resizable)
	if !ok {
		return errors.Unsupported(errors.PhaseUnwrap, "list length cannot change")
	}
	return r.SetLen(n)
}
