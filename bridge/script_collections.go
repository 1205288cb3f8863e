package bridge

import (
	"iter"
	"math"
	"reflect"

	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/script"
)

// ScriptMap is the native Map view of a script object. It copies nothing:
// every operation reads or writes the script object directly.
//
// Keys are Go integers or strings. Reads with any other key report the key
// as absent; writes fail with an unsupported key type error and change
// nothing. Iteration works on a snapshot of the keys taken when it starts,
// with values read live.
type ScriptMap struct {
	f      *Factory
	obj    script.Object
	value  script.Value
	record bool
}

// Value returns the underlying script object.
func (m *ScriptMap) Value() script.Value { return m.value }

// IsRecord reports whether the object is a plain script record.
func (m *ScriptMap) IsRecord() bool { return m.record }

func (m *ScriptMap) Len() int { return len(m.obj.Keys()) }

// Get returns the unwrapped value stored under key.
func (m *ScriptMap) Get(key any) (any, bool) {
	k, ok := script.KeyOf(key)
	if !ok || !m.obj.Has(k.String()) {
		return nil, false
	}
	return m.f.Unwrap(m.obj.Get(k.String())), true
}

// Raw returns the script value stored under key.
func (m *ScriptMap) Raw(key any) (script.Value, bool) {
	k, ok := script.KeyOf(key)
	if !ok || !m.obj.Has(k.String()) {
		return nil, false
	}
	return m.obj.Get(k.String()), true
}

// Put wraps value, stores it under key and returns the previous value.
func (m *ScriptMap) Put(key, value any) (any, error) {
	k, ok := script.KeyOf(key)
	if !ok {
		return nil, errors.UnsupportedKeyType(errors.PhaseWrap, key)
	}
	prev, _ := m.Get(k)
	wv, err := m.f.Wrap(value)
	if err != nil {
		return nil, err
	}
	if err := m.obj.Set(k.String(), wv); err != nil {
		return nil, err
	}
	return prev, nil
}

// Remove deletes key and returns the removed value.
func (m *ScriptMap) Remove(key any) (any, bool) {
	prev, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	k, _ := script.KeyOf(key)
	m.obj.Delete(k.String())
	return prev, true
}

// ContainsKey reports whether key is present.
func (m *ScriptMap) ContainsKey(key any) bool {
	k, ok := script.KeyOf(key)
	return ok && m.obj.Has(k.String())
}

// ContainsValue reports whether any entry holds value. It scans all entries.
// Objects and functions match by script identity, so a view returned by Get
// is found again even though each Get builds a new view.
func (m *ScriptMap) ContainsValue(value any) bool {
	if m.f.engine.IsScriptValue(value) {
		value = m.f.Unwrap(value)
	}
	for _, v := range m.All() {
		if sameValue(v, value) {
			return true
		}
	}
	return false
}

// Keys returns a snapshot of the keys: int for integer-like names, string
// otherwise, in script property order.
func (m *ScriptMap) Keys() []any {
	names := m.obj.Keys()
	keys := make([]any, len(names))
	for i, n := range names {
		keys[i] = script.NameKey(n).Value()
	}
	return keys
}

// Values returns the current value of each key in a key snapshot.
func (m *ScriptMap) Values() []any {
	var out []any
	for _, v := range m.All() {
		out = append(out, v)
	}
	return out
}

// Entry is one key of a ScriptMap. Its value is read and written live.
type Entry struct {
	m   *ScriptMap
	Key any
}

// Value returns the current value under the entry's key.
func (e *Entry) Value() any {
	v, _ := e.m.Get(e.Key)
	return v
}

// SetValue stores v under the entry's key and returns the previous value.
func (e *Entry) SetValue(v any) (any, error) {
	return e.m.Put(e.Key, v)
}

// Entries returns one entry per key in a key snapshot.
func (m *ScriptMap) Entries() []*Entry {
	keys := m.Keys()
	out := make([]*Entry, len(keys))
	for i, k := range keys {
		out[i] = &Entry{m: m, Key: k}
	}
	return out
}

// All iterates over a snapshot of the keys with live values. Keys removed
// during iteration are skipped; keys added are not visited.
func (m *ScriptMap) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		for _, k := range m.Keys() {
			v, ok := m.Get(k)
			if !ok {
				continue
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// Clear removes every key.
func (m *ScriptMap) Clear() {
	for _, n := range m.obj.Keys() {
		m.obj.Delete(n)
	}
}

// PutAll copies every entry of src into m.
func (m *ScriptMap) PutAll(src Map) error {
	for _, k := range src.Keys() {
		v, ok := src.Get(k)
		if !ok {
			continue
		}
		if _, err := m.Put(k, v); err != nil {
			return err
		}
	}
	return nil
}

// ScriptList is the native List view of a script array.
type ScriptList struct {
	f     *Factory
	obj   script.Object
	value script.Value
}

// Value returns the underlying script array.
func (l *ScriptList) Value() script.Value { return l.value }

func (l *ScriptList) Len() int {
	n, ok := l.f.engine.Primitive(l.obj.Get("length"))
	if !ok {
		return 0
	}
	switch n := n.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Index returns the unwrapped element at i.
func (l *ScriptList) Index(i int) (any, error) {
	if i < 0 || i >= l.Len() {
		return nil, errors.OutOfBounds(errors.PhaseUnwrap, nil, i, l.Len())
	}
	return l.f.Unwrap(l.obj.Get(script.IntKey(i).String())), nil
}

// Raw returns the script element at i.
func (l *ScriptList) Raw(i int) script.Value {
	return l.obj.Get(script.IntKey(i).String())
}

// SetIndex wraps v and stores it at i. Storing past the end grows the array.
func (l *ScriptList) SetIndex(i int, v any) error {
	if i < 0 {
		return errors.OutOfBounds(errors.PhaseWrap, nil, i, l.Len())
	}
	wv, err := l.f.Wrap(v)
	if err != nil {
		return err
	}
	return l.obj.Set(script.IntKey(i).String(), wv)
}

// Append adds v at the end.
func (l *ScriptList) Append(v any) error {
	return l.SetIndex(l.Len(), v)
}

// SetLen truncates or extends the array.
func (l *ScriptList) SetLen(n int) error {
	if n < 0 {
		return errors.OutOfBounds(errors.PhaseWrap, nil, n, l.Len())
	}
	return l.obj.Set("length", l.f.engine.ToValue(int64(n)))
}

// All iterates over the elements. The length is read once when iteration
// starts.
func (l *ScriptList) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		n := l.Len()
		for i := 0; i < n; i++ {
			if !yield(i, l.f.Unwrap(l.Raw(i))) {
				return
			}
		}
	}
}

// sameValue compares native values, treating numbers of different Go types
// as equal when they denote the same number. Views and wrappers compare by
// the script value behind them.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := scriptValueOf(a); ok {
		y, ok := scriptValueOf(b)
		return ok && x == y
	}
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return x == y
		}
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}

// scriptValueOf returns the script value a view or wrapper stands for.
func scriptValueOf(v any) (script.Value, bool) {
	switch x := v.(type) {
	case *ScriptMap:
		return x.value, true
	case *ScriptList:
		return x.value, true
	case *Callable:
		return x.value, true
	case *Wrapper:
		return x.value, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, !math.IsNaN(f)
	}
	return 0, false
}
