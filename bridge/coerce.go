package bridge

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/script"
)

var (
	anyType  = reflect.TypeFor[any]()
	listType = reflect.TypeFor[List]()
)

// Coerce converts a script or native value to the Go type target.
//
// Null and undefined become the zero value of nillable targets and are
// rejected otherwise. Wrapped natives must be assignable to target, numbers
// convert only without loss, script functions become Go funcs, script
// arrays and records fill slices and maps. Records and map-like values
// become other types through the constructors known to the resolver: a
// bridge.Map constructor first, then a zero-argument constructor followed
// by property assignment. Anything else is a coercion failure.
func (f *Factory) Coerce(v any, target reflect.Type) (reflect.Value, error) {
	return f.coerce(v, target, nil)
}

// CoerceTo is the generic form of Factory.Coerce.
func CoerceTo[T any](f *Factory, v any) (T, error) {
	var zero T
	rv, err := f.Coerce(v, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}

func (f *Factory) coerce(v any, target reflect.Type, path []string) (reflect.Value, error) {
	if f.isNullish(v) {
		if nillable(target) {
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, errors.NullValueRejected(errors.PhaseCoerce, path, target.String())
	}

	native := f.Unwrap(v)
	nv := reflect.ValueOf(native)

	if target == CharType {
		if r, ok := singleRune(native); ok {
			return reflect.ValueOf(Char(r)), nil
		}
	}

	if nv.Type().AssignableTo(target) {
		out := reflect.New(target).Elem()
		out.Set(nv)
		return out, nil
	}

	switch n := native.(type) {
	case *Callable:
		if target.Kind() == reflect.Func {
			return f.makeFunc(n, target)
		}
	case *ScriptList:
		switch target.Kind() {
		case reflect.Slice, reflect.Array:
			return f.coerceList(n, target, path)
		}
	case *ScriptMap:
		if target.Kind() == reflect.Map {
			return f.coerceMap(n, target, path)
		}
	}

	if out, ok, err := convertPrimitive(nv, target, path); ok || err != nil {
		return out, err
	}

	if nv.Kind() == reflect.Pointer && nv.Elem().Type().AssignableTo(target) {
		out := reflect.New(target).Elem()
		out.Set(nv.Elem())
		return out, nil
	}

	if target == mapType {
		if m, ok := f.mapOf(native); ok {
			return reflect.ValueOf(&m).Elem(), nil
		}
	}
	if target == listType {
		if l, ok := f.listOf(native); ok {
			return reflect.ValueOf(&l).Elem(), nil
		}
	}

	if out, ok, err := f.construct(native, target, path); ok || err != nil {
		return out, err
	}

	return reflect.Value{}, errors.CoercionFailure(path, target.String(), f.scriptType(v),
		"no conversion or constructor applies")
}

// construct applies constructor based coercion.
func (f *Factory) construct(source any, target reflect.Type, path []string) (reflect.Value, bool, error) {
	cs := f.resolver.lookup(target)
	if cs.empty() && f.resolver != defaultResolver {
		cs = defaultResolver.lookup(target)
	}
	if cs.empty() {
		return reflect.Value{}, false, nil
	}

	if cs.fromMap != nil {
		if m, ok := f.mapOf(source); ok {
			out, err := cs.call(cs.fromMap, []reflect.Value{reflect.ValueOf(&m).Elem()})
			if err != nil {
				return reflect.Value{}, true, f.constructError(err, target, source, path)
			}
			return out, true, nil
		}
	}

	rec, ok := source.(*ScriptMap)
	if cs.zero == nil || !ok || !rec.record {
		return reflect.Value{}, false, nil
	}

	out, err := cs.call(cs.zero, nil)
	if err != nil {
		return reflect.Value{}, true, f.constructError(err, target, source, path)
	}

	// assign through a pointer so struct values are filled in place
	holder := out
	if out.Kind() != reflect.Pointer {
		holder = reflect.New(out.Type())
		holder.Elem().Set(out)
	}
	obj := f.object(holder)
	for _, name := range rec.obj.Keys() {
		t, ok := obj.memberType(name)
		if !ok || obj.isReadOnly(name) {
			return reflect.Value{}, true, errors.CoercionFailure(childPath(path, name), target.String(), "object",
				fmt.Sprintf("no settable property %q", name))
		}
		cv, err := f.coerce(rec.obj.Get(name), t, childPath(path, name))
		if err != nil {
			return reflect.Value{}, true, err
		}
		if err := obj.write(name, obj.fieldValue(name, cv)); err != nil {
			return reflect.Value{}, true, errors.CoercionFailure(childPath(path, name), target.String(), "object",
				err.Error())
		}
	}
	if out.Kind() != reflect.Pointer {
		return holder.Elem(), true, nil
	}
	return out, true, nil
}

func (f *Factory) constructError(err error, target reflect.Type, source any, path []string) error {
	return errors.New(errors.PhaseCoerce, errors.KindCoercionFailure).
		Path(path...).
		GoType(target.String()).
		ScriptType(f.scriptType(source)).
		Detail("constructor failed").
		Cause(err).
		Build()
}

func (f *Factory) coerceList(l *ScriptList, target reflect.Type, path []string) (reflect.Value, error) {
	n := l.Len()
	var out reflect.Value
	if target.Kind() == reflect.Array {
		if n > target.Len() {
			return reflect.Value{}, errors.CoercionFailure(path, target.String(), "array",
				fmt.Sprintf("%d elements do not fit", n))
		}
		out = reflect.New(target).Elem()
	} else {
		out = reflect.MakeSlice(target, n, n)
	}
	for i := 0; i < n; i++ {
		ev, err := f.coerce(l.Raw(i), target.Elem(), childPath(path, strconv.Itoa(i)))
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(ev)
	}
	return out, nil
}

func (f *Factory) coerceMap(m *ScriptMap, target reflect.Type, path []string) (reflect.Value, error) {
	names := m.obj.Keys()
	out := reflect.MakeMapWithSize(target, len(names))
	for _, name := range names {
		k, ok := goKey(script.NameKey(name), target.Key())
		if !ok {
			return reflect.Value{}, errors.UnsupportedKeyType(errors.PhaseCoerce, name)
		}
		ev, err := f.coerce(m.obj.Get(name), target.Elem(), childPath(path, name))
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(k, ev)
	}
	return out, nil
}

// convertPrimitive converts between bool, number and string kinds. Numbers
// convert only when the value survives the conversion unchanged.
func convertPrimitive(nv reflect.Value, target reflect.Type, path []string) (reflect.Value, bool, error) {
	out := reflect.New(target).Elem()
	fail := func() (reflect.Value, bool, error) {
		return reflect.Value{}, true, errors.CoercionFailure(path, target.String(), nv.Type().String(),
			fmt.Sprintf("%v does not fit", nv.Interface()))
	}

	switch target.Kind() {
	case reflect.Bool:
		if nv.Kind() == reflect.Bool {
			out.SetBool(nv.Bool())
			return out, true, nil
		}
	case reflect.String:
		if nv.Kind() == reflect.String {
			out.SetString(nv.String())
			return out, true, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok, exact := toInt(nv)
		if !ok {
			break
		}
		if !exact || out.OverflowInt(i) {
			return fail()
		}
		out.SetInt(i)
		return out, true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		i, ok, exact := toInt(nv)
		if !ok {
			break
		}
		if !exact || i < 0 || out.OverflowUint(uint64(i)) {
			return fail()
		}
		out.SetUint(uint64(i))
		return out, true, nil
	case reflect.Float32, reflect.Float64:
		fv, ok := toFloat(nv.Interface())
		if !ok {
			if nv.CanFloat() {
				// NaN
				out.SetFloat(nv.Float())
				return out, true, nil
			}
			break
		}
		if target.Kind() == reflect.Float32 && out.OverflowFloat(fv) {
			return fail()
		}
		out.SetFloat(fv)
		return out, true, nil
	}
	return reflect.Value{}, false, nil
}

// toInt returns the integer value of a number kind; exact is false for
// fractional or out of range floats.
func toInt(nv reflect.Value) (i int64, ok bool, exact bool) {
	switch nv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return nv.Int(), true, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := nv.Uint()
		return int64(u), true, u <= math.MaxInt64
	case reflect.Float32, reflect.Float64:
		fv := nv.Float()
		if fv != math.Trunc(fv) || fv < math.MinInt64 || fv >= math.MaxInt64 {
			return 0, true, false
		}
		return int64(fv), true, true
	}
	return 0, false, false
}

func singleRune(v any) (rune, bool) {
	s, ok := v.(string)
	if !ok || utf8.RuneCountInString(s) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, true
}

func childPath(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}
