package bridge

import (
	"reflect"
	"slices"
	"strings"

	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/script"
)

// Checker is implemented by natives that can become invalid, such as
// handle proxies. The object adapter calls Check before every property
// access and method call.
type Checker interface {
	Check() error
}

var errorType = reflect.TypeFor[error]()

type fieldInfo struct {
	typ      reflect.Type
	index    []int
	char     bool
	readOnly bool
}

type propInfo struct {
	typ    reflect.Type
	get    int
	set    int // -1 when read-only
	getErr bool
	setErr bool
}

// typeInfo is the script-visible shape of a Go type, computed once per
// type and factory.
type typeInfo struct {
	fields  map[string]*fieldInfo
	props   map[string]*propInfo
	methods map[string]int
	keys    []string
}

func (f *Factory) typeInfo(t reflect.Type) *typeInfo {
	if ti, ok := f.types.Load(t); ok {
		return ti.(*typeInfo)
	}
	ti, _ := f.types.LoadOrStore(t, f.buildTypeInfo(t))
	return ti.(*typeInfo)
}

// buildTypeInfo inspects t, the method-set type (usually a pointer to a
// struct). Exported fields become properties, X/SetX method pairs become
// accessor properties and every other exported method becomes a function.
func (f *Factory) buildTypeInfo(t reflect.Type) *typeInfo {
	ti := &typeInfo{
		fields:  make(map[string]*fieldInfo),
		props:   make(map[string]*propInfo),
		methods: make(map[string]int),
	}

	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct {
		for _, sf := range reflect.VisibleFields(st) {
			if sf.Anonymous || !sf.IsExported() {
				continue
			}
			name, opts := parseTag(sf.Tag.Get("script"))
			if name == "-" {
				continue
			}
			if name == "" {
				name = f.names(sf.Name)
			}
			if _, dup := ti.fields[name]; dup {
				continue
			}
			ti.fields[name] = &fieldInfo{
				typ:      sf.Type,
				index:    sf.Index,
				char:     opts.has("char"),
				readOnly: opts.has("readonly"),
			}
			ti.keys = append(ti.keys, name)
		}
	}

	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() {
			continue
		}
		name := f.names(m.Name)
		if _, isField := ti.fields[name]; isField {
			continue
		}
		if p, ok := getterOf(m.Type); ok {
			if s, ok := t.MethodByName(setterName(m.Name)); ok {
				if setErr, ok := setterOf(s.Type, p); ok {
					ti.props[name] = &propInfo{
						typ:    p,
						get:    m.Index,
						set:    s.Index,
						getErr: m.Type.NumOut() == 2,
						setErr: setErr,
					}
					ti.keys = append(ti.keys, name)
					continue
				}
			}
		}
		// setters of accessor properties stay callable under their own name
		ti.methods[name] = m.Index
	}
	return ti
}

// getterOf matches func(recv) T and func(recv) (T, error).
func getterOf(mt reflect.Type) (reflect.Type, bool) {
	if mt.NumIn() != 1 {
		return nil, false
	}
	switch mt.NumOut() {
	case 1:
		if mt.Out(0) == errorType {
			return nil, false
		}
		return mt.Out(0), true
	case 2:
		if mt.Out(0) == errorType || mt.Out(1) != errorType {
			return nil, false
		}
		return mt.Out(0), true
	}
	return nil, false
}

// setterOf matches func(recv, T) and func(recv, T) error.
func setterOf(mt reflect.Type, p reflect.Type) (withErr bool, ok bool) {
	if mt.NumIn() != 2 || mt.In(1) != p {
		return false, false
	}
	switch mt.NumOut() {
	case 0:
		return false, true
	case 1:
		return true, mt.Out(0) == errorType
	}
	return false, false
}

type tagOptions string

func parseTag(tag string) (string, tagOptions) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, tagOptions(opts)
}

func (o tagOptions) has(opt string) bool {
	for o != "" {
		cur, rest, _ := strings.Cut(string(o), ",")
		if cur == opt {
			return true
		}
		o = tagOptions(rest)
	}
	return false
}

// objectAdapter exposes an arbitrary Go value through reflection.
type objectAdapter struct {
	f       *Factory
	info    *typeInfo
	native  any
	ptr     reflect.Value // method receiver
	elem    reflect.Value // addressable struct, invalid for non-structs
	methods map[string]script.Value
	copied  bool
}

// object builds the generic adapter. Struct values are copied so their
// fields and pointer methods are addressable; the copy is what Unwrap
// returns afterwards.
func (f *Factory) object(rv reflect.Value) *objectAdapter {
	o := &objectAdapter{f: f, native: rv.Interface()}
	switch {
	case rv.Kind() == reflect.Struct:
		cp := reflect.New(rv.Type())
		cp.Elem().Set(rv)
		o.ptr = cp
		o.elem = cp.Elem()
		o.copied = true
	case rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct:
		o.ptr = rv
		o.elem = rv.Elem()
	default:
		o.ptr = rv
	}
	o.info = f.typeInfo(o.ptr.Type())
	return o
}

func (o *objectAdapter) nativeValue() any {
	if o.copied {
		return o.elem.Interface()
	}
	return o.native
}

func (o *objectAdapter) check() error {
	if c, ok := o.native.(Checker); ok {
		return c.Check()
	}
	return nil
}

// read returns the raw Go value of a field or accessor property.
func (o *objectAdapter) read(key string) (reflect.Value, bool, error) {
	if fi, ok := o.info.fields[key]; ok {
		fv, err := o.elem.FieldByIndexErr(fi.index)
		if err != nil {
			// nil embedded pointer
			return reflect.Value{}, true, nil
		}
		return fv, true, nil
	}
	if pi, ok := o.info.props[key]; ok {
		out := o.ptr.Method(pi.get).Call(nil)
		if pi.getErr && !out[1].IsNil() {
			return reflect.Value{}, true, out[1].Interface().(error)
		}
		return out[0], true, nil
	}
	return reflect.Value{}, false, nil
}

// write stores an already coerced value into a field or accessor property.
func (o *objectAdapter) write(key string, v reflect.Value) error {
	if fi, ok := o.info.fields[key]; ok {
		if fi.readOnly {
			return errors.ReadOnly(errors.PhaseUnwrap, []string{key}, o.ptr.Type().String())
		}
		fv, err := o.elem.FieldByIndexErr(fi.index)
		if err != nil {
			return errors.NullValueRejected(errors.PhaseUnwrap, []string{key}, o.ptr.Type().String())
		}
		fv.Set(v)
		return nil
	}
	if pi, ok := o.info.props[key]; ok {
		if pi.set < 0 {
			return errors.ReadOnly(errors.PhaseUnwrap, []string{key}, o.ptr.Type().String())
		}
		out := o.ptr.Method(pi.set).Call([]reflect.Value{v})
		if pi.setErr && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}
	if _, ok := o.info.methods[key]; ok {
		return errors.ReadOnly(errors.PhaseUnwrap, []string{key}, o.ptr.Type().String())
	}
	return errors.New(errors.PhaseUnwrap, errors.KindReadOnly).
		Path(key).
		GoType(o.ptr.Type().String()).
		Detail("no such property").
		Build()
}

// memberType returns the Go type a property accepts.
func (o *objectAdapter) memberType(key string) (reflect.Type, bool) {
	if fi, ok := o.info.fields[key]; ok {
		if fi.char {
			return CharType, true
		}
		return fi.typ, true
	}
	if pi, ok := o.info.props[key]; ok {
		return pi.typ, true
	}
	return nil, false
}

func (o *objectAdapter) Get(key string) (script.Value, error) {
	if err := o.check(); err != nil {
		return nil, err
	}
	if fn, ok := o.methods[key]; ok {
		return fn, nil
	}
	if idx, ok := o.info.methods[key]; ok {
		m := o.ptr.Method(idx)
		fn := o.f.engine.NewFunction(key, func(args []script.Value) (script.Value, error) {
			if err := o.check(); err != nil {
				return nil, err
			}
			return o.f.callGo(m, args)
		})
		if o.methods == nil {
			o.methods = make(map[string]script.Value)
		}
		o.methods[key] = fn
		return fn, nil
	}

	rv, found, err := o.read(key)
	if err != nil || !found {
		return nil, err
	}
	if !rv.IsValid() {
		return o.f.engine.Null(), nil
	}
	var declared reflect.Type
	if fi, ok := o.info.fields[key]; ok && fi.char {
		declared = CharType
	}
	return o.f.WrapAs(rv.Interface(), declared)
}

func (o *objectAdapter) Set(key string, v script.Value) error {
	if err := o.check(); err != nil {
		return err
	}
	t, ok := o.memberType(key)
	if !ok {
		return o.write(key, reflect.Value{})
	}
	cv, err := o.f.coerce(v, t, []string{key})
	if err != nil {
		return err
	}
	return o.write(key, o.fieldValue(key, cv))
}

// fieldValue converts a coerced Char back to the integer type of a
// char-tagged field. Accessor properties take the coerced value as is.
func (o *objectAdapter) fieldValue(key string, cv reflect.Value) reflect.Value {
	if fi, ok := o.info.fields[key]; ok && fi.char {
		return cv.Convert(fi.typ)
	}
	return cv
}

func (o *objectAdapter) Has(key string) bool {
	_, f := o.info.fields[key]
	_, p := o.info.props[key]
	_, m := o.info.methods[key]
	return f || p || m
}

func (o *objectAdapter) Delete(string) bool { return false }

func (o *objectAdapter) Keys() []string {
	return slices.Clone(o.info.keys)
}

func (o *objectAdapter) isReadOnly(key string) bool {
	if fi, ok := o.info.fields[key]; ok {
		return fi.readOnly
	}
	if pi, ok := o.info.props[key]; ok {
		return pi.set < 0
	}
	return true
}
