package engine

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/dop251/goja"

	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/script"
)

var (
	dynObjectType = reflect.TypeOf((*dynObject)(nil))
	dynArrayType  = reflect.TypeOf((*dynArray)(nil))
)

// Goja implements script.Engine on a goja runtime.
type Goja struct {
	rt     *goja.Runtime
	hasOwn goja.Callable
}

var _ script.Engine = (*Goja)(nil)

// NewGoja creates an engine bound to rt. A nil rt gets a fresh runtime.
func NewGoja(rt *goja.Runtime) *Goja {
	if rt == nil {
		rt = goja.New()
	}
	e := &Goja{rt: rt}
	proto := rt.Get("Object").ToObject(rt).Get("prototype").ToObject(rt)
	e.hasOwn, _ = goja.AssertFunction(proto.Get("hasOwnProperty"))
	return e
}

// Runtime returns the underlying goja runtime.
func (e *Goja) Runtime() *goja.Runtime { return e.rt }

func (e *Goja) IsScriptValue(v any) bool {
	_, ok := v.(goja.Value)
	return ok
}

func (e *Goja) Undefined() script.Value { return goja.Undefined() }

func (e *Goja) Null() script.Value { return goja.Null() }

func (e *Goja) IsUndefined(v script.Value) bool {
	gv, ok := v.(goja.Value)
	return ok && goja.IsUndefined(gv)
}

func (e *Goja) IsNullish(v script.Value) bool {
	if v == nil {
		return true
	}
	gv, ok := v.(goja.Value)
	return ok && (gv == nil || goja.IsUndefined(gv) || goja.IsNull(gv))
}

func (e *Goja) ToValue(v any) script.Value {
	return e.rt.ToValue(v)
}

func (e *Goja) Primitive(v script.Value) (any, bool) {
	gv, ok := v.(goja.Value)
	if !ok || gv == nil {
		return nil, false
	}
	if _, isObj := gv.(*goja.Object); isObj {
		return nil, false
	}
	switch p := gv.Export().(type) {
	case bool, int64, float64, string:
		return p, true
	}
	return nil, false
}

func (e *Goja) TypeName(v script.Value) string {
	gv, ok := v.(goja.Value)
	switch {
	case !ok:
		return reflect.TypeOf(v).String()
	case gv == nil || goja.IsUndefined(gv):
		return "undefined"
	case goja.IsNull(gv):
		return "null"
	}
	obj, isObj := gv.(*goja.Object)
	if !isObj {
		switch gv.Export().(type) {
		case bool:
			return "boolean"
		case int64, float64:
			return "number"
		case string:
			return "string"
		}
		return gv.ExportType().String()
	}
	if _, ok := goja.AssertFunction(obj); ok {
		return "function"
	}
	if e.isHost(obj) {
		return "native " + strings.ToLower(obj.ClassName())
	}
	return strings.ToLower(obj.ClassName())
}

func (e *Goja) NewObject(h script.HostObject) script.Value {
	return e.rt.NewDynamicObject(&dynObject{e: e, h: h})
}

func (e *Goja) NewArray(h script.HostArray) script.Value {
	return e.rt.NewDynamicArray(&dynArray{e: e, h: h})
}

func (e *Goja) NewFunction(name string, fn script.HostFunc) script.Value {
	f := e.rt.ToValue(func(call goja.FunctionCall) goja.Value {
		args := make([]script.Value, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = a
		}
		res, err := fn(args)
		if err != nil {
			e.Throw(err)
		}
		return e.value(res)
	}).(*goja.Object)
	if name != "" {
		_ = f.DefineDataProperty("name", e.rt.ToValue(name), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}
	return f
}

func (e *Goja) NewRecord() script.Value {
	return e.rt.NewObject()
}

func (e *Goja) NewList(values []script.Value) script.Value {
	items := make([]any, len(values))
	for i, v := range values {
		items[i] = e.value(v)
	}
	return e.rt.NewArray(items...)
}

func (e *Goja) Host(v script.Value) (any, bool) {
	obj, ok := v.(*goja.Object)
	if !ok || !e.isHost(obj) {
		return nil, false
	}
	switch d := obj.Export().(type) {
	case *dynObject:
		return d.h, true
	case *dynArray:
		return d.h, true
	}
	return nil, false
}

func (e *Goja) isHost(obj *goja.Object) bool {
	t := obj.ExportType()
	return t == dynObjectType || t == dynArrayType
}

func (e *Goja) Object(v script.Value) (script.Object, bool) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, false
	}
	return &objectView{e: e, obj: obj}, true
}

func (e *Goja) Function(v script.Value) (script.Function, bool) {
	gv, ok := v.(goja.Value)
	if !ok || gv == nil {
		return nil, false
	}
	fn, ok := goja.AssertFunction(gv)
	if !ok {
		return nil, false
	}
	return &functionView{e: e, fn: fn}, true
}

func (e *Goja) IsRecord(v script.Value) bool {
	obj, ok := v.(*goja.Object)
	if !ok || e.isHost(obj) || obj.ClassName() != "Object" {
		return false
	}
	_, isFn := goja.AssertFunction(obj)
	return !isFn
}

func (e *Goja) IsArray(v script.Value) bool {
	obj, ok := v.(*goja.Object)
	return ok && !e.isHost(obj) && obj.ClassName() == "Array"
}

// Throw raises err in the running script. Script exceptions are rethrown
// as the original value, bridge type errors become TypeErrors with err as
// their cause and other errors become GoErrors carrying err.
func (e *Goja) Throw(err error) {
	var se *script.Error
	if stderrors.As(err, &se) {
		if gv, ok := se.Value.(goja.Value); ok && gv != nil {
			panic(gv)
		}
	}
	debugf("throw %T: %v", err, err)
	if errors.IsTypeError(err) {
		ex := e.rt.NewTypeError(err.Error())
		_ = ex.DefineDataProperty("cause", e.rt.ToValue(err), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
		panic(ex)
	}
	panic(e.rt.NewGoError(err))
}

// Error converts an error returned by goja to the bridge form: exceptions
// carrying a Go error yield that error, other exceptions a *script.Error.
func (e *Goja) Error(err error) error {
	var ex *goja.Exception
	if !stderrors.As(err, &ex) {
		return err
	}
	val := ex.Value()
	if gerr := goErrorOf(val); gerr != nil {
		return gerr
	}
	msg := ""
	if val != nil {
		msg = val.String()
	}
	return &script.Error{
		Value:    val,
		Message:  msg,
		Location: location(ex),
	}
}

// goErrorOf extracts the Go error carried by an exception value: the value
// of a GoError or the cause of a TypeError raised by Throw.
func goErrorOf(v goja.Value) error {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	var inner goja.Value
	switch name := obj.Get("name"); {
	case name == nil:
		return nil
	case name.String() == "GoError":
		inner = obj.Get("value")
	case name.String() == "TypeError":
		inner = obj.Get("cause")
	}
	if inner == nil {
		return nil
	}
	err, _ := inner.Export().(error)
	return err
}

// location returns the innermost stack frame of an exception.
func location(ex *goja.Exception) string {
	for _, line := range strings.Split(ex.String(), "\n") {
		if frame, ok := strings.CutPrefix(line, "\tat "); ok {
			return strings.TrimSpace(frame)
		}
	}
	return ""
}

// value converts a protocol value to a goja value; nil becomes undefined.
func (e *Goja) value(v script.Value) goja.Value {
	if v == nil {
		return goja.Undefined()
	}
	if gv, ok := v.(goja.Value); ok {
		if gv == nil {
			return goja.Undefined()
		}
		return gv
	}
	return e.rt.ToValue(v)
}
