package engine

import (
	stderrors "errors"
	"sort"
	"testing"

	"github.com/dop251/goja"

	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/script"
)

type testObject struct {
	props map[string]script.Value
	fail  error
}

func newTestObject() *testObject {
	return &testObject{props: make(map[string]script.Value)}
}

func (o *testObject) Get(key string) (script.Value, error) {
	if o.fail != nil {
		return nil, o.fail
	}
	return o.props[key], nil
}

func (o *testObject) Set(key string, v script.Value) error {
	if o.fail != nil {
		return o.fail
	}
	o.props[key] = v
	return nil
}

func (o *testObject) Has(key string) bool {
	_, ok := o.props[key]
	return ok
}

func (o *testObject) Delete(key string) bool {
	delete(o.props, key)
	return true
}

func (o *testObject) Keys() []string {
	keys := make([]string, 0, len(o.props))
	for k := range o.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type testArray struct {
	items []script.Value
}

func (a *testArray) Len() int { return len(a.items) }

func (a *testArray) Get(i int) (script.Value, error) {
	if i < 0 || i >= len(a.items) {
		return nil, nil
	}
	return a.items[i], nil
}

func (a *testArray) Set(i int, v script.Value) error {
	if i >= len(a.items) {
		if err := a.SetLen(i + 1); err != nil {
			return err
		}
	}
	a.items[i] = v
	return nil
}

func (a *testArray) SetLen(n int) error {
	if n < len(a.items) {
		a.items = a.items[:n]
		return nil
	}
	a.items = append(a.items, make([]script.Value, n-len(a.items))...)
	return nil
}

func run(t *testing.T, e *Goja, src string) goja.Value {
	t.Helper()
	v, err := e.Runtime().RunString(src)
	if err != nil {
		t.Fatalf("RunString(%q): %v", src, e.Error(err))
	}
	return v
}

func TestGoja_TypeName(t *testing.T) {
	e := NewGoja(nil)
	rt := e.Runtime()

	tests := []struct {
		name string
		v    script.Value
		want string
	}{
		{"undefined", goja.Undefined(), "undefined"},
		{"null", goja.Null(), "null"},
		{"bool", rt.ToValue(true), "boolean"},
		{"int", rt.ToValue(3), "number"},
		{"float", rt.ToValue(1.5), "number"},
		{"string", rt.ToValue("x"), "string"},
		{"record", run(t, e, "({a: 1})"), "object"},
		{"array", run(t, e, "[1, 2]"), "array"},
		{"function", run(t, e, "(function() {})"), "function"},
		{"host object", e.NewObject(newTestObject()), "native object"},
		{"host array", e.NewArray(&testArray{}), "native array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.TypeName(tt.v); got != tt.want {
				t.Errorf("TypeName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGoja_Primitive(t *testing.T) {
	e := NewGoja(nil)
	rt := e.Runtime()

	if p, ok := e.Primitive(rt.ToValue("s")); !ok || p != "s" {
		t.Errorf("string primitive = %v, %v", p, ok)
	}
	if p, ok := e.Primitive(rt.ToValue(int64(4))); !ok || p != int64(4) {
		t.Errorf("int primitive = %v, %v", p, ok)
	}
	if _, ok := e.Primitive(run(t, e, "({})")); ok {
		t.Error("object reported as primitive")
	}
	if _, ok := e.Primitive(goja.Null()); ok {
		t.Error("null reported as primitive")
	}
	if _, ok := e.Primitive("not a script value"); ok {
		t.Error("Go string reported as script primitive")
	}
}

func TestGoja_Nullish(t *testing.T) {
	e := NewGoja(nil)
	if !e.IsNullish(nil) || !e.IsNullish(goja.Null()) || !e.IsNullish(goja.Undefined()) {
		t.Error("nullish values not detected")
	}
	if e.IsNullish(e.ToValue(0)) {
		t.Error("zero is not nullish")
	}
	if !e.IsUndefined(e.Undefined()) || e.IsUndefined(e.Null()) {
		t.Error("IsUndefined mismatch")
	}
}

func TestGoja_HostObject(t *testing.T) {
	e := NewGoja(nil)
	h := newTestObject()
	h.props["name"] = "alpha"
	e.Runtime().Set("obj", e.NewObject(h))

	if got := run(t, e, "obj.name").String(); got != "alpha" {
		t.Errorf("obj.name = %q", got)
	}
	run(t, e, "obj.size = 7")
	if got, ok := h.props["size"].(goja.Value); !ok || got.ToInteger() != 7 {
		t.Errorf("size = %v", h.props["size"])
	}
	if !run(t, e, "obj.missing === undefined").ToBoolean() {
		t.Error("missing property should read as undefined")
	}
	if got := run(t, e, "Object.keys(obj).join(',')").String(); got != "name,size" {
		t.Errorf("keys = %q", got)
	}
	if !run(t, e, "'name' in obj").ToBoolean() {
		t.Error("in operator should see name")
	}

	got, ok := e.Host(e.Runtime().Get("obj"))
	if !ok || got != script.HostObject(h) {
		t.Errorf("Host() = %v, %v", got, ok)
	}
	if _, ok := e.Host(run(t, e, "({})")); ok {
		t.Error("plain record reported as host")
	}
}

func TestGoja_HostArray(t *testing.T) {
	e := NewGoja(nil)
	a := &testArray{items: []script.Value{int64(1), int64(2)}}
	e.Runtime().Set("arr", e.NewArray(a))

	if got := run(t, e, "arr.length").ToInteger(); got != 2 {
		t.Errorf("length = %d", got)
	}
	run(t, e, "arr.push(3)")
	if len(a.items) != 3 {
		t.Fatalf("items = %v", a.items)
	}
	run(t, e, "arr.length = 1")
	if len(a.items) != 1 {
		t.Errorf("items after truncate = %v", a.items)
	}
	if e.IsArray(e.Runtime().Get("arr")) {
		t.Error("host array reported as script array")
	}
}

func TestGoja_FunctionErrors(t *testing.T) {
	e := NewGoja(nil)
	sentinel := stderrors.New("backend offline")

	e.Runtime().Set("fail", e.NewFunction("fail", func(args []script.Value) (script.Value, error) {
		return nil, sentinel
	}))
	e.Runtime().Set("bad", e.NewFunction("bad", func(args []script.Value) (script.Value, error) {
		return nil, errors.CoercionFailure(nil, "int", "string", "not a number")
	}))

	t.Run("go error round trips", func(t *testing.T) {
		_, err := e.Runtime().RunString("fail()")
		if !stderrors.Is(e.Error(err), sentinel) {
			t.Errorf("error = %v, want %v", e.Error(err), sentinel)
		}
	})

	t.Run("type errors", func(t *testing.T) {
		got := run(t, e, "try { bad(); false } catch (ex) { ex instanceof TypeError }")
		if !got.ToBoolean() {
			t.Error("coercion failure should surface as TypeError")
		}
		_, err := e.Runtime().RunString("bad()")
		if !errors.IsKind(e.Error(err), errors.KindCoercionFailure) {
			t.Errorf("error = %v, want coercion failure", e.Error(err))
		}
	})

	t.Run("function name", func(t *testing.T) {
		if got := run(t, e, "fail.name").String(); got != "fail" {
			t.Errorf("name = %q", got)
		}
	})
}

func TestGoja_ScriptError(t *testing.T) {
	e := NewGoja(nil)
	_, err := e.Runtime().RunString("throw new Error('boom')")
	if err == nil {
		t.Fatal("expected error")
	}

	var se *script.Error
	if !stderrors.As(e.Error(err), &se) {
		t.Fatalf("error %T is not a script error", e.Error(err))
	}
	if se.Message != "Error: boom" {
		t.Errorf("Message = %q", se.Message)
	}
	if se.Location == "" {
		t.Error("Location should be set")
	}

	// Rethrowing the script error preserves the original value.
	e.Runtime().Set("rethrow", e.NewFunction("rethrow", func([]script.Value) (script.Value, error) {
		return nil, se
	}))
	got := run(t, e, "try { rethrow(); '' } catch (ex) { ex.message }")
	if got.String() != "boom" {
		t.Errorf("rethrown message = %q", got.String())
	}
}

func TestGoja_ObjectAndFunctionViews(t *testing.T) {
	e := NewGoja(nil)
	rec := run(t, e, "({a: 1, b: 'two'})")
	if !e.IsRecord(rec) {
		t.Fatal("record not detected")
	}
	obj, ok := e.Object(rec)
	if !ok {
		t.Fatal("Object() failed")
	}
	if !obj.Has("a") || obj.Has("toString") {
		t.Error("Has should report own properties only")
	}
	if err := obj.Set("c", int64(3)); err != nil {
		t.Fatal(err)
	}
	if got := obj.Keys(); len(got) != 3 {
		t.Errorf("Keys = %v", got)
	}
	if !obj.Delete("a") || obj.Has("a") {
		t.Error("Delete failed")
	}

	fnVal := run(t, e, "(function(x, y) { return this.base + x + y })")
	fn, ok := e.Function(fnVal)
	if !ok {
		t.Fatal("Function() failed")
	}
	this := run(t, e, "({base: 10})")
	res, err := fn.Call(this, int64(1), int64(2))
	if err != nil {
		t.Fatal(err)
	}
	if res.(goja.Value).ToInteger() != 13 {
		t.Errorf("Call = %v", res)
	}

	if _, ok := e.Function(rec); ok {
		t.Error("record reported as function")
	}
}

func TestGoja_NewList(t *testing.T) {
	e := NewGoja(nil)
	list := e.NewList([]script.Value{int64(1), nil, "x"})
	if !e.IsArray(list) {
		t.Fatal("NewList should produce a script array")
	}
	e.Runtime().Set("list", list)
	if got := run(t, e, "list.length + ':' + (list[1] === undefined) + ':' + list[2]").String(); got != "3:true:x" {
		t.Errorf("list = %q", got)
	}
}
