package bridge

import (
	stderrors "errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/script-bridge/errors"
)

type rect struct {
	W, H int
}

type vec struct {
	X, Y float64
}

type opaque struct {
	n int
}

type fallbackThing struct {
	Name string
}

func number(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	case int:
		return float64(n)
	}
	return math.NaN()
}

func TestCoerce_Numbers(t *testing.T) {
	f, eng := newTestFactory(t)

	tests := []struct {
		src    string
		target reflect.Type
		want   any
		kind   errors.Kind
	}{
		{"3", reflect.TypeFor[int8](), int8(3), ""},
		{"300", reflect.TypeFor[int8](), nil, errors.KindCoercionFailure},
		{"-1", reflect.TypeFor[uint](), nil, errors.KindCoercionFailure},
		{"2.0", reflect.TypeFor[int](), 2, ""},
		{"2.5", reflect.TypeFor[int](), nil, errors.KindCoercionFailure},
		{"2.5", reflect.TypeFor[float32](), float32(2.5), ""},
		{"1e300", reflect.TypeFor[float32](), nil, errors.KindCoercionFailure},
		{"7", reflect.TypeFor[float64](), 7.0, ""},
		{"'7'", reflect.TypeFor[int](), nil, errors.KindCoercionFailure},
		{"7", reflect.TypeFor[string](), nil, errors.KindCoercionFailure},
		{"true", reflect.TypeFor[bool](), true, ""},
		{"'s'", reflect.TypeFor[label](), label("s"), ""},
		{"'ab'", CharType, nil, errors.KindCoercionFailure},
		{"'a'", CharType, Char('a'), ""},
		{"5", reflect.TypeFor[any](), int64(5), ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s to %s", tt.src, tt.target), func(t *testing.T) {
			got, err := f.Coerce(eval(t, eng, tt.src), tt.target)
			if tt.kind != "" {
				if !errors.IsKind(err, tt.kind) {
					t.Fatalf("error = %v, want %s", err, tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.Interface() != tt.want {
				t.Errorf("got %v (%T), want %v", got.Interface(), got.Interface(), tt.want)
			}
		})
	}
}

func TestCoerce_Null(t *testing.T) {
	f, eng := newTestFactory(t)

	for _, src := range []string{"null", "undefined"} {
		if _, err := f.Coerce(eval(t, eng, src), reflect.TypeFor[int]()); !errors.IsKind(err, errors.KindNullValueRejected) {
			t.Errorf("%s to int: error = %v", src, err)
		}
		v, err := f.Coerce(eval(t, eng, src), reflect.TypeFor[*point]())
		if err != nil || !v.IsNil() {
			t.Errorf("%s to *point = %v, %v", src, v, err)
		}
		v, err = f.Coerce(eval(t, eng, src), reflect.TypeFor[[]int]())
		if err != nil || !v.IsNil() {
			t.Errorf("%s to []int = %v, %v", src, v, err)
		}
	}
}

func TestCoerce_Containers(t *testing.T) {
	f, eng := newTestFactory(t)

	s, err := CoerceTo[[]int](f, eval(t, eng, "[1, 2, 3]"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, s); diff != "" {
		t.Errorf("slice mismatch (-want +got):\n%s", diff)
	}

	a, err := CoerceTo[[4]string](f, eval(t, eng, "['a', 'b']"))
	if err != nil {
		t.Fatal(err)
	}
	if a != [4]string{"a", "b"} {
		t.Errorf("array = %v", a)
	}
	if _, err := CoerceTo[[1]int](f, eval(t, eng, "[1, 2]")); !errors.IsKind(err, errors.KindCoercionFailure) {
		t.Errorf("overfull array error = %v", err)
	}

	m, err := CoerceTo[map[string]float64](f, eval(t, eng, "({a: 1, b: 2.5})"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]float64{"a": 1, "b": 2.5}, m); diff != "" {
		t.Errorf("map mismatch (-want +got):\n%s", diff)
	}

	_, err = CoerceTo[[]int](f, eval(t, eng, "[1, 'x']"))
	var be *errors.Error
	if !stderrors.As(err, &be) || be.Kind != errors.KindCoercionFailure {
		t.Fatalf("error = %v", err)
	}
	if diff := cmp.Diff([]string{"1"}, be.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}

	if _, err := CoerceTo[map[int]string](f, eval(t, eng, "({name: 'x'})")); !errors.IsKind(err, errors.KindUnsupportedKeyType) {
		t.Errorf("map key error = %v", err)
	}
}

func TestCoerce_Wrapped(t *testing.T) {
	f, _ := newTestFactory(t)
	p := &point{X: 1}
	v, _ := f.Wrap(p)

	got, err := CoerceTo[*point](f, v)
	if err != nil || got != p {
		t.Errorf("CoerceTo[*point] = %v, %v", got, err)
	}
	val, err := CoerceTo[point](f, v)
	if err != nil || val != *p {
		t.Errorf("CoerceTo[point] = %v, %v", val, err)
	}
	if _, err := CoerceTo[*rect](f, v); !errors.IsKind(err, errors.KindCoercionFailure) {
		t.Errorf("CoerceTo[*rect] error = %v", err)
	}
}

func TestCoerce_ZeroArgConstructor(t *testing.T) {
	f, eng := newTestFactory(t)
	if err := f.Resolver().Register(func() *rect { return &rect{W: 1} }); err != nil {
		t.Fatal(err)
	}

	got, err := CoerceTo[*rect](f, eval(t, eng, "({h: 5})"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&rect{W: 1, H: 5}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	val, err := CoerceTo[rect](f, eval(t, eng, "({w: 2, h: 3})"))
	if err != nil {
		t.Fatal(err)
	}
	if val != (rect{W: 2, H: 3}) {
		t.Errorf("value = %+v", val)
	}

	_, err = CoerceTo[*rect](f, eval(t, eng, "({depth: 1})"))
	var be *errors.Error
	if !stderrors.As(err, &be) || be.Kind != errors.KindCoercionFailure {
		t.Fatalf("unknown property error = %v", err)
	}
	if diff := cmp.Diff([]string{"depth"}, be.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}

	if _, err := CoerceTo[*rect](f, eval(t, eng, "({w: 'wide'})")); !errors.IsKind(err, errors.KindCoercionFailure) {
		t.Errorf("bad field error = %v", err)
	}

	// a zero-argument constructor needs a plain record
	if _, err := CoerceTo[*rect](f, eval(t, eng, "[1, 2]")); !errors.IsKind(err, errors.KindCoercionFailure) {
		t.Errorf("array source error = %v", err)
	}
}

func TestCoerce_ZeroArgConstructorCharMembers(t *testing.T) {
	f, eng := newTestFactory(t)
	if err := f.Resolver().Register(func() *monogram { return &monogram{} }); err != nil {
		t.Fatal(err)
	}
	if err := f.Resolver().Register(func() *widget { return &widget{} }); err != nil {
		t.Fatal(err)
	}

	m, err := CoerceTo[*monogram](f, eval(t, eng, "({initial: 'q'})"))
	if err != nil {
		t.Fatal(err)
	}
	if m.initial != 'q' {
		t.Errorf("accessor initial = %q, want 'q'", m.initial)
	}

	w, err := CoerceTo[*widget](f, eval(t, eng, "({initial: 'z', name: 'n'})"))
	if err != nil {
		t.Fatal(err)
	}
	if w.Initial != 'z' || w.Name != "n" {
		t.Errorf("widget = %+v", w)
	}
}

func TestCoerce_MapConstructor(t *testing.T) {
	f, eng := newTestFactory(t)
	err := f.Resolver().Register(func(m Map) (vec, error) {
		x, ok := m.Get("x")
		if !ok {
			return vec{}, stderrors.New("x is required")
		}
		y, _ := m.Get("y")
		return vec{X: number(x), Y: number(y)}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := CoerceTo[vec](f, eval(t, eng, "({x: 1, y: 2})"))
	if err != nil {
		t.Fatal(err)
	}
	if got != (vec{X: 1, Y: 2}) {
		t.Errorf("got %+v", got)
	}

	// native maps go through the same constructor
	got, err = CoerceTo[vec](f, map[string]int{"x": 3, "y": 4})
	if err != nil {
		t.Fatal(err)
	}
	if got != (vec{X: 3, Y: 4}) {
		t.Errorf("got %+v", got)
	}

	ptr, err := CoerceTo[*vec](f, eval(t, eng, "({x: 5})"))
	if err != nil {
		t.Fatal(err)
	}
	if ptr.X != 5 {
		t.Errorf("got %+v", ptr)
	}

	_, err = CoerceTo[vec](f, eval(t, eng, "({y: 1})"))
	var be *errors.Error
	if !stderrors.As(err, &be) || be.Kind != errors.KindCoercionFailure {
		t.Fatalf("error = %v", err)
	}
	if be.Cause == nil || be.Cause.Error() != "x is required" {
		t.Errorf("cause = %v", be.Cause)
	}
}

func TestCoerce_NoConstructor(t *testing.T) {
	f, eng := newTestFactory(t)
	_, err := CoerceTo[opaque](f, eval(t, eng, "({n: 1})"))
	if !errors.IsKind(err, errors.KindCoercionFailure) {
		t.Fatalf("error = %v, want coercion failure", err)
	}
	if !errors.IsTypeError(err) {
		t.Error("coercion failure should be a type error")
	}
}

func TestCoerce_DefaultResolverFallback(t *testing.T) {
	if err := RegisterConstructor(func() *fallbackThing { return &fallbackThing{} }); err != nil {
		t.Fatal(err)
	}
	f, eng := newTestFactory(t)
	got, err := CoerceTo[*fallbackThing](f, eval(t, eng, "({name: 'n'})"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "n" {
		t.Errorf("Name = %q", got.Name)
	}
}

func TestCoerce_ScriptFunction(t *testing.T) {
	f, eng := newTestFactory(t)

	double, err := CoerceTo[func(int) int](f, eval(t, eng, "(x => x * 2)"))
	if err != nil {
		t.Fatal(err)
	}
	if got := double(21); got != 42 {
		t.Errorf("double(21) = %d", got)
	}

	join, err := CoerceTo[func(string, ...string) (string, error)](f, eval(t, eng, "((sep, ...xs) => xs.join(sep))"))
	if err != nil {
		t.Fatal(err)
	}
	if got, err := join("-", "a", "b"); err != nil || got != "a-b" {
		t.Errorf("join = %q, %v", got, err)
	}

	fails, err := CoerceTo[func() error](f, eval(t, eng, "(() => { throw new Error('nope') })"))
	if err != nil {
		t.Fatal(err)
	}
	if err := fails(); !errors.IsKind(err, errors.KindScript) {
		t.Errorf("error = %v, want script", err)
	}
}

func TestResolver(t *testing.T) {
	r := NewResolver()
	if r.Constructible(reflect.TypeFor[rect]()) {
		t.Error("empty resolver reports a constructor")
	}
	if err := r.Register(func() rect { return rect{} }); err != nil {
		t.Fatal(err)
	}
	if !r.Constructible(reflect.TypeFor[rect]()) {
		t.Error("registration should invalidate the memo")
	}
	if !r.Constructible(reflect.TypeFor[*rect]()) {
		t.Error("pointer target should resolve through the value constructor")
	}

	bad := []any{
		nil,
		42,
		func(int) rect { return rect{} },
		func() (rect, int) { return rect{}, 0 },
		func() {},
		(func() rect)(nil),
	}
	for _, fn := range bad {
		if err := r.Register(fn); !errors.IsKind(err, errors.KindRegistration) {
			t.Errorf("Register(%T) error = %v", fn, err)
		}
	}
}
