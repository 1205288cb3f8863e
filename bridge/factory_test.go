package bridge

import (
	"reflect"
	"runtime"
	"testing"

	"github.com/dop251/goja"
	"github.com/google/go-cmp/cmp"
)

type point struct {
	X, Y float64
}

type label string

func TestWrap_Primitives(t *testing.T) {
	f, eng := newTestFactory(t)

	tests := []struct {
		name string
		in   any
		js   string
	}{
		{"bool", true, "v === true"},
		{"int", 42, "v === 42"},
		{"int8", int8(-3), "v === -3"},
		{"uint16", uint16(7), "v === 7"},
		{"float", 1.25, "v === 1.25"},
		{"string", "hello", "v === 'hello'"},
		{"named string", label("tag"), "v === 'tag'"},
		{"char", Char('é'), "v === 'é'"},
		{"nil", nil, "v === null"},
		{"nil pointer", (*point)(nil), "v === null"},
		{"nil map", map[string]int(nil), "v === null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expose(t, f, eng, "v", tt.in)
			wantTrue(t, eng, tt.js)
		})
	}
}

func TestWrapAs_CharHint(t *testing.T) {
	f, _ := newTestFactory(t)

	v, err := f.WrapAs(int32('x'), CharType)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(goja.Value).String(); got != "x" {
		t.Errorf("WrapAs(char) = %q, want x", got)
	}

	// without the hint the code point stays a number
	v, err = f.WrapAs(int32('x'), reflect.TypeFor[int32]())
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(goja.Value).ToInteger(); got != 'x' {
		t.Errorf("WrapAs(int32) = %d", got)
	}
}

func TestWrap_ScriptValuesPassThrough(t *testing.T) {
	f, eng := newTestFactory(t)
	obj := eval(t, eng, "({a: 1})")

	v, err := f.Wrap(obj)
	if err != nil {
		t.Fatal(err)
	}
	if v != goja.Value(obj) {
		t.Error("script value should pass through Wrap unchanged")
	}
}

func TestWrap_RoundTrip(t *testing.T) {
	f, _ := newTestFactory(t)

	natives := []any{
		&point{X: 1, Y: 2},
		map[string]int{"a": 1},
		&[]string{"a"},
		&[2]int{1, 2},
		make(chan int),
	}
	for _, n := range natives {
		v, err := f.Wrap(n)
		if err != nil {
			t.Fatalf("Wrap(%T): %v", n, err)
		}
		got := f.Unwrap(v)
		if reflect.ValueOf(got).Pointer() != reflect.ValueOf(n).Pointer() {
			t.Errorf("Unwrap(Wrap(%T)) returned a different native", n)
		}
		if reflect.TypeOf(got) != reflect.TypeOf(n) {
			t.Errorf("Unwrap(Wrap(%T)) = %T", n, got)
		}
	}
}

func TestWrap_IdentityDispatch(t *testing.T) {
	f, eng := newTestFactory(t)

	p := &point{X: 1, Y: 2}
	twin := &point{X: 1, Y: 2}

	a := expose(t, f, eng, "a", p)
	b := expose(t, f, eng, "b", p)
	c := expose(t, f, eng, "c", twin)

	if a != b {
		t.Error("same native should yield the same wrapper")
	}
	if a == c {
		t.Error("structurally equal natives should yield distinct wrappers")
	}
	wantTrue(t, eng, "a === b")
	wantTrue(t, eng, "a !== c")

	if n := f.CacheLen(); n != 2 {
		t.Errorf("CacheLen = %d, want 2", n)
	}
}

type bag struct {
	Tags []string
}

func TestWrap_SliceIdentity(t *testing.T) {
	f, eng := newTestFactory(t)
	b := &bag{Tags: []string{"a", "b"}}
	expose(t, f, eng, "b", b)

	wantTrue(t, eng, "b.tags === b.tags")
	eval(t, eng, "b.tags[0] = 'z'")
	if b.Tags[0] != "z" {
		t.Errorf("Tags = %v, want write through", b.Tags)
	}

	s := make([]int, 2, 4)
	v1, err := f.Wrap(s)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := f.Wrap(s)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != v2 {
		t.Error("same slice should yield the same wrapper")
	}
	v3, err := f.Wrap(s[:1])
	if err != nil {
		t.Fatal(err)
	}
	if v3 == v1 {
		t.Error("a reslice views different elements and needs its own wrapper")
	}
}

func TestWrap_IdentityAcrossGC(t *testing.T) {
	f, _ := newTestFactory(t)
	p := &point{X: 1}

	a, err := f.Wrap(p)
	if err != nil {
		t.Fatal(err)
	}
	runtime.GC()
	runtime.GC()
	b, err := f.Wrap(p)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("wrapper should survive GC while the script value is held")
	}
}

func TestWrap_StructValueIsCopied(t *testing.T) {
	f, eng := newTestFactory(t)

	orig := point{X: 1, Y: 2}
	v := expose(t, f, eng, "p", orig)
	eval(t, eng, "p.x = 5")

	if orig.X != 1 {
		t.Error("original struct value should not change")
	}
	got, ok := f.Unwrap(v).(point)
	if !ok {
		t.Fatalf("Unwrap = %T, want point", f.Unwrap(v))
	}
	if diff := cmp.Diff(point{X: 5, Y: 2}, got); diff != "" {
		t.Errorf("Unwrap mismatch (-want +got):\n%s", diff)
	}
}

func TestWrap_Slices(t *testing.T) {
	f, eng := newTestFactory(t)

	t.Run("slice shares backing array", func(t *testing.T) {
		s := []int{1, 2, 3}
		expose(t, f, eng, "s", s)
		wantTrue(t, eng, "s.length === 3")
		eval(t, eng, "s[0] = 10")
		if s[0] != 10 {
			t.Errorf("s[0] = %d, want 10", s[0])
		}
		wantTrue(t, eng, "s[3] === undefined")
	})

	t.Run("slice has fixed length", func(t *testing.T) {
		s := []int{1}
		expose(t, f, eng, "s", s)
		wantTrue(t, eng, "(() => { try { s[5] = 1; return false } catch (e) { return true } })()")
		if len(s) != 1 {
			t.Errorf("len = %d", len(s))
		}
	})

	t.Run("slice pointer grows", func(t *testing.T) {
		ps := &[]string{"a"}
		v := expose(t, f, eng, "ps", ps)
		eval(t, eng, "ps.push('b'); ps.push('c')")
		if diff := cmp.Diff([]string{"a", "b", "c"}, *ps); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
		eval(t, eng, "ps.length = 1")
		if diff := cmp.Diff([]string{"a"}, *ps); diff != "" {
			t.Errorf("after truncate (-want +got):\n%s", diff)
		}
		if f.Unwrap(v) != any(ps) {
			t.Error("Unwrap should return the slice pointer")
		}
	})

	t.Run("element coercion", func(t *testing.T) {
		s := []int{0}
		expose(t, f, eng, "s", s)
		wantTrue(t, eng, "(() => { try { s[0] = 'x'; return false } catch (e) { return e instanceof TypeError } })()")
		wantTrue(t, eng, "(() => { try { s[0] = 1.5; return false } catch (e) { return e instanceof TypeError } })()")
		eval(t, eng, "s[0] = 2.0")
		if s[0] != 2 {
			t.Errorf("s[0] = %d", s[0])
		}
	})

	t.Run("array value is copied", func(t *testing.T) {
		arr := [3]int{1, 2, 3}
		v := expose(t, f, eng, "arr", arr)
		eval(t, eng, "arr[1] = 20")
		if arr[1] != 2 {
			t.Error("original array should not change")
		}
		if got := f.Unwrap(v); got != [3]int{1, 20, 3} {
			t.Errorf("Unwrap = %v", got)
		}
	})

	t.Run("array pointer writes through", func(t *testing.T) {
		arr := &[2]string{"x", "y"}
		expose(t, f, eng, "arr", arr)
		eval(t, eng, "arr[1] = 'z'")
		if arr[1] != "z" {
			t.Errorf("arr[1] = %q", arr[1])
		}
	})
}

func TestWrap_Funcs(t *testing.T) {
	f, eng := newTestFactory(t)

	expose(t, f, eng, "add", func(a, b int) int { return a + b })
	expose(t, f, eng, "sum", func(xs ...int) int {
		n := 0
		for _, x := range xs {
			n += x
		}
		return n
	})
	expose(t, f, eng, "pair", func() (int, string) { return 1, "one" })
	expose(t, f, eng, "nothing", func() {})

	wantTrue(t, eng, "add(2, 3) === 5")
	wantTrue(t, eng, "add(2) === 2")
	wantTrue(t, eng, "sum() === 0")
	wantTrue(t, eng, "sum(1, 2, 3) === 6")
	wantTrue(t, eng, "Array.isArray(pair()) && pair()[0] === 1 && pair()[1] === 'one'")
	wantTrue(t, eng, "nothing() === undefined")

	c, ok := f.Unwrap(eng.Runtime().Get("add")).(*Callable)
	if !ok {
		t.Fatal("unwrapped Go func should be a Callable")
	}
	got, err := c.Call(20, 22)
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(42) {
		t.Errorf("Call = %v (%T)", got, got)
	}
}

func TestUnwrap_ScriptValues(t *testing.T) {
	f, eng := newTestFactory(t)

	tests := []struct {
		src  string
		want any
	}{
		{"1", int64(1)},
		{"1.5", 1.5},
		{"'s'", "s"},
		{"true", true},
		{"null", nil},
		{"undefined", nil},
	}
	for _, tt := range tests {
		if got := f.Unwrap(eval(t, eng, tt.src)); got != tt.want {
			t.Errorf("Unwrap(%s) = %v (%T), want %v", tt.src, got, got, tt.want)
		}
	}

	rec := eval(t, eng, "({a: 1})")
	m, ok := f.Unwrap(rec).(*ScriptMap)
	if !ok || !m.IsRecord() {
		t.Fatalf("Unwrap(record) = %T", f.Unwrap(rec))
	}
	if back, _ := f.Wrap(m); back != goja.Value(rec) {
		t.Error("ScriptMap should wrap back to its script object")
	}

	arr := eval(t, eng, "[1, 2]")
	l, ok := f.Unwrap(arr).(*ScriptList)
	if !ok {
		t.Fatalf("Unwrap(array) = %T", f.Unwrap(arr))
	}
	if back, _ := f.Wrap(l); back != goja.Value(arr) {
		t.Error("ScriptList should wrap back to its script array")
	}

	fn := eval(t, eng, "(function() {})")
	c, ok := f.Unwrap(fn).(*Callable)
	if !ok {
		t.Fatalf("Unwrap(function) = %T", f.Unwrap(fn))
	}
	if back, _ := f.Wrap(c); back != goja.Value(fn) {
		t.Error("Callable should wrap back to its script function")
	}

	if f.Unwrap("native") != "native" {
		t.Error("native values should pass through Unwrap")
	}
}

func TestWrapAll(t *testing.T) {
	f, _ := newTestFactory(t)
	vals, err := f.WrapAll(1, "a", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 3 {
		t.Fatalf("len = %d", len(vals))
	}
	if !goja.IsNull(vals[2].(goja.Value)) {
		t.Error("nil should wrap to null")
	}
}
