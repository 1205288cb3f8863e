package wasmhost

import (
	"context"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/engine"
	"github.com/wippyai/script-bridge/errors"
)

// addModule exports add(i32, i32) -> i32 and a one page memory.
var addModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i32, i32) -> i32
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	// function 0 has type 0
	0x03, 0x02, 0x01, 0x00,
	// memory: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// exports: "add" func 0, "memory" memory 0
	0x07, 0x10, 0x02,
	0x03, 'a', 'd', 'd', 0x00, 0x00,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	// code: local.get 0, local.get 1, i32.add
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

func newTestHost(t *testing.T) (*Host, *bridge.Factory, *engine.Goja) {
	t.Helper()
	ctx := context.Background()
	h := New(ctx, DefaultConfig())
	t.Cleanup(func() { _ = h.Close(ctx) })

	eng := engine.NewGoja(nil)
	f := bridge.NewWithConfig(eng, bridge.Config{Hooks: bridge.NewHooks()})
	Install(f)

	v, err := f.Wrap(h)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Runtime().Set("wasm", v); err != nil {
		t.Fatal(err)
	}
	return h, f, eng
}

func eval(t *testing.T, eng *engine.Goja, src string) goja.Value {
	t.Helper()
	v, err := eng.Runtime().RunString(src)
	if err != nil {
		t.Fatalf("RunString(%q): %v", src, eng.Error(err))
	}
	return v
}

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MemoryLimitPages != 256 {
		t.Errorf("MemoryLimitPages = %d, want 256", cfg.MemoryLimitPages)
	}
	if cfg.EnableThreads {
		t.Error("threads should be off by default")
	}
}

func TestHost_LoadAndCall(t *testing.T) {
	h, _, eng := newTestHost(t)

	m, err := h.Load("calc", addModule)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"add"}, m.Functions()); diff != "" {
		t.Errorf("functions mismatch (-want +got):\n%s", diff)
	}
	res, err := m.Function("add").Call(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if res[0] != 5 {
		t.Errorf("add = %d", res[0])
	}

	if got := eval(t, eng, "wasm.module('calc').add(20, 22)").ToInteger(); got != 42 {
		t.Errorf("script add = %d", got)
	}
	if !eval(t, eng, "wasm.module('calc').add === wasm.module('calc').add").ToBoolean() {
		t.Error("function wrappers should keep their identity")
	}
	if !eval(t, eng, "wasm.module('missing') === null").ToBoolean() {
		t.Error("unknown module should be null")
	}
	if got := eval(t, eng, "Object.keys(wasm.module('calc')).join(',')").String(); got != "name,memory,add" {
		t.Errorf("module keys = %q", got)
	}
}

func TestFunction_IdentityAcrossGC(t *testing.T) {
	h, _, eng := newTestHost(t)
	if _, err := h.Load("calc", addModule); err != nil {
		t.Fatal(err)
	}

	eval(t, eng, "var add = wasm.module('calc').add")
	runtime.GC()
	runtime.GC()
	if !eval(t, eng, "add === wasm.module('calc').add").ToBoolean() {
		t.Error("held function should stay identical after GC")
	}
}

func TestHost_LoadFromScript(t *testing.T) {
	_, _, eng := newTestHost(t)

	literal := make([]string, len(addModule))
	for i, b := range addModule {
		literal[i] = strconv.Itoa(int(b))
	}
	eval(t, eng, "const bytes = ["+strings.Join(literal, ",")+"]")
	eval(t, eng, "const calc = wasm.load('calc', bytes)")
	if got := eval(t, eng, "calc.name").String(); got != "calc" {
		t.Errorf("name = %q", got)
	}
	if got := eval(t, eng, "wasm.modules.join(',')").String(); got != "calc" {
		t.Errorf("modules = %q", got)
	}

	_, err := eng.Runtime().RunString("wasm.load('calc', bytes)")
	if !errors.IsKind(eng.Error(err), errors.KindInvalidInput) {
		t.Errorf("duplicate load error = %v", eng.Error(err))
	}
}

func TestFunction_Coercion(t *testing.T) {
	h, _, eng := newTestHost(t)
	if _, err := h.Load("calc", addModule); err != nil {
		t.Fatal(err)
	}
	eval(t, eng, "const add = wasm.module('calc').add")

	if !eval(t, eng, "(() => { try { add(1.5, 1); return false } catch (e) { return e instanceof TypeError } })()").ToBoolean() {
		t.Error("fractional argument should raise a TypeError")
	}
	if !eval(t, eng, "(() => { try { add(1); return false } catch (e) { return e instanceof TypeError } })()").ToBoolean() {
		t.Error("missing argument should raise a TypeError")
	}
	// i32 arithmetic wraps
	if got := eval(t, eng, "add(2147483647, 1)").ToInteger(); got != -2147483648 {
		t.Errorf("overflow = %d", got)
	}
	if got := eval(t, eng, "add(4294967295, 0)").ToInteger(); got != -1 {
		t.Errorf("unsigned argument = %d", got)
	}
}

func TestMemory(t *testing.T) {
	h, f, eng := newTestHost(t)
	m, err := h.Load("calc", addModule)
	if err != nil {
		t.Fatal(err)
	}
	mem := m.Memory()
	if mem.Len() != pageSize {
		t.Fatalf("Len = %d", mem.Len())
	}

	eval(t, eng, "const mem = wasm.module('calc').memory; mem[0] = 255; mem[1] = 7")
	if got := mem.Bytes()[:2]; got[0] != 255 || got[1] != 7 {
		t.Errorf("bytes = %v", got)
	}
	if !eval(t, eng, "mem.length === 65536").ToBoolean() {
		t.Error("length mismatch")
	}
	if !eval(t, eng, "(() => { try { mem[0] = 256; return false } catch (e) { return e instanceof TypeError } })()").ToBoolean() {
		t.Error("out of range byte should raise a TypeError")
	}

	mem.Bytes()[2] = 9
	if got := eval(t, eng, "mem[2]").ToInteger(); got != 9 {
		t.Errorf("mem[2] = %d", got)
	}

	list, ok := f.AsList(eng.Runtime().Get("mem"))
	if !ok || list != bridge.List(mem) {
		t.Error("memory should unwrap to the native list")
	}

	if _, err := mem.Grow(1); err != nil {
		t.Fatal(err)
	}
	if mem.Len() != 2*pageSize {
		t.Errorf("Len after grow = %d", mem.Len())
	}
	if err := mem.SetIndex(0, "x"); !errors.IsKind(err, errors.KindTypeMismatch) {
		t.Errorf("SetIndex error = %v", err)
	}
}

func TestHost_Define(t *testing.T) {
	h, _, eng := newTestHost(t)

	_, err := h.Define("env", map[string]any{
		"mul":  func(a, b int32) int32 { return a * b },
		"half": func(x float64) float64 { return x / 2 },
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := eval(t, eng, "wasm.module('env').mul(6, 7)").ToInteger(); got != 42 {
		t.Errorf("mul = %d", got)
	}
	if got := eval(t, eng, "wasm.module('env').half(5)").ToFloat(); got != 2.5 {
		t.Errorf("half = %v", got)
	}

	if _, err := h.Define("bad", map[string]any{"s": func(s string) {}}); !errors.IsKind(err, errors.KindRegistration) {
		t.Errorf("unsupported signature error = %v", err)
	}
	if _, err := h.Define("env", nil); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("duplicate namespace error = %v", err)
	}
}

func TestFunction_ArgumentCount(t *testing.T) {
	h, _, _ := newTestHost(t)
	m, err := h.Load("calc", addModule)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Function("add").Call(1); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("error = %v", err)
	}
}
