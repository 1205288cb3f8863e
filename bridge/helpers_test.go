package bridge

import (
	"testing"

	"github.com/dop251/goja"

	"github.com/wippyai/script-bridge/engine"
)

// newTestFactory returns a factory over a fresh goja runtime with its own
// resolver and hooks.
func newTestFactory(t testing.TB) (*Factory, *engine.Goja) {
	t.Helper()
	eng := engine.NewGoja(nil)
	f := NewWithConfig(eng, Config{
		Hooks:    NewHooks(),
		Resolver: NewResolver(),
	})
	return f, eng
}

func eval(t testing.TB, eng *engine.Goja, src string) goja.Value {
	t.Helper()
	v, err := eng.Runtime().RunString(src)
	if err != nil {
		t.Fatalf("RunString(%q): %v", src, eng.Error(err))
	}
	return v
}

// evalErr runs src and returns the converted error it raised.
func evalErr(t testing.TB, eng *engine.Goja, src string) error {
	t.Helper()
	_, err := eng.Runtime().RunString(src)
	if err == nil {
		t.Fatalf("RunString(%q): expected error", src)
	}
	return eng.Error(err)
}

func expose(t testing.TB, f *Factory, eng *engine.Goja, name string, v any) goja.Value {
	t.Helper()
	wv, err := f.Wrap(v)
	if err != nil {
		t.Fatalf("Wrap(%T): %v", v, err)
	}
	if err := eng.Runtime().Set(name, wv); err != nil {
		t.Fatal(err)
	}
	return wv.(goja.Value)
}

func wantTrue(t testing.TB, eng *engine.Goja, src string) {
	t.Helper()
	if !eval(t, eng, src).ToBoolean() {
		t.Errorf("%s: got false", src)
	}
}

func newTestEngine() *engine.Goja {
	return engine.NewGoja(nil)
}
