// Package wasmhost exposes WebAssembly modules to scripts through bridge
// extension hooks.
//
// A Host wraps a wazero runtime. Install registers hooks on a bridge
// factory so that a wrapped Host offers load(name, bytes), module(name) and
// modules to scripts, a Module shows its exported functions as properties
// and a Function becomes a plain script function:
//
//	h := wasmhost.New(ctx, wasmhost.DefaultConfig())
//	wasmhost.Install(factory)
//	v, _ := factory.Wrap(h)
//	rt.Set("wasm", v)
//
//	// script
//	const m = wasm.load("calc", bytes)
//	m.add(2, 3)          // 5
//	m.memory[0] = 255    // writes linear memory in place
//
// Arguments are coerced to the parameter types without loss, so passing
// 1.5 to an i32 parameter raises a TypeError. A module's memory is a
// bridge.List of bytes and crosses as a zero-copy array view.
package wasmhost
