// Package scriptbridge lets Go values cross into an embedded script engine
// and back while keeping object identity, collection semantics and type
// safety on both sides.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	scriptbridge/
//	├── resource/        Native resource table: generation tagged handles, destroy events
//	├── proxy/           One proxy per live handle, stale once the handle is invalidated
//	├── identity/        Weak identity map: native value -> script wrapper
//	├── script/          Engine-neutral value protocol the bridge is written against
//	├── bridge/          Wrap/unwrap, collection adapters, coercion, callables, hooks
//	├── engine/          goja implementation of the script protocol
//	├── wasmhost/        WebAssembly modules exposed to scripts through bridge hooks
//	├── host/            Reference native host: documents, items, styles and geometry
//	├── runtime/         High-level API: configuration, hosts, script execution
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Publish a Go value and run a script against it:
//
//	rt, err := runtime.New(ctx, runtime.DefaultConfig(), runtime.WithHooks(host.Install))
//	if err != nil {
//		return err
//	}
//	defer rt.Close(ctx)
//
//	rt.Set("app", host.New())
//	v, err := rt.RunString(ctx, `app.createDocument("notes").name`)
//
// # Identity
//
// Wrapping the same native pointer, map or handle twice yields the same
// script object for as long as the script holds it:
//
//	doc === app.activeDocument          // true
//	item.document === doc               // true
//
// Script objects handed to Go come back as views (bridge.ScriptMap,
// bridge.ScriptList, bridge.Callable) that wrap back to the original object.
//
// # Coercion
//
// Script records become typed Go values through registered constructors:
//
//	f.Resolver().Register(func(m bridge.Map) (Point, error) { ... })
//	item.translate({x: 5, y: 5})        // record coerced to Point
//
// Failed coercions surface in scripts as TypeErrors.
package scriptbridge
