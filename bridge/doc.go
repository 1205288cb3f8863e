// Package bridge converts values between native Go objects and an embedded
// scripting engine.
//
// A Factory serves one script.Engine. Wrap turns a Go value into its script
// representation and Unwrap goes the other way:
//
//	f := bridge.New(eng)
//	v, err := f.Wrap(doc)      // script object backed by doc
//	native := f.Unwrap(v)      // doc again
//
// # Identity
//
// Pointers, maps and channels keep their identity across the boundary.
// Wrapping the same native twice yields the same script object while the
// script still holds it, and unwrapping that object yields the original
// native. Wrappers are tracked weakly: once the script drops its last
// reference the wrapper is reclaimed and the cache entry disappears.
//
// Struct values and arrays cross as copies. The script edits the copy and
// Unwrap returns its current state.
//
// # Representation
//
// The dynamic type of a value decides how it crosses:
//
//   - bool, numbers and strings cross by value
//   - Char crosses as a one character string
//   - slices and arrays become script arrays; *[]T can grow
//   - Go maps and bridge.Map become script objects keyed by name
//   - bridge.List becomes a script array
//   - funcs become script functions
//   - everything else goes through the generic object adapter
//
// The generic adapter exposes exported struct fields, X/SetX method pairs as
// properties and every other exported method as a function. The `script`
// struct tag renames a field, hides it with "-" or marks it "readonly" or
// "char". Natives implementing Checker are checked before every access.
//
// Script values unwrap to Go primitives, to a *Callable for functions, to a
// *ScriptList for arrays and to a *ScriptMap for other objects. The views
// operate on the script value directly and wrap back to it.
//
// # Coercion
//
// Coerce converts a value to a Go type. Numbers convert only without loss,
// null is accepted only by nillable types, and script records become other
// types through constructors registered with a Resolver. Failures are
// *errors.Error values of kind coercion_failure, null_value_rejected or
// unsupported_key_type, which reach scripts as TypeErrors.
//
// # Extension hooks
//
// Hooks replace the default representation for a type or interface:
//
//	hooks := bridge.NewHooks()
//	bridge.RegisterHook[*Style](hooks, bridge.NullSentinel(map[string]any{
//		"fill": ColorNone,
//	}))
//	f := bridge.NewWithConfig(eng, bridge.Config{Hooks: hooks})
package bridge
