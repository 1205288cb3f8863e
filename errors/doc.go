// Package errors provides structured error types for the script bridge.
//
// Errors are categorized by Phase (which crossing failed) and Kind (error category).
// The Error type includes rich context: property path, Go/script type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCoerce, errors.KindCoercionFailure).
//		Path("item", "bounds").
//		GoType("host.Rectangle").
//		ScriptType("object").
//		Detail("no constructor accepts a record").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.StaleHandle(uint32(h), "item")
//	err := errors.UnsupportedKeyType(errors.PhaseUnwrap, key)
//
// Coercion failures, unsupported keys and rejected nulls reach scripts as
// TypeErrors (see IsTypeError). Identity conflicts are programming errors and
// are raised with panic.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
