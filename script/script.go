package script

// Value is an engine-native script value.
type Value = any

// HostObject is a Go-implemented object exposed to scripts with named
// properties. Returned errors surface in the script as thrown exceptions.
// Get returns a nil Value for absent properties.
type HostObject interface {
	Get(key string) (Value, error)
	Set(key string, v Value) error
	Has(key string) bool
	Delete(key string) bool
	Keys() []string
}

// HostArray is a Go-implemented array-like exposed to scripts with indices
// and a length.
type HostArray interface {
	Len() int
	Get(i int) (Value, error)
	Set(i int, v Value) error
	SetLen(n int) error
}

// HostFunc implements a script-callable function in Go. A returned error is
// thrown into the calling script.
type HostFunc func(args []Value) (Value, error)

// Object is the Go view of a script object.
type Object interface {
	// Get returns the property value, or undefined when absent.
	Get(key string) Value
	Has(key string) bool
	Set(key string, v Value) error
	Delete(key string) bool
	// Keys lists own enumerable property names in engine order.
	Keys() []string
}

// Function is the Go view of a callable script value.
type Function interface {
	Call(this Value, args ...Value) (Value, error)
}

// Engine is the set of primitives an embedded scripting engine provides.
type Engine interface {
	// IsScriptValue reports whether v is already an engine value.
	IsScriptValue(v any) bool
	Undefined() Value
	Null() Value
	IsUndefined(v Value) bool
	// IsNullish reports null or undefined.
	IsNullish(v Value) bool

	// ToValue converts a Go primitive (bool, numbers, string) to a script value.
	ToValue(v any) Value
	// Primitive returns the Go form of a script primitive: bool, int64,
	// float64 or string.
	Primitive(v Value) (any, bool)
	// TypeName describes v for error messages.
	TypeName(v Value) string

	NewObject(h HostObject) Value
	NewArray(h HostArray) Value
	NewFunction(name string, fn HostFunc) Value
	// NewRecord creates an ordinary empty script object.
	NewRecord() Value
	// NewList creates an ordinary script array holding values.
	NewList(values []Value) Value

	// Host returns the HostObject or HostArray behind an adapter created by
	// NewObject or NewArray.
	Host(v Value) (any, bool)
	Object(v Value) (Object, bool)
	Function(v Value) (Function, bool)
	// IsRecord reports an ordinary script object: not an array, function or
	// host adapter.
	IsRecord(v Value) bool
	// IsArray reports an ordinary script array.
	IsArray(v Value) bool
}
