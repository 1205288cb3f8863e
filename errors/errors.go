package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates at which crossing the error occurred
type Phase string

const (
	PhaseWrap    Phase = "wrap"    // native to script
	PhaseUnwrap  Phase = "unwrap"  // script to native
	PhaseCoerce  Phase = "coerce"  // script value to native type
	PhaseResolve Phase = "resolve" // handle to proxy
	PhaseCall    Phase = "call"    // native calling into script
	PhaseHost    Phase = "host"    // host resources and registration
	PhaseConfig  Phase = "config"  // configuration loading
	PhaseLoad    Phase = "load"    // script loading
)

// Kind categorizes the error
type Kind string

const (
	KindIdentityConflict   Kind = "identity_conflict"
	KindCoercionFailure    Kind = "coercion_failure"
	KindStaleHandle        Kind = "stale_handle"
	KindUnsupportedKeyType Kind = "unsupported_key_type"
	KindNullValueRejected  Kind = "null_value_rejected"
	KindScript             Kind = "script"
	KindTypeMismatch       Kind = "type_mismatch"
	KindOutOfBounds        Kind = "out_of_bounds"
	KindReadOnly           Kind = "read_only"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
	KindRegistration       Kind = "registration"
	KindUnsupported        Kind = "unsupported"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	ScriptType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	hasType := e.GoType != "" || e.ScriptType != ""
	if hasType {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.ScriptType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", script type ")
			b.WriteString(e.ScriptType)
		case e.GoType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("script type ")
			b.WriteString(e.ScriptType)
		}
	}

	if e.Detail != "" {
		if hasType {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if stderrors.As(err, &e) {
			if e.Kind == kind {
				return true
			}
			err = e.Cause
			continue
		}
		return false
	}
	return false
}

// IsTypeError reports whether err should reach scripts as a TypeError.
func IsTypeError(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindCoercionFailure, KindUnsupportedKeyType, KindNullValueRejected, KindTypeMismatch, KindReadOnly:
		return true
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the property path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// ScriptType sets the script-side type name
func (b *Builder) ScriptType(t string) *Builder {
	b.err.ScriptType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the bridge's error kinds

// IdentityConflict reports a breach of the one-wrapper-per-identity invariant.
// Callers panic with it; it is never returned to scripts.
func IdentityConflict(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIdentityConflict,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// CoercionFailure creates a coercion failure for a script value that cannot
// become the target Go type.
func CoercionFailure(path []string, goType, scriptType, detail string) *Error {
	return &Error{
		Phase:      PhaseCoerce,
		Kind:       KindCoercionFailure,
		Path:       path,
		GoType:     goType,
		ScriptType: scriptType,
		Detail:     detail,
	}
}

// StaleHandle creates an error for an operation on an invalidated handle.
func StaleHandle(handle uint32, what string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindStaleHandle,
		Detail: fmt.Sprintf("%s handle %#x is no longer valid", what, handle),
		Value:  handle,
	}
}

// UnsupportedKeyType creates an error for a collection key that is neither
// an integer nor a string.
func UnsupportedKeyType(phase Phase, key any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedKeyType,
		GoType: fmt.Sprintf("%T", key),
		Detail: "keys must be integers or strings",
		Value:  key,
	}
}

// NullValueRejected creates an error for storing null where the native side
// cannot hold it.
func NullValueRejected(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNullValueRejected,
		Path:   path,
		GoType: goType,
		Detail: "null or undefined not allowed",
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, scriptType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindTypeMismatch,
		Path:       path,
		GoType:     goType,
		ScriptType: scriptType,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// ReadOnly creates an error for a write to a property without a setter.
func ReadOnly(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReadOnly,
		Path:   path,
		GoType: goType,
		Detail: "property is read-only",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Script wraps a failure raised by script code.
func Script(cause error, detail string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindScript,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(phase Phase, what string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s", what),
		Cause:  cause,
	}
}

// Config creates a configuration loading error
func Config(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a script loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}
