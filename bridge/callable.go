package bridge

import (
	stderrors "errors"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/script"
)

// Callable invokes a script function from Go. Arguments are wrapped,
// results unwrapped, and script exceptions come back as errors of kind
// script whose cause is the *script.Error.
type Callable struct {
	f     *Factory
	fn    script.Function
	value script.Value
	this  script.Value
}

// Callable returns the Go view of a script function.
func (f *Factory) Callable(v any) (*Callable, error) {
	if c, ok := v.(*Callable); ok {
		return c, nil
	}
	if f.engine.IsScriptValue(v) {
		if fn, ok := f.engine.Function(v); ok {
			return &Callable{f: f, fn: fn, value: v}, nil
		}
	}
	return nil, errors.CoercionFailure(nil, "*bridge.Callable", f.scriptType(v), "not a function")
}

// Value returns the underlying script function.
func (c *Callable) Value() script.Value { return c.value }

// Bind returns a Callable invoking the function with this as receiver.
func (c *Callable) Bind(this any) (*Callable, error) {
	tv, err := c.f.Wrap(this)
	if err != nil {
		return nil, err
	}
	return &Callable{f: c.f, fn: c.fn, value: c.value, this: tv}, nil
}

// Call invokes the function and returns the unwrapped result.
func (c *Callable) Call(args ...any) (any, error) {
	res, err := c.invoke(args)
	if err != nil {
		return nil, err
	}
	return c.f.Unwrap(res), nil
}

// CallInto invokes the function and coerces the result into the value out
// points to.
func (c *Callable) CallInto(out any, args ...any) error {
	ov := reflect.ValueOf(out)
	if ov.Kind() != reflect.Pointer || ov.IsNil() {
		return errors.InvalidInput(errors.PhaseCall, "CallInto needs a non-nil pointer")
	}
	res, err := c.invoke(args)
	if err != nil {
		return err
	}
	rv, err := c.f.Coerce(res, ov.Elem().Type())
	if err != nil {
		return err
	}
	ov.Elem().Set(rv)
	return nil
}

func (c *Callable) invoke(args []any) (script.Value, error) {
	in, err := c.f.WrapAll(args...)
	if err != nil {
		return nil, err
	}
	this := c.this
	if this == nil {
		this = c.f.engine.Undefined()
	}
	res, err := c.fn.Call(this, in...)
	if err != nil {
		var se *script.Error
		if stderrors.As(err, &se) {
			return nil, errors.Script(se, "script function raised an exception")
		}
		return nil, err
	}
	return res, nil
}

// MakeFunc returns a Go function of type fnType backed by the script
// function v. A failing call is reported through a trailing error result,
// or by panicking when fnType has none.
func (f *Factory) MakeFunc(v any, fnType reflect.Type) (reflect.Value, error) {
	if fnType.Kind() != reflect.Func {
		return reflect.Value{}, errors.TypeMismatch(errors.PhaseCoerce, nil, fnType.String(), "function")
	}
	c, err := f.Callable(v)
	if err != nil {
		return reflect.Value{}, err
	}
	return f.makeFunc(c, fnType)
}

func (f *Factory) makeFunc(c *Callable, ft reflect.Type) (reflect.Value, error) {
	numOut := ft.NumOut()
	hasErr := numOut > 0 && ft.Out(numOut-1) == errorType

	return reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		args := make([]any, 0, len(in))
		for i, a := range in {
			if ft.IsVariadic() && i == len(in)-1 {
				for j := 0; j < a.Len(); j++ {
					args = append(args, a.Index(j).Interface())
				}
				continue
			}
			args = append(args, a.Interface())
		}

		out := make([]reflect.Value, numOut)
		for i := range out {
			out[i] = reflect.Zero(ft.Out(i))
		}
		fail := func(err error) []reflect.Value {
			if !hasErr {
				panic(err)
			}
			out[numOut-1] = reflect.ValueOf(&err).Elem()
			return out
		}

		res, err := c.invoke(args)
		if err != nil {
			return fail(err)
		}
		if numOut > 0 && !(hasErr && numOut == 1) {
			rv, err := f.Coerce(res, ft.Out(0))
			if err != nil {
				return fail(err)
			}
			out[0] = rv
		}
		return out
	}), nil
}

// goFunc exposes a Go function to scripts.
func (f *Factory) goFunc(fn reflect.Value) script.HostFunc {
	return func(args []script.Value) (script.Value, error) {
		return f.callGo(fn, args)
	}
}

// callGo calls a Go function or bound method with script arguments.
// Missing arguments are zero values; extra arguments are ignored unless the
// function is variadic.
func (f *Factory) callGo(fn reflect.Value, args []script.Value) (script.Value, error) {
	ft := fn.Type()
	numIn := ft.NumIn()
	in := make([]reflect.Value, 0, max(numIn, len(args)))

	for i := 0; i < numIn; i++ {
		pt := ft.In(i)
		if ft.IsVariadic() && i == numIn-1 {
			et := pt.Elem()
			for j := i; j < len(args); j++ {
				v, err := f.coerce(args[j], et, []string{argName(j)})
				if err != nil {
					return nil, err
				}
				in = append(in, v)
			}
			break
		}
		if i >= len(args) {
			in = append(in, reflect.Zero(pt))
			continue
		}
		v, err := f.coerce(args[i], pt, []string{argName(i)})
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}

	return f.results(fn.Call(in), ft)
}

func (f *Factory) results(out []reflect.Value, ft reflect.Type) (script.Value, error) {
	if n := len(out); n > 0 && ft.Out(n-1) == errorType {
		if !out[n-1].IsNil() {
			err := out[n-1].Interface().(error)
			Logger().Debug("native call failed", zap.Error(err))
			return nil, err
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return f.engine.Undefined(), nil
	case 1:
		return f.WrapAs(out[0].Interface(), ft.Out(0))
	}
	values := make([]script.Value, len(out))
	for i, o := range out {
		v, err := f.WrapAs(o.Interface(), ft.Out(i))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return f.engine.NewList(values), nil
}

func argName(i int) string {
	return "arg" + strconv.Itoa(i)
}

// funcName returns the unqualified name of a Go function, or "" for
// closures and non-functions.
func funcName(rv reflect.Value) string {
	if rv.Kind() != reflect.Func {
		return ""
	}
	rf := runtime.FuncForPC(rv.Pointer())
	if rf == nil {
		return ""
	}
	name := rf.Name()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if strings.HasPrefix(name, "func") {
		return ""
	}
	return name
}
