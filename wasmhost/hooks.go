package wasmhost

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/script"
)

// Install registers the hooks that expose hosts, modules and functions to
// scripts wrapped by f. Memories need no hook: they are byte lists.
func Install(f *bridge.Factory) {
	hooks := f.Hooks()
	bridge.RegisterHook[*Host](hooks, bridge.HookFunc(func(f *bridge.Factory, native any) (any, error) {
		return &hostObject{f: f, h: native.(*Host)}, nil
	}))
	bridge.RegisterHook[*Module](hooks, bridge.HookFunc(func(f *bridge.Factory, native any) (any, error) {
		return &moduleObject{f: f, m: native.(*Module)}, nil
	}))
	bridge.RegisterHook[*Function](hooks, bridge.HookFunc(func(f *bridge.Factory, native any) (any, error) {
		return scriptFunc(f, native.(*Function)), nil
	}))
}

// hostObject is the script view of a Host: load(name, bytes), module(name)
// and the modules list.
type hostObject struct {
	f     *bridge.Factory
	h     *Host
	funcs map[string]script.Value
}

var hostKeys = []string{"load", "module", "modules"}

func (o *hostObject) fn(name string, impl script.HostFunc) script.Value {
	if v, ok := o.funcs[name]; ok {
		return v
	}
	if o.funcs == nil {
		o.funcs = make(map[string]script.Value)
	}
	v := o.f.Engine().NewFunction(name, impl)
	o.funcs[name] = v
	return v
}

func (o *hostObject) Get(key string) (script.Value, error) {
	switch key {
	case "load":
		return o.fn(key, o.load), nil
	case "module":
		return o.fn(key, func(args []script.Value) (script.Value, error) {
			name, err := bridge.CoerceTo[string](o.f, arg(args, 0))
			if err != nil {
				return nil, err
			}
			return o.f.Wrap(o.h.Module(name))
		}), nil
	case "modules":
		return o.f.Wrap(o.h.Modules())
	}
	return nil, nil
}

func (o *hostObject) load(args []script.Value) (script.Value, error) {
	name, err := bridge.CoerceTo[string](o.f, arg(args, 0))
	if err != nil {
		return nil, err
	}
	wasm, err := bridge.CoerceTo[[]byte](o.f, arg(args, 1))
	if err != nil {
		return nil, err
	}
	m, err := o.h.Load(name, wasm)
	if err != nil {
		return nil, err
	}
	return o.f.Wrap(m)
}

func (o *hostObject) Set(key string, _ script.Value) error {
	return errors.ReadOnly(errors.PhaseUnwrap, []string{key}, "wasmhost.Host")
}

func (o *hostObject) Has(key string) bool {
	switch key {
	case "load", "module", "modules":
		return true
	}
	return false
}

func (o *hostObject) Delete(string) bool { return false }

func (o *hostObject) Keys() []string { return append([]string(nil), hostKeys...) }

// moduleObject is the script view of a Module. Exported functions are
// properties; name and memory are exposed unless a function shadows them.
type moduleObject struct {
	f *bridge.Factory
	m *Module
}

func (o *moduleObject) Get(key string) (script.Value, error) {
	if fn := o.m.Function(key); fn != nil {
		return o.f.Wrap(fn)
	}
	switch key {
	case "name":
		return o.f.Wrap(o.m.Name())
	case "memory":
		if mem := o.m.Memory(); mem != nil {
			return o.f.Wrap(mem)
		}
	}
	return nil, nil
}

func (o *moduleObject) Set(key string, _ script.Value) error {
	return errors.ReadOnly(errors.PhaseUnwrap, []string{key}, "wasmhost.Module")
}

func (o *moduleObject) Has(key string) bool {
	if o.m.Function(key) != nil || key == "name" {
		return true
	}
	return key == "memory" && o.m.Memory() != nil
}

func (o *moduleObject) Delete(string) bool { return false }

func (o *moduleObject) Keys() []string {
	keys := []string{"name"}
	if o.m.Memory() != nil {
		keys = append(keys, "memory")
	}
	for _, name := range o.m.Functions() {
		if name != "name" && name != "memory" {
			keys = append(keys, name)
		}
	}
	return keys
}

// scriptFunc adapts a WebAssembly function: arguments are coerced to the
// parameter types without loss, results are decoded to numbers.
func scriptFunc(f *bridge.Factory, fn *Function) script.HostFunc {
	return func(args []script.Value) (script.Value, error) {
		params := fn.Params()
		raw := make([]uint64, len(params))
		for i, t := range params {
			v, err := encode(f, arg(args, i), t)
			if err != nil {
				return nil, err
			}
			raw[i] = v
		}

		res, err := fn.Call(raw...)
		if err != nil {
			return nil, err
		}

		types := fn.Results()
		out := make([]any, len(res))
		for i, r := range res {
			out[i] = decode(r, types[i])
		}
		switch len(out) {
		case 0:
			return f.Engine().Undefined(), nil
		case 1:
			return f.Wrap(out[0])
		}
		return f.Wrap(out)
	}
}

func encode(f *bridge.Factory, v script.Value, t api.ValueType) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		if i, err := bridge.CoerceTo[int32](f, v); err == nil {
			return api.EncodeI32(i), nil
		}
		u, err := bridge.CoerceTo[uint32](f, v)
		if err != nil {
			return 0, err
		}
		return api.EncodeU32(u), nil
	case api.ValueTypeI64:
		i, err := bridge.CoerceTo[int64](f, v)
		if err != nil {
			return 0, err
		}
		return api.EncodeI64(i), nil
	case api.ValueTypeF32:
		x, err := bridge.CoerceTo[float32](f, v)
		if err != nil {
			return 0, err
		}
		return api.EncodeF32(x), nil
	case api.ValueTypeF64:
		x, err := bridge.CoerceTo[float64](f, v)
		if err != nil {
			return 0, err
		}
		return api.EncodeF64(x), nil
	}
	return 0, errors.Unsupported(errors.PhaseCall, "parameter type "+api.ValueTypeName(t))
}

func decode(r uint64, t api.ValueType) any {
	switch t {
	case api.ValueTypeI32:
		return api.DecodeI32(r)
	case api.ValueTypeF32:
		return api.DecodeF32(r)
	case api.ValueTypeF64:
		return api.DecodeF64(r)
	}
	return int64(r)
}

func arg(args []script.Value, i int) script.Value {
	if i < len(args) {
		return args[i]
	}
	return nil
}
