package wasmhost

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/script-bridge/errors"
)

// Module is an instantiated WebAssembly module.
type Module struct {
	host   *Host
	mod    api.Module
	funcs  map[string]*Function
	names  []string
	memory *Memory
}

func newModule(h *Host, mod api.Module) *Module {
	m := &Module{
		host:  h,
		mod:   mod,
		funcs: make(map[string]*Function),
	}
	for name, def := range mod.ExportedFunctionDefinitions() {
		m.funcs[name] = &Function{host: h, fn: mod.ExportedFunction(name), def: def, name: name}
		m.names = append(m.names, name)
	}
	slices.Sort(m.names)
	if mem := mod.Memory(); mem != nil {
		m.memory = &Memory{mem: mem}
	}
	return m
}

// Name returns the module name.
func (m *Module) Name() string { return m.mod.Name() }

// Function returns the exported function name, or nil.
func (m *Module) Function(name string) *Function { return m.funcs[name] }

// Functions returns the sorted names of the exported functions.
func (m *Module) Functions() []string { return slices.Clone(m.names) }

// Memory returns the module's memory, or nil if it has none.
func (m *Module) Memory() *Memory { return m.memory }

// Function is an exported WebAssembly function.
type Function struct {
	host *Host
	fn   api.Function
	def  api.FunctionDefinition
	name string
}

// Name returns the export name.
func (f *Function) Name() string { return f.name }

// Params returns the parameter value types.
func (f *Function) Params() []api.ValueType { return f.def.ParamTypes() }

// Results returns the result value types.
func (f *Function) Results() []api.ValueType { return f.def.ResultTypes() }

// Call invokes the function with raw encoded parameters.
func (f *Function) Call(params ...uint64) ([]uint64, error) {
	if want := len(f.def.ParamTypes()); len(params) != want {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Detail("%s takes %d arguments, got %d", f.name, want, len(params)).
			Build()
	}
	res, err := f.fn.Call(f.host.ctx, params...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCall, errors.KindScript, err, "call "+f.name)
	}
	return res, nil
}

// Memory is a module's linear memory. It is a bridge.List of bytes, so
// scripts see it as a byte array without copying.
type Memory struct {
	mem api.Memory
}

var byteType = reflect.TypeFor[byte]()

// Len returns the current size in bytes.
func (m *Memory) Len() int { return int(m.mem.Size()) }

// ElemType reports byte as the element type.
func (m *Memory) ElemType() reflect.Type { return byteType }

// Index returns the byte at offset i.
func (m *Memory) Index(i int) (any, error) {
	if i < 0 {
		return nil, errors.OutOfBounds(errors.PhaseHost, []string{"memory"}, i, m.Len())
	}
	b, ok := m.mem.ReadByte(uint32(i))
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseHost, []string{"memory"}, i, m.Len())
	}
	return b, nil
}

// SetIndex stores a byte at offset i.
func (m *Memory) SetIndex(i int, v any) error {
	b, ok := v.(byte)
	if !ok {
		return errors.TypeMismatch(errors.PhaseHost, []string{"memory"}, "uint8", fmt.Sprintf("%T", v))
	}
	if i < 0 || !m.mem.WriteByte(uint32(i), b) {
		return errors.OutOfBounds(errors.PhaseHost, []string{"memory"}, i, m.Len())
	}
	return nil
}

// Bytes returns a view of the whole memory. The view is invalidated when
// the memory grows.
func (m *Memory) Bytes() []byte {
	b, _ := m.mem.Read(0, m.mem.Size())
	return b
}

// Grow adds pages of 64KB and returns the previous size in pages.
func (m *Memory) Grow(pages uint32) (uint32, error) {
	prev, ok := m.mem.Grow(pages)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseHost, []string{"memory"}, int(pages), int(m.mem.Size()/pageSize))
	}
	return prev, nil
}

const pageSize = 65536
