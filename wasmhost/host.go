package wasmhost

import (
	"context"
	"slices"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/errors"
)

// Config holds configuration for the WebAssembly host.
type Config struct {
	// MemoryLimitPages sets the maximum memory per module in pages (64KB each).
	// 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// EnableThreads enables the WebAssembly threads proposal (experimental).
	EnableThreads bool
}

// DefaultConfig returns a configuration limiting modules to 16MB of memory.
func DefaultConfig() Config {
	return Config{MemoryLimitPages: 256}
}

// Host owns a wazero runtime and the modules instantiated in it.
type Host struct {
	ctx     context.Context
	runtime wazero.Runtime
	modules map[string]*Module
	mu      sync.Mutex
}

// New creates a host. ctx is used for every call made from scripts.
func New(ctx context.Context, cfg Config) *Host {
	rc := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.EnableThreads {
		rc = rc.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
	}
	return &Host{
		ctx:     ctx,
		runtime: wazero.NewRuntimeWithConfig(ctx, rc),
		modules: make(map[string]*Module),
	}
}

// Load compiles and instantiates a core WebAssembly module under name.
// Imports resolve against modules loaded or defined earlier.
func (h *Host) Load(name string, wasm []byte) (*Module, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "module name cannot be empty")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, dup := h.modules[name]; dup {
		return nil, errors.InvalidInput(errors.PhaseLoad, "module "+name+" already loaded")
	}
	mod, err := h.runtime.InstantiateWithConfig(h.ctx, wasm, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, errors.Load("instantiate module "+name, err)
	}
	m := newModule(h, mod)
	h.modules[name] = m

	Logger().Debug("module loaded",
		zap.String("name", name),
		zap.Int("functions", len(m.funcs)),
		zap.Bool("memory", m.memory != nil))
	return m, nil
}

// Define instantiates a host module named namespace exporting the given Go
// functions. Parameters and results must be wazero-compatible numeric
// types; a leading context.Context or api.Module parameter is allowed.
func (h *Host) Define(namespace string, funcs map[string]any) (*Module, error) {
	if namespace == "" {
		return nil, errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, dup := h.modules[namespace]; dup {
		return nil, errors.InvalidInput(errors.PhaseHost, "module "+namespace+" already defined")
	}

	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	slices.Sort(names)

	b := h.runtime.NewHostModuleBuilder(namespace)
	for _, name := range names {
		b = b.NewFunctionBuilder().WithFunc(funcs[name]).Export(name)
	}
	mod, err := instantiate(h.ctx, b)
	if err != nil {
		return nil, errors.Registration(errors.PhaseHost, "host module "+namespace, err)
	}
	m := newModule(h, mod)
	h.modules[namespace] = m
	return m, nil
}

// instantiate turns a panic from a malformed host function into an error.
func instantiate(ctx context.Context, b wazero.HostModuleBuilder) (mod api.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("host module rejected", zap.Any("panic", r))
			err = errors.InvalidInput(errors.PhaseHost, "unsupported host function signature")
		}
	}()
	return b.Instantiate(ctx)
}

// Module returns the module loaded or defined under name, or nil.
func (h *Host) Module(name string) *Module {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.modules[name]
}

// Modules returns the sorted names of all modules.
func (h *Host) Modules() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.modules))
	for name := range h.modules {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close releases the runtime and every module in it.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.modules)
	return h.runtime.Close(ctx)
}
