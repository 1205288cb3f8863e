package runtime

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/engine"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/wasmhost"
)

// Runtime is one script execution context: a goja engine, the bridge
// factory serving it and the published hosts. A Runtime is not safe for
// concurrent runs; Run* calls are serialized.
type Runtime struct {
	cfg     Config
	eng     *engine.Goja
	factory *bridge.Factory
	hosts   *HostRegistry
	wasm    *wasmhost.Host
	log     *zap.Logger
	out     io.Writer
	install []func(*bridge.Factory) error
	bound   bool
	mu      sync.Mutex
}

// Option customizes a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime's logger. By default the runtime logs
// nothing.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) { r.log = l }
}

// WithOutput sets where console output goes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) { r.out = w }
}

// WithHooks installs extra bridge hooks, e.g. host.Install. Installers run
// in order once all options are applied; New fails if any of them does.
func WithHooks(install func(*bridge.Factory) error) Option {
	return func(r *Runtime) { r.install = append(r.install, install) }
}

// New creates a runtime. ctx bounds the lifetime of the WebAssembly host
// when cfg.Wasm.Enabled is set.
func New(ctx context.Context, cfg Config, opts ...Option) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eng := engine.NewGoja(nil)
	if cfg.Script.MaxCallStack > 0 {
		eng.Runtime().SetMaxCallStackSize(cfg.Script.MaxCallStack)
	}

	r := &Runtime{
		cfg: cfg,
		eng: eng,
		factory: bridge.NewWithConfig(eng, bridge.Config{
			Hooks:         bridge.NewHooks(),
			Resolver:      bridge.NewResolver(),
			Names:         cfg.nameMapper(),
			CacheCapacity: cfg.Bridge.CacheCapacity,
		}),
		hosts: NewHostRegistry(),
		log:   zap.NewNop(),
		out:   os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}

	var installErr error
	for _, install := range r.install {
		installErr = multierr.Append(installErr, install(r.factory))
	}
	if installErr != nil {
		r.log.Warn("hook installation failed", zap.Error(installErr))
		return nil, errors.Registration(errors.PhaseHost, "bridge hooks", installErr)
	}

	if cfg.Wasm.Enabled {
		r.wasm = wasmhost.New(ctx, wasmhost.Config{
			MemoryLimitPages: cfg.Wasm.MemoryLimitPages,
			EnableThreads:    cfg.Wasm.Threads,
		})
		wasmhost.Install(r.factory)
		if err := r.Set("wasm", r.wasm); err != nil {
			_ = r.wasm.Close(ctx)
			return nil, err
		}
	}
	if cfg.Script.Console {
		if err := r.Set("console", &console{r: r}); err != nil {
			return nil, err
		}
	}

	r.log.Debug("runtime created",
		zap.Bool("wasm", cfg.Wasm.Enabled),
		zap.Duration("timeout", time.Duration(cfg.Script.Timeout)))
	return r, nil
}

// Bridge returns the bridge factory of this runtime.
func (r *Runtime) Bridge() *bridge.Factory { return r.factory }

// Engine returns the script engine.
func (r *Runtime) Engine() *engine.Goja { return r.eng }

// Hosts returns the host registry.
func (r *Runtime) Hosts() *HostRegistry { return r.hosts }

// Wasm returns the WebAssembly host, or nil when disabled.
func (r *Runtime) Wasm() *wasmhost.Host { return r.wasm }

// Set wraps v and stores it as the global name.
func (r *Runtime) Set(name string, v any) error {
	sv, err := r.factory.Wrap(v)
	if err != nil {
		return err
	}
	return r.eng.Runtime().Set(name, sv)
}

// Get returns the unwrapped value of the global name; nil when undefined.
func (r *Runtime) Get(name string) any {
	return r.factory.Unwrap(r.eng.Runtime().Get(name))
}

// RegisterHost publishes h as a global named by its namespace. Hosts
// registered after the first run are published on the next run.
func (r *Runtime) RegisterHost(h Host) error {
	if err := r.hosts.RegisterHost(h); err != nil {
		return err
	}
	r.mu.Lock()
	r.bound = false
	r.mu.Unlock()
	return nil
}

// RegisterFunc publishes fn as namespace.name.
func (r *Runtime) RegisterFunc(namespace, name string, fn any) error {
	if err := r.hosts.RegisterFunc(namespace, name, fn); err != nil {
		return err
	}
	r.mu.Lock()
	r.bound = false
	r.mu.Unlock()
	return nil
}

// RunString runs src and returns the unwrapped completion value.
func (r *Runtime) RunString(ctx context.Context, src string) (any, error) {
	return r.RunScript(ctx, "<eval>", src)
}

// RunFile runs the script at path.
func (r *Runtime) RunFile(ctx context.Context, path string) (any, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	return r.RunScript(ctx, path, string(src))
}

// RunScript compiles and runs src under name. Cancelling ctx, or the
// configured timeout expiring, interrupts the script.
func (r *Runtime) RunScript(ctx context.Context, name, src string) (any, error) {
	prg, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, errors.Load("compile "+name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.bind(); err != nil {
		return nil, err
	}

	v, err := r.guard(ctx, func() (goja.Value, error) {
		return r.eng.Runtime().RunProgram(prg)
	})
	if err != nil {
		return nil, r.scriptError(name, err)
	}
	return r.factory.Unwrap(v), nil
}

// Call calls the global function name with args.
func (r *Runtime) Call(ctx context.Context, name string, args ...any) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.bind(); err != nil {
		return nil, err
	}
	fn, err := r.factory.Callable(r.eng.Runtime().Get(name))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCall, errors.KindNotFound, err, "function "+name)
	}

	var out any
	_, err = r.guard(ctx, func() (goja.Value, error) {
		var callErr error
		out, callErr = fn.Call(args...)
		return nil, callErr
	})
	if err != nil {
		return nil, r.scriptError(name, err)
	}
	return out, nil
}

// Format renders a script value for display: JSON for records, arrays and
// host objects, the script's own string conversion otherwise.
func (r *Runtime) Format(v any) string {
	sv, err := r.factory.Wrap(v)
	if err != nil {
		return err.Error()
	}
	return format(r.eng.Runtime(), sv.(goja.Value))
}

// Close releases the WebAssembly host.
func (r *Runtime) Close(ctx context.Context) error {
	if r.wasm != nil {
		return r.wasm.Close(ctx)
	}
	return nil
}

// bind publishes registered hosts. Caller holds r.mu.
func (r *Runtime) bind() error {
	if r.bound {
		return nil
	}
	if err := r.hosts.Bind(r.factory, r.eng.Runtime().Set); err != nil {
		return err
	}
	r.bound = true
	return nil
}

// guard runs fn with interrupts wired to ctx and the configured timeout.
func (r *Runtime) guard(ctx context.Context, fn func() (goja.Value, error)) (goja.Value, error) {
	if t := time.Duration(r.cfg.Script.Timeout); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	rt := r.eng.Runtime()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			rt.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	v, err := fn()
	close(stop)
	wg.Wait()
	rt.ClearInterrupt()
	if ctx.Err() != nil && err != nil {
		return nil, ctx.Err()
	}
	return v, err
}

// scriptError maps a failed run to a structured error.
func (r *Runtime) scriptError(name string, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		r.log.Debug("script interrupted", zap.String("script", name), zap.Error(err))
		return errors.Wrap(errors.PhaseCall, errors.KindScript, err, "interrupted "+name)
	}
	cause := r.eng.Error(err)
	r.log.Debug("script failed", zap.String("script", name), zap.Error(cause))
	if errors.IsKind(cause, errors.KindScript) {
		return cause
	}
	return errors.Script(cause, "run "+name)
}
