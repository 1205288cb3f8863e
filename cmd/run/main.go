package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/script-bridge/host"
	"github.com/wippyai/script-bridge/runtime"
)

func main() {
	var (
		scriptFile  = flag.String("script", "", "Path to a script file to run")
		expr        = flag.String("e", "", "Script source to evaluate")
		configFile  = flag.String("config", "", "Path to a TOML configuration file")
		wasmFiles   = flag.String("wasm", "", "WebAssembly modules to load (comma-separated paths)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	if *scriptFile == "" && *expr == "" && !*interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Usage: run -script <file.js> [-config bridge.toml] [-wasm a.wasm,b.wasm]")
			fmt.Fprintln(os.Stderr, "       run -e '<source>'")
			fmt.Fprintln(os.Stderr, "       run -i  (interactive mode)")
			os.Exit(1)
		}
		*interactive = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, options{
		scriptFile:  *scriptFile,
		expr:        *expr,
		configFile:  *configFile,
		wasmFiles:   *wasmFiles,
		interactive: *interactive,
		verbose:     *verbose,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	scriptFile  string
	expr        string
	configFile  string
	wasmFiles   string
	interactive bool
	verbose     bool
}

func run(ctx context.Context, o options) error {
	cfg := runtime.DefaultConfig()
	if o.configFile != "" {
		var err error
		if cfg, err = runtime.LoadConfig(o.configFile); err != nil {
			return err
		}
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if o.wasmFiles != "" {
		cfg.Wasm.Enabled = true
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	runtime.InstallLogger(logger)

	var out io.Writer = os.Stdout
	var console *syncBuffer
	if o.interactive {
		console = &syncBuffer{}
		out = console
	}

	rt, err := newRuntime(ctx, cfg, logger, out)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	if err := loadWasm(rt, o.wasmFiles); err != nil {
		return err
	}

	if o.interactive {
		return runInteractive(ctx, rt, console)
	}

	var result any
	if o.scriptFile != "" {
		result, err = rt.RunFile(ctx, o.scriptFile)
	} else {
		result, err = rt.RunString(ctx, o.expr)
	}
	if err != nil {
		return err
	}
	if result != nil {
		fmt.Println(rt.Format(result))
	}
	return nil
}

// newRuntime creates a runtime publishing a fresh document host as "app".
func newRuntime(ctx context.Context, cfg runtime.Config, logger *zap.Logger, out io.Writer) (*runtime.Runtime, error) {
	rt, err := runtime.New(ctx, cfg,
		runtime.WithLogger(logger),
		runtime.WithOutput(out),
		runtime.WithHooks(host.Install),
	)
	if err != nil {
		return nil, err
	}
	if err := rt.Set("app", host.New()); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return rt, nil
}

// loadWasm instantiates each module under its file name without extension.
func loadWasm(rt *runtime.Runtime, files string) error {
	if files == "" {
		return nil
	}
	for _, path := range strings.Split(files, ",") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, err := rt.Wasm().Load(name, data); err != nil {
			return err
		}
	}
	return nil
}
