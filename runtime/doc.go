// Package runtime ties a goja engine, a bridge factory and native hosts
// into one script execution context.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.DefaultConfig(), runtime.WithHooks(host.Install))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	app := host.New()
//	rt.Set("app", app)
//
//	v, err := rt.RunString(ctx, `
//	    const doc = app.createDocument("poster")
//	    doc.createRectangle({width: 10, height: 5}).document === doc
//	`)
//	fmt.Println(v) // true
//
// # Configuration
//
// LoadConfig reads a TOML file with [bridge], [log], [script] and [wasm]
// sections on top of DefaultConfig. Config.NewLogger builds the zap logger
// described by [log]; InstallLogger hands it to every package.
//
// # Hosts
//
// Any Go value can be published with Set. Types implementing Host are
// published under their namespace with RegisterHost, and loose functions
// are grouped into namespace objects with RegisterFunc:
//
//	rt.RegisterFunc("util", "upper", strings.ToUpper)
//	rt.RunString(ctx, `util.upper("x")`) // "X"
//
// # Interrupts
//
// Runs stop when their context is cancelled or when [script] timeout
// expires. The returned error wraps the context error.
package runtime
