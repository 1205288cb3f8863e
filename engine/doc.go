// Package engine binds the script protocol to the goja JavaScript runtime.
//
// Goja implements script.Engine. Host objects and host arrays become goja
// dynamic objects and dynamic arrays, so every property access and index
// operation from script code is forwarded to the bridge adapters. Host
// functions become native goja functions.
//
// # Errors
//
// Errors returned by host code are thrown into the running script:
//
//   - a *script.Error rethrows the original script value
//   - coercion and key errors become TypeErrors
//   - anything else becomes a GoError carrying the Go error
//
// Going the other way, Error converts a goja exception back. A GoError or
// bridge TypeError yields the Go error it carries, so a failure that crosses
// the boundary twice arrives unchanged. Other exceptions become *script.Error values
// with the thrown value, its message and the innermost stack frame.
//
// # Usage
//
//	rt := goja.New()
//	eng := engine.NewGoja(rt)
//	f := bridge.New(eng)
//	v, err := f.Wrap(document)
//	if err != nil {
//		return err
//	}
//	rt.Set("doc", v)
package engine
