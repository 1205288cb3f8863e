// Package script defines the protocol the bridge uses to talk to an embedded
// scripting engine.
//
// The bridge never imports an engine directly. An engine implementation
// (see package engine for goja) provides value construction, host object
// adapters and function invocation through the Engine interface, and the
// bridge supplies HostObject, HostArray and HostFunc implementations that
// the engine exposes to scripts.
//
// Values crossing the protocol are engine values (Value). Go primitives are
// converted with Engine.ToValue and Engine.Primitive; everything else is
// adapted by the bridge.
package script
