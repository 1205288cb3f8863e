package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/engine"
	"github.com/wippyai/script-bridge/host"
	"github.com/wippyai/script-bridge/proxy"
	"github.com/wippyai/script-bridge/wasmhost"
)

// InstallLogger makes l the logger of every package of the module. Call it
// before creating runtimes; package loggers are not synchronized.
func InstallLogger(l *zap.Logger) {
	bridge.SetLogger(l.Named("bridge"))
	engine.SetLogger(l.Named("engine"))
	proxy.SetLogger(l.Named("proxy"))
	host.SetLogger(l.Named("host"))
	wasmhost.SetLogger(l.Named("wasm"))
}
