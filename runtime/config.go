package runtime

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/wasmhost"
)

// Config is the runtime configuration, usually loaded from a TOML file:
//
//	[bridge]
//	cache_capacity = 512
//	names = "lower_camel"
//
//	[log]
//	level = "debug"
//	encoding = "console"
//
//	[script]
//	timeout = "5s"
//	max_call_stack = 1024
//
//	[wasm]
//	enabled = true
//	memory_limit_pages = 256
type Config struct {
	Bridge BridgeConfig `toml:"bridge"`
	Log    LogConfig    `toml:"log"`
	Script ScriptConfig `toml:"script"`
	Wasm   WasmConfig   `toml:"wasm"`
}

// BridgeConfig configures the bridge factory and proxy registries.
type BridgeConfig struct {
	// CacheCapacity is a size hint for the identity cache.
	CacheCapacity int `toml:"cache_capacity"`
	// RegistryCapacity is a size hint for handle registries.
	RegistryCapacity int `toml:"registry_capacity"`
	// Names selects how Go member names appear in scripts: "lower_camel"
	// (Name -> name) or "go" (unchanged).
	Names string `toml:"names"`
}

// LogConfig configures the zap logger shared by all packages.
type LogConfig struct {
	Level       string `toml:"level"`
	Encoding    string `toml:"encoding"` // json or console
	Development bool   `toml:"development"`
}

// ScriptConfig limits script execution.
type ScriptConfig struct {
	// Timeout interrupts a single run. Zero disables it.
	Timeout Duration `toml:"timeout"`
	// MaxCallStack bounds the script call depth. Zero keeps the engine default.
	MaxCallStack int `toml:"max_call_stack"`
	// Console installs a console object writing to the runtime output.
	Console bool `toml:"console"`
}

// WasmConfig controls the WebAssembly host exposed as the "wasm" global.
type WasmConfig struct {
	Enabled          bool   `toml:"enabled"`
	MemoryLimitPages uint32 `toml:"memory_limit_pages"`
	Threads          bool   `toml:"threads"`
}

// Duration is a time.Duration written as a string such as "1.5s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	bc := bridge.DefaultConfig()
	return Config{
		Bridge: BridgeConfig{
			CacheCapacity:    bc.CacheCapacity,
			RegistryCapacity: 64,
			Names:            "lower_camel",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Script: ScriptConfig{
			Console: true,
		},
		Wasm: WasmConfig{
			MemoryLimitPages: wasmhost.DefaultConfig().MemoryLimitPages,
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Unknown keys are
// an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Config("decode "+path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ParseConfig decodes TOML text on top of DefaultConfig.
func ParseConfig(text string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, errors.Config("decode config", err)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func checkUndecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return errors.Config("unknown keys: "+strings.Join(names, ", "), nil)
}

// Validate checks values that decoding cannot.
func (c Config) Validate() error {
	switch c.Bridge.Names {
	case "", "lower_camel", "go":
	default:
		return errors.Config("bridge.names must be lower_camel or go, got "+c.Bridge.Names, nil)
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return errors.Config("log.encoding must be json or console, got "+c.Log.Encoding, nil)
	}
	if _, err := zapcore.ParseLevel(c.levelText()); err != nil {
		return errors.Config("log.level", err)
	}
	if c.Script.Timeout < 0 || c.Script.MaxCallStack < 0 {
		return errors.Config("script limits cannot be negative", nil)
	}
	return nil
}

func (c Config) levelText() string {
	if c.Log.Level == "" {
		return "info"
	}
	return c.Log.Level
}

// NewLogger builds the zap logger described by c.Log.
func (c Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(c.levelText())
	if err != nil {
		return nil, errors.Config("log.level", err)
	}
	zc.Level = level
	if c.Log.Encoding != "" {
		zc.Encoding = c.Log.Encoding
	}
	if zc.Encoding == "console" {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	l, err := zc.Build()
	if err != nil {
		return nil, errors.Config("build logger", err)
	}
	return l, nil
}

func (c Config) nameMapper() bridge.NameMapper {
	if c.Bridge.Names == "go" {
		return func(s string) string { return s }
	}
	return bridge.LowerCamel
}
