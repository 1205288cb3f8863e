package host

import (
	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/errors"
)

// Install registers the style hook on f and the geometry and color
// constructors with f's resolver.
func Install(f *bridge.Factory) error {
	bridge.RegisterHook[*Style](f.Hooks(), bridge.NullSentinel(styleSentinels))

	r := f.Resolver()
	for _, ctor := range []any{NewRectangle, PointFromMap, ColorFromMap} {
		if err := r.Register(ctor); err != nil {
			return errors.Registration(errors.PhaseHost, "host constructors", err)
		}
	}
	return nil
}
