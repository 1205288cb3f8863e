package host

import (
	"fmt"

	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/errors"
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R float64
	G float64
	B float64
	A float64
}

// ColorNone marks a style color explicitly set to "no color". A nil color
// means the color is unset.
var ColorNone = &Color{}

// ColorFromMap builds a color from a map holding r, g, b and an optional
// alpha a (default 1).
func ColorFromMap(m bridge.Map) (*Color, error) {
	c := &Color{}
	for _, ch := range []struct {
		key string
		dst *float64
		def float64
	}{
		{"r", &c.R, 0},
		{"g", &c.G, 0},
		{"b", &c.B, 0},
		{"a", &c.A, 1},
	} {
		v, err := number(m, ch.key, ch.def)
		if err != nil {
			return nil, err
		}
		if v < 0 || v > 1 {
			return nil, errors.New(errors.PhaseCoerce, errors.KindCoercionFailure).
				Path(ch.key).
				GoType("host.Color").
				Value(v).
				Detail("component %g outside [0, 1]", v).
				Build()
		}
		*ch.dst = v
	}
	return c, nil
}

// Hex returns the color as #rrggbb, or "none" for ColorNone.
func (c *Color) Hex() string {
	if c == ColorNone {
		return "none"
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int { return int(v*255 + 0.5) }

// Style holds an item's paint attributes.
type Style struct {
	FillColor   *Color
	StrokeColor *Color
	StrokeWidth float64
}

// DefaultStyle returns the style of new items: no fill set, a black
// one point stroke.
func DefaultStyle() *Style {
	return &Style{
		StrokeColor: &Color{A: 1},
		StrokeWidth: 1,
	}
}

// styleSentinels maps the color properties to the value standing for null.
var styleSentinels = map[string]any{
	"fillColor":   ColorNone,
	"strokeColor": ColorNone,
}
