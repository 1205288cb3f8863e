package host

import (
	"math"

	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/errors"
)

// Point is a position or offset in document coordinates.
type Point struct {
	X float64
	Y float64
}

// PointFromMap builds a point from a map holding x and y.
func PointFromMap(m bridge.Map) (Point, error) {
	x, err := number(m, "x", 0)
	if err != nil {
		return Point{}, err
	}
	y, err := number(m, "y", 0)
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func (p Point) Add(q Point) Point      { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Subtract(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Length returns the distance from the origin.
func (p Point) Length() float64 { return math.Hypot(p.X, p.Y) }

// Rectangle is an axis aligned box. X and Y name the top left corner.
type Rectangle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRectangle returns an empty rectangle at the origin.
func NewRectangle() Rectangle { return Rectangle{} }

// Center returns the midpoint of r.
func (r Rectangle) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r or on its edge.
func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Translate returns r moved by d.
func (r Rectangle) Translate(d Point) Rectangle {
	r.X += d.X
	r.Y += d.Y
	return r
}

func (r Rectangle) validate() error {
	if r.Width < 0 || r.Height < 0 {
		return errors.New(errors.PhaseHost, errors.KindInvalidInput).
			GoType("host.Rectangle").
			Value(r).
			Detail("negative size %gx%g", r.Width, r.Height).
			Build()
	}
	return nil
}

// number reads a numeric entry of m, returning def when the key is absent.
func number(m bridge.Map, key string, def float64) (float64, error) {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	}
	return 0, errors.New(errors.PhaseCoerce, errors.KindCoercionFailure).
		Path(key).
		GoType("float64").
		Value(v).
		Detail("%v is not a number", v).
		Build()
}
