// Package camera maps between screen and world coordinates of the canvas.
// All operations are pure and return a new Camera.
package camera

import "github.com/efebarandurmaz/sikuliflow/internal/ir"

// Camera is a uniform scale followed by a translation: screen = world*Scale + Offset.
type Camera struct {
	Scale  float64  `json:"scale"`
	Offset ir.Point `json:"offset"`
}

// Limits bounds zooming.
type Limits struct {
	MinScale    float64
	MaxScale    float64
	Sensitivity float64
}

// DefaultLimits matches the stock canvas: scale in [0.25, 2], k = 0.001.
func DefaultLimits() Limits {
	return Limits{MinScale: 0.25, MaxScale: 2, Sensitivity: 0.001}
}

// Identity is the camera with unit scale and no offset.
func Identity() Camera {
	return Camera{Scale: 1}
}

// ToWorld converts a screen point to world space.
func (c Camera) ToWorld(p ir.Point) ir.Point {
	s := c.scale()
	return ir.Point{X: (p.X - c.Offset.X) / s, Y: (p.Y - c.Offset.Y) / s}
}

// ToScreen converts a world point to screen space.
func (c Camera) ToScreen(p ir.Point) ir.Point {
	s := c.scale()
	return ir.Point{X: p.X*s + c.Offset.X, Y: p.Y*s + c.Offset.Y}
}

// WorldLength converts a screen-space distance to world units.
func (c Camera) WorldLength(screen float64) float64 {
	return screen / c.scale()
}

// ZoomAt rescales by scale*(1-delta*k), clamped to the limits, keeping the
// world point under screen point p fixed.
func (c Camera) ZoomAt(p ir.Point, delta float64, l Limits) Camera {
	anchor := c.ToWorld(p)
	next := Camera{Scale: l.Clamp(c.scale() * (1 - delta*l.Sensitivity))}
	next.Offset = ir.Point{
		X: p.X - anchor.X*next.Scale,
		Y: p.Y - anchor.Y*next.Scale,
	}
	return next
}

// Pan shifts the offset by a screen-space delta.
func (c Camera) Pan(delta ir.Point) Camera {
	return Camera{Scale: c.Scale, Offset: c.Offset.Add(delta)}
}

// Clamp bounds s to [MinScale, MaxScale]. Zero bounds are ignored.
func (l Limits) Clamp(s float64) float64 {
	if l.MinScale > 0 && s < l.MinScale {
		return l.MinScale
	}
	if l.MaxScale > 0 && s > l.MaxScale {
		return l.MaxScale
	}
	return s
}

func (c Camera) scale() float64 {
	if c.Scale <= 0 {
		return 1
	}
	return c.Scale
}
