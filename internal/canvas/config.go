package canvas

import (
	"time"

	"github.com/efebarandurmaz/sikuliflow/internal/camera"
)

// Config holds the tunable constants of the controller. Radii are in
// screen pixels and are converted to world units with the current zoom.
type Config struct {
	SnapRadius    float64
	PortRadius    float64
	EraseRadius   float64
	CurveSegments int
	TrailDuration time.Duration
	TrailWidth    float64
	GroupKey      string
	Limits        camera.Limits
}

// DefaultConfig returns the stock canvas settings.
func DefaultConfig() Config {
	return Config{
		SnapRadius:    16,
		PortRadius:    8,
		EraseRadius:   12,
		CurveSegments: 24,
		TrailDuration: 300 * time.Millisecond,
		TrailWidth:    6,
		GroupKey:      "g",
		Limits:        camera.DefaultLimits(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SnapRadius <= 0 {
		c.SnapRadius = d.SnapRadius
	}
	if c.PortRadius <= 0 {
		c.PortRadius = d.PortRadius
	}
	if c.EraseRadius <= 0 {
		c.EraseRadius = d.EraseRadius
	}
	if c.CurveSegments <= 0 {
		c.CurveSegments = d.CurveSegments
	}
	if c.TrailDuration <= 0 {
		c.TrailDuration = d.TrailDuration
	}
	if c.TrailWidth <= 0 {
		c.TrailWidth = d.TrailWidth
	}
	if c.GroupKey == "" {
		c.GroupKey = d.GroupKey
	}
	if c.Limits == (camera.Limits{}) {
		c.Limits = d.Limits
	}
	return c
}
