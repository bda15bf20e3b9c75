package canvas

import (
	"time"

	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// Trail is the fading stroke left behind by a released erase gesture.
type Trail struct {
	Points   []ir.Point
	Released time.Time
	Duration time.Duration
	Width    float64
}

// Progress returns the elapsed fraction of the fade, clamped to [0, 1].
func (t Trail) Progress(now time.Time) float64 {
	if t.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(t.Released)) / float64(t.Duration)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Opacity fades linearly from 1 to 0 over the trail duration.
func (t Trail) Opacity(now time.Time) float64 {
	return 1 - t.Progress(now)
}

// StrokeWidth fades linearly from Width to 0 over the trail duration.
func (t Trail) StrokeWidth(now time.Time) float64 {
	return t.Width * (1 - t.Progress(now))
}

// Done reports whether the trail has fully faded.
func (t Trail) Done(now time.Time) bool {
	return t.Progress(now) >= 1
}
