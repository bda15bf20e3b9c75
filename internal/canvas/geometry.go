package canvas

import (
	"math"

	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// Bezier is a cubic curve with endpoints P0, P3 and controls P1, P2.
type Bezier struct {
	P0, P1, P2, P3 ir.Point
}

// Connector builds the curve between an output anchor and an input anchor.
// Both controls share the mid x so the curve leaves and arrives horizontally.
func Connector(from, to ir.Point) Bezier {
	mx := (from.X + to.X) / 2
	return Bezier{
		P0: from,
		P1: ir.Point{X: mx, Y: from.Y},
		P2: ir.Point{X: mx, Y: to.Y},
		P3: to,
	}
}

// At evaluates the curve at t in [0, 1].
func (b Bezier) At(t float64) ir.Point {
	u := 1 - t
	a := u * u * u
	c1 := 3 * u * u * t
	c2 := 3 * u * t * t
	d := t * t * t
	return ir.Point{
		X: a*b.P0.X + c1*b.P1.X + c2*b.P2.X + d*b.P3.X,
		Y: a*b.P0.Y + c1*b.P1.Y + c2*b.P2.Y + d*b.P3.Y,
	}
}

// Sample returns n+1 points splitting the curve into n segments.
func (b Bezier) Sample(n int) []ir.Point {
	if n < 1 {
		n = 1
	}
	pts := make([]ir.Point, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = b.At(float64(i) / float64(n))
	}
	return pts
}

// SegmentDistance returns the distance from p to the segment ab.
func SegmentDistance(p, a, b ir.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return dist(p, a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return dist(p, a.Add(ab.Scale(t)))
}

// SegmentsDistance returns the distance between segments ab and cd, zero
// when they cross.
func SegmentsDistance(a, b, c, d ir.Point) float64 {
	if segmentsCross(a, b, c, d) {
		return 0
	}
	return math.Min(
		math.Min(SegmentDistance(a, c, d), SegmentDistance(b, c, d)),
		math.Min(SegmentDistance(c, a, b), SegmentDistance(d, a, b)),
	)
}

// SegmentRectDistance returns the distance from segment ab to the filled
// rectangle r.
func SegmentRectDistance(a, b ir.Point, r ir.Rect) float64 {
	if r.Contains(a) || r.Contains(b) {
		return 0
	}
	corners := []ir.Point{r.Min, {X: r.Max.X, Y: r.Min.Y}, r.Max, {X: r.Min.X, Y: r.Max.Y}}
	best := math.Inf(1)
	for i := range corners {
		if d := SegmentsDistance(a, b, corners[i], corners[(i+1)%len(corners)]); d < best {
			best = d
		}
	}
	return best
}

// PolylineSegmentDistance returns the smallest distance between segment ab
// and any segment of pts.
func PolylineSegmentDistance(a, b ir.Point, pts []ir.Point) float64 {
	switch len(pts) {
	case 0:
		return math.Inf(1)
	case 1:
		return SegmentDistance(pts[0], a, b)
	}
	best := math.Inf(1)
	for i := 1; i < len(pts); i++ {
		if d := SegmentsDistance(a, b, pts[i-1], pts[i]); d < best {
			best = d
		}
	}
	return best
}

func segmentsCross(a, b, c, d ir.Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(o, a, b ir.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func dist(a, b ir.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
