package canvas

import (
	"sort"

	"github.com/efebarandurmaz/sikuliflow/internal/camera"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// EdgePath is a drawable edge with its erase highlight flag.
type EdgePath struct {
	ID     string
	Curve  Bezier
	Marked bool
}

// TrailFrame is the trail as drawn at a given instant.
type TrailFrame struct {
	Points  []ir.Point
	Opacity float64
	Width   float64
}

// Frame is an immutable render snapshot of the canvas. Geometry is in world
// units; apply Camera to reach screen space.
type Frame struct {
	Graph       ir.Graph
	Camera      camera.Camera
	State       State
	Anchors     []Anchor
	Edges       []EdgePath
	Preview     *Bezier
	Snap        *Anchor
	Marquee     *ir.Rect
	ErasePath   []ir.Point
	MarkedNodes []string
	Trail       *TrailFrame
}

// Frame builds the render snapshot for the current instant.
func (c *Controller) Frame() Frame {
	g := c.hist.Current()
	f := Frame{
		Graph:   g,
		Camera:  c.cam,
		State:   c.state,
		Anchors: Anchors(g),
	}
	for _, e := range g.Edges {
		curve, ok := EdgeCurve(g, e)
		if !ok {
			continue
		}
		f.Edges = append(f.Edges, EdgePath{ID: e.ID, Curve: curve, Marked: c.erase.edges[e.ID]})
	}

	switch c.state {
	case Connecting:
		end := c.connect.cursor
		if c.connect.snap != nil {
			snap := *c.connect.snap
			f.Snap = &snap
			end = snap.Pos
		}
		var preview Bezier
		if c.connect.origin.Dir == ir.DirOutput {
			preview = Connector(c.connect.origin.Pos, end)
		} else {
			preview = Connector(end, c.connect.origin.Pos)
		}
		f.Preview = &preview
	case MarqueeSelecting:
		r := ir.RectFromPoints(c.marquee.start, c.marquee.end)
		f.Marquee = &r
	case Erasing:
		f.ErasePath = append([]ir.Point(nil), c.erase.path...)
		f.MarkedNodes = keys(c.erase.nodes)
		sort.Strings(f.MarkedNodes)
	}

	if c.trail != nil {
		now := c.now()
		if c.trail.Done(now) {
			c.trail = nil
		} else {
			f.Trail = &TrailFrame{
				Points:  c.trail.Points,
				Opacity: c.trail.Opacity(now),
				Width:   c.trail.StrokeWidth(now),
			}
		}
	}
	return f
}

// Animating reports whether the host should keep redrawing without input.
func (c *Controller) Animating() bool {
	return c.trail != nil && !c.trail.Done(c.now())
}
