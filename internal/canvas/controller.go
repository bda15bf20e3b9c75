// Package canvas turns pointer, wheel, key and drop events into graph edits.
//
// The Controller is a gesture state machine. It reads the camera to convert
// screen samples into world coordinates, mutates graphs through the ir
// store operations and records every edit through a history.Manager, so a
// gesture of any length yields at most one undo step.
package canvas

import (
	"time"

	"github.com/efebarandurmaz/sikuliflow/internal/camera"
	"github.com/efebarandurmaz/sikuliflow/internal/funcdef"
	"github.com/efebarandurmaz/sikuliflow/internal/history"
	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// State is the active gesture.
type State int

const (
	Idle State = iota
	DraggingNode
	Connecting
	Panning
	MarqueeSelecting
	Erasing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DraggingNode:
		return "dragging"
	case Connecting:
		return "connecting"
	case Panning:
		return "panning"
	case MarqueeSelecting:
		return "marquee"
	case Erasing:
		return "erasing"
	default:
		return "unknown"
	}
}

// ExtractFunc receives a definition produced by the group shortcut.
type ExtractFunc func(def ir.FunctionDef, report funcdef.Report)

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now for trail timing.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithCamera sets the initial camera.
func WithCamera(cam camera.Camera) Option {
	return func(c *Controller) { c.cam = cam }
}

// OnExtract registers the callback invoked after a group extraction.
func OnExtract(fn ExtractFunc) Option {
	return func(c *Controller) { c.onExtract = fn }
}

type dragGesture struct {
	nodeID string
	grab   ir.Point
}

type connectGesture struct {
	origin Anchor
	cursor ir.Point
	snap   *Anchor
}

type marqueeGesture struct {
	start ir.Point
	end   ir.Point
	base  ir.Graph
}

type eraseGesture struct {
	path     []ir.Point
	nodes    map[string]bool
	edges    map[string]bool
	canceled bool
}

// Controller owns the camera and gesture state for one editing surface.
type Controller struct {
	hist      *history.Manager
	ids       idgen.Generator
	cfg       Config
	cam       camera.Camera
	now       func() time.Time
	onExtract ExtractFunc

	state   State
	drag    dragGesture
	connect connectGesture
	panLast ir.Point
	marquee marqueeGesture
	erase   eraseGesture
	trail   *Trail
}

// New returns a Controller editing the graph held by hist.
func New(hist *history.Manager, ids idgen.Generator, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		hist: hist,
		ids:  ids,
		cfg:  cfg.withDefaults(),
		cam:  camera.Identity(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the active gesture.
func (c *Controller) State() State { return c.state }

// Camera returns the current viewport transform.
func (c *Controller) Camera() camera.Camera { return c.cam }

// SetCamera replaces the viewport transform.
func (c *Controller) SetCamera(cam camera.Camera) { c.cam = cam }

// Graph returns the graph as currently displayed, including live previews.
func (c *Controller) Graph() ir.Graph { return c.hist.Current() }

// History exposes the underlying manager.
func (c *Controller) History() *history.Manager { return c.hist }

// PointerDown starts a gesture according to the button and what lies
// under the pointer.
func (c *Controller) PointerDown(ev PointerEvent) {
	if c.state != Idle {
		return
	}
	g := c.hist.Current()
	w := c.cam.ToWorld(ev.Pos)

	switch ev.Button {
	case ButtonMiddle:
		c.hist.Replace(g.SetSelection(func(ir.Node) bool { return false }))
		c.panLast = ev.Pos
		c.state = Panning

	case ButtonPrimary:
		anchors := Anchors(g)
		if a, ok := PortAt(anchors, w, c.cam.WorldLength(c.cfg.PortRadius)); ok {
			c.connect = connectGesture{origin: a, cursor: w}
			c.state = Connecting
			return
		}
		if n, ok := NodeAt(g, w); ok {
			c.hist.Begin()
			c.hist.SetLive(g.SetSelection(func(x ir.Node) bool {
				return x.ID == n.ID || (ev.Shift && x.Selected)
			}))
			c.drag = dragGesture{nodeID: n.ID, grab: w.Sub(n.Position)}
			c.state = DraggingNode
			return
		}
		c.hist.BeginLive()
		c.marquee = marqueeGesture{start: w, end: w, base: g}
		c.applyMarquee()
		c.state = MarqueeSelecting

	case ButtonSecondary:
		if _, ok := NodeAt(g, w); ok {
			return
		}
		c.erase = eraseGesture{nodes: map[string]bool{}, edges: map[string]bool{}}
		c.trail = nil
		c.state = Erasing
		c.eraseSample(w)
	}
}

// PointerMove feeds a pointer sample to the active gesture.
func (c *Controller) PointerMove(ev PointerEvent) {
	w := c.cam.ToWorld(ev.Pos)
	switch c.state {
	case DraggingNode:
		c.hist.SetLive(c.hist.Current().MoveNode(c.drag.nodeID, w.Sub(c.drag.grab)))

	case Connecting:
		g := c.hist.Current()
		c.connect.cursor = w
		c.connect.snap = nil
		if a, ok := SnapTarget(g, Anchors(g), c.connect.origin, w, c.cam.WorldLength(c.cfg.SnapRadius)); ok {
			c.connect.snap = &a
		}

	case Panning:
		c.cam = c.cam.Pan(ev.Pos.Sub(c.panLast))
		c.panLast = ev.Pos

	case MarqueeSelecting:
		c.marquee.end = w
		c.applyMarquee()

	case Erasing:
		c.eraseSample(w)
	}
}

// PointerUp finalizes the active gesture.
func (c *Controller) PointerUp(ev PointerEvent) {
	switch c.state {
	case DraggingNode:
		c.hist.Commit()

	case Connecting:
		c.PointerMove(ev)
		if c.connect.snap != nil {
			edge := candidateEdge(c.ids.NewID(), c.connect.origin, *c.connect.snap)
			if g, ok := c.hist.Current().AddEdge(edge); ok {
				c.hist.Apply(g)
			}
		}
		c.connect = connectGesture{}

	case Panning:

	case MarqueeSelecting:
		c.hist.Commit()
		c.marquee = marqueeGesture{}

	case Erasing:
		if !c.erase.canceled && !ev.InCancelZone && (len(c.erase.nodes) > 0 || len(c.erase.edges) > 0) {
			g := c.hist.Current().
				RemoveEdges(keys(c.erase.edges)...).
				RemoveNodes(keys(c.erase.nodes)...)
			c.hist.Apply(g)
		}
		c.trail = &Trail{
			Points:   c.erase.path,
			Released: c.now(),
			Duration: c.cfg.TrailDuration,
			Width:    c.cfg.TrailWidth,
		}
		c.erase = eraseGesture{}
	}
	c.state = Idle
}

// Wheel zooms around the pointer.
func (c *Controller) Wheel(ev WheelEvent) {
	c.cam = c.cam.ZoomAt(ev.Pos, ev.Delta, c.cfg.Limits)
}

// Key handles keyboard shortcuts. It reports whether the key was consumed.
func (c *Controller) Key(ev KeyEvent) bool {
	switch {
	case ev.Key == "escape":
		if c.state == Erasing {
			c.erase.nodes = map[string]bool{}
			c.erase.edges = map[string]bool{}
			c.erase.canceled = true
			return true
		}
		return false

	case ev.Ctrl && ev.Key == "z" && !ev.Shift:
		c.endGesture()
		return c.hist.Undo()

	case ev.Ctrl && (ev.Key == "y" || (ev.Key == "z" && ev.Shift)):
		c.endGesture()
		return c.hist.Redo()
	}

	if c.state != Idle || ev.Ctrl || ev.Alt {
		return false
	}
	switch ev.Key {
	case "delete", "backspace":
		g := c.hist.Current()
		if len(g.SelectedIDs()) == 0 {
			return false
		}
		c.hist.Apply(g.RemoveSelected())
		return true
	case c.cfg.GroupKey:
		return c.Group()
	}
	return false
}

// Group extracts the current selection into a new FunctionDef when it
// contains an Input node.
func (c *Controller) Group() bool {
	g := c.hist.Current()
	ex, ok := funcdef.Extract(g, g.SelectedIDs(), c.ids)
	if !ok {
		return false
	}
	c.hist.Apply(ex.Host)
	if c.onExtract != nil {
		c.onExtract(ex.Def, ex.Report)
	}
	return true
}

// Drop instantiates a node from a palette payload under the pointer.
// Malformed payloads are ignored.
func (c *Controller) Drop(ev DropEvent) bool {
	it, ok := DecodeItem(ev.Payload)
	if !ok {
		return false
	}
	return c.Place(it, c.cam.ToWorld(ev.Pos))
}

// Place adds a node built from it at world position pos as one edit.
func (c *Controller) Place(it Item, pos ir.Point) bool {
	g := c.hist.Current()
	next := g.AddNode(NewNode(it, pos, c.ids))
	if len(next.Nodes) == len(g.Nodes) {
		return false
	}
	c.hist.Apply(next)
	return true
}

func (c *Controller) endGesture() {
	switch c.state {
	case DraggingNode, MarqueeSelecting:
		c.hist.Commit()
	case Erasing:
		c.erase = eraseGesture{}
	}
	c.connect = connectGesture{}
	c.state = Idle
}

func (c *Controller) applyMarquee() {
	r := ir.RectFromPoints(c.marquee.start, c.marquee.end)
	c.hist.SetLive(c.marquee.base.SetSelection(func(n ir.Node) bool {
		return NodeBounds(n).Overlaps(r)
	}))
}

func (c *Controller) eraseSample(w ir.Point) {
	from := w
	if n := len(c.erase.path); n > 0 {
		from = c.erase.path[n-1]
	}
	c.erase.path = append(c.erase.path, w)
	if c.erase.canceled {
		return
	}
	nodes, edges := EraseHits(c.hist.Current(), from, w, c.cam.WorldLength(c.cfg.EraseRadius), c.cfg.CurveSegments)
	for _, id := range nodes {
		c.erase.nodes[id] = true
	}
	for _, id := range edges {
		c.erase.edges[id] = true
	}
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
