package canvas

import "github.com/efebarandurmaz/sikuliflow/internal/ir"

// Fixed node layout in world units.
const (
	NodeWidth  = 160.0
	NodeHeight = 80.0
	PortBaseY  = 32.0
	PortStep   = 22.0
)

// Anchor is the world position of one port, recomputed from the node's
// position and the port's index on every frame.
type Anchor struct {
	NodeID string
	PortID string
	Dir    ir.PortDirection
	Index  int
	Pos    ir.Point
}

// PortAnchor returns the world position of the port at index i on n.
// Inputs sit on the left edge and outputs on the right edge.
func PortAnchor(n ir.Node, dir ir.PortDirection, i int) ir.Point {
	x := n.Position.X
	if dir == ir.DirOutput {
		x += NodeWidth
	}
	return ir.Point{X: x, Y: n.Position.Y + PortBaseY + float64(i)*PortStep}
}

// NodeBounds returns the world rectangle covered by n.
func NodeBounds(n ir.Node) ir.Rect {
	return ir.Rect{
		Min: n.Position,
		Max: ir.Point{X: n.Position.X + NodeWidth, Y: n.Position.Y + NodeHeight},
	}
}

// Anchors builds the anchor registry for every port in g, in node order
// with inputs before outputs.
func Anchors(g ir.Graph) []Anchor {
	var out []Anchor
	for _, n := range g.Nodes {
		for i, p := range n.InputPorts {
			out = append(out, Anchor{NodeID: n.ID, PortID: p.ID, Dir: ir.DirInput, Index: i, Pos: PortAnchor(n, ir.DirInput, i)})
		}
		for i, p := range n.OutputPorts {
			out = append(out, Anchor{NodeID: n.ID, PortID: p.ID, Dir: ir.DirOutput, Index: i, Pos: PortAnchor(n, ir.DirOutput, i)})
		}
	}
	return out
}

// AnchorOf looks up the anchor of portID in g.
func AnchorOf(g ir.Graph, portID string) (Anchor, bool) {
	ref, ok := g.PortOwner(portID)
	if !ok {
		return Anchor{}, false
	}
	n, _ := g.Node(ref.NodeID)
	return Anchor{NodeID: ref.NodeID, PortID: portID, Dir: ref.Dir, Index: ref.Index, Pos: PortAnchor(n, ref.Dir, ref.Index)}, true
}

// EdgeCurve returns the curve drawn for e, or false when an endpoint is
// missing.
func EdgeCurve(g ir.Graph, e ir.Edge) (Bezier, bool) {
	from, ok := AnchorOf(g, e.FromPortID)
	if !ok {
		return Bezier{}, false
	}
	to, ok := AnchorOf(g, e.ToPortID)
	if !ok {
		return Bezier{}, false
	}
	return Connector(from.Pos, to.Pos), true
}
