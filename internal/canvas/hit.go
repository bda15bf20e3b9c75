package canvas

import (
	"math"

	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// PortAt returns the anchor nearest to p within radius world units.
func PortAt(anchors []Anchor, p ir.Point, radius float64) (Anchor, bool) {
	best, bestD := Anchor{}, math.Inf(1)
	for _, a := range anchors {
		if d := dist(p, a.Pos); d <= radius && d < bestD {
			best, bestD = a, d
		}
	}
	return best, !math.IsInf(bestD, 1)
}

// NodeAt returns the topmost node whose body contains p. Later nodes draw
// above earlier ones.
func NodeAt(g ir.Graph, p ir.Point) (ir.Node, bool) {
	for i := len(g.Nodes) - 1; i >= 0; i-- {
		if NodeBounds(g.Nodes[i]).Contains(p) {
			return g.Nodes[i], true
		}
	}
	return ir.Node{}, false
}

// SnapTarget finds the nearest port within radius that origin may connect
// to: opposite direction, another node, and an edge the graph would accept.
func SnapTarget(g ir.Graph, anchors []Anchor, origin Anchor, p ir.Point, radius float64) (Anchor, bool) {
	best, bestD := Anchor{}, math.Inf(1)
	for _, a := range anchors {
		if a.Dir != origin.Dir.Opposite() || a.NodeID == origin.NodeID {
			continue
		}
		d := dist(p, a.Pos)
		if d > radius || d >= bestD {
			continue
		}
		if !g.CanConnect(candidateEdge("", origin, a)) {
			continue
		}
		best, bestD = a, d
	}
	return best, !math.IsInf(bestD, 1)
}

// candidateEdge orients an edge between two anchors from output to input.
func candidateEdge(id string, a, b Anchor) ir.Edge {
	if a.Dir == ir.DirInput {
		a, b = b, a
	}
	return ir.Edge{ID: id, FromNodeID: a.NodeID, FromPortID: a.PortID, ToNodeID: b.NodeID, ToPortID: b.PortID}
}

// EraseHits returns the ids of nodes and edges lying within radius of the
// stroke from a to b. A single sample passes a == b. Edge curves are sampled
// into segments pieces.
func EraseHits(g ir.Graph, a, b ir.Point, radius float64, segments int) (nodes, edges []string) {
	for _, n := range g.Nodes {
		if SegmentRectDistance(a, b, NodeBounds(n)) <= radius {
			nodes = append(nodes, n.ID)
		}
	}
	for _, e := range g.Edges {
		curve, ok := EdgeCurve(g, e)
		if !ok {
			continue
		}
		if PolylineSegmentDistance(a, b, curve.Sample(segments)) <= radius {
			edges = append(edges, e.ID)
		}
	}
	return nodes, edges
}
