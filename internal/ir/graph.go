package ir

// Graph is the flow graph edited on the canvas and compiled to a script.
// It is treated as an immutable value: every mutation returns a new Graph and
// never writes into slices reachable from the receiver.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Point is a 2D coordinate, in screen or world space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p*s.
func (p Point) Scale(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Rect is an axis-aligned rectangle. Min is the top-left corner.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// RectFromPoints builds a normalized rectangle spanning a and b.
func RectFromPoints(a, b Point) Rect {
	r := Rect{Min: a, Max: b}
	if r.Min.X > r.Max.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Min.Y > r.Max.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}

// Overlaps reports whether r and o share any area or touch.
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X &&
		r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Port is a typed connection point. Its direction is determined by which
// port list of the owning node holds it.
type Port struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PortDirection classifies a port as input or output.
type PortDirection string

const (
	DirInput  PortDirection = "input"
	DirOutput PortDirection = "output"
)

// Opposite returns the complementary direction.
func (d PortDirection) Opposite() PortDirection {
	if d == DirInput {
		return DirOutput
	}
	return DirInput
}

// NodeType is the closed set of node kinds.
type NodeType string

const (
	NodeInput        NodeType = "Input"
	NodeOutput       NodeType = "Output"
	NodeImageClick   NodeType = "ImageClick"
	NodeWait         NodeType = "Wait"
	NodeIf           NodeType = "If"
	NodeLoop         NodeType = "Loop"
	NodeSetVar       NodeType = "SetVar"
	NodeCallFunction NodeType = "CallFunction"
)

// NodeTypes lists every node type in palette order.
var NodeTypes = []NodeType{
	NodeInput, NodeOutput, NodeImageClick, NodeWait,
	NodeIf, NodeLoop, NodeSetVar, NodeCallFunction,
}

// Valid reports whether t is a member of the enumeration.
func (t NodeType) Valid() bool {
	for _, known := range NodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Node is a single step of the flow.
type Node struct {
	ID          string
	Type        NodeType
	Label       string
	Position    Point
	InputPorts  []Port
	OutputPorts []Port
	Data        NodeData
	Selected    bool
}

// Ports returns the port list for the given direction.
func (n Node) Ports(dir PortDirection) []Port {
	if dir == DirInput {
		return n.InputPorts
	}
	return n.OutputPorts
}

// PortIndex returns the position of portID within the list for dir, or -1.
func (n Node) PortIndex(dir PortDirection, portID string) int {
	for i, p := range n.Ports(dir) {
		if p.ID == portID {
			return i
		}
	}
	return -1
}

// Clone returns a copy of n that shares no slices with it.
func (n Node) Clone() Node {
	c := n
	c.InputPorts = clonePorts(n.InputPorts)
	c.OutputPorts = clonePorts(n.OutputPorts)
	return c
}

func clonePorts(ps []Port) []Port {
	if ps == nil {
		return nil
	}
	out := make([]Port, len(ps))
	copy(out, ps)
	return out
}

// Edge connects an output port of one node to an input port of another.
type Edge struct {
	ID         string `json:"id"`
	FromNodeID string `json:"fromNodeId"`
	FromPortID string `json:"fromPortId"`
	ToNodeID   string `json:"toNodeId"`
	ToPortID   string `json:"toPortId"`
}

// Touches reports whether the edge has an endpoint on node id.
func (e Edge) Touches(id string) bool {
	return e.FromNodeID == id || e.ToNodeID == id
}

// FunctionDef is a named, independently stored subgraph. Inputs and Outputs
// are a cached projection of the ports of its own Input/Output nodes.
type FunctionDef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Graph   Graph  `json:"graph"`
	Inputs  []Port `json:"inputs"`
	Outputs []Port `json:"outputs"`
}

// Clone returns a deep copy of the definition.
func (d FunctionDef) Clone() FunctionDef {
	c := d
	c.Graph = d.Graph.Clone()
	c.Inputs = clonePorts(d.Inputs)
	c.Outputs = clonePorts(d.Outputs)
	return c
}

// Clone returns a deep copy of g.
func (g Graph) Clone() Graph {
	out := Graph{}
	if g.Nodes != nil {
		out.Nodes = make([]Node, len(g.Nodes))
		for i, n := range g.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	if g.Edges != nil {
		out.Edges = make([]Edge, len(g.Edges))
		copy(out.Edges, g.Edges)
	}
	return out
}

// Node looks up a node by id.
func (g Graph) Node(id string) (Node, bool) {
	if i := g.nodeIndex(id); i >= 0 {
		return g.Nodes[i], true
	}
	return Node{}, false
}

func (g Graph) nodeIndex(id string) int {
	for i, n := range g.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// PortRef locates a port inside a graph.
type PortRef struct {
	NodeID string
	PortID string
	Dir    PortDirection
	Index  int
}

// PortOwner finds the node and direction holding portID.
func (g Graph) PortOwner(portID string) (PortRef, bool) {
	for _, n := range g.Nodes {
		if i := n.PortIndex(DirInput, portID); i >= 0 {
			return PortRef{NodeID: n.ID, PortID: portID, Dir: DirInput, Index: i}, true
		}
		if i := n.PortIndex(DirOutput, portID); i >= 0 {
			return PortRef{NodeID: n.ID, PortID: portID, Dir: DirOutput, Index: i}, true
		}
	}
	return PortRef{}, false
}

// IncomingEdge returns the edge terminating at the given input port, if any.
func (g Graph) IncomingEdge(toPortID string) (Edge, bool) {
	for _, e := range g.Edges {
		if e.ToPortID == toPortID {
			return e, true
		}
	}
	return Edge{}, false
}

// Selected returns the selected nodes in array order.
func (g Graph) Selected() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Selected {
			out = append(out, n)
		}
	}
	return out
}

// SelectedIDs returns the ids of selected nodes in array order.
func (g Graph) SelectedIDs() []string {
	var out []string
	for _, n := range g.Nodes {
		if n.Selected {
			out = append(out, n.ID)
		}
	}
	return out
}
