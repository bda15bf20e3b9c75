// Package funcdef implements function abstraction: extracting a selection
// into a FunctionDef and keeping call sites in sync with a definition's
// signature.
package funcdef

import (
	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// NamePrefix starts every generated definition name.
const NamePrefix = "Func_"

// Report counts what an operation touched. Dropped edges are not errors;
// they are the edges the operation could not carry over.
type Report struct {
	Nodes   int `json:"nodes"`
	Rebound int `json:"rebound"`
	Dropped int `json:"dropped"`
}

// Add accumulates o into r.
func (r Report) Add(o Report) Report {
	return Report{Nodes: r.Nodes + o.Nodes, Rebound: r.Rebound + o.Rebound, Dropped: r.Dropped + o.Dropped}
}

// Extraction is the result of Extract.
type Extraction struct {
	Def  ir.FunctionDef
	Host ir.Graph
	Call ir.Node
	// Report.Nodes is the number of nodes moved into Def; Report.Dropped
	// counts edges that crossed the selection boundary.
	Report Report
}

// Extract moves the selected nodes of g into a new FunctionDef and replaces
// them with one CallFunction node at the first selected node's position.
// Edges internal to the selection move with it; edges crossing the
// boundary are dropped. The selection must contain an Input node.
func Extract(g ir.Graph, selected []string, ids idgen.Generator) (Extraction, bool) {
	var nodes []ir.Node
	seen := map[string]bool{}
	hasInput := false
	for _, id := range selected {
		n, ok := g.Node(id)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		n = n.Clone()
		n.Selected = false
		nodes = append(nodes, n)
		hasInput = hasInput || n.Type == ir.NodeInput
	}
	if !hasInput {
		return Extraction{}, false
	}

	def := ir.FunctionDef{
		ID:      ids.NewID(),
		Name:    NamePrefix + idgen.Short(ids, 4),
		Graph:   ir.Graph{Nodes: nodes},
		Inputs:  []ir.Port{},
		Outputs: []ir.Port{},
	}
	crossing := 0
	for _, e := range g.Edges {
		in, out := seen[e.FromNodeID], seen[e.ToNodeID]
		switch {
		case in && out:
			def.Graph.Edges = append(def.Graph.Edges, e)
		case in || out:
			crossing++
		}
	}
	for _, n := range nodes {
		switch n.Type {
		case ir.NodeInput:
			def.Inputs = append(def.Inputs, n.OutputPorts...)
		case ir.NodeOutput:
			def.Outputs = append(def.Outputs, n.InputPorts...)
		}
	}

	call := CallSite(def, nodes[0].Position, ids)
	host := g.RemoveNodes(selected...).AddNode(call)
	return Extraction{
		Def:    def,
		Host:   host,
		Call:   call,
		Report: Report{Nodes: len(nodes), Dropped: crossing},
	}, true
}

// CallSite builds a CallFunction node mirroring def's signature with fresh
// port ids.
func CallSite(def ir.FunctionDef, pos ir.Point, ids idgen.Generator) ir.Node {
	return ir.Node{
		ID:          ids.NewID(),
		Type:        ir.NodeCallFunction,
		Label:       def.Name,
		Position:    pos,
		InputPorts:  mirror(def.Inputs, ids),
		OutputPorts: mirror(def.Outputs, ids),
		Data:        ir.CallFunctionData{FunctionID: def.ID},
	}
}

// Signature recomputes the cached Inputs and Outputs of def from its own
// Input and Output nodes in array order. A node with a single port
// contributes a port named after the node's label.
func Signature(def ir.FunctionDef) ir.FunctionDef {
	out := def.Clone()
	out.Inputs = []ir.Port{}
	out.Outputs = []ir.Port{}
	for _, n := range def.Graph.Nodes {
		switch n.Type {
		case ir.NodeInput:
			out.Inputs = append(out.Inputs, project(n, n.OutputPorts)...)
		case ir.NodeOutput:
			out.Outputs = append(out.Outputs, project(n, n.InputPorts)...)
		}
	}
	return out
}

func project(n ir.Node, ports []ir.Port) []ir.Port {
	out := make([]ir.Port, len(ports))
	copy(out, ports)
	if len(out) == 1 && n.Label != "" {
		out[0].Name = n.Label
	}
	return out
}

func mirror(ports []ir.Port, ids idgen.Generator) []ir.Port {
	out := make([]ir.Port, len(ports))
	for i, p := range ports {
		out[i] = ir.Port{ID: ids.NewID(), Name: p.Name}
	}
	return out
}

// References returns the ids of CallFunction nodes in g that call defID.
func References(g ir.Graph, defID string) []string {
	var out []string
	for _, n := range g.Nodes {
		if n.Type == ir.NodeCallFunction && n.FunctionID() == defID {
			out = append(out, n.ID)
		}
	}
	return out
}

// Callees returns the distinct definition ids called from g in node order.
func Callees(g ir.Graph) []string {
	var out []string
	seen := map[string]bool{}
	for _, n := range g.Nodes {
		id := n.FunctionID()
		if n.Type != ir.NodeCallFunction || id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
