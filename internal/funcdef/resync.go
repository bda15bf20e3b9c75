package funcdef

import (
	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

type portSlot struct {
	nodeID string
	dir    ir.PortDirection
	index  int
}

// Resync regenerates the ports of every call site of def in g and remaps
// their edges by positional index. An edge bound to old index i moves to
// the new port at i when i is still in range and is dropped otherwise.
// Call-site labels follow the definition name.
func Resync(g ir.Graph, def ir.FunctionDef, ids idgen.Generator) (ir.Graph, Report) {
	var r Report
	out := g.Clone()
	old := map[string]portSlot{}
	fresh := map[string][2][]ir.Port{}

	for i, n := range out.Nodes {
		if n.Type != ir.NodeCallFunction || n.FunctionID() != def.ID {
			continue
		}
		r.Nodes++
		for idx, p := range n.InputPorts {
			old[p.ID] = portSlot{nodeID: n.ID, dir: ir.DirInput, index: idx}
		}
		for idx, p := range n.OutputPorts {
			old[p.ID] = portSlot{nodeID: n.ID, dir: ir.DirOutput, index: idx}
		}
		in, outs := mirror(def.Inputs, ids), mirror(def.Outputs, ids)
		fresh[n.ID] = [2][]ir.Port{in, outs}
		out.Nodes[i].Label = def.Name
		out.Nodes[i].InputPorts = in
		out.Nodes[i].OutputPorts = outs
	}
	if r.Nodes == 0 {
		return g, r
	}

	rebind := func(portID string) (string, bool, bool) {
		slot, touched := old[portID]
		if !touched {
			return portID, false, true
		}
		ports := fresh[slot.nodeID][0]
		if slot.dir == ir.DirOutput {
			ports = fresh[slot.nodeID][1]
		}
		if slot.index >= len(ports) {
			return "", true, false
		}
		return ports[slot.index].ID, true, true
	}

	out.Edges = nil
	for _, e := range g.Edges {
		from, fromTouched, okFrom := rebind(e.FromPortID)
		to, toTouched, okTo := rebind(e.ToPortID)
		if !okFrom || !okTo {
			r.Dropped++
			continue
		}
		if fromTouched || toTouched {
			r.Rebound++
		}
		e.FromPortID, e.ToPortID = from, to
		out.Edges = append(out.Edges, e)
	}
	return out, r
}

// Propagate applies Resync to every graph and returns the rewritten graphs
// in the same order together with the summed report.
func Propagate(graphs []ir.Graph, def ir.FunctionDef, ids idgen.Generator) ([]ir.Graph, Report) {
	var total Report
	out := make([]ir.Graph, len(graphs))
	for i, g := range graphs {
		var r Report
		out[i], r = Resync(g, def, ids)
		total = total.Add(r)
	}
	return out, total
}
