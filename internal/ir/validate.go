package ir

import "fmt"

// ViolationKind classifies a broken graph invariant.
type ViolationKind string

const (
	ViolationDuplicateNode  ViolationKind = "duplicate_node"
	ViolationDuplicatePort  ViolationKind = "duplicate_port"
	ViolationDanglingEdge   ViolationKind = "dangling_edge"
	ViolationDirection      ViolationKind = "direction"
	ViolationSelfLoop       ViolationKind = "self_loop"
	ViolationMultipleWriter ViolationKind = "multiple_writer"
	ViolationDataMismatch   ViolationKind = "data_mismatch"
)

// Violation is a non-fatal diagnostic produced by Validate.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	Subject string        `json:"subject"`
	Message string        `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s(%s): %s", v.Kind, v.Subject, v.Message)
}

// Validate checks the structural invariants of g. Graphs built only
// through the store operations produce no violations; decoded files may.
func (g Graph) Validate() []Violation {
	var out []Violation
	nodes := make(map[string]bool, len(g.Nodes))
	ports := make(map[string]string)
	for _, n := range g.Nodes {
		if nodes[n.ID] {
			out = append(out, Violation{ViolationDuplicateNode, n.ID, "node id appears more than once"})
		}
		nodes[n.ID] = true
		for _, p := range append(clonePorts(n.InputPorts), n.OutputPorts...) {
			if owner, seen := ports[p.ID]; seen {
				out = append(out, Violation{ViolationDuplicatePort, p.ID,
					fmt.Sprintf("port shared by nodes %s and %s", owner, n.ID)})
				continue
			}
			ports[p.ID] = n.ID
		}
		if n.Data != nil && !DataMatches(n.Type, n.Data) {
			out = append(out, Violation{ViolationDataMismatch, n.ID,
				fmt.Sprintf("data %T does not belong to %s", n.Data, n.Type)})
		}
	}

	writers := make(map[string]string)
	for _, e := range g.Edges {
		from, okFrom := g.Node(e.FromNodeID)
		to, okTo := g.Node(e.ToNodeID)
		if !okFrom || !okTo {
			out = append(out, Violation{ViolationDanglingEdge, e.ID, "endpoint node does not exist"})
			continue
		}
		if e.FromNodeID == e.ToNodeID {
			out = append(out, Violation{ViolationSelfLoop, e.ID, "edge connects a node to itself"})
		}
		if from.PortIndex(DirOutput, e.FromPortID) < 0 || to.PortIndex(DirInput, e.ToPortID) < 0 {
			out = append(out, Violation{ViolationDirection, e.ID, "edge must run from an output port to an input port"})
		}
		if prev, ok := writers[e.ToPortID]; ok {
			out = append(out, Violation{ViolationMultipleWriter, e.ToPortID,
				fmt.Sprintf("input written by edges %s and %s", prev, e.ID)})
			continue
		}
		writers[e.ToPortID] = e.ID
	}
	return out
}
