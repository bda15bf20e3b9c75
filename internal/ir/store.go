package ir

// AddNode appends n. A node whose id or any port id already exists in the
// graph is ignored.
func (g Graph) AddNode(n Node) Graph {
	if n.ID == "" || g.nodeIndex(n.ID) >= 0 {
		return g
	}
	for _, p := range append(clonePorts(n.InputPorts), n.OutputPorts...) {
		if _, taken := g.PortOwner(p.ID); taken {
			return g
		}
	}
	if n.Data == nil {
		n.Data = DefaultData(n.Type)
	}
	out := g.Clone()
	out.Nodes = append(out.Nodes, n.Clone())
	return out
}

// MoveNode sets the position of node id. Unknown ids leave g unchanged.
func (g Graph) MoveNode(id string, pos Point) Graph {
	i := g.nodeIndex(id)
	if i < 0 {
		return g
	}
	out := g.Clone()
	out.Nodes[i].Position = pos
	return out
}

// SetSelection marks each node selected iff pred returns true for it.
func (g Graph) SetSelection(pred func(Node) bool) Graph {
	out := g.Clone()
	for i := range out.Nodes {
		out.Nodes[i].Selected = pred(out.Nodes[i])
	}
	return out
}

// ReplaceNode swaps the node with the same id for n. Port ids of n may not
// collide with ports owned by other nodes.
func (g Graph) ReplaceNode(n Node) Graph {
	i := g.nodeIndex(n.ID)
	if i < 0 {
		return g
	}
	for _, p := range append(clonePorts(n.InputPorts), n.OutputPorts...) {
		if ref, taken := g.PortOwner(p.ID); taken && ref.NodeID != n.ID {
			return g
		}
	}
	out := g.Clone()
	out.Nodes[i] = n.Clone()
	return out
}

// CanConnect reports whether e may be added to g. It checks that both
// endpoints exist with the right direction, that the edge is not a self loop,
// that the destination input is free and that the edge id is unused.
func (g Graph) CanConnect(e Edge) bool {
	if e.FromNodeID == e.ToNodeID {
		return false
	}
	from, ok := g.Node(e.FromNodeID)
	if !ok || from.PortIndex(DirOutput, e.FromPortID) < 0 {
		return false
	}
	to, ok := g.Node(e.ToNodeID)
	if !ok || to.PortIndex(DirInput, e.ToPortID) < 0 {
		return false
	}
	if _, busy := g.IncomingEdge(e.ToPortID); busy {
		return false
	}
	for _, existing := range g.Edges {
		if existing.ID == e.ID {
			return false
		}
	}
	return true
}

// AddEdge appends e when CanConnect allows it. The boolean reports whether
// the edge was applied; on false the returned graph is g.
func (g Graph) AddEdge(e Edge) (Graph, bool) {
	if !g.CanConnect(e) {
		return g, false
	}
	out := g.Clone()
	out.Edges = append(out.Edges, e)
	return out, true
}

// RemoveNodes deletes the listed nodes and every edge incident to them.
func (g Graph) RemoveNodes(ids ...string) Graph {
	set := idSet(ids)
	out := Graph{}
	for _, n := range g.Nodes {
		if !set[n.ID] {
			out.Nodes = append(out.Nodes, n.Clone())
		}
	}
	for _, e := range g.Edges {
		if !set[e.FromNodeID] && !set[e.ToNodeID] {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

// RemoveEdges deletes the listed edges.
func (g Graph) RemoveEdges(ids ...string) Graph {
	set := idSet(ids)
	out := g.Clone()
	out.Edges = nil
	for _, e := range g.Edges {
		if !set[e.ID] {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

// RemoveSelected deletes every selected node.
func (g Graph) RemoveSelected() Graph {
	return g.RemoveNodes(g.SelectedIDs()...)
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
