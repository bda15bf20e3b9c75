package depgraph

import "github.com/efebarandurmaz/sikuliflow/internal/ir"

// Order linearizes g with Kahn's algorithm. Zero in-degree nodes are queued
// in array order; dequeuing a node walks its outgoing edges in edge order
// and queues every node whose in-degree drops to zero. Nodes that never
// reach zero in-degree sit on or behind a cycle and are returned in
// excluded, in array order.
func Order(g ir.Graph) (order, excluded []ir.Node) {
	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, dup := index[n.ID]; !dup {
			index[n.ID] = i
		}
	}
	indeg := make([]int, len(g.Nodes))
	out := make([][]int, len(g.Nodes))
	for _, e := range g.Edges {
		from, okFrom := index[e.FromNodeID]
		to, okTo := index[e.ToNodeID]
		if !okFrom || !okTo {
			continue
		}
		indeg[to]++
		out[from] = append(out[from], to)
	}

	queue := make([]int, 0, len(g.Nodes))
	for i := range g.Nodes {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	placed := make([]bool, len(g.Nodes))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		placed[i] = true
		order = append(order, g.Nodes[i])
		for _, j := range out[i] {
			indeg[j]--
			if indeg[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	for i, n := range g.Nodes {
		if !placed[i] {
			excluded = append(excluded, n)
		}
	}
	return order, excluded
}
