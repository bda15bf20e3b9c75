package depgraph

import (
	"fmt"
	"sort"

	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// Analyze builds the project graph from the main graph and the function
// library. Every scope gets a function node; steps hang off their scope,
// flow edges follow graph edges, and call sites link to the function they
// invoke.
func Analyze(main ir.Graph, defs []ir.FunctionDef) *Graph {
	g := &Graph{}
	nodeMap := make(map[string]bool)
	names := map[string]string{MainScope: MainScope}
	for _, def := range defs {
		names[def.ID] = def.Name
	}

	addFunction := func(id, name string) string {
		fnID := "fn:" + id
		if !nodeMap[fnID] {
			g.Nodes = append(g.Nodes, Node{ID: fnID, Name: name, Kind: NodeFunction, Scope: name})
			nodeMap[fnID] = true
		}
		return fnID
	}

	addScope := func(scopeID, scopeName string, sg ir.Graph) {
		fnID := addFunction(scopeID, scopeName)

		// 1. Step nodes + contains edges
		for _, n := range sg.Nodes {
			stepID := fmt.Sprintf("step:%s.%s", scopeID, n.ID)
			if nodeMap[stepID] {
				continue
			}
			g.Nodes = append(g.Nodes, Node{ID: stepID, Name: n.Label, Kind: NodeStep, Scope: scopeName, Type: n.Type})
			nodeMap[stepID] = true
			g.Edges = append(g.Edges, Edge{From: fnID, To: stepID, Kind: EdgeContains})

			// 2. Call edges to the invoked function
			if n.Type == ir.NodeCallFunction && n.FunctionID() != "" {
				name, ok := names[n.FunctionID()]
				if !ok {
					name = n.Label
				}
				calleeID := addFunction(n.FunctionID(), name)
				g.Edges = append(g.Edges, Edge{From: stepID, To: calleeID, Kind: EdgeCalls})
			}
		}

		// 3. Flow edges
		for _, e := range sg.Edges {
			g.Edges = append(g.Edges, Edge{
				From:  fmt.Sprintf("step:%s.%s", scopeID, e.FromNodeID),
				To:    fmt.Sprintf("step:%s.%s", scopeID, e.ToNodeID),
				Kind:  EdgeFlow,
				Label: portName(sg, e.FromPortID),
			})
		}

		// 4. Steps the generator would drop
		emitted, excluded := Order(sg)
		g.Stats.Emitted += len(emitted)
		for _, n := range excluded {
			g.Stats.Excluded = append(g.Stats.Excluded, fmt.Sprintf("step:%s.%s", scopeID, n.ID))
		}
	}

	addScope(MainScope, MainScope, main)
	for _, def := range defs {
		addScope(def.ID, def.Name, def.Graph)
	}

	g.addFunctionDependencies()
	g.computeStats()
	return g
}

func portName(g ir.Graph, portID string) string {
	ref, ok := g.PortOwner(portID)
	if !ok {
		return ""
	}
	n, _ := g.Node(ref.NodeID)
	if len(n.OutputPorts) < 2 {
		return ""
	}
	return n.OutputPorts[ref.Index].Name
}

// scopeOf extracts the scope id from a node ID like "step:scope.node" or "fn:scope"
func scopeOf(nodeID string) string {
	for _, prefix := range []string{"step:", "fn:"} {
		if len(nodeID) > len(prefix) && nodeID[:len(prefix)] == prefix {
			rest := nodeID[len(prefix):]
			if prefix == "fn:" {
				return rest
			}
			for i, c := range rest {
				if c == '.' {
					return rest[:i]
				}
			}
			return rest
		}
	}
	return ""
}

// addFunctionDependencies computes function-to-function edges from call sites
func (g *Graph) addFunctionDependencies() {
	deps := make(map[string]map[string]bool)
	for _, e := range g.Edges {
		if e.Kind != EdgeCalls {
			continue
		}
		from, to := scopeOf(e.From), scopeOf(e.To)
		if from == "" || to == "" {
			continue
		}
		if deps[from] == nil {
			deps[from] = make(map[string]bool)
		}
		deps[from][to] = true
	}
	froms := make([]string, 0, len(deps))
	for from := range deps {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	for _, from := range froms {
		tos := make([]string, 0, len(deps[from]))
		for to := range deps[from] {
			tos = append(tos, to)
		}
		sort.Strings(tos)
		for _, to := range tos {
			g.Edges = append(g.Edges, Edge{From: "fn:" + from, To: "fn:" + to, Kind: EdgeDependsOn})
		}
	}
}

// computeStats computes graph metrics
func (g *Graph) computeStats() {
	g.Stats.TotalNodes = len(g.Nodes)
	g.Stats.TotalEdges = len(g.Edges)
	g.Stats.StepsByType = make(map[ir.NodeType]int)
	g.Stats.FunctionFanOut = make(map[string]int)

	fanOut := make(map[string]int)
	fanIn := make(map[string]int)

	for _, n := range g.Nodes {
		switch n.Kind {
		case NodeStep:
			g.Stats.StepCount++
			g.Stats.StepsByType[n.Type]++
			if n.Type == ir.NodeCallFunction {
				g.Stats.CallSiteCount++
			}
		case NodeFunction:
			g.Stats.FunctionCount++
		}
	}

	for _, e := range g.Edges {
		if e.Kind == EdgeContains {
			continue
		}
		fanOut[e.From]++
		fanIn[e.To]++
		if e.Kind == EdgeDependsOn {
			g.Stats.FunctionFanOut[scopeOf(e.From)]++
		}
	}

	ids := make([]string, 0, len(fanOut))
	for id := range fanOut {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if fanOut[id] > g.Stats.MaxFanOut {
			g.Stats.MaxFanOut = fanOut[id]
			g.Stats.HotspotNode = id
		}
	}
	for _, count := range fanIn {
		if count > g.Stats.MaxFanIn {
			g.Stats.MaxFanIn = count
		}
	}

	g.Stats.ConnectedComponents = g.countComponents()
	g.Stats.CyclicDeps = g.detectCycles()
}

// countComponents counts connected components of the step flow via union-find
func (g *Graph) countComponents() int {
	parent := make(map[string]string)
	var find func(string) string
	find = func(x string) string {
		if parent[x] == "" {
			parent[x] = x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		fa, fb := find(a), find(b)
		if fa != fb {
			parent[fa] = fb
		}
	}

	for _, n := range g.Nodes {
		if n.Kind == NodeStep {
			find(n.ID)
		}
	}
	for _, e := range g.Edges {
		if e.Kind == EdgeFlow {
			union(e.From, e.To)
		}
	}

	roots := make(map[string]bool)
	for _, n := range g.Nodes {
		if n.Kind == NodeStep {
			roots[find(n.ID)] = true
		}
	}
	return len(roots)
}

// detectCycles finds recursive call chains using DFS on function dependency edges
func (g *Graph) detectCycles() [][]string {
	adj := make(map[string][]string)
	functions := make(map[string]bool)

	for _, e := range g.Edges {
		if e.Kind == EdgeDependsOn {
			from, to := scopeOf(e.From), scopeOf(e.To)
			adj[from] = append(adj[from], to)
			functions[from] = true
			functions[to] = true
		}
	}

	var cycles [][]string
	visited := make(map[string]int) // 0=unvisited, 1=in-progress, 2=done
	path := make([]string, 0)

	var dfs func(node string)
	dfs = func(node string) {
		if visited[node] == 2 {
			return
		}
		if visited[node] == 1 {
			cycle := make([]string, 0)
			for i := len(path) - 1; i >= 0; i-- {
				cycle = append(cycle, path[i])
				if path[i] == node {
					break
				}
			}
			for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
				cycle[i], cycle[j] = cycle[j], cycle[i]
			}
			cycles = append(cycles, cycle)
			return
		}
		visited[node] = 1
		path = append(path, node)
		for _, next := range adj[node] {
			dfs(next)
		}
		path = path[:len(path)-1]
		visited[node] = 2
	}

	sorted := make([]string, 0, len(functions))
	for f := range functions {
		sorted = append(sorted, f)
	}
	sort.Strings(sorted)

	for _, f := range sorted {
		if visited[f] == 0 {
			dfs(f)
		}
	}
	return cycles
}
