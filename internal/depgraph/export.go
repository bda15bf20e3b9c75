package depgraph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// ExportDOT generates a Graphviz DOT representation of the graph.
func ExportDOT(g *Graph) string {
	var b strings.Builder
	b.WriteString("digraph flow {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	// Group steps by scope using subgraphs
	scopes, order := groupByScope(g, false)
	for _, scope := range order {
		b.WriteString(fmt.Sprintf("  subgraph cluster_%s {\n", sanitizeID(scope)))
		b.WriteString(fmt.Sprintf("    label=%q;\n", scope))
		b.WriteString("    style=dashed;\n")
		b.WriteString("    color=\"#58a6ff\";\n")
		for _, n := range scopes[scope] {
			b.WriteString(fmt.Sprintf("    %q [label=%q shape=%s style=filled fillcolor=\"%s\"];\n",
				n.ID, n.Name, nodeShape(n), nodeColor(n)))
		}
		b.WriteString("  }\n\n")
	}
	for _, n := range g.Nodes {
		if n.Kind == NodeFunction {
			b.WriteString(fmt.Sprintf("  %q [label=%q shape=%s style=filled fillcolor=\"%s\"];\n",
				n.ID, n.Name, nodeShape(n), nodeColor(n)))
		}
	}
	b.WriteString("\n")

	for _, e := range g.Edges {
		if e.Kind == EdgeContains {
			continue
		}
		label := ""
		if e.Label != "" {
			label = fmt.Sprintf(" label=%q", e.Label)
		}
		b.WriteString(fmt.Sprintf("  %q -> %q [style=%s color=\"%s\"%s];\n",
			e.From, e.To, edgeStyle(e.Kind), edgeColor(e.Kind), label))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid diagram of the graph.
func ExportMermaid(g *Graph) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	scopes, order := groupByScope(g, true)
	for _, scope := range order {
		b.WriteString(fmt.Sprintf("  subgraph %s\n", sanitizeID(scope)))
		for _, n := range scopes[scope] {
			b.WriteString(fmt.Sprintf("    %s%s\n", sanitizeID(n.ID), mermaidNodeShape(n)))
		}
		b.WriteString("  end\n")
	}

	for _, e := range g.Edges {
		if e.Kind == EdgeContains {
			continue
		}
		label := ""
		if e.Label != "" {
			label = "|" + e.Label + "|"
		}
		b.WriteString(fmt.Sprintf("  %s %s%s %s\n",
			sanitizeID(e.From), mermaidArrow(e.Kind), label, sanitizeID(e.To)))
	}

	return b.String()
}

// ExportJSON serializes the graph to JSON.
func ExportJSON(g *Graph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// FormatStats returns a human-readable summary of graph statistics.
func FormatStats(g *Graph) string {
	var b strings.Builder
	b.WriteString("Flow Graph Statistics\n")
	b.WriteString("=====================\n\n")
	b.WriteString(fmt.Sprintf("Nodes:       %d total\n", g.Stats.TotalNodes))
	b.WriteString(fmt.Sprintf("  Steps:     %d\n", g.Stats.StepCount))
	b.WriteString(fmt.Sprintf("  Functions: %d\n", g.Stats.FunctionCount))
	b.WriteString(fmt.Sprintf("  Calls:     %d\n", g.Stats.CallSiteCount))
	b.WriteString(fmt.Sprintf("Edges:       %d total\n", g.Stats.TotalEdges))
	b.WriteString(fmt.Sprintf("Max Fan-Out: %d (%s)\n", g.Stats.MaxFanOut, g.Stats.HotspotNode))
	b.WriteString(fmt.Sprintf("Max Fan-In:  %d\n", g.Stats.MaxFanIn))
	b.WriteString(fmt.Sprintf("Components:  %d\n", g.Stats.ConnectedComponents))
	b.WriteString(fmt.Sprintf("Emitted:     %d\n", g.Stats.Emitted))

	if len(g.Stats.StepsByType) > 0 {
		b.WriteString("\nSteps by Type:\n")
		for _, t := range ir.NodeTypes {
			if n := g.Stats.StepsByType[t]; n > 0 {
				b.WriteString(fmt.Sprintf("  %-12s %d\n", t, n))
			}
		}
	}

	if len(g.Stats.Excluded) > 0 {
		b.WriteString(fmt.Sprintf("\nExcluded (cyclic): %d\n", len(g.Stats.Excluded)))
		for _, id := range g.Stats.Excluded {
			b.WriteString(fmt.Sprintf("  %s\n", id))
		}
	}

	if len(g.Stats.CyclicDeps) > 0 {
		b.WriteString(fmt.Sprintf("\nRecursive Calls: %d\n", len(g.Stats.CyclicDeps)))
		for i, cycle := range g.Stats.CyclicDeps {
			b.WriteString(fmt.Sprintf("  %d: %s\n", i+1, strings.Join(cycle, " -> ")))
		}
	}

	if len(g.Stats.FunctionFanOut) > 0 {
		b.WriteString("\nFunction Dependencies:\n")
		fns := make([]string, 0, len(g.Stats.FunctionFanOut))
		for fn := range g.Stats.FunctionFanOut {
			fns = append(fns, fn)
		}
		sort.Strings(fns)
		for _, fn := range fns {
			b.WriteString(fmt.Sprintf("  %s: %d outgoing\n", fn, g.Stats.FunctionFanOut[fn]))
		}
	}

	return b.String()
}

// groupByScope buckets nodes by scope, preserving first-seen scope order.
func groupByScope(g *Graph, withFunctions bool) (map[string][]Node, []string) {
	scopes := make(map[string][]Node)
	var order []string
	for _, n := range g.Nodes {
		if n.Kind == NodeFunction && !withFunctions {
			continue
		}
		if _, seen := scopes[n.Scope]; !seen {
			order = append(order, n.Scope)
		}
		scopes[n.Scope] = append(scopes[n.Scope], n)
	}
	return scopes, order
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}

func nodeShape(n Node) string {
	if n.Kind == NodeFunction {
		return "box3d"
	}
	switch n.Type {
	case ir.NodeInput, ir.NodeOutput:
		return "circle"
	case ir.NodeIf:
		return "diamond"
	case ir.NodeLoop:
		return "hexagon"
	case ir.NodeCallFunction:
		return "component"
	default:
		return "box"
	}
}

func nodeColor(n Node) string {
	if n.Kind == NodeFunction {
		return "#1f6feb"
	}
	switch n.Type {
	case ir.NodeImageClick:
		return "#238636"
	case ir.NodeWait:
		return "#8957e5"
	case ir.NodeIf, ir.NodeLoop:
		return "#d29922"
	case ir.NodeCallFunction:
		return "#1f6feb"
	default:
		return "#30363d"
	}
}

func edgeStyle(kind EdgeKind) string {
	switch kind {
	case EdgeFlow:
		return "solid"
	case EdgeCalls:
		return "dashed"
	case EdgeDependsOn:
		return "bold"
	default:
		return "solid"
	}
}

func edgeColor(kind EdgeKind) string {
	switch kind {
	case EdgeFlow:
		return "#3fb950"
	case EdgeCalls:
		return "#8b949e"
	case EdgeDependsOn:
		return "#f85149"
	default:
		return "#c9d1d9"
	}
}

func mermaidNodeShape(n Node) string {
	if n.Kind == NodeFunction {
		return fmt.Sprintf("[[%q]]", n.Name)
	}
	switch n.Type {
	case ir.NodeInput, ir.NodeOutput:
		return fmt.Sprintf("((%q))", n.Name)
	case ir.NodeIf:
		return fmt.Sprintf("{%q}", n.Name)
	case ir.NodeLoop:
		return fmt.Sprintf("{{%q}}", n.Name)
	default:
		return fmt.Sprintf("[%q]", n.Name)
	}
}

func mermaidArrow(kind EdgeKind) string {
	switch kind {
	case EdgeFlow:
		return "-->"
	case EdgeCalls:
		return "-.->"
	case EdgeDependsOn:
		return "==>"
	default:
		return "-->"
	}
}
