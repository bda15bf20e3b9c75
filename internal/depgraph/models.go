package depgraph

import "github.com/efebarandurmaz/sikuliflow/internal/ir"

// Node represents a node in the project graph
type Node struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Kind  NodeKind    `json:"kind"`           // step or function
	Scope string      `json:"scope"`          // owning function name, "main" for the top graph
	Type  ir.NodeType `json:"type,omitempty"` // step node type
}

// NodeKind classifies graph nodes
type NodeKind string

const (
	NodeStep     NodeKind = "step"
	NodeFunction NodeKind = "function"
)

// Edge represents a directed edge between two nodes
type Edge struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Kind  EdgeKind `json:"kind"`
	Label string   `json:"label,omitempty"`
}

// EdgeKind classifies relationships
type EdgeKind string

const (
	EdgeFlow      EdgeKind = "flow"       // step feeds step
	EdgeContains  EdgeKind = "contains"   // function contains step
	EdgeCalls     EdgeKind = "calls"      // call site invokes function
	EdgeDependsOn EdgeKind = "depends_on" // function calls function
)

// MainScope names the top-level graph.
const MainScope = "main"

// Graph is the full project graph
type Graph struct {
	Nodes []Node     `json:"nodes"`
	Edges []Edge     `json:"edges"`
	Stats GraphStats `json:"stats"`
}

// GraphStats holds computed metrics about the graph
type GraphStats struct {
	TotalNodes          int                 `json:"total_nodes"`
	TotalEdges          int                 `json:"total_edges"`
	StepCount           int                 `json:"step_count"`
	FunctionCount       int                 `json:"function_count"`
	CallSiteCount       int                 `json:"call_site_count"`
	StepsByType         map[ir.NodeType]int `json:"steps_by_type"`
	MaxFanOut           int                 `json:"max_fan_out"`
	MaxFanIn            int                 `json:"max_fan_in"`
	HotspotNode         string              `json:"hotspot_node"`
	ConnectedComponents int                 `json:"connected_components"`
	Emitted             int                 `json:"emitted"`            // steps placed by Order
	Excluded            []string            `json:"excluded,omitempty"` // steps left out by Order
	CyclicDeps          [][]string          `json:"cyclic_deps,omitempty"`
	FunctionFanOut      map[string]int      `json:"function_fan_out"`
}
