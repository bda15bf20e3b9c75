// Package sikuli reconstructs flow graphs from Sikuli scripts.
//
// Parsing is line oriented and lossy: only click, wait and plain
// assignment statements become nodes; every other line is skipped.
package sikuli

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
)

var (
	clickRe  = regexp.MustCompile(`^click\((.*)\)`)
	waitRe   = regexp.MustCompile(`^wait\((.*)\)`)
	assignRe = regexp.MustCompile(`^(\w+)\s*=\s*(.*)$`)
)

// Layout of reconstructed nodes.
const (
	originX = 60.0
	originY = 60.0
	stagger = 10.0
)

// Plugin implements SourcePlugin for Sikuli scripts.
type Plugin struct {
	ids idgen.Generator
}

// New returns a parser drawing node, port and edge ids from ids.
func New(ids idgen.Generator) *Plugin { return &Plugin{ids: ids} }

func (p *Plugin) Language() string { return "sikuli" }

func (p *Plugin) FileExtensions() []string { return []string{".py", ".sikuli"} }

func (p *Plugin) Parse(ctx context.Context, files []plugins.SourceFile) (ir.Graph, error) {
	var text strings.Builder
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return ir.Graph{}, err
		}
		text.Write(f.Content)
		text.WriteByte('\n')
	}
	return Parse(text.String(), p.ids), nil
}

// Parse builds a linear chain of nodes, one per recognized line, in text
// order. It never fails; unrecognized lines are dropped.
func Parse(text string, ids idgen.Generator) ir.Graph {
	g := ir.Graph{Nodes: []ir.Node{}, Edges: []ir.Edge{}}
	var prev *ir.Node
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		n, ok := classify(line)
		if !ok {
			continue
		}
		i := float64(len(g.Nodes))
		n.ID = ids.NewID()
		n.Position = ir.Point{X: originX + i*stagger, Y: originY + i*stagger}
		n.InputPorts = []ir.Port{{ID: ids.NewID(), Name: "in"}}
		n.OutputPorts = []ir.Port{{ID: ids.NewID(), Name: "out"}}
		g.Nodes = append(g.Nodes, n)
		if prev != nil {
			g.Edges = append(g.Edges, ir.Edge{
				ID:         ids.NewID(),
				FromNodeID: prev.ID,
				FromPortID: prev.OutputPorts[0].ID,
				ToNodeID:   n.ID,
				ToPortID:   n.InputPorts[0].ID,
			})
		}
		prev = &g.Nodes[len(g.Nodes)-1]
	}
	return g
}

func classify(line string) (ir.Node, bool) {
	if m := clickRe.FindStringSubmatch(line); m != nil {
		return ir.Node{Type: ir.NodeImageClick, Label: "Click Image", Data: ir.ImageClickData{Image: unquote(m[1])}}, true
	}
	if m := waitRe.FindStringSubmatch(line); m != nil {
		seconds, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
		if err != nil {
			seconds = 1
		}
		return ir.Node{Type: ir.NodeWait, Label: "Wait", Data: ir.WaitData{Seconds: seconds}}, true
	}
	if m := assignRe.FindStringSubmatch(line); m != nil {
		return ir.Node{Type: ir.NodeSetVar, Label: "Set Var", Data: ir.SetVarData{Name: m[1], Value: literal(m[2])}}, true
	}
	return ir.Node{}, false
}

// unquote reads a Go or Python string literal, falling back to the raw text
// with one pair of surrounding quotes removed.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if v, err := strconv.Unquote(s); err == nil {
		return v
	}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// literal decodes a JSON scalar, falling back to the raw text.
func literal(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		switch v.(type) {
		case string, float64, bool, nil:
			return v
		}
	}
	return s
}
