package sikuli

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
	target "github.com/efebarandurmaz/sikuliflow/internal/plugins/target/sikuli"
)

func TestParse_Lines(t *testing.T) {
	script := `from sikuli import *

  click("login.png")
wait(2.5)
# if exists("x")
user = "bob"
count = 3
flag = true
nothing = null
raw = some_call()
Login()
wait(soon)
click('single.png')
`
	g := Parse(script, idgen.NewSequence("id"))

	var got []ir.NodeData
	for _, n := range g.Nodes {
		got = append(got, n.Data)
	}
	want := []ir.NodeData{
		ir.ImageClickData{Image: "login.png"},
		ir.WaitData{Seconds: 2.5},
		ir.SetVarData{Name: "user", Value: "bob"},
		ir.SetVarData{Name: "count", Value: 3.0},
		ir.SetVarData{Name: "flag", Value: true},
		ir.SetVarData{Name: "nothing", Value: nil},
		ir.SetVarData{Name: "raw", Value: "some_call()"},
		ir.WaitData{Seconds: 1},
		ir.ImageClickData{Image: "single.png"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("node data mismatch (-want +got):\n%s", diff)
	}
	if len(g.Edges) != len(g.Nodes)-1 {
		t.Errorf("expected a chain of %d edges, got %d", len(g.Nodes)-1, len(g.Edges))
	}
	for i, e := range g.Edges {
		if e.FromNodeID != g.Nodes[i].ID || e.ToNodeID != g.Nodes[i+1].ID {
			t.Errorf("edge %d does not chain node %d to %d", i, i, i+1)
		}
	}
	if g.Nodes[2].Position != (ir.Point{X: 80, Y: 80}) {
		t.Errorf("unexpected layout %+v", g.Nodes[2].Position)
	}
	if g.Nodes[0].Label != "Click Image" || g.Nodes[1].Label != "Wait" || g.Nodes[2].Label != "Set Var" {
		t.Error("unexpected labels")
	}
	if v := g.Validate(); len(v) != 0 {
		t.Errorf("parsed graph has violations: %v", v)
	}
}

func TestParse_Empty(t *testing.T) {
	g := Parse("from sikuli import *\n\n# nothing\n", idgen.NewSequence("id"))
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("expected empty graph, got %+v", g)
	}
}

func linear(data ...ir.NodeData) ir.Graph {
	ids := idgen.NewSequence("src")
	g := ir.Graph{}
	var prev ir.Node
	for i, d := range data {
		n := ir.Node{
			ID:          ids.NewID(),
			Type:        typeOf(d),
			Data:        d,
			InputPorts:  []ir.Port{{ID: ids.NewID(), Name: "in"}},
			OutputPorts: []ir.Port{{ID: ids.NewID(), Name: "out"}},
		}
		g = g.AddNode(n)
		if i > 0 {
			g, _ = g.AddEdge(ir.Edge{ID: ids.NewID(), FromNodeID: prev.ID, FromPortID: prev.OutputPorts[0].ID, ToNodeID: n.ID, ToPortID: n.InputPorts[0].ID})
		}
		prev = n
	}
	return g
}

func typeOf(d ir.NodeData) ir.NodeType {
	switch d.(type) {
	case ir.ImageClickData:
		return ir.NodeImageClick
	case ir.WaitData:
		return ir.NodeWait
	default:
		return ir.NodeSetVar
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []ir.NodeData
	}{
		{"single click", []ir.NodeData{ir.ImageClickData{Image: "a.png"}}},
		{"mixed", []ir.NodeData{
			ir.ImageClickData{Image: "start button.png"},
			ir.WaitData{Seconds: 0.5},
			ir.SetVarData{Name: "name", Value: "x = \"y\""},
			ir.SetVarData{Name: "n", Value: 42.0},
			ir.SetVarData{Name: "b", Value: false},
			ir.WaitData{Seconds: 10},
			ir.ImageClickData{Image: `C:\img\ok.png`},
		}},
		{"unicode", []ir.NodeData{ir.ImageClickData{Image: "登录.png"}, ir.SetVarData{Name: "msg", Value: "héllo"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := linear(tt.data...)
			back := Parse(target.Generate(src), idgen.NewSequence("p"))

			if len(back.Nodes) != len(src.Nodes) {
				t.Fatalf("expected %d nodes, got %d", len(src.Nodes), len(back.Nodes))
			}
			for i := range src.Nodes {
				if back.Nodes[i].Type != src.Nodes[i].Type {
					t.Errorf("node %d type %s, want %s", i, back.Nodes[i].Type, src.Nodes[i].Type)
				}
				if diff := cmp.Diff(src.Nodes[i].Data, back.Nodes[i].Data); diff != "" {
					t.Errorf("node %d data mismatch (-want +got):\n%s", i, diff)
				}
			}
			if len(back.Edges) != len(src.Edges) {
				t.Errorf("expected %d edges, got %d", len(src.Edges), len(back.Edges))
			}
		})
	}
}

func TestPlugin_ParseFiles(t *testing.T) {
	p := New(idgen.NewSequence("id"))
	g, err := p.Parse(context.Background(), []plugins.SourceFile{
		{Path: "a.py", Content: []byte("click(\"a.png\")")},
		{Path: "b.py", Content: []byte("wait(1)\n")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Errorf("expected files chained together, got %d nodes %d edges", len(g.Nodes), len(g.Edges))
	}
	if p.Language() != "sikuli" || len(p.FileExtensions()) == 0 {
		t.Error("unexpected plugin metadata")
	}
}
