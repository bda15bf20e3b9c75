package history

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

func waitNode(id string) ir.Node {
	return ir.Node{
		ID:          id,
		Type:        ir.NodeWait,
		InputPorts:  []ir.Port{{ID: id + ".in", Name: "in"}},
		OutputPorts: []ir.Port{{ID: id + ".out", Name: "out"}},
		Data:        ir.WaitData{Seconds: 1},
	}
}

func TestUndoRedo_Symmetry(t *testing.T) {
	m := New(ir.Graph{}, 0)
	for i := 0; i < 5; i++ {
		g := m.Current().AddNode(waitNode(fmt.Sprintf("n%d", i)))
		if i > 0 {
			g, _ = g.AddEdge(ir.Edge{
				ID:         fmt.Sprintf("e%d", i),
				FromNodeID: fmt.Sprintf("n%d", i-1), FromPortID: fmt.Sprintf("n%d.out", i-1),
				ToNodeID: fmt.Sprintf("n%d", i), ToPortID: fmt.Sprintf("n%d.in", i),
			})
		}
		m.Apply(g)
	}
	m.Apply(m.Current().MoveNode("n2", ir.Point{X: 40, Y: 40}))
	final := m.Current()

	steps := 0
	for m.Undo() {
		steps++
	}
	if steps != 6 {
		t.Fatalf("expected 6 undo steps, got %d", steps)
	}
	if len(m.Current().Nodes) != 0 {
		t.Errorf("expected empty graph after full undo, got %d nodes", len(m.Current().Nodes))
	}
	for i := 0; i < steps; i++ {
		if !m.Redo() {
			t.Fatalf("redo %d failed", i)
		}
	}
	if diff := cmp.Diff(final, m.Current()); diff != "" {
		t.Errorf("redo did not restore final state (-want +got):\n%s", diff)
	}
}

func TestEmptyStacksAreNoOps(t *testing.T) {
	g := ir.Graph{}.AddNode(waitNode("a"))
	m := New(g, 0)
	if m.Undo() || m.Redo() {
		t.Error("expected no-op on empty stacks")
	}
	if diff := cmp.Diff(g, m.Current()); diff != "" {
		t.Errorf("graph changed (-want +got):\n%s", diff)
	}
}

func TestDrag_ProducesOneUndoStep(t *testing.T) {
	m := New(ir.Graph{}.AddNode(waitNode("a")), 0)

	m.Begin()
	for i := 1; i <= 50; i++ {
		m.SetLive(m.Current().MoveNode("a", ir.Point{X: float64(i), Y: float64(i)}))
	}
	if n, _ := m.Committed().Node("a"); n.Position != (ir.Point{}) {
		t.Errorf("committed graph moved mid-gesture: %+v", n.Position)
	}
	m.Commit()

	if past, _ := m.Depth(); past != 1 {
		t.Fatalf("expected 1 undo step, got %d", past)
	}
	if n, _ := m.Current().Node("a"); n.Position != (ir.Point{X: 50, Y: 50}) {
		t.Errorf("expected final drag position, got %+v", n.Position)
	}
	m.Undo()
	if n, _ := m.Current().Node("a"); n.Position != (ir.Point{}) {
		t.Errorf("expected original position after undo, got %+v", n.Position)
	}
}

func TestBeginLive_NoUndoStep(t *testing.T) {
	m := New(ir.Graph{}.AddNode(waitNode("a")), 0)
	m.BeginLive()
	m.SetLive(m.Current().SetSelection(func(ir.Node) bool { return true }))
	m.Commit()
	if m.CanUndo() {
		t.Error("live-only change recorded an undo step")
	}
	if len(m.Current().SelectedIDs()) != 1 {
		t.Error("live change was not committed")
	}
}

func TestCancel_DiscardsOverlay(t *testing.T) {
	m := New(ir.Graph{}.AddNode(waitNode("a")), 0)
	m.BeginLive()
	m.SetLive(ir.Graph{})
	m.Cancel()
	if len(m.Current().Nodes) != 1 {
		t.Error("cancel did not discard the overlay")
	}
}

func TestUndoDuringGesture_CommitsFirst(t *testing.T) {
	m := New(ir.Graph{}.AddNode(waitNode("a")), 0)
	m.Begin()
	m.SetLive(m.Current().MoveNode("a", ir.Point{X: 9, Y: 9}))
	m.Undo()
	if m.InGesture() {
		t.Error("expected overlay closed")
	}
	if n, _ := m.Current().Node("a"); n.Position != (ir.Point{}) {
		t.Errorf("expected pre-gesture position, got %+v", n.Position)
	}
	m.Redo()
	if n, _ := m.Current().Node("a"); n.Position != (ir.Point{X: 9, Y: 9}) {
		t.Errorf("expected dragged position after redo, got %+v", n.Position)
	}
}

func TestApply_ClearsFuture(t *testing.T) {
	m := New(ir.Graph{}, 0)
	m.Apply(ir.Graph{}.AddNode(waitNode("a")))
	m.Undo()
	m.Apply(ir.Graph{}.AddNode(waitNode("b")))
	if m.CanRedo() {
		t.Error("expected redo stack cleared by a new edit")
	}
}

func TestMaxDepth(t *testing.T) {
	m := New(ir.Graph{}, 3)
	for i := 0; i < 10; i++ {
		m.Apply(m.Current().AddNode(waitNode(fmt.Sprintf("n%d", i))))
	}
	if past, _ := m.Depth(); past != 3 {
		t.Errorf("expected depth 3, got %d", past)
	}
	for m.Undo() {
	}
	if got := len(m.Current().Nodes); got != 7 {
		t.Errorf("expected oldest reachable state with 7 nodes, got %d", got)
	}
}
