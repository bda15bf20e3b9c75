package project

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/efebarandurmaz/sikuliflow/internal/canvas"
	"github.com/efebarandurmaz/sikuliflow/internal/funcdef"
	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
	"github.com/efebarandurmaz/sikuliflow/internal/library"
	"github.com/efebarandurmaz/sikuliflow/internal/observability"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
	source "github.com/efebarandurmaz/sikuliflow/internal/plugins/source/sikuli"
	target "github.com/efebarandurmaz/sikuliflow/internal/plugins/target/sikuli"
)

func mkNode(id string, t ir.NodeType, label string, in, out int) ir.Node {
	n := ir.Node{ID: id, Type: t, Label: label, Data: ir.DefaultData(t), InputPorts: []ir.Port{}, OutputPorts: []ir.Port{}}
	for i := 0; i < in; i++ {
		n.InputPorts = append(n.InputPorts, ir.Port{ID: fmt.Sprintf("%s.i%d", id, i), Name: "in"})
	}
	for i := 0; i < out; i++ {
		n.OutputPorts = append(n.OutputPorts, ir.Port{ID: fmt.Sprintf("%s.o%d", id, i), Name: "out"})
	}
	return n
}

func edge(id, from, fromPort, to, toPort string) ir.Edge {
	return ir.Edge{ID: id, FromNodeID: from, FromPortID: fromPort, ToNodeID: to, ToPortID: toPort}
}

func registry(ids idgen.Generator) *plugins.Registry {
	r := plugins.NewRegistry()
	r.RegisterSource(source.New(ids))
	r.RegisterTarget(target.New())
	return r
}

func newSession(t *testing.T, f File) (*Session, *bytes.Buffer) {
	t.Helper()
	ids := idgen.NewSequence("id")
	var audit bytes.Buffer
	s := New(f,
		WithIDs(ids),
		WithRegistry(registry(ids)),
		WithAudit(observability.NewAuditWriter(&audit, "test")),
	)
	return s, &audit
}

// loginDef is a definition with one input, one click and one output, and
// a main graph calling it between two waits.
func loginProject() File {
	def := ir.FunctionDef{ID: "login", Name: "Login", Graph: ir.Graph{
		Nodes: []ir.Node{
			mkNode("in", ir.NodeInput, "Input", 0, 1),
			mkNode("click", ir.NodeImageClick, "Click Image", 1, 1),
			mkNode("out", ir.NodeOutput, "Output", 1, 0),
		},
		Edges: []ir.Edge{
			edge("d1", "in", "in.o0", "click", "click.i0"),
			edge("d2", "click", "click.o0", "out", "out.i0"),
		},
	}}
	def = funcdef.Signature(def)

	call := funcdef.CallSite(def, ir.Point{X: 200}, idgen.NewSequence("call"))
	call.ID = "call"
	main := ir.Graph{}.
		AddNode(mkNode("pre", ir.NodeWait, "Wait", 1, 1)).
		AddNode(call).
		AddNode(mkNode("post", ir.NodeWait, "Wait", 1, 1))
	main, _ = main.AddEdge(edge("m1", "pre", "pre.o0", "call", call.InputPorts[0].ID))
	main, _ = main.AddEdge(edge("m2", "call", call.OutputPorts[0].ID, "post", "post.i0"))

	f := Empty()
	f.Graph = main
	f.Functions = []ir.FunctionDef{def}
	return f
}

func TestGroupKey_PublishesDefinition(t *testing.T) {
	g := ir.Graph{}.
		AddNode(mkNode("in", ir.NodeInput, "Input", 0, 1)).
		AddNode(mkNode("c", ir.NodeImageClick, "Click Image", 1, 1)).
		AddNode(mkNode("w", ir.NodeWait, "Wait", 1, 1))
	g = g.SetSelection(func(n ir.Node) bool { return n.ID != "w" })
	f := Empty()
	f.Graph = g
	s, audit := newSession(t, f)

	var published []library.Event
	s.Library().Subscribe(func(ev library.Event) { published = append(published, ev) })

	if !s.Main().Key(canvas.KeyEvent{Key: "g"}) {
		t.Fatal("group key not consumed")
	}
	if len(published) != 1 || published[0].Kind != library.EventPut {
		t.Fatalf("expected one published def, got %+v", published)
	}
	def := published[0].Def
	if !strings.HasPrefix(def.Name, funcdef.NamePrefix) || len(def.Graph.Nodes) != 2 {
		t.Errorf("unexpected def %+v", def)
	}
	refs := funcdef.References(s.Main().Graph(), def.ID)
	if len(refs) != 1 {
		t.Errorf("expected one call site in main graph, got %v", refs)
	}
	if !strings.Contains(audit.String(), string(observability.AuditEventFunctionExtract)) {
		t.Errorf("extraction not audited: %s", audit.String())
	}
	items := s.Palette()
	if last := items[len(items)-1]; last.FunctionID != def.ID {
		t.Errorf("palette missing function item, last is %+v", last)
	}
}

func TestSaveFunction_ResyncsCallSites(t *testing.T) {
	s, _ := newSession(t, loginProject())
	ctx := context.Background()

	e, err := s.OpenFunction("login")
	if err != nil {
		t.Fatalf("OpenFunction: %v", err)
	}
	if s.Active() != e.Controller {
		t.Fatal("active surface is not the editor")
	}
	if !s.RenameNode("in", "user") || !s.RenameFunction("SignIn") {
		t.Fatal("rename refused")
	}

	def, report, err := s.SaveFunction(ctx)
	if err != nil {
		t.Fatalf("SaveFunction: %v", err)
	}
	if s.Depth() != 0 {
		t.Errorf("editor still open after save, depth %d", s.Depth())
	}
	if def.Name != "SignIn" || def.Inputs[0].Name != "user" {
		t.Errorf("unexpected saved def %+v", def)
	}
	if diff := cmp.Diff(funcdef.Report{Nodes: 1, Rebound: 2}, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	call, _ := s.Main().Graph().Node("call")
	if call.Label != "SignIn" || call.InputPorts[0].Name != "user" {
		t.Errorf("call site not resynced: %+v", call)
	}
	if v := s.Main().Graph().Validate(); len(v) != 0 {
		t.Errorf("main graph violations after resync: %v", v)
	}
	if stored, _ := s.Library().Get("login"); stored.Name != "SignIn" {
		t.Errorf("library not updated: %+v", stored)
	}

	if !s.Main().History().Undo() {
		t.Fatal("propagation was not undoable")
	}
	if call, _ := s.Main().Graph().Node("call"); call.Label != "Login" {
		t.Errorf("undo did not restore call site, label %q", call.Label)
	}
}

func TestSaveFunction_DropsOutOfRangeEdges(t *testing.T) {
	s, _ := newSession(t, loginProject())
	e, _ := s.OpenFunction("login")
	hist := e.Controller.History()
	hist.Apply(hist.Current().RemoveNodes("out"))

	def, report, err := s.SaveFunction(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(def.Outputs) != 0 {
		t.Errorf("expected no outputs, got %v", def.Outputs)
	}
	if report.Dropped != 1 || report.Rebound != 1 {
		t.Errorf("unexpected report %+v", report)
	}
	if len(s.Main().Graph().Edges) != 1 {
		t.Errorf("expected the outgoing edge dropped, got %v", s.Main().Graph().Edges)
	}
}

func TestNestedEditors(t *testing.T) {
	f := loginProject()
	login := f.Functions[0]
	call := funcdef.CallSite(login, ir.Point{}, idgen.NewSequence("nested"))
	call.ID = "inner-call"
	outer := funcdef.Signature(ir.FunctionDef{ID: "flow", Name: "Flow", Graph: ir.Graph{}.
		AddNode(mkNode("fin", ir.NodeInput, "Input", 0, 1)).
		AddNode(call)})
	f.Functions = append(f.Functions, outer)
	s, _ := newSession(t, f)

	if _, err := s.OpenFunction("flow"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.OpenCall("inner-call"); err != nil {
		t.Fatalf("OpenCall: %v", err)
	}
	if diff := cmp.Diff([]string{"Flow", "Login"}, s.Breadcrumbs()); diff != "" {
		t.Errorf("breadcrumbs mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.OpenFunction("flow"); err == nil {
		t.Error("expected error opening a definition twice")
	}

	s.RenameFunction("Login2")
	if _, _, err := s.SaveFunction(context.Background()); err != nil {
		t.Fatal(err)
	}
	e, ok := s.Editing()
	if !ok || e.DefID != "flow" {
		t.Fatalf("expected outer editor on top, got %+v", e)
	}
	inner, _ := e.Controller.Graph().Node("inner-call")
	if inner.Label != "Login2" {
		t.Errorf("outer editor call site not resynced: %q", inner.Label)
	}
	stored, _ := s.Library().Get("flow")
	if n, _ := stored.Graph.Node("inner-call"); n.Label != "Login2" {
		t.Errorf("library copy of outer def not resynced: %q", n.Label)
	}
	if !s.CloseFunction() || s.CloseFunction() {
		t.Error("unexpected close results")
	}
}

func TestEditorErrors(t *testing.T) {
	s, _ := newSession(t, loginProject())
	if _, err := s.OpenFunction("nope"); err == nil {
		t.Error("expected error for unknown def")
	}
	if _, err := s.OpenCall("pre"); err == nil {
		t.Error("expected error for non-call node")
	}
	if _, _, err := s.SaveFunction(context.Background()); err == nil {
		t.Error("expected error with no open editor")
	}
	if s.RenameFunction("x") {
		t.Error("rename without editor accepted")
	}
}

func TestSetNodeData(t *testing.T) {
	s, _ := newSession(t, loginProject())
	if s.SetNodeData("pre", ir.ImageClickData{Image: "x.png"}) {
		t.Error("mismatched payload accepted")
	}
	if !s.SetNodeData("pre", ir.WaitData{Seconds: 3}) {
		t.Fatal("payload rejected")
	}
	n, _ := s.Main().Graph().Node("pre")
	if d, _ := ir.DataAs[ir.WaitData](n); d.Seconds != 3 {
		t.Errorf("payload not applied: %#v", n.Data)
	}
	if s.SetNodeData("missing", ir.WaitData{}) {
		t.Error("unknown node accepted")
	}
}

func TestAddFromPalette(t *testing.T) {
	s, _ := newSession(t, Empty())
	if !s.AddFromPalette(canvas.Palette()[3]) {
		t.Fatal("palette add refused")
	}
	g := s.Main().Graph()
	if len(g.Nodes) != 1 || g.Nodes[0].Position != PaletteDrop || g.Nodes[0].Type != ir.NodeWait {
		t.Errorf("unexpected node %+v", g.Nodes)
	}
	if !s.Main().History().CanUndo() {
		t.Error("palette add is not undoable")
	}
}

func TestExportImport(t *testing.T) {
	g := ir.Graph{}.
		AddNode(ir.Node{ID: "a", Type: ir.NodeImageClick, Data: ir.ImageClickData{Image: "ok.png"},
			OutputPorts: []ir.Port{{ID: "a.o", Name: "out"}}}).
		AddNode(ir.Node{ID: "b", Type: ir.NodeWait, Data: ir.WaitData{Seconds: 2},
			InputPorts: []ir.Port{{ID: "b.i", Name: "in"}}})
	g, _ = g.AddEdge(edge("e", "a", "a.o", "b", "b.i"))
	f := Empty()
	f.Graph = g
	f.Functions = []ir.FunctionDef{{ID: "f", Name: "Helper"}}
	s, audit := newSession(t, f)
	ctx := context.Background()

	files, err := s.Export(ctx, "sikuli")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(files) != 2 || files[0].Path != "script.py" || files[1].Path != "functions/Helper.py" {
		t.Fatalf("unexpected files %+v", files)
	}
	want := "from sikuli import *\nclick(\"ok.png\")\nwait(2)\n"
	if string(files[0].Content) != want {
		t.Errorf("script = %q, want %q", files[0].Content, want)
	}

	if _, err := s.Export(ctx, "cobol"); err == nil {
		t.Error("expected error for unknown dialect")
	}

	imported, err := s.Import(ctx, "sikuli", []plugins.SourceFile{{Path: "script.py", Content: files[0].Content}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(imported.Nodes) != 2 || len(s.Main().Graph().Edges) != 1 {
		t.Errorf("unexpected imported graph %+v", imported)
	}
	s.Main().History().Undo()
	if _, ok := s.Main().Graph().Node("a"); !ok {
		t.Error("import was not undoable")
	}
	for _, typ := range []observability.AuditEventType{observability.AuditEventScriptExport, observability.AuditEventScriptImport} {
		if !strings.Contains(audit.String(), string(typ)) {
			t.Errorf("missing audit event %s", typ)
		}
	}
}

func TestSaveOpen_RoundTrip(t *testing.T) {
	s, _ := newSession(t, loginProject())
	s.Assets().Add("ok.png", []byte("\x89PNG\r\n\x1a\n"))
	path := filepath.Join(t.TempDir(), "nested", "flow.json")
	ctx := context.Background()

	if err := s.Save(ctx, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reopened, err := Open(ctx, path, WithIDs(idgen.NewSequence("r")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if diff := cmp.Diff(s.File(), reopened.File()); diff != "" {
		t.Errorf("project mismatch (-saved +loaded):\n%s", diff)
	}
	if _, err := Open(ctx, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing project")
	}
}

func TestDecode_Version(t *testing.T) {
	f, err := Decode(strings.NewReader(`{"graph":{"nodes":[],"edges":[]}}`))
	if err != nil || f.Version != FormatVersion {
		t.Fatalf("expected unversioned file accepted, got %v, %v", f.Version, err)
	}
	if _, err := Decode(strings.NewReader(`{"version":99}`)); err == nil {
		t.Error("expected error for future version")
	}
	if _, err := Decode(strings.NewReader(`{`)); err == nil {
		t.Error("expected error for truncated file")
	}
}
