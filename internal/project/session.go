// Package project ties the editing core into one session: the main graph
// with its undo history, the FunctionDef library, the image registry, the
// stack of open function editors and script import/export.
package project

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/efebarandurmaz/sikuliflow/internal/canvas"
	"github.com/efebarandurmaz/sikuliflow/internal/funcdef"
	"github.com/efebarandurmaz/sikuliflow/internal/history"
	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
	"github.com/efebarandurmaz/sikuliflow/internal/library"
	"github.com/efebarandurmaz/sikuliflow/internal/observability"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
)

// PaletteDrop is the world position used when a palette item is added
// without a pointer position.
var PaletteDrop = ir.Point{X: 40, Y: 40}

// Editor is a function definition opened for editing. Its graph lives in
// the controller's own history until the editor is saved.
type Editor struct {
	DefID      string
	Name       string
	Controller *canvas.Controller
}

// Session is one open project. It is driven from a single goroutine.
type Session struct {
	ids      idgen.Generator
	cfg      canvas.Config
	maxDepth int
	registry *plugins.Registry
	audit    *observability.AuditLogger
	log      *slog.Logger

	lib     *library.Library
	assets  *library.Assets
	main    *canvas.Controller
	editors []*Editor
}

// Option configures a Session.
type Option func(*Session)

func WithIDs(ids idgen.Generator) Option { return func(s *Session) { s.ids = ids } }

func WithCanvasConfig(cfg canvas.Config) Option { return func(s *Session) { s.cfg = cfg } }

// WithMaxDepth bounds every undo stack of the session.
func WithMaxDepth(n int) Option { return func(s *Session) { s.maxDepth = n } }

func WithRegistry(r *plugins.Registry) Option { return func(s *Session) { s.registry = r } }

func WithAudit(a *observability.AuditLogger) Option { return func(s *Session) { s.audit = a } }

func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.log = l } }

// New opens a session over the contents of f.
func New(f File, opts ...Option) *Session {
	s := &Session{
		ids:      idgen.UUID{},
		cfg:      canvas.DefaultConfig(),
		registry: plugins.NewRegistry(),
		audit:    observability.Disabled(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lib = library.New(f.Functions...)
	s.assets = library.NewAssets(s.ids, f.Images...)
	s.main = s.newController(f.Graph)
	return s
}

func (s *Session) newController(g ir.Graph) *canvas.Controller {
	return canvas.New(history.New(g, s.maxDepth), s.ids, s.cfg, canvas.OnExtract(s.extracted))
}

func (s *Session) extracted(def ir.FunctionDef, report funcdef.Report) {
	_, span := observability.StartExtractSpan(context.Background(), report.Nodes)
	defer span.End()
	observability.RecordReport(span, report.Nodes, report.Rebound, report.Dropped)

	s.lib.Put(def)
	s.audit.LogFunction(context.Background(), observability.AuditEventFunctionExtract, def.ID, def.Name, report.Nodes, report.Rebound, report.Dropped)
	s.log.Info("Function extracted", "id", def.ID, "name", def.Name, "nodes", report.Nodes, "dropped_edges", report.Dropped)
}

// Library returns the FunctionDef library.
func (s *Session) Library() *library.Library { return s.lib }

// Assets returns the image registry.
func (s *Session) Assets() *library.Assets { return s.assets }

// Registry returns the dialect registry used by Import and Export.
func (s *Session) Registry() *plugins.Registry { return s.registry }

// Main returns the controller of the main graph.
func (s *Session) Main() *canvas.Controller { return s.main }

// Active returns the controller of the innermost open editor, or the main
// controller when no function is open.
func (s *Session) Active() *canvas.Controller {
	if e, ok := s.Editing(); ok {
		return e.Controller
	}
	return s.main
}

// Depth returns the number of open function editors.
func (s *Session) Depth() int { return len(s.editors) }

// Editing returns the innermost open editor.
func (s *Session) Editing() (*Editor, bool) {
	if len(s.editors) == 0 {
		return nil, false
	}
	return s.editors[len(s.editors)-1], true
}

// Breadcrumbs returns the names of the open editors from outermost in.
func (s *Session) Breadcrumbs() []string {
	out := make([]string, len(s.editors))
	for i, e := range s.editors {
		out[i] = e.Name
	}
	return out
}

// Palette lists the built-in items followed by one call-site item per
// library definition.
func (s *Session) Palette() []canvas.Item {
	items := canvas.Palette()
	for _, def := range s.lib.List() {
		items = append(items, canvas.FunctionItem(def))
	}
	return items
}

// AddFromPalette places it on the active surface at PaletteDrop.
func (s *Session) AddFromPalette(it canvas.Item) bool {
	return s.Active().Place(it, PaletteDrop)
}

// RenameNode sets the label of a node on the active surface as one edit.
// Input and Output labels name the parameters of a function on save.
func (s *Session) RenameNode(id, label string) bool {
	return s.editNode(id, func(n ir.Node) (ir.Node, bool) {
		n.Label = label
		return n, true
	})
}

// SetNodeData replaces the payload of a node on the active surface as one
// edit. The payload must match the node's type.
func (s *Session) SetNodeData(id string, data ir.NodeData) bool {
	return s.editNode(id, func(n ir.Node) (ir.Node, bool) {
		if !ir.DataMatches(n.Type, data) {
			return n, false
		}
		n.Data = data
		return n, true
	})
}

func (s *Session) editNode(id string, fn func(ir.Node) (ir.Node, bool)) bool {
	hist := s.Active().History()
	g := hist.Current()
	n, ok := g.Node(id)
	if !ok {
		return false
	}
	next, ok := fn(n)
	if !ok {
		return false
	}
	hist.Apply(g.ReplaceNode(next))
	return true
}

// OpenFunction pushes an editor for the definition with defID. A
// definition that is already open cannot be opened again.
func (s *Session) OpenFunction(defID string) (*Editor, error) {
	def, ok := s.lib.Get(defID)
	if !ok {
		return nil, fmt.Errorf("open function: unknown definition %q", defID)
	}
	for _, e := range s.editors {
		if e.DefID == defID {
			return nil, fmt.Errorf("open function: %s is already open", def.Name)
		}
	}
	e := &Editor{DefID: def.ID, Name: def.Name, Controller: s.newController(def.Graph)}
	s.editors = append(s.editors, e)
	return e, nil
}

// OpenCall opens the definition referenced by a CallFunction node on the
// active surface.
func (s *Session) OpenCall(nodeID string) (*Editor, error) {
	n, ok := s.Active().Graph().Node(nodeID)
	if !ok || n.Type != ir.NodeCallFunction {
		return nil, fmt.Errorf("open call: %q is not a call site", nodeID)
	}
	return s.OpenFunction(n.FunctionID())
}

// RenameFunction sets the name the innermost editor will save under.
func (s *Session) RenameFunction(name string) bool {
	e, ok := s.Editing()
	if !ok || name == "" {
		return false
	}
	e.Name = name
	return true
}

// CloseFunction discards the innermost editor without saving.
func (s *Session) CloseFunction() bool {
	if len(s.editors) == 0 {
		return false
	}
	s.editors = s.editors[:len(s.editors)-1]
	return true
}

// SaveFunction stores the innermost editor's graph and name, recomputes
// the definition's signature, resyncs every call site and closes the
// editor. Call sites in the main graph and in open outer editors are
// rewritten as one undoable edit of each surface; call sites inside other
// library definitions are rewritten in place.
func (s *Session) SaveFunction(ctx context.Context) (ir.FunctionDef, funcdef.Report, error) {
	e, ok := s.Editing()
	if !ok {
		return ir.FunctionDef{}, funcdef.Report{}, fmt.Errorf("save function: no function is open")
	}
	ctx, span := observability.StartPropagateSpan(ctx, e.DefID, e.Name)
	defer span.End()

	def, ok := s.lib.Get(e.DefID)
	if !ok {
		err := fmt.Errorf("save function: definition %q was removed", e.DefID)
		observability.RecordError(span, err)
		return ir.FunctionDef{}, funcdef.Report{}, err
	}
	graph := e.Controller.Graph().SetSelection(func(ir.Node) bool { return false })
	def.Name = e.Name
	def.Graph = graph
	def = funcdef.Signature(def)
	s.editors = s.editors[:len(s.editors)-1]

	var total funcdef.Report
	for _, other := range s.lib.List() {
		if other.ID == def.ID || len(funcdef.References(other.Graph, def.ID)) == 0 {
			continue
		}
		g, r := funcdef.Resync(other.Graph, def, s.ids)
		total = total.Add(r)
		s.lib.Update(other.ID, func(d ir.FunctionDef) ir.FunctionDef {
			d.Graph = g
			return d
		})
	}
	if len(funcdef.References(def.Graph, def.ID)) > 0 {
		var r funcdef.Report
		def.Graph, r = funcdef.Resync(def.Graph, def, s.ids)
		total = total.Add(r)
	}
	s.lib.Put(def)

	surfaces := []*canvas.Controller{s.main}
	for _, outer := range s.editors {
		surfaces = append(surfaces, outer.Controller)
	}
	for _, c := range surfaces {
		hist := c.History()
		cur := hist.Current()
		if len(funcdef.References(cur, def.ID)) == 0 {
			continue
		}
		g, r := funcdef.Resync(cur, def, s.ids)
		total = total.Add(r)
		hist.Apply(g)
	}

	observability.RecordReport(span, total.Nodes, total.Rebound, total.Dropped)
	s.audit.LogFunction(ctx, observability.AuditEventFunctionSave, def.ID, def.Name, total.Nodes, total.Rebound, total.Dropped)
	s.log.Info("Function saved", "id", def.ID, "name", def.Name,
		"call_sites", total.Nodes, "rebound_edges", total.Rebound, "dropped_edges", total.Dropped)
	return def, total, nil
}

// Program returns the main graph and the library as compiler input.
func (s *Session) Program() plugins.Program {
	return plugins.Program{Main: s.main.History().Committed(), Functions: s.lib.List()}
}

// Export generates the main script and one file per definition with the
// target plugin registered for dialect.
func (s *Session) Export(ctx context.Context, dialect string) ([]plugins.GeneratedFile, error) {
	prog := s.Program()
	ctx, span := observability.StartExportSpan(ctx, dialect, len(prog.Main.Nodes))
	defer span.End()

	files, err := Compile(ctx, s.registry, dialect, prog)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	s.audit.LogScript(ctx, observability.AuditEventScriptExport, dialect, len(prog.Main.Nodes), len(files))
	return files, nil
}

// Compile runs the target plugin for dialect over prog: the generated main
// script followed by the scaffolded function files.
func Compile(ctx context.Context, reg *plugins.Registry, dialect string, prog plugins.Program) ([]plugins.GeneratedFile, error) {
	target, err := reg.Target(dialect)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	files, err := target.Generate(ctx, prog)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", dialect, err)
	}
	scaffold, err := target.Scaffold(ctx, prog)
	if err != nil {
		return nil, fmt.Errorf("scaffold %s: %w", dialect, err)
	}
	return append(files, scaffold...), nil
}

// Import parses files with the source plugin for dialect and replaces the
// active surface's graph as one undoable edit.
func (s *Session) Import(ctx context.Context, dialect string, files []plugins.SourceFile) (ir.Graph, error) {
	ctx, span := observability.StartImportSpan(ctx, dialect, len(files))
	defer span.End()

	source, err := s.registry.Source(dialect)
	if err != nil {
		observability.RecordError(span, err)
		return ir.Graph{}, fmt.Errorf("import: %w", err)
	}
	g, err := source.Parse(ctx, files)
	if err != nil {
		observability.RecordError(span, err)
		return ir.Graph{}, fmt.Errorf("parse %s: %w", dialect, err)
	}
	observability.RecordGraphResult(span, len(g.Nodes), len(g.Edges))
	s.Active().History().Apply(g)
	s.audit.LogScript(ctx, observability.AuditEventScriptImport, dialect, len(g.Nodes), len(files))
	return g, nil
}

// File captures the committed state of the session. Open editors are not
// included until they are saved.
func (s *Session) File() File {
	f := Empty()
	f.Graph = s.main.History().Committed().Clone()
	f.Functions = append(f.Functions, s.lib.List()...)
	f.Images = append(f.Images, s.assets.List()...)
	return f
}

// Open loads the project at path into a new session.
func Open(ctx context.Context, path string, opts ...Option) (*Session, error) {
	f, err := LoadFile(path)
	s := New(f, opts...)
	s.audit.LogProject(ctx, observability.AuditEventProjectLoad, path, len(f.Functions), err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the session to path.
func (s *Session) Save(ctx context.Context, path string) error {
	f := s.File()
	err := SaveFile(path, f)
	s.audit.LogProject(ctx, observability.AuditEventProjectSave, path, len(f.Functions), err)
	return err
}
