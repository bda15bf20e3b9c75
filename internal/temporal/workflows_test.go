package temporal

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
	source "github.com/efebarandurmaz/sikuliflow/internal/plugins/source/sikuli"
	target "github.com/efebarandurmaz/sikuliflow/internal/plugins/target/sikuli"
	"github.com/efebarandurmaz/sikuliflow/internal/project"
	"github.com/efebarandurmaz/sikuliflow/internal/snapshot"
)

func testActivities() *Activities {
	reg := plugins.NewRegistry()
	reg.RegisterSource(source.New(idgen.NewSequence("n")))
	reg.RegisterTarget(target.New())
	return &Activities{Registry: reg, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func writeProject(t *testing.T) string {
	t.Helper()
	f := project.Empty()
	f.Graph = f.Graph.AddNode(ir.Node{
		ID: "a", Type: ir.NodeImageClick, Label: "Click Image",
		Data:        ir.ImageClickData{Image: "ok.png"},
		InputPorts:  []ir.Port{{ID: "a.in", Name: "in"}},
		OutputPorts: []ir.Port{{ID: "a.out", Name: "out"}},
	})
	f.Functions = append(f.Functions, ir.FunctionDef{ID: "f", Name: "Login", Graph: ir.Graph{}})
	path := filepath.Join(t.TempDir(), "flow.json")
	if err := project.SaveFile(path, f); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	return path
}

func TestCompileProjectWorkflow(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterActivity(testActivities())

	out := t.TempDir()
	snaps := t.TempDir()
	env.ExecuteWorkflow(CompileProjectWorkflow, CompileInput{
		ProjectPath: writeProject(t),
		Dialect:     "sikuli",
		OutputDir:   out,
		SnapshotDir: snaps,
		Description: "nightly",
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	var result CompileOutput
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(result.Files) != 2 || result.Nodes != 1 || result.Functions != 1 {
		t.Errorf("unexpected output %+v", result)
	}

	script, err := os.ReadFile(filepath.Join(out, "script.py"))
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	if !strings.Contains(string(script), `click("ok.png")`) {
		t.Errorf("unexpected script %q", script)
	}
	if _, err := os.Stat(filepath.Join(out, "functions", "Login.py")); err != nil {
		t.Errorf("function file missing: %v", err)
	}

	store, err := snapshot.NewStore(snaps)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	snap, err := store.Load(result.SnapshotID)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snap.Description != "nightly" || len(snap.FileManifest) != 3 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestCompileProjectWorkflow_MissingProject(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterActivity(testActivities())

	env.ExecuteWorkflow(CompileProjectWorkflow, CompileInput{
		ProjectPath: filepath.Join(t.TempDir(), "missing.json"),
		Dialect:     "sikuli",
		OutputDir:   t.TempDir(),
	})

	err := env.GetWorkflowError()
	if err == nil {
		t.Fatal("expected workflow error")
	}
	var appErr *sdktemporal.ApplicationError
	if !errors.As(err, &appErr) || appErr.Type() != ErrInvalidProject {
		t.Errorf("expected %s application error, got %v", ErrInvalidProject, err)
	}
}

func TestGenerateScriptsActivity_UnknownDialect(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestActivityEnvironment()
	acts := testActivities()
	env.RegisterActivity(acts)

	_, err := env.ExecuteActivity(acts.GenerateScriptsActivity, "autoit", `{"version":1}`)
	if err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestWriteFilesActivity(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestActivityEnvironment()
	acts := testActivities()
	env.RegisterActivity(acts)

	dir := t.TempDir()
	val, err := env.ExecuteActivity(acts.WriteFilesActivity, dir, `[{"path":"script.py","content":"YQ=="}]`)
	if err != nil {
		t.Fatalf("WriteFilesActivity: %v", err)
	}
	var written []string
	if err := val.Get(&written); err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "script.py"))
	if err != nil || string(data) != "a" || len(written) != 1 {
		t.Errorf("written %v, content %q, err %v", written, data, err)
	}
}
