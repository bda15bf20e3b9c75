package temporal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/activity"
	sdktemporal "go.temporal.io/sdk/temporal"

	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
	"github.com/efebarandurmaz/sikuliflow/internal/project"
	"github.com/efebarandurmaz/sikuliflow/internal/snapshot"
)

// ErrInvalidProject marks failures that retrying cannot fix.
const ErrInvalidProject = "InvalidProject"

// ProjectResult is the serializable result of LoadProjectActivity.
type ProjectResult struct {
	ProjectJSON string
	Nodes       int
	Functions   int
	Warnings    []string
}

// ScriptsResult is the serializable result of GenerateScriptsActivity.
type ScriptsResult struct {
	FilesJSON string
	Files     int
}

// SnapshotRequest carries everything SnapshotActivity stores.
type SnapshotRequest struct {
	Dir         string
	Dialect     string
	Description string
	ProjectJSON string
	FilesJSON   string
}

// Activities holds the resources shared by the compile activities.
type Activities struct {
	Registry *plugins.Registry
	Logger   *slog.Logger
}

func (a *Activities) log() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// LoadProjectActivity reads and validates the project file at path.
func (a *Activities) LoadProjectActivity(ctx context.Context, path string) (ProjectResult, error) {
	f, err := project.LoadFile(path)
	if err != nil {
		return ProjectResult{}, sdktemporal.NewNonRetryableApplicationError(err.Error(), ErrInvalidProject, err)
	}
	var warnings []string
	for _, v := range f.Graph.Validate() {
		warnings = append(warnings, "main: "+v.String())
	}
	for _, def := range f.Functions {
		for _, v := range def.Graph.Validate() {
			warnings = append(warnings, def.Name+": "+v.String())
		}
	}

	var buf bytes.Buffer
	if err := project.Encode(&buf, f); err != nil {
		return ProjectResult{}, err
	}
	activity.GetLogger(ctx).Info("project loaded", "path", path, "nodes", len(f.Graph.Nodes))
	return ProjectResult{
		ProjectJSON: buf.String(),
		Nodes:       len(f.Graph.Nodes),
		Functions:   len(f.Functions),
		Warnings:    warnings,
	}, nil
}

// GenerateScriptsActivity compiles the project with the target for dialect.
func (a *Activities) GenerateScriptsActivity(ctx context.Context, dialect, projectJSON string) (ScriptsResult, error) {
	f, err := project.Decode(bytes.NewReader([]byte(projectJSON)))
	if err != nil {
		return ScriptsResult{}, sdktemporal.NewNonRetryableApplicationError(err.Error(), ErrInvalidProject, err)
	}
	if _, err := a.Registry.Target(dialect); err != nil {
		return ScriptsResult{}, sdktemporal.NewNonRetryableApplicationError(err.Error(), ErrInvalidProject, err)
	}
	files, err := project.Compile(ctx, a.Registry, dialect, plugins.Program{Main: f.Graph, Functions: f.Functions})
	if err != nil {
		return ScriptsResult{}, err
	}
	raw, err := json.Marshal(files)
	if err != nil {
		return ScriptsResult{}, fmt.Errorf("marshal files: %w", err)
	}
	a.log().Debug("scripts generated", "dialect", dialect, "files", len(files))
	return ScriptsResult{FilesJSON: string(raw), Files: len(files)}, nil
}

// WriteFilesActivity writes generated files below dir.
func (a *Activities) WriteFilesActivity(ctx context.Context, dir, filesJSON string) ([]string, error) {
	files, err := decodeFiles(filesJSON)
	if err != nil {
		return nil, err
	}
	written, err := project.WriteFiles(dir, files)
	if err != nil {
		return nil, err
	}
	activity.GetLogger(ctx).Info("scripts written", "dir", dir, "files", len(written))
	return written, nil
}

// SnapshotActivity records the compiled project in the store at req.Dir.
func (a *Activities) SnapshotActivity(ctx context.Context, req SnapshotRequest) (string, error) {
	f, err := project.Decode(bytes.NewReader([]byte(req.ProjectJSON)))
	if err != nil {
		return "", sdktemporal.NewNonRetryableApplicationError(err.Error(), ErrInvalidProject, err)
	}
	files, err := decodeFiles(req.FilesJSON)
	if err != nil {
		return "", err
	}
	store, err := snapshot.NewStore(req.Dir)
	if err != nil {
		return "", err
	}
	snap, err := project.Capture(store, f, req.Dialect, req.Description, files)
	if err != nil {
		return "", err
	}
	activity.GetLogger(ctx).Info("snapshot saved", "id", snap.ID)
	return snap.ID, nil
}

func decodeFiles(filesJSON string) ([]plugins.GeneratedFile, error) {
	var files []plugins.GeneratedFile
	if err := json.Unmarshal([]byte(filesJSON), &files); err != nil {
		return nil, sdktemporal.NewNonRetryableApplicationError("decode files", ErrInvalidProject, err)
	}
	return files, nil
}
