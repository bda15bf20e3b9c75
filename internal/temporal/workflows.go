package temporal

import (
	"fmt"
	"time"

	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// CompileInput holds the workflow parameters.
type CompileInput struct {
	ProjectPath string
	Dialect     string
	OutputDir   string

	// Optional snapshot of the compiled project.
	SnapshotDir string
	Description string
}

// CompileOutput holds the workflow result.
type CompileOutput struct {
	Files      []string
	Nodes      int
	Functions  int
	Warnings   []string
	SnapshotID string
}

// CompileProjectWorkflow loads a project, generates its scripts, writes
// them to OutputDir and optionally records a snapshot.
func CompileProjectWorkflow(ctx workflow.Context, input CompileInput) (*CompileOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &sdktemporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrInvalidProject},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	log := workflow.GetLogger(ctx)

	var a *Activities

	var loaded ProjectResult
	if err := workflow.ExecuteActivity(ctx, a.LoadProjectActivity, input.ProjectPath).Get(ctx, &loaded); err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	for _, w := range loaded.Warnings {
		log.Warn("project violation", "detail", w)
	}

	var generated ScriptsResult
	if err := workflow.ExecuteActivity(ctx, a.GenerateScriptsActivity, input.Dialect, loaded.ProjectJSON).Get(ctx, &generated); err != nil {
		return nil, fmt.Errorf("generate scripts: %w", err)
	}

	var written []string
	if err := workflow.ExecuteActivity(ctx, a.WriteFilesActivity, input.OutputDir, generated.FilesJSON).Get(ctx, &written); err != nil {
		return nil, fmt.Errorf("write files: %w", err)
	}

	output := &CompileOutput{
		Files:     written,
		Nodes:     loaded.Nodes,
		Functions: loaded.Functions,
		Warnings:  loaded.Warnings,
	}

	if input.SnapshotDir != "" {
		req := SnapshotRequest{
			Dir:         input.SnapshotDir,
			Dialect:     input.Dialect,
			Description: input.Description,
			ProjectJSON: loaded.ProjectJSON,
			FilesJSON:   generated.FilesJSON,
		}
		if err := workflow.ExecuteActivity(ctx, a.SnapshotActivity, req).Get(ctx, &output.SnapshotID); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}

	log.Info("project compiled", "files", len(written), "nodes", output.Nodes, "snapshot", output.SnapshotID)
	return output, nil
}
