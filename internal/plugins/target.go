package plugins

import (
	"context"

	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// GeneratedFile is a single output file produced by a target plugin.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content []byte `json:"content"`
}

// Program is everything a target needs to compile a project: the main
// graph and the function library it calls into.
type Program struct {
	Main      ir.Graph
	Functions []ir.FunctionDef
}

// TargetPlugin generates script text from a flow graph.
type TargetPlugin interface {
	// Language returns the script dialect identifier (e.g. "sikuli").
	Language() string
	// Generate produces the entry script for the main graph.
	Generate(ctx context.Context, prog Program) ([]GeneratedFile, error)
	// Scaffold produces one file per function definition.
	Scaffold(ctx context.Context, prog Program) ([]GeneratedFile, error)
}
