package plugins

import (
	"context"

	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// SourceFile represents a single script file to be parsed.
type SourceFile struct {
	Path    string
	Content []byte
}

// SourcePlugin reconstructs a flow graph from script files.
type SourcePlugin interface {
	// Language returns the script dialect identifier (e.g. "sikuli").
	Language() string
	// Parse converts script files into one graph. Files are read in order and
	// their statements chained as if they were one script.
	Parse(ctx context.Context, files []SourceFile) (ir.Graph, error)
}

// FileExtensionsProvider is an optional interface for source plugins to declare
// which file extensions they can parse (e.g. []string{".py"}).
type FileExtensionsProvider interface {
	FileExtensions() []string
}
