package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
)

// WriteFiles writes generated files below dir and returns the paths written.
// Paths that would leave dir are rejected before anything is written.
func WriteFiles(dir string, files []plugins.GeneratedFile) ([]string, error) {
	for _, f := range files {
		if !filepath.IsLocal(filepath.FromSlash(f.Path)) {
			return nil, fmt.Errorf("write %s: path escapes output directory", f.Path)
		}
	}
	written := make([]string, 0, len(files))
	for _, f := range files {
		out := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return written, fmt.Errorf("create dir for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(out, f.Content, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", f.Path, err)
		}
		written = append(written, out)
	}
	return written, nil
}
