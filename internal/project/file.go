package project

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/efebarandurmaz/sikuliflow/internal/ir"
	"github.com/efebarandurmaz/sikuliflow/internal/library"
)

// FormatVersion is the project file version written by this package.
const FormatVersion = 1

// File is the on-disk form of a project.
type File struct {
	Version   int              `json:"version"`
	Graph     ir.Graph         `json:"graph"`
	Functions []ir.FunctionDef `json:"functions"`
	Images    []library.Image  `json:"images"`
}

// Empty returns a project with no nodes, functions or images.
func Empty() File {
	return File{
		Version:   FormatVersion,
		Graph:     ir.Graph{Nodes: []ir.Node{}, Edges: []ir.Edge{}},
		Functions: []ir.FunctionDef{},
		Images:    []library.Image{},
	}
}

// Decode reads a project file. Files without a version are accepted as
// version 1; newer versions are rejected.
func Decode(r io.Reader) (File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return File{}, fmt.Errorf("decode project: %w", err)
	}
	if f.Version == 0 {
		f.Version = FormatVersion
	}
	if f.Version > FormatVersion {
		return File{}, fmt.Errorf("project version %d is newer than supported version %d", f.Version, FormatVersion)
	}
	return f, nil
}

// Encode writes f as indented JSON.
func Encode(w io.Writer, f File) error {
	f.Version = FormatVersion
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	return nil
}

// LoadFile reads a project from path.
func LoadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open project: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

// SaveFile writes f to path through a temporary file in the same
// directory so readers never observe a partial project.
func SaveFile(path string, f File) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".project-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, f); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return nil
}
