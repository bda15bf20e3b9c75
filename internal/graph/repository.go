// Package graph persists function libraries to a graph database so the
// call structure of a project can be queried outside the editor.
package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/efebarandurmaz/sikuliflow/internal/funcdef"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// Repository provides graph storage for function libraries.
type Repository interface {
	// StoreLibrary replaces the stored library of project with defs,
	// including one CALLS relation per referenced definition.
	StoreLibrary(ctx context.Context, project string, defs []ir.FunctionDef) error
	// LoadLibrary retrieves the definitions stored for project.
	LoadLibrary(ctx context.Context, project string) ([]ir.FunctionDef, error)
	// QueryCallees returns the ids of definitions called by defID.
	QueryCallees(ctx context.Context, project, defID string) ([]string, error)
	// QueryCallers returns the ids of definitions that call defID.
	QueryCallers(ctx context.Context, project, defID string) ([]string, error)
	// Close releases resources.
	Close(ctx context.Context) error
}

// Memory is an in-process Repository.
type Memory struct {
	mu       sync.RWMutex
	projects map[string]map[string]ir.FunctionDef
}

// NewMemory returns an empty in-process repository.
func NewMemory() *Memory {
	return &Memory{projects: make(map[string]map[string]ir.FunctionDef)}
}

func (m *Memory) StoreLibrary(ctx context.Context, project string, defs []ir.FunctionDef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lib := make(map[string]ir.FunctionDef, len(defs))
	for _, d := range defs {
		lib[d.ID] = d.Clone()
	}
	m.mu.Lock()
	m.projects[project] = lib
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadLibrary(ctx context.Context, project string) ([]ir.FunctionDef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ir.FunctionDef, 0, len(m.projects[project]))
	for _, d := range m.projects[project] {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) QueryCallees(ctx context.Context, project, defID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.projects[project][defID]
	if !ok {
		return nil, nil
	}
	var out []string
	for _, id := range funcdef.Callees(d.Graph) {
		if _, stored := m.projects[project][id]; stored {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) QueryCallers(ctx context.Context, project, defID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for id, d := range m.projects[project] {
		for _, callee := range funcdef.Callees(d.Graph) {
			if callee == defID {
				out = append(out, id)
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Close(context.Context) error { return nil }

var _ Repository = (*Memory)(nil)
