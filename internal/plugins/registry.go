package plugins

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores available source and target plugins.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourcePlugin
	targets map[string]TargetPlugin
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]SourcePlugin),
		targets: make(map[string]TargetPlugin),
	}
}

func (r *Registry) RegisterSource(p SourcePlugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[p.Language()] = p
}

func (r *Registry) RegisterTarget(p TargetPlugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[p.Language()] = p
}

func (r *Registry) Source(lang string) (SourcePlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.sources[lang]
	if !ok {
		return nil, fmt.Errorf("no source plugin for dialect %q", lang)
	}
	return p, nil
}

func (r *Registry) Target(lang string) (TargetPlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.targets[lang]
	if !ok {
		return nil, fmt.Errorf("no target plugin for dialect %q", lang)
	}
	return p, nil
}

// Languages lists the registered dialects that have both a source and a
// target plugin.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for lang := range r.sources {
		if _, ok := r.targets[lang]; ok {
			out = append(out, lang)
		}
	}
	sort.Strings(out)
	return out
}
