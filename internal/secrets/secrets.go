// Package secrets resolves credential references found in configuration.
//
// A configured value is either a literal or a reference of the form
// scheme:key, where scheme names a registered Provider:
//
//	env:NEO4J_PASSWORD       environment variable
//	file:/run/secrets/neo4j  trimmed contents of a mounted secret file
//	vault:neo4j_password     field of the configured Vault KV v2 secret
//
// Values whose prefix is not a registered scheme (bolt://host, plain
// passwords) are returned unchanged.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Provider is a secret backend addressed by scheme.
type Provider interface {
	// Get retrieves the secret named key.
	Get(ctx context.Context, key string) (string, error)
	// Name returns the scheme the provider answers to.
	Name() string
}

// Resolver dispatches references to providers and caches the results.
type Resolver struct {
	mu        sync.RWMutex
	providers map[string]Provider
	cache     map[string]string
}

// NewResolver returns a resolver with the env and file providers plus the
// given extra providers. A later provider replaces an earlier one with the
// same name.
func NewResolver(extra ...Provider) *Resolver {
	r := &Resolver{
		providers: make(map[string]Provider),
		cache:     make(map[string]string),
	}
	for _, p := range append([]Provider{EnvProvider{}, FileProvider{}}, extra...) {
		r.providers[p.Name()] = p
	}
	return r
}

// Schemes lists the registered provider names.
func (r *Resolver) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	return out
}

// Resolve returns the secret ref points to, or ref itself when it is not a
// reference.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	scheme, key, ok := strings.Cut(ref, ":")
	if !ok {
		return ref, nil
	}
	r.mu.RLock()
	p, known := r.providers[scheme]
	cached, hit := r.cache[ref]
	r.mu.RUnlock()
	if !known {
		return ref, nil
	}
	if hit {
		return cached, nil
	}

	val, err := p.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve %s secret %q: %w", scheme, key, err)
	}
	r.mu.Lock()
	r.cache[ref] = val
	r.mu.Unlock()
	return val, nil
}

// ClearCache forgets every resolved value.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[string]string)
	r.mu.Unlock()
}

// EnvProvider reads secrets from environment variables.
type EnvProvider struct{}

func (EnvProvider) Name() string { return "env" }

func (EnvProvider) Get(_ context.Context, key string) (string, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return "", fmt.Errorf("env var not set: %s", key)
	}
	return val, nil
}

// FileProvider reads a secret from a file, as mounted by Docker or
// Kubernetes. Surrounding whitespace is trimmed.
type FileProvider struct{}

func (FileProvider) Name() string { return "file" }

func (FileProvider) Get(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	val := strings.TrimSpace(string(data))
	if val == "" {
		return "", fmt.Errorf("secret file is empty: %s", path)
	}
	return val, nil
}
