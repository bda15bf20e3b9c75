package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	t.Setenv("SIKULIFLOW_TEST_PASSWORD", "hunter2")
	path := filepath.Join(t.TempDir(), "neo4j")
	if err := os.WriteFile(path, []byte("  s3cret\n"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"literal", "plain", "plain"},
		{"uri is not a reference", "bolt://localhost:7687", "bolt://localhost:7687"},
		{"env", "env:SIKULIFLOW_TEST_PASSWORD", "hunter2"},
		{"file trimmed", "file:" + path, "s3cret"},
		{"empty", "", ""},
	}
	r := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.ref)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0600); err != nil {
		t.Fatal(err)
	}
	r := NewResolver()
	for _, ref := range []string{
		"env:SIKULIFLOW_TEST_UNSET_VARIABLE",
		"file:" + filepath.Join(t.TempDir(), "missing"),
		"file:" + empty,
	} {
		if _, err := r.Resolve(context.Background(), ref); err == nil {
			t.Errorf("Resolve(%q) expected error", ref)
		}
	}
}

func TestResolve_Caches(t *testing.T) {
	t.Setenv("SIKULIFLOW_TEST_TOKEN", "first")
	r := NewResolver()
	ctx := context.Background()

	if got, _ := r.Resolve(ctx, "env:SIKULIFLOW_TEST_TOKEN"); got != "first" {
		t.Fatalf("got %q, want first", got)
	}
	t.Setenv("SIKULIFLOW_TEST_TOKEN", "second")
	if got, _ := r.Resolve(ctx, "env:SIKULIFLOW_TEST_TOKEN"); got != "first" {
		t.Errorf("expected cached value, got %q", got)
	}
	r.ClearCache()
	if got, _ := r.Resolve(ctx, "env:SIKULIFLOW_TEST_TOKEN"); got != "second" {
		t.Errorf("expected fresh value after ClearCache, got %q", got)
	}
}

func TestVaultProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "root" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path != "/v1/secret/data/sikuliflow" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"data":{"data":{"neo4j_password":"vaulted","port":7687}}}`))
	}))
	defer srv.Close()

	vp, err := NewVaultProvider(VaultConfig{Address: srv.URL + "/", Token: "root"})
	if err != nil {
		t.Fatalf("NewVaultProvider() error = %v", err)
	}
	r := NewResolver(vp)
	ctx := context.Background()

	if got, err := r.Resolve(ctx, "vault:neo4j_password"); err != nil || got != "vaulted" {
		t.Errorf("Resolve(vault:neo4j_password) = %q, %v", got, err)
	}
	if got, err := r.Resolve(ctx, "vault:port"); err != nil || got != "7687" {
		t.Errorf("Resolve(vault:port) = %q, %v", got, err)
	}
	if _, err := r.Resolve(ctx, "vault:missing"); err == nil {
		t.Error("expected error for missing field")
	}

	bad, _ := NewVaultProvider(VaultConfig{Address: srv.URL, Token: "wrong"})
	if _, err := bad.Get(ctx, "neo4j_password"); err == nil {
		t.Error("expected error for rejected token")
	}
}

func TestNewVaultProvider_Validation(t *testing.T) {
	if _, err := NewVaultProvider(VaultConfig{Token: "t"}); err == nil {
		t.Error("expected error without address")
	}
	if _, err := NewVaultProvider(VaultConfig{Address: "http://vault"}); err == nil {
		t.Error("expected error without token")
	}
}

func TestSchemes(t *testing.T) {
	vp, _ := NewVaultProvider(VaultConfig{Address: "http://vault", Token: "t"})
	got := NewResolver(vp).Schemes()
	sort.Strings(got)
	if diff := cmp.Diff([]string{"env", "file", "vault"}, got); diff != "" {
		t.Errorf("schemes mismatch (-want +got):\n%s", diff)
	}
}
