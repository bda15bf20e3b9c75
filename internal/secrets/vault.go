package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// VaultConfig configures the HashiCorp Vault provider.
type VaultConfig struct {
	// Address is the Vault server address (e.g., "http://localhost:8200")
	Address string
	// Token is the Vault authentication token
	Token string
	// MountPath is the secrets engine mount path (default: "secret")
	MountPath string
	// SecretPath is the path under the mount holding the secrets (default: "sikuliflow")
	SecretPath string
	// Timeout for Vault API requests
	Timeout time.Duration
}

// VaultProvider reads fields of one KV v2 secret.
type VaultProvider struct {
	config VaultConfig
	client *http.Client
}

// NewVaultProvider creates a Vault secrets provider.
func NewVaultProvider(config VaultConfig) (*VaultProvider, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("vault address required")
	}
	if config.Token == "" {
		return nil, fmt.Errorf("vault token required")
	}
	if config.MountPath == "" {
		config.MountPath = "secret"
	}
	if config.SecretPath == "" {
		config.SecretPath = "sikuliflow"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &VaultProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

func (p *VaultProvider) Name() string { return "vault" }

func (p *VaultProvider) Get(ctx context.Context, key string) (string, error) {
	url := fmt.Sprintf("%s/v1/%s/data/%s",
		strings.TrimSuffix(p.config.Address, "/"),
		p.config.MountPath,
		p.config.SecretPath,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Vault-Token", p.config.Token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vault request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("secret path not found: %s", p.config.SecretPath)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vault error %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Data struct {
			Data map[string]any `json:"data"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	val, ok := result.Data.Data[key]
	if !ok {
		return "", fmt.Errorf("key not found in vault: %s", key)
	}
	if s, ok := val.(string); ok {
		return s, nil
	}
	return fmt.Sprint(val), nil
}
