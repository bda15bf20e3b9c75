package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/efebarandurmaz/sikuliflow/internal/camera"
	"github.com/efebarandurmaz/sikuliflow/internal/canvas"
	"github.com/efebarandurmaz/sikuliflow/internal/observability"
	"github.com/efebarandurmaz/sikuliflow/internal/secrets"
)

// EnvPrefix prefixes every environment override, e.g. SIKULIFLOW_LOG_LEVEL.
const EnvPrefix = "SIKULIFLOW"

// Config holds all application configuration.
type Config struct {
	Canvas   CanvasConfig   `mapstructure:"canvas"`
	History  HistoryConfig  `mapstructure:"history"`
	Keys     KeysConfig     `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Temporal TemporalConfig `mapstructure:"temporal"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
}

// CanvasConfig holds the interaction constants. Radii are screen pixels.
type CanvasConfig struct {
	SnapRadius      float64 `mapstructure:"snap_radius"`
	PortRadius      float64 `mapstructure:"port_radius"`
	EraseRadius     float64 `mapstructure:"erase_radius"`
	CurveSegments   int     `mapstructure:"curve_segments"`
	TrailMillis     int     `mapstructure:"trail_ms"`
	TrailWidth      float64 `mapstructure:"trail_width"`
	MinScale        float64 `mapstructure:"min_scale"`
	MaxScale        float64 `mapstructure:"max_scale"`
	ZoomSensitivity float64 `mapstructure:"zoom_sensitivity"`
}

type HistoryConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

type KeysConfig struct {
	Group string `mapstructure:"group"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Output  string `mapstructure:"output"`
}

// GraphConfig locates the Neo4j store. Username and Password accept
// secret references such as env:NEO4J_PASSWORD.
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type StoreConfig struct {
	Dir string `mapstructure:"dir"`
}

type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	ShutdownSeconds int    `mapstructure:"shutdown_seconds"`
}

// SecretsConfig points vault: references at one KV v2 secret. VaultToken
// may itself be an env: or file: reference.
type SecretsConfig struct {
	VaultAddress string `mapstructure:"vault_address"`
	VaultToken   string `mapstructure:"vault_token"`
	VaultMount   string `mapstructure:"vault_mount"`
	VaultPath    string `mapstructure:"vault_path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	d := canvas.DefaultConfig()
	return &Config{
		Canvas: CanvasConfig{
			SnapRadius:      d.SnapRadius,
			PortRadius:      d.PortRadius,
			EraseRadius:     d.EraseRadius,
			CurveSegments:   d.CurveSegments,
			TrailMillis:     int(d.TrailDuration / time.Millisecond),
			TrailWidth:      d.TrailWidth,
			MinScale:        d.Limits.MinScale,
			MaxScale:        d.Limits.MaxScale,
			ZoomSensitivity: d.Limits.Sensitivity,
		},
		History:  HistoryConfig{MaxDepth: 200},
		Keys:     KeysConfig{Group: d.GroupKey},
		Log:      LogConfig{Level: "info", Format: "text"},
		Tracing:  TracingConfig{ServiceName: "sikuliflow", Environment: "development", SampleRate: 1},
		Audit:    AuditConfig{Output: "stderr"},
		Graph:    GraphConfig{URI: "bolt://localhost:7687", Username: "neo4j"},
		Temporal: TemporalConfig{Host: "localhost:7233", Namespace: "default", TaskQueue: "sikuliflow"},
		Store:    StoreConfig{Dir: ".sikuliflow/snapshots"},
		Server:   ServerConfig{Addr: ":8080", ShutdownSeconds: 10},
		Secrets:  SecretsConfig{VaultMount: "secret", VaultPath: "sikuliflow"},
	}
}

// CanvasSettings converts the canvas and keys sections for the controller.
func (c *Config) CanvasSettings() canvas.Config {
	return canvas.Config{
		SnapRadius:    c.Canvas.SnapRadius,
		PortRadius:    c.Canvas.PortRadius,
		EraseRadius:   c.Canvas.EraseRadius,
		CurveSegments: c.Canvas.CurveSegments,
		TrailDuration: time.Duration(c.Canvas.TrailMillis) * time.Millisecond,
		TrailWidth:    c.Canvas.TrailWidth,
		GroupKey:      c.Keys.Group,
		Limits: camera.Limits{
			MinScale:    c.Canvas.MinScale,
			MaxScale:    c.Canvas.MaxScale,
			Sensitivity: c.Canvas.ZoomSensitivity,
		},
	}
}

// LogSettings converts the log section for observability.NewLogger.
func (c *Config) LogSettings() observability.LogConfig {
	return observability.LogConfig{Level: c.Log.Level, Format: c.Log.Format}
}

// TracingSettings converts the tracing section for observability.InitTracing.
func (c *Config) TracingSettings() *observability.TracingConfig {
	t := observability.DefaultTracingConfig()
	t.OTLPEndpoint = c.Tracing.Endpoint
	if c.Tracing.ServiceName != "" {
		t.ServiceName = c.Tracing.ServiceName
	}
	if c.Tracing.Environment != "" {
		t.Environment = c.Tracing.Environment
	}
	t.SampleRate = c.Tracing.SampleRate
	return t
}

// AuditSettings converts the audit section for observability.NewAuditLogger.
func (c *Config) AuditSettings() *observability.AuditConfig {
	return &observability.AuditConfig{Enabled: c.Audit.Enabled, OutputPath: c.Audit.Output}
}

// ShutdownTimeout returns the graceful shutdown budget of the API server.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownSeconds) * time.Second
}

// SecretResolver builds the resolver for credential references. The Vault
// provider is registered only when an address is configured.
func (c *Config) SecretResolver(ctx context.Context) (*secrets.Resolver, error) {
	base := secrets.NewResolver()
	if c.Secrets.VaultAddress == "" {
		return base, nil
	}
	token, err := base.Resolve(ctx, c.Secrets.VaultToken)
	if err != nil {
		return nil, fmt.Errorf("vault token: %w", err)
	}
	vp, err := secrets.NewVaultProvider(secrets.VaultConfig{
		Address:    c.Secrets.VaultAddress,
		Token:      token,
		MountPath:  c.Secrets.VaultMount,
		SecretPath: c.Secrets.VaultPath,
	})
	if err != nil {
		return nil, err
	}
	return secrets.NewResolver(vp), nil
}

// GraphCredentials resolves the graph store username and password.
func (c *Config) GraphCredentials(ctx context.Context, r *secrets.Resolver) (username, password string, err error) {
	if username, err = r.Resolve(ctx, c.Graph.Username); err != nil {
		return "", "", fmt.Errorf("graph username: %w", err)
	}
	if password, err = r.Resolve(ctx, c.Graph.Password); err != nil {
		return "", "", fmt.Errorf("graph password: %w", err)
	}
	return username, password, nil
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	cv := c.Canvas
	if cv.MinScale <= 0 || cv.MaxScale <= 0 || cv.MinScale > cv.MaxScale {
		warnings = append(warnings, fmt.Sprintf("canvas scale range [%.2f, %.2f] is invalid", cv.MinScale, cv.MaxScale))
	}
	if cv.SnapRadius < 0 || cv.PortRadius < 0 || cv.EraseRadius < 0 {
		warnings = append(warnings, "canvas radii must not be negative")
	}
	if cv.CurveSegments < 0 {
		warnings = append(warnings, fmt.Sprintf("canvas curve_segments %d is negative", cv.CurveSegments))
	}
	if c.History.MaxDepth < 0 {
		warnings = append(warnings, fmt.Sprintf("history max_depth %d is negative", c.History.MaxDepth))
	}
	if len(c.Keys.Group) > 1 {
		warnings = append(warnings, fmt.Sprintf("keys.group %q should be a single key", c.Keys.Group))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}
	return warnings
}

// Load reads configuration from file and environment. Keys missing from
// the file keep their Default values.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return decode(v)
}

// LoadOrDefault behaves like Load but falls back to Default plus
// environment overrides when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "Warning: config %s not found, using defaults\n", path)
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())
	return v
}

func setDefaults(v *viper.Viper, d *Config) {
	defaults := map[string]any{
		"canvas.snap_radius":      d.Canvas.SnapRadius,
		"canvas.port_radius":      d.Canvas.PortRadius,
		"canvas.erase_radius":     d.Canvas.EraseRadius,
		"canvas.curve_segments":   d.Canvas.CurveSegments,
		"canvas.trail_ms":         d.Canvas.TrailMillis,
		"canvas.trail_width":      d.Canvas.TrailWidth,
		"canvas.min_scale":        d.Canvas.MinScale,
		"canvas.max_scale":        d.Canvas.MaxScale,
		"canvas.zoom_sensitivity": d.Canvas.ZoomSensitivity,
		"history.max_depth":       d.History.MaxDepth,
		"keys.group":              d.Keys.Group,
		"log.level":               d.Log.Level,
		"log.format":              d.Log.Format,
		"tracing.endpoint":        d.Tracing.Endpoint,
		"tracing.service_name":    d.Tracing.ServiceName,
		"tracing.environment":     d.Tracing.Environment,
		"tracing.sample_rate":     d.Tracing.SampleRate,
		"audit.enabled":           d.Audit.Enabled,
		"audit.output":            d.Audit.Output,
		"graph.uri":               d.Graph.URI,
		"graph.username":          d.Graph.Username,
		"graph.password":          d.Graph.Password,
		"temporal.host":           d.Temporal.Host,
		"temporal.namespace":      d.Temporal.Namespace,
		"temporal.task_queue":     d.Temporal.TaskQueue,
		"store.dir":               d.Store.Dir,
		"server.addr":             d.Server.Addr,
		"server.shutdown_seconds": d.Server.ShutdownSeconds,
		"secrets.vault_address":   d.Secrets.VaultAddress,
		"secrets.vault_token":     d.Secrets.VaultToken,
		"secrets.vault_mount":     d.Secrets.VaultMount,
		"secrets.vault_path":      d.Secrets.VaultPath,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	for _, warning := range cfg.Validate() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}
	return &cfg, nil
}
