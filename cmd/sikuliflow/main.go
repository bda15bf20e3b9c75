package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/sikuliflow/internal/config"
	"github.com/efebarandurmaz/sikuliflow/internal/graph/neo4j"
	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/observability"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
	sourceplugin "github.com/efebarandurmaz/sikuliflow/internal/plugins/source/sikuli"
	targetplugin "github.com/efebarandurmaz/sikuliflow/internal/plugins/target/sikuli"
	"github.com/efebarandurmaz/sikuliflow/internal/project"
	"github.com/efebarandurmaz/sikuliflow/internal/secrets"
)

const version = "0.1.0"

// app bundles the ambient services every command needs.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	audit    *observability.AuditLogger
	tracing  *observability.TracerProvider
	registry *plugins.Registry
	ids      idgen.Generator
	secrets  *secrets.Resolver
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, err := observability.NewLogger(os.Stderr, cfg.LogSettings())
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	slog.SetDefault(log)

	tp, err := observability.InitTracing(ctx, cfg.TracingSettings())
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	audit, err := observability.NewAuditLogger(cfg.AuditSettings())
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("audit: %w", err)
	}

	resolver, err := cfg.SecretResolver(ctx)
	if err != nil {
		_ = audit.Close()
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("secrets: %w", err)
	}

	ids := idgen.UUID{}
	registry := plugins.NewRegistry()
	registry.RegisterSource(sourceplugin.New(ids))
	registry.RegisterTarget(targetplugin.New())

	return &app{cfg: cfg, log: log, audit: audit, tracing: tp, registry: registry, ids: ids, secrets: resolver}, nil
}

// connectGraph opens the Neo4j store with resolved credentials.
func (a *app) connectGraph(ctx context.Context) (*neo4j.Repository, error) {
	user, pass, err := a.cfg.GraphCredentials(ctx, a.secrets)
	if err != nil {
		return nil, err
	}
	return neo4j.New(ctx, a.cfg.Graph.URI, user, pass)
}

func (a *app) close(ctx context.Context) {
	if err := a.tracing.Shutdown(ctx); err != nil {
		a.log.Warn("Tracing shutdown failed", "error", err)
	}
	if err := a.audit.Close(); err != nil {
		a.log.Warn("Audit log close failed", "error", err)
	}
}

func (a *app) sessionOptions() []project.Option {
	return []project.Option{
		project.WithIDs(a.ids),
		project.WithRegistry(a.registry),
		project.WithAudit(a.audit),
		project.WithLogger(a.log),
		project.WithCanvasConfig(a.cfg.CanvasSettings()),
		project.WithMaxDepth(a.cfg.History.MaxDepth),
	}
}

// openOrNew opens the project at path, or starts an empty one when the
// file does not exist yet.
func (a *app) openOrNew(ctx context.Context, path string, extra ...project.Option) (*project.Session, error) {
	opts := append(a.sessionOptions(), extra...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return project.New(project.Empty(), opts...), nil
	}
	return project.Open(ctx, path, opts...)
}

// withApp wraps a command body with app setup and teardown.
func withApp(configPath *string, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, *configPath)
		if err != nil {
			return err
		}
		defer a.close(context.WithoutCancel(ctx))
		return fn(ctx, a, args)
	}
}

func main() {
	var (
		configPath string
		dialect    string
	)

	rootCmd := &cobra.Command{
		Use:           "sikuliflow",
		Short:         "Visual automation flow editor with script import and export",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "sikuliflow.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", "sikuli", "Script dialect")

	rootCmd.AddCommand(
		exportCmd(&configPath, &dialect),
		importCmd(&configPath, &dialect),
		statsCmd(&configPath),
		dotCmd(&configPath),
		renderCmd(&configPath),
		tuiCmd(&configPath, &dialect),
		serveCmd(&configPath),
		snapshotCmd(&configPath, &dialect),
		publishCmd(&configPath),
		compileCmd(&configPath, &dialect),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
