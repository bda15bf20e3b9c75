package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/efebarandurmaz/sikuliflow/internal/graph"
	"github.com/efebarandurmaz/sikuliflow/internal/graph/neo4j"
	"github.com/efebarandurmaz/sikuliflow/internal/observability"
	"github.com/efebarandurmaz/sikuliflow/internal/project"
	"github.com/efebarandurmaz/sikuliflow/internal/server"
	temporalmod "github.com/efebarandurmaz/sikuliflow/internal/temporal"
	"github.com/efebarandurmaz/sikuliflow/internal/tui"
)

func tuiCmd(configPath, dialect *string) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "tui [project.json]",
		Short: "Edit a project on the terminal canvas",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			path := "project.json"
			if len(args) == 1 {
				path = args[0]
			}
			// Log lines would tear the alternate screen.
			s, err := a.openOrNew(ctx, path, project.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
			if err != nil {
				return err
			}

			_, err = tui.Run(ctx, s, tui.Options{
				Path:      path,
				Dialect:   *dialect,
				OutputDir: outputDir,
				GroupKey:  a.cfg.Keys.Group,
			})
			return err
		}),
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "scripts", "Export directory for ctrl+e")
	return cmd
}

func serveCmd(configPath *string) *cobra.Command {
	var (
		addr      string
		withGraph bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export, import and analysis API",
		Args:  cobra.NoArgs,
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			opts := []server.APIOption{
				server.WithMetrics(observability.NewFlowMetrics()),
				server.WithAudit(a.audit),
				server.WithLogger(a.log),
			}
			var repo *neo4j.Repository
			if withGraph {
				var err error
				repo, err = a.connectGraph(ctx)
				if err != nil {
					return err
				}
				opts = append(opts, server.WithRepository(repo))
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := server.New(server.Config{
				Addr:            addr,
				Version:         version,
				ShutdownTimeout: a.cfg.ShutdownTimeout(),
				Logger:          a.log,
			}, server.NewAPI(a.registry, opts...))

			srv.Health.RegisterCheck("snapshots", server.SnapshotDirHealthChecker(a.cfg.Store.Dir))
			if repo != nil {
				srv.Health.RegisterCheck("graph", server.GraphStoreHealthChecker(repo.Ping))
				srv.Shutdown.Add(server.GraphStoreShutdownHook(repo.Close))
			}

			a.log.Info("Starting api server", "addr", addr, "graph_store", withGraph)
			return srv.ListenAndServe(ctx)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr)")
	cmd.Flags().BoolVar(&withGraph, "graph", false, "Connect the Neo4j graph store for publishing")
	return cmd
}

func publishCmd(configPath *string) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "publish <project.json>",
		Short: "Store a project's function library in Neo4j",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			s, err := project.Open(ctx, args[0], a.sessionOptions()...)
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[0])
			}

			repo, err := a.connectGraph(ctx)
			if err != nil {
				return err
			}
			defer repo.Close(context.WithoutCancel(ctx))

			defs := s.Library().List()
			err = graph.Publish(ctx, repo, name, s.Library())
			a.audit.LogProject(ctx, observability.AuditEventLibraryPublish, args[0], len(defs), err)
			if err != nil {
				return err
			}
			fmt.Printf("Published %d functions as %s\n", len(defs), name)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "Project name in the graph store (defaults to the file name)")
	return cmd
}

func compileCmd(configPath, dialect *string) *cobra.Command {
	var (
		outputDir   string
		withSnap    bool
		description string
	)
	cmd := &cobra.Command{
		Use:   "compile <project.json>",
		Short: "Run the compile workflow on a Temporal worker",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			projectPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			outDir, err := filepath.Abs(outputDir)
			if err != nil {
				return err
			}
			input := temporalmod.CompileInput{
				ProjectPath: projectPath,
				Dialect:     *dialect,
				OutputDir:   outDir,
				Description: description,
			}
			if withSnap {
				if input.SnapshotDir, err = filepath.Abs(a.cfg.Store.Dir); err != nil {
					return err
				}
			}

			c, err := temporalclient.Dial(temporalclient.Options{
				HostPort:  a.cfg.Temporal.Host,
				Namespace: a.cfg.Temporal.Namespace,
			})
			if err != nil {
				return fmt.Errorf("temporal client: %w", err)
			}
			defer c.Close()

			workflowID := "compile-" + a.ids.NewID()
			start := time.Now()
			a.audit.LogCompile(ctx, observability.AuditEventCompileStart, workflowID, true, 0, 0)
			run, err := c.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
				ID:        workflowID,
				TaskQueue: a.cfg.Temporal.TaskQueue,
			}, temporalmod.CompileProjectWorkflow, input)
			if err != nil {
				a.audit.LogCompile(ctx, observability.AuditEventCompileEnd, workflowID, false, time.Since(start), 0)
				return fmt.Errorf("starting workflow: %w", err)
			}
			a.log.Info("Compile workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())

			var out temporalmod.CompileOutput
			err = run.Get(ctx, &out)
			a.audit.LogCompile(ctx, observability.AuditEventCompileEnd, workflowID, err == nil, time.Since(start), len(out.Files))
			if err != nil {
				return fmt.Errorf("compile workflow: %w", err)
			}

			for _, w := range out.Warnings {
				fmt.Printf("Warning: %s\n", w)
			}
			for _, p := range out.Files {
				fmt.Println(p)
			}
			if out.SnapshotID != "" {
				fmt.Printf("Snapshot %s\n", out.SnapshotID)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "scripts", "Output directory on the worker host")
	cmd.Flags().BoolVar(&withSnap, "snapshot", false, "Checkpoint the result into store.dir")
	cmd.Flags().StringVarP(&description, "message", "m", "", "Snapshot description")
	return cmd
}
