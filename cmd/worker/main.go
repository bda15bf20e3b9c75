package main

import (
	"context"
	"fmt"
	"log"
	"os"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/efebarandurmaz/sikuliflow/internal/config"
	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/observability"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
	sourceplugin "github.com/efebarandurmaz/sikuliflow/internal/plugins/source/sikuli"
	targetplugin "github.com/efebarandurmaz/sikuliflow/internal/plugins/target/sikuli"
	"github.com/efebarandurmaz/sikuliflow/internal/server"
	temporalmod "github.com/efebarandurmaz/sikuliflow/internal/temporal"
)

func main() {
	configPath := "sikuliflow.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := observability.NewLogger(os.Stderr, cfg.LogSettings())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx := context.Background()
	tp, err := observability.InitTracing(ctx, cfg.TracingSettings())
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}
	audit, err := observability.NewAuditLogger(cfg.AuditSettings())
	if err != nil {
		log.Fatalf("audit: %v", err)
	}

	registry := plugins.NewRegistry()
	registry.RegisterSource(sourceplugin.New(idgen.UUID{}))
	registry.RegisterTarget(targetplugin.New())

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue, &temporalmod.Activities{
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	fmt.Printf("Worker started on task queue: %s\n", cfg.Temporal.TaskQueue)

	shutdown := server.NewShutdownHandler(&server.ShutdownConfig{
		Timeout: cfg.ShutdownTimeout(),
		Signals: server.DefaultShutdownConfig().Signals,
		Logger:  logger,
	})
	shutdown.Add(server.TemporalWorkerShutdownHook(w.Stop))
	shutdown.Add(server.TracingShutdownHook(tp.Shutdown))
	shutdown.Add(server.AuditLoggerShutdownHook(audit.Close))
	shutdown.Start()
	shutdown.Wait()

	fmt.Println("Worker stopped")
}
