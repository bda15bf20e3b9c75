package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Config configures a Server.
type Config struct {
	Addr            string
	Version         string
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server combines the API, health probes and graceful shutdown.
type Server struct {
	Health   *Health
	API      *API
	Shutdown *ShutdownHandler

	http *http.Server
	log  *slog.Logger
}

// New builds a Server for api. The shutdown handler stops the listener
// and marks the server not ready as soon as shutdown begins.
func New(cfg Config, api *API) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownConfig().Timeout
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	health := NewHealth(cfg.Version)
	shutdown := NewShutdownHandler(&ShutdownConfig{
		Timeout: timeout,
		Signals: DefaultShutdownConfig().Signals,
		Logger:  log,
	})

	mux := http.NewServeMux()
	health.Register(mux)
	api.Register(mux)

	s := &Server{
		Health:   health,
		API:      api,
		Shutdown: shutdown,
		log:      log,
		http: &http.Server{
			Addr:              addr,
			Handler:           api.Middleware(mux),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
	}
	shutdown.Add(HTTPServerShutdownHook("api", s.http.Shutdown))

	go func() {
		<-shutdown.ShutdownCh()
		health.SetReady(false)
		api.Events().Close()
	}()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Serve accepts connections on l until shutdown completes.
func (s *Server) Serve(l net.Listener) error {
	s.Shutdown.Start()
	s.Health.SetReady(true)
	s.log.Info("server listening", "addr", l.Addr().String())

	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	s.Shutdown.Wait()
	return nil
}

// ListenAndServe listens on the configured address and serves until
// shutdown completes.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	go func() {
		<-ctx.Done()
		s.Shutdown.Shutdown()
	}()
	return s.Serve(l)
}
