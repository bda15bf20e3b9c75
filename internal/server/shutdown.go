package server

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
)

// ShutdownHandler runs registered hooks in priority order when a signal
// arrives or Shutdown is called.
type ShutdownHandler struct {
	mu           sync.Mutex
	hooks        []ShutdownHook
	timeout      time.Duration
	signals      []os.Signal
	log          *slog.Logger
	shutdownCh   chan struct{}
	doneCh       chan struct{}
	started      bool
	shutdownOnce sync.Once
	doneOnce     sync.Once
}

// ShutdownHook is a function called during shutdown.
type ShutdownHook struct {
	Name     string
	Priority int // lower runs first
	Fn       func(ctx context.Context) error
}

// ShutdownConfig configures the shutdown handler.
type ShutdownConfig struct {
	Timeout time.Duration
	Signals []os.Signal
	Logger  *slog.Logger
}

// DefaultShutdownConfig waits 30s on SIGTERM or SIGINT.
func DefaultShutdownConfig() *ShutdownConfig {
	return &ShutdownConfig{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{syscall.SIGTERM, syscall.SIGINT},
	}
}

// NewShutdownHandler creates a new shutdown handler.
func NewShutdownHandler(config *ShutdownConfig) *ShutdownHandler {
	if config == nil {
		config = DefaultShutdownConfig()
	}
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}
	return &ShutdownHandler{
		timeout:    config.Timeout,
		signals:    config.Signals,
		log:        log,
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// RegisterHook adds a shutdown hook.
func (s *ShutdownHandler) RegisterHook(name string, priority int, fn func(ctx context.Context) error) {
	s.Add(ShutdownHook{Name: name, Priority: priority, Fn: fn})
}

// Add registers a prebuilt hook.
func (s *ShutdownHandler) Add(hook ShutdownHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
	sort.SliceStable(s.hooks, func(i, j int) bool { return s.hooks[i].Priority < s.hooks[j].Priority })
}

// Start begins listening for shutdown signals.
func (s *ShutdownHandler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	if len(s.signals) > 0 {
		signal.Notify(sigCh, s.signals...)
	}

	go func() {
		select {
		case sig := <-sigCh:
			signal.Stop(sigCh)
			s.log.Info("shutdown signal received", "signal", sig.String())
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
		case <-s.shutdownCh:
			signal.Stop(sigCh)
		}
		s.shutdown()
	}()
}

// Shutdown triggers a manual shutdown. It is a no-op before Start.
func (s *ShutdownHandler) Shutdown() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}

// Wait blocks until shutdown is complete.
func (s *ShutdownHandler) Wait() {
	<-s.doneCh
}

// WaitWithTimeout blocks until shutdown is complete or timeout.
func (s *ShutdownHandler) WaitWithTimeout(timeout time.Duration) bool {
	select {
	case <-s.doneCh:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Done returns a channel that closes when shutdown is complete.
func (s *ShutdownHandler) Done() <-chan struct{} {
	return s.doneCh
}

// ShutdownCh returns a channel that closes when shutdown starts.
func (s *ShutdownHandler) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

func (s *ShutdownHandler) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.mu.Lock()
	hooks := make([]ShutdownHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for _, hook := range hooks {
		if err := hook.Fn(ctx); err != nil {
			s.log.Error("shutdown hook failed", "hook", hook.Name, "error", err)
			continue
		}
		s.log.Debug("shutdown hook done", "hook", hook.Name)
	}
	s.doneOnce.Do(func() { close(s.doneCh) })
}

// HTTPServerShutdownHook stops accepting connections first.
func HTTPServerShutdownHook(name string, shutdownFn func(ctx context.Context) error) ShutdownHook {
	return ShutdownHook{Name: name, Priority: 10, Fn: shutdownFn}
}

// TemporalWorkerShutdownHook stops a worker after the HTTP servers.
func TemporalWorkerShutdownHook(stopFn func()) ShutdownHook {
	return ShutdownHook{
		Name:     "temporal-worker",
		Priority: 20,
		Fn: func(context.Context) error {
			stopFn()
			return nil
		},
	}
}

// TracingShutdownHook flushes the tracer provider.
func TracingShutdownHook(shutdownFn func(ctx context.Context) error) ShutdownHook {
	return ShutdownHook{Name: "tracing", Priority: 80, Fn: shutdownFn}
}

// GraphStoreShutdownHook closes the graph database driver.
func GraphStoreShutdownHook(closeFn func(ctx context.Context) error) ShutdownHook {
	return ShutdownHook{Name: "graph-store", Priority: 90, Fn: closeFn}
}

// AuditLoggerShutdownHook closes the audit log last.
func AuditLoggerShutdownHook(closeFn func() error) ShutdownHook {
	return ShutdownHook{
		Name:     "audit-logger",
		Priority: 95,
		Fn: func(context.Context) error {
			return closeFn()
		},
	}
}
