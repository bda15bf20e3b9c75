package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"syscall"
	"testing"
	"time"
)

func quietShutdown(timeout time.Duration) *ShutdownHandler {
	return NewShutdownHandler(&ShutdownConfig{
		Timeout: timeout,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestDefaultShutdownConfig(t *testing.T) {
	cfg := DefaultShutdownConfig()
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", cfg.Timeout)
	}
	if len(cfg.Signals) != 2 || cfg.Signals[0] != syscall.SIGTERM {
		t.Fatalf("unexpected signals %v", cfg.Signals)
	}
}

func TestShutdownHandler_HookPriority(t *testing.T) {
	h := quietShutdown(time.Second)
	h.RegisterHook("low", 100, func(context.Context) error { return nil })
	h.RegisterHook("high", 1, func(context.Context) error { return nil })
	h.RegisterHook("mid", 50, func(context.Context) error { return nil })
	h.RegisterHook("mid-2", 50, func(context.Context) error { return nil })

	want := []string{"high", "mid", "mid-2", "low"}
	for i, name := range want {
		if h.hooks[i].Name != name {
			t.Fatalf("hook %d = %s, want %s", i, h.hooks[i].Name, name)
		}
	}
}

func TestShutdownHandler_HookOrder(t *testing.T) {
	h := quietShutdown(5 * time.Second)
	var order []int
	h.RegisterHook("third", 30, func(context.Context) error { order = append(order, 3); return nil })
	h.RegisterHook("first", 10, func(context.Context) error { order = append(order, 1); return nil })
	h.RegisterHook("second", 20, func(context.Context) error { order = append(order, 2); return nil })

	h.Start()
	h.Shutdown()
	h.Wait()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected order [1 2 3], got %v", order)
	}
}

func TestShutdownHandler_HookWithError(t *testing.T) {
	h := quietShutdown(5 * time.Second)
	called := false
	h.RegisterHook("failing", 10, func(context.Context) error { return errors.New("hook failed") })
	h.RegisterHook("after", 20, func(context.Context) error { called = true; return nil })

	h.Start()
	h.Shutdown()
	h.Wait()

	if !called {
		t.Fatal("expected second hook to run despite first failing")
	}
}

func TestShutdownHandler_WaitWithTimeout(t *testing.T) {
	h := quietShutdown(10 * time.Second)
	release := make(chan struct{})
	h.RegisterHook("slow", 10, func(context.Context) error { <-release; return nil })

	h.Start()
	h.Shutdown()
	if h.WaitWithTimeout(50 * time.Millisecond) {
		t.Fatal("expected timeout while hook blocks")
	}
	close(release)
	if !h.WaitWithTimeout(2 * time.Second) {
		t.Fatal("expected shutdown to finish")
	}
}

func TestShutdownHandler_ShutdownBeforeStart(t *testing.T) {
	h := quietShutdown(time.Second)
	h.Shutdown()
	select {
	case <-h.ShutdownCh():
		t.Fatal("shutdown before start should be ignored")
	default:
	}
}

func TestShutdownHandler_DoubleStartAndShutdown(t *testing.T) {
	h := quietShutdown(time.Second)
	h.Start()
	h.Start()
	h.Shutdown()
	h.Shutdown()
	if !h.WaitWithTimeout(2 * time.Second) {
		t.Fatal("shutdown did not complete")
	}
}

func TestPrebuiltHooks(t *testing.T) {
	stopped := false
	closed := false
	hooks := []ShutdownHook{
		AuditLoggerShutdownHook(func() error { closed = true; return nil }),
		TemporalWorkerShutdownHook(func() { stopped = true }),
		HTTPServerShutdownHook("api", func(context.Context) error { return nil }),
		GraphStoreShutdownHook(func(context.Context) error { return nil }),
		TracingShutdownHook(func(context.Context) error { return nil }),
	}
	h := quietShutdown(time.Second)
	for _, hook := range hooks {
		h.Add(hook)
	}
	want := []string{"api", "temporal-worker", "tracing", "graph-store", "audit-logger"}
	for i, name := range want {
		if h.hooks[i].Name != name {
			t.Errorf("hook %d = %s, want %s", i, h.hooks[i].Name, name)
		}
	}

	h.Start()
	h.Shutdown()
	h.Wait()
	if !stopped || !closed {
		t.Errorf("stopped=%v closed=%v", stopped, closed)
	}
}
