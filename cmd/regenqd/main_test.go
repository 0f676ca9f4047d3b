package main

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"regenq/internal/daemon"
	"regenq/internal/logging"
	"regenq/internal/testsupport"
)

func TestServeRefusesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	lock := flock.New(cfg.LockPath())
	if ok, err := lock.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer lock.Unlock()

	err := serve(context.Background(), cfg, logging.NewNop())
	if !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	cfg.Paths.APIBind = listener.Addr().String()
	listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, logging.NewNop()) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.DialTimeout("tcp", cfg.Paths.APIBind, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never listened on %s: %v", cfg.Paths.APIBind, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}

func TestBootstrapUsesDefaultsForMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, logger, err := bootstrap(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if cfg == nil || logger == nil {
		t.Fatal("expected config and logger")
	}
	if cfg.Paths.APIBind == "" {
		t.Fatal("expected default api_bind")
	}
}
