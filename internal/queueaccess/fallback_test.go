package queueaccess_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"regenq/internal/cms"
	"regenq/internal/daemon"
	"regenq/internal/logging"
	"regenq/internal/queue"
	"regenq/internal/queueaccess"
	"regenq/internal/testsupport"
)

func TestOpenUsesConfiguredCMS(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCMS("https://cms.example.com", "cms-token"))

	session, err := queueaccess.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer session.Close()

	if session.Backend != queueaccess.BackendCMS {
		t.Fatalf("expected cms backend, got %s", session.Backend)
	}
	if session.Token != "cms-token" {
		t.Fatalf("unexpected token %q", session.Token)
	}
	if session.Tags == nil {
		t.Fatal("cms sessions should expose entry tags")
	}
}

func TestOpenFallsBackToStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "127.0.0.1:1"

	session, err := queueaccess.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer session.Close()

	if session.Backend != queueaccess.BackendStore {
		t.Fatalf("expected store backend, got %s", session.Backend)
	}
	if session.Tags != nil {
		t.Fatal("store sessions cannot serve tags")
	}
	item, err := session.Repository.Create(context.Background(), session.Token, queue.NewItem{Slug: "acme-crm"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.Status != queue.StatusNew {
		t.Fatalf("expected new item, got %s", item.Status)
	}
}

func TestOpenWithFallbackPrefersDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	storeOpened := false
	session, err := queueaccess.OpenWithFallback(
		func() (*cms.Client, error) { return cms.New(srv.URL) },
		func() (*queue.Store, error) {
			storeOpened = true
			return nil, errors.New("unexpected")
		},
		"daemon-token",
		"",
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	defer session.Close()

	if storeOpened {
		t.Fatal("store should not be opened when the daemon answers")
	}
	if session.Backend != queueaccess.BackendDaemon || session.Token != "daemon-token" {
		t.Fatalf("unexpected session: backend=%s token=%q", session.Backend, session.Token)
	}
	if _, err := session.Repository.Create(context.Background(), session.Token, queue.NewItem{Slug: "acme-crm"}); err != nil {
		t.Fatalf("Create via daemon: %v", err)
	}
}

func TestOpenWithFallbackReportsStoreError(t *testing.T) {
	_, err := queueaccess.OpenWithFallback(
		func() (*cms.Client, error) { return nil, errors.New("down") },
		func() (*queue.Store, error) { return nil, errors.New("disk full") },
		"", "",
	)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, err := queueaccess.OpenWithFallback(nil, nil, "", ""); err == nil {
		t.Fatal("expected error without a store opener")
	}
}

func TestStoreSessionDefaultsToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	session := queueaccess.NewStoreSession(store, "")
	if session.Token == "" {
		t.Fatal("store sessions need a non-empty token for the request services")
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
