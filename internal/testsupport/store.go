package testsupport

import (
	"context"
	"testing"

	"regenq/internal/config"
	"regenq/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewItem creates an item for tests using the provided store.
func NewItem(t testing.TB, store *queue.Store, slug string, field queue.Field) *queue.Item {
	t.Helper()

	item, err := store.Create(context.Background(), queue.NewItem{Slug: slug, Field: field})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return item
}

// SetStatus moves an item to status the way the external worker would.
func SetStatus(t testing.TB, store *queue.Store, id string, status queue.Status) *queue.Item {
	t.Helper()

	item, err := store.Update(context.Background(), id, queue.StatusPatch(status))
	if err != nil {
		t.Fatalf("store.Update: %v", err)
	}
	return item
}
