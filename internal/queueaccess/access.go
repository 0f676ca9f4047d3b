// Package queueaccess picks the queue backend for CLI commands: the catalog
// CMS when one is configured, otherwise a running regenqd, otherwise the
// SQLite store opened directly.
package queueaccess

import (
	"context"

	"regenq/internal/cms"
	"regenq/internal/queue"
	"regenq/internal/tags"
)

// Backend names the store a Session talks to.
type Backend string

const (
	BackendCMS    Backend = "cms"
	BackendDaemon Backend = "daemon"
	BackendStore  Backend = "store"
)

// localToken stands in for a credential when the store is reached through the
// filesystem or an open daemon. File permissions guard that path.
const localToken = "local"

// TagReader loads an entry's tags. Only the CMS serves them.
type TagReader interface {
	EntryTags(ctx context.Context, token, slug string) ([]tags.Tag, error)
}

// Session is a queue access handle and its cleanup function.
type Session struct {
	Repository queue.Repository
	// Tags is nil unless the backend is the CMS.
	Tags    TagReader
	Backend Backend
	// Token is the credential commands should present.
	Token string
	// Store is set for direct store sessions.
	Store *queue.Store
	close func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// NewRemoteSession wraps an HTTP client.
func NewRemoteSession(client *cms.Client, backend Backend, token string) Session {
	session := Session{
		Repository: client,
		Backend:    backend,
		Token:      token,
	}
	if backend == BackendCMS {
		session.Tags = client
	}
	return session
}

// NewStoreSession wraps a directly opened store.
func NewStoreSession(store *queue.Store, token string) Session {
	if token == "" {
		token = localToken
	}
	return Session{
		Repository: queue.NewLocalRepository(store),
		Backend:    BackendStore,
		Token:      token,
		Store:      store,
		close:      store.Close,
	}
}
