package queueaccess

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"regenq/internal/cms"
	"regenq/internal/config"
	"regenq/internal/queue"
)

const dialTimeout = 500 * time.Millisecond

var errDaemonNotRunning = errors.New("regenqd not reachable")

// Open returns a session for cfg. A configured CMS is used exclusively;
// without one the local daemon is preferred and the store file is the last
// resort.
func Open(cfg *config.Config) (Session, error) {
	if strings.TrimSpace(cfg.CMS.BaseURL) != "" {
		client, err := cms.NewFromConfig(cfg)
		if err != nil {
			return Session{}, err
		}
		return NewRemoteSession(client, BackendCMS, cfg.CMS.Token), nil
	}
	return OpenWithFallback(
		func() (*cms.Client, error) { return dialDaemon(cfg) },
		func() (*queue.Store, error) { return queue.Open(cfg) },
		daemonToken(cfg),
		cfg.CMS.Token,
	)
}

// OpenWithFallback tries daemon-backed access first, then falls back to
// direct store access.
func OpenWithFallback(
	dial func() (*cms.Client, error),
	openStore func() (*queue.Store, error),
	daemonToken string,
	storeToken string,
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return NewRemoteSession(client, BackendDaemon, daemonToken), nil
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open queue store: no store opener configured")
	}
	store, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return NewStoreSession(store, storeToken), nil
}

func dialDaemon(cfg *config.Config) (*cms.Client, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errDaemonNotRunning
	}
	conn, err := net.DialTimeout("tcp", bind, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDaemonNotRunning, err)
	}
	_ = conn.Close()
	return cms.NewFromConfig(cfg)
}

func daemonToken(cfg *config.Config) string {
	for _, candidate := range []string{cfg.Paths.APIToken, cfg.CMS.Token} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return localToken
}
