// Package trigger notifies the external generation worker that a
// regeneration request was queued.
//
// The webhook is optional: the worker also discovers new items by polling
// the store, so a failed trigger delays processing but loses nothing.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"regenq/internal/api"
	"regenq/internal/config"
	"regenq/internal/queue"
)

const (
	userAgent      = "regenq/0.1.0"
	defaultTimeout = 10 * time.Second
)

// Trigger fires the worker webhook for a queued item.
type Trigger interface {
	Fire(ctx context.Context, token, slug string, field queue.Field) error
	// Enabled reports whether a webhook is configured.
	Enabled() bool
}

// Option customizes the webhook client.
type Option func(*webhook)

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) Option {
	return func(w *webhook) {
		if client != nil {
			w.client = client
		}
	}
}

// New builds a webhook trigger from cfg. When no URL is configured, a noop
// implementation is returned.
func New(cfg config.Trigger, opts ...Option) Trigger {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return noopTrigger{}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method != http.MethodGet {
		method = http.MethodPost
	}

	w := &webhook{
		endpoint: endpoint,
		method:   method,
		client:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type webhook struct {
	endpoint string
	method   string
	client   *http.Client
}

func (w *webhook) Enabled() bool { return true }

func (w *webhook) Fire(ctx context.Context, token, slug string, field queue.Field) error {
	req, err := w.buildRequest(ctx, slug, field)
	if err != nil {
		return queue.Upstream("trigger", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return queue.Upstream("trigger", fmt.Errorf("send webhook: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return queue.Upstream("trigger", fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (w *webhook) buildRequest(ctx context.Context, slug string, field queue.Field) (*http.Request, error) {
	if w.method == http.MethodGet {
		target, err := url.Parse(w.endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse webhook url: %w", err)
		}
		query := target.Query()
		query.Set("slug", slug)
		query.Set("field", string(field))
		target.RawQuery = query.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	}

	body, err := json.Marshal(api.TriggerRequest{Slug: slug, Field: string(field)})
	if err != nil {
		return nil, fmt.Errorf("encode webhook body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

type noopTrigger struct{}

func (noopTrigger) Enabled() bool { return false }

func (noopTrigger) Fire(context.Context, string, string, queue.Field) error { return nil }
