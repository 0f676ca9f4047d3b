package poller

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"regenq/internal/queue"
)

// ErrHubClosed is returned by Watch after Close.
var ErrHubClosed = errors.New("poller hub closed")

// Hub owns one Poller per slug. Each poller runs on its own timer.
type Hub struct {
	reader queue.LatestReader
	opts   []Option

	mu      sync.Mutex
	pollers map[string]*Poller
	closed  bool
}

// NewHub builds a hub whose pollers share reader and opts.
func NewHub(reader queue.LatestReader, opts ...Option) *Hub {
	return &Hub{
		reader:  reader,
		opts:    opts,
		pollers: make(map[string]*Poller),
	}
}

// Watch returns the poller for slug, creating and attaching it when needed.
// A poller whose initial read failed is still registered so a later Kick can
// start it; the read error is returned alongside it.
func (h *Hub) Watch(ctx context.Context, token, slug string) (*Poller, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, queue.Validation("poller watch", "slug is required")
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	if existing, ok := h.pollers[slug]; ok {
		h.mu.Unlock()
		return existing, nil
	}
	p := New(h.reader, token, slug, h.opts...)
	h.pollers[slug] = p
	h.mu.Unlock()

	if err := p.Attach(ctx); err != nil {
		return p, err
	}
	return p, nil
}

// Get returns the poller for slug, if watched.
func (h *Hub) Get(slug string) (*Poller, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pollers[strings.TrimSpace(slug)]
	return p, ok
}

// Unwatch detaches and forgets the poller for slug.
func (h *Hub) Unwatch(slug string) {
	h.mu.Lock()
	p, ok := h.pollers[strings.TrimSpace(slug)]
	delete(h.pollers, strings.TrimSpace(slug))
	h.mu.Unlock()
	if ok {
		p.Detach()
	}
}

// Close detaches every poller. Watch fails afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	pollers := make([]*Poller, 0, len(h.pollers))
	for _, p := range h.pollers {
		pollers = append(pollers, p)
	}
	h.pollers = make(map[string]*Poller)
	h.mu.Unlock()

	for _, p := range pollers {
		p.Detach()
	}
}

// Snapshots returns every poller's snapshot ordered by slug.
func (h *Hub) Snapshots() []Snapshot {
	h.mu.Lock()
	pollers := make([]*Poller, 0, len(h.pollers))
	for _, p := range h.pollers {
		pollers = append(pollers, p)
	}
	h.mu.Unlock()

	out := make([]Snapshot, 0, len(pollers))
	for _, p := range pollers {
		out = append(out, p.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
