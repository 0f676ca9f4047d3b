package admin

import (
	"context"
	"log/slog"
	"strings"

	"regenq/internal/config"
	"regenq/internal/logging"
	"regenq/internal/queue"
)

// Manager is the administrative façade over a queue.Repository.
type Manager struct {
	repo        queue.Repository
	pageSize    int
	maxPageSize int
	logger      *slog.Logger
}

type Option func(*Manager)

// WithPageSize sets the default and maximum page sizes. Non-positive values
// keep the current setting.
func WithPageSize(def, max int) Option {
	return func(m *Manager) {
		if def > 0 {
			m.pageSize = def
		}
		if max > 0 {
			m.maxPageSize = max
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.NewComponentLogger(logger, "admin")
	}
}

// New builds a Manager around repo.
func New(repo queue.Repository, opts ...Option) *Manager {
	defaults := config.Default().Admin
	m := &Manager{
		repo:        repo,
		pageSize:    defaults.PageSize,
		maxPageSize: defaults.MaxPageSize,
		logger:      logging.NewComponentLogger(nil, "admin"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.pageSize > m.maxPageSize {
		m.pageSize = m.maxPageSize
	}
	return m
}

// NewFromConfig applies the [admin] section of cfg.
func NewFromConfig(cfg *config.Config, repo queue.Repository, logger *slog.Logger) *Manager {
	return New(repo,
		WithPageSize(cfg.Admin.PageSize, cfg.Admin.MaxPageSize),
		WithLogger(logger),
	)
}

// List returns one page of items, newest first.
func (m *Manager) List(ctx context.Context, token string, req ListRequest) (*queue.Page, error) {
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := req.Validate(); err != nil {
		return nil, queue.ValidationErr("admin list", err)
	}
	if err := requireToken(token, "admin list"); err != nil {
		return nil, err
	}

	opts := queue.ListOptions{
		Page:     req.Page,
		PageSize: m.clampPageSize(req.PageSize),
		Status:   req.status(),
		Slug:     strings.TrimSpace(req.Slug),
	}
	page, err := m.repo.List(ctx, token, opts.Normalized())
	if err != nil {
		return nil, queue.Upstream("admin list", err)
	}
	return page, nil
}

// Describe loads a single item.
func (m *Manager) Describe(ctx context.Context, token, id string) (*queue.Item, error) {
	id, err := checkID(id, token, "admin describe")
	if err != nil {
		return nil, err
	}
	item, err := m.repo.Get(ctx, token, id)
	if err != nil {
		return nil, queue.Upstream("admin describe", err)
	}
	if item == nil {
		return nil, queue.NotFound("admin describe", id)
	}
	return item, nil
}

// UpdateStatus moves an item to status.
func (m *Manager) UpdateStatus(ctx context.Context, token, id, status string) (*queue.Item, error) {
	return m.UpdateFields(ctx, token, id, FieldsPatch{Status: &status})
}

// UpdateFields applies patch after validating every supplied value.
func (m *Manager) UpdateFields(ctx context.Context, token, id string, patch FieldsPatch) (*queue.Item, error) {
	if err := patch.Validate(); err != nil {
		return nil, queue.ValidationErr("admin update", err)
	}
	id, err := checkID(id, token, "admin update")
	if err != nil {
		return nil, err
	}
	item, err := m.repo.Update(ctx, token, id, patch.Patch())
	if err != nil {
		return nil, queue.Upstream("admin update", err)
	}
	m.logger.Info("queue item updated",
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldSlug, item.Slug),
		logging.String(logging.FieldStatus, string(item.Status)),
	)
	return item, nil
}

// Delete permanently removes an item.
func (m *Manager) Delete(ctx context.Context, token, id string) error {
	id, err := checkID(id, token, "admin delete")
	if err != nil {
		return err
	}
	if err := m.repo.Delete(ctx, token, id); err != nil {
		return queue.Upstream("admin delete", err)
	}
	m.logger.Info("queue item deleted", logging.String(logging.FieldItemID, id))
	return nil
}

// Stats reports per-status totals. Each status costs one single-row list
// call; every status is present in the result.
func (m *Manager) Stats(ctx context.Context, token string) (map[queue.Status]int, error) {
	if err := requireToken(token, "admin stats"); err != nil {
		return nil, err
	}
	stats := make(map[queue.Status]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		page, err := m.repo.List(ctx, token, queue.ListOptions{Page: 1, PageSize: 1, Status: status})
		if err != nil {
			return nil, queue.Upstream("admin stats", err)
		}
		stats[status] = page.Pagination.Total
	}
	return stats, nil
}

func (m *Manager) clampPageSize(size int) int {
	if size <= 0 {
		return m.pageSize
	}
	if size > m.maxPageSize {
		return m.maxPageSize
	}
	return size
}

func checkID(id, token, op string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", queue.Validation(op, "item id is required")
	}
	if err := requireToken(token, op); err != nil {
		return "", err
	}
	return id, nil
}

func requireToken(token, op string) error {
	if strings.TrimSpace(token) == "" {
		return queue.AuthRequired(op)
	}
	return nil
}
