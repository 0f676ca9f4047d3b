package regen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"regenq/internal/config"
	"regenq/internal/logging"
	"regenq/internal/metrics"
	"regenq/internal/queue"
	"regenq/internal/trigger"
)

// Service creates regeneration requests.
type Service struct {
	repo     queue.Repository
	trigger  trigger.Trigger
	logger   *slog.Logger
	metrics  *metrics.Metrics
	coalesce bool
}

// Option customizes a Service.
type Option func(*Service)

// WithTrigger fires tr after each successful create.
func WithTrigger(tr trigger.Trigger) Option {
	return func(s *Service) {
		if tr != nil {
			s.trigger = tr
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logging.NewComponentLogger(logger, "regen")
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCoalescing returns an existing in-flight item for the same slug and
// field instead of creating a duplicate.
func WithCoalescing(enabled bool) Option {
	return func(s *Service) { s.coalesce = enabled }
}

// New builds a Service around repo.
func New(repo queue.Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		trigger: trigger.New(config.Trigger{}),
		logger:  logging.NewComponentLogger(nil, "regen"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig wires the webhook and coalescing settings from cfg.
func NewFromConfig(cfg *config.Config, repo queue.Repository, logger *slog.Logger, m *metrics.Metrics) *Service {
	return New(repo,
		WithTrigger(trigger.New(cfg.Trigger)),
		WithCoalescing(cfg.Regen.CoalesceInFlight),
		WithLogger(logger),
		WithMetrics(m),
	)
}

// Request queues a regeneration of field for target. Validation and
// credential checks happen before any store call.
//
// When the webhook fails after a successful create, the created item is
// returned together with an upstream error: the request is queued and the
// worker will still discover it by polling.
func (s *Service) Request(ctx context.Context, token, target, field string) (*queue.Item, error) {
	req := NewRequest(target, field)
	if err := req.Validate(); err != nil {
		s.record(req.Field, queue.KindValidation)
		return nil, queue.ValidationErr("regen request", err)
	}
	if token == "" {
		s.record(req.Field, queue.KindAuthentication)
		return nil, queue.AuthRequired("regen request")
	}
	return s.request(ctx, token, req)
}

func (s *Service) request(ctx context.Context, token string, req Request) (*queue.Item, error) {
	field := req.QueueField()
	logger := s.logger.With(
		logging.String(logging.FieldSlug, req.Target),
		logging.String(logging.FieldField, field.Label()),
	)

	if s.coalesce {
		existing, err := s.repo.LatestBySlug(ctx, token, req.Target)
		if err != nil {
			err = queue.ForceUpstream("regen request", err)
			s.record(string(field), queue.KindOf(err))
			return nil, err
		}
		if existing != nil && existing.Status.InFlight() && existing.Field == field {
			logger.Info("request coalesced into in-flight item",
				logging.String(logging.FieldItemID, existing.ID),
				logging.String(logging.FieldStatus, string(existing.Status)),
			)
			s.record(string(field), metrics.ResultCoalesced)
			return existing, nil
		}
	}

	item, err := s.repo.Create(ctx, token, queue.NewItem{
		Slug:   req.Target,
		Field:  field,
		Status: queue.StatusNew,
	})
	if err != nil {
		err = queue.ForceUpstream("regen request", err)
		logging.ErrorWithContext(logger, "queue item create failed", "regen_create_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, queue.KindOf(err)),
			logging.String(logging.FieldErrorHint, "check the store endpoint and credential"),
		)
		s.record(string(field), queue.KindOf(err))
		return nil, err
	}
	s.record(string(field), metrics.ResultOK)
	logger.Info("regeneration queued",
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldStatus, string(item.Status)),
	)

	if !s.trigger.Enabled() {
		s.metrics.TriggerCall(metrics.ResultSkipped)
		return item, nil
	}
	if err := s.trigger.Fire(ctx, token, item.Slug, item.Field); err != nil {
		s.metrics.TriggerCall(queue.KindOf(err))
		logging.WarnWithContext(logger, "worker trigger failed", "trigger_failed",
			logging.String(logging.FieldItemID, item.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the worker will pick the item up on its next poll"),
			logging.String(logging.FieldImpact, "processing may start later than usual"),
		)
		return item, err
	}
	s.metrics.TriggerCall(metrics.ResultOK)
	return item, nil
}

// RequestMany queues field for every target independently. Items that were
// created are returned even when other targets fail; failures are joined.
// Duplicate targets are not collapsed.
func (s *Service) RequestMany(ctx context.Context, token string, targets []string, field string) ([]*queue.Item, error) {
	if len(targets) == 0 {
		return nil, queue.Validation("regen bulk", "at least one target is required")
	}
	probe := NewRequest("probe", field)
	if err := probe.Validate(); err != nil {
		return nil, queue.ValidationErr("regen bulk", err)
	}
	if token == "" {
		return nil, queue.AuthRequired("regen bulk")
	}

	var (
		items []*queue.Item
		errs  []error
	)
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, queue.Upstream("regen bulk", err))
			break
		}
		item, err := s.Request(ctx, token, target, field)
		if item != nil {
			items = append(items, item)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", target, err))
		}
	}
	return items, errors.Join(errs...)
}

// record keeps the field label bounded: unknown values collapse to "invalid".
func (s *Service) record(raw, result string) {
	label := "invalid"
	if field, ok := queue.ParseField(raw); ok {
		label = field.Label()
	}
	s.metrics.RegenRequest(label, result)
}
