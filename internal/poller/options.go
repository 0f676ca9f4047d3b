package poller

import (
	"log/slog"
	"time"

	"regenq/internal/config"
	"regenq/internal/logging"
	"regenq/internal/metrics"
)

// DefaultInterval is the delay between reads in a round.
const DefaultInterval = time.Second

type Option func(*Poller)

// WithInterval sets the tick interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxDuration bounds a round. Zero keeps polling until a terminal status.
func WithMaxDuration(d time.Duration) Option {
	return func(p *Poller) {
		if d >= 0 {
			p.maxDuration = d
		}
	}
}

func WithTicker(factory TickerFactory) Option {
	return func(p *Poller) {
		if factory != nil {
			p.newTicker = factory
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = logging.NewComponentLogger(logger, "poller")
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithObserver registers fn to receive every published snapshot. It is
// called without the poller lock held.
func WithObserver(fn func(Snapshot)) Option {
	return func(p *Poller) { p.observer = fn }
}

// ConfigOptions translates the [poller] section of cfg.
func ConfigOptions(cfg *config.Config) []Option {
	if cfg == nil {
		return nil
	}
	return []Option{
		WithInterval(cfg.PollInterval()),
		WithMaxDuration(cfg.PollMaxDuration()),
	}
}
