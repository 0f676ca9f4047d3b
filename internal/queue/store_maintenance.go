package queue

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const healthTimeout = 2 * time.Second

// Stats returns a count of items grouped by status. Every known status is
// present in the result, zero when unused.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	stats := make(map[Status]int, len(allStatuses))
	for _, status := range allStatuses {
		stats[status] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("queue stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// DatabaseHealth summarizes the local queue database for diagnostics.
type DatabaseHealth struct {
	DBPath          string `json:"dbPath"`
	SchemaVersion   int    `json:"schemaVersion"`
	ExpectedVersion int    `json:"expectedVersion"`
	JournalMode     string `json:"journalMode"`
	IntegrityOK     bool   `json:"integrityOk"`
	TotalItems      int    `json:"totalItems"`
	// InFlight counts new and pending items.
	InFlight int    `json:"inFlight"`
	Error    string `json:"error,omitempty"`
}

// Healthy reports whether the database passed every check.
func (h DatabaseHealth) Healthy() bool {
	return h.Error == "" && h.IntegrityOK && h.SchemaVersion == h.ExpectedVersion
}

type healthStep struct {
	name string
	run  func(ctx context.Context, h *DatabaseHealth) error
}

// CheckHealth runs a fixed sequence of read-only checks and stops at the
// first failure, which is recorded in the Error field and returned.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path, ExpectedVersion: SchemaVersion()}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	for _, step := range s.healthSteps() {
		if err := step.run(ctx, &health); err != nil {
			health.Error = fmt.Sprintf("%s: %v", step.name, err)
			return health, fmt.Errorf("queue health %s: %w", step.name, err)
		}
	}
	return health, nil
}

func (s *Store) healthSteps() []healthStep {
	return []healthStep{
		{"ping", func(ctx context.Context, _ *DatabaseHealth) error {
			return s.db.PingContext(ctx)
		}},
		{"schema version", func(ctx context.Context, h *DatabaseHealth) (err error) {
			h.SchemaVersion, err = s.readSchemaVersion(ctx)
			return err
		}},
		{"journal mode", func(ctx context.Context, h *DatabaseHealth) error {
			return s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&h.JournalMode)
		}},
		{"quick check", func(ctx context.Context, h *DatabaseHealth) error {
			var result string
			if err := s.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
				return err
			}
			h.IntegrityOK = strings.EqualFold(result, "ok")
			return nil
		}},
		{"count items", func(ctx context.Context, h *DatabaseHealth) error {
			return s.db.QueryRowContext(ctx,
				`SELECT COUNT(1), COALESCE(SUM(status IN ('new', 'pending')), 0) FROM queue_items`,
			).Scan(&h.TotalItems, &h.InFlight)
		}},
	}
}
