package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var baseSchema string

// migrations[v] upgrades a database at version v to version v+1. Append only.
var migrations = []string{
	baseSchema,
	`CREATE INDEX IF NOT EXISTS idx_queue_items_slug_field_status ON queue_items(slug, field, status)`,
}

// SchemaVersion is the version this build writes.
func SchemaVersion() int { return len(migrations) }

// ErrSchemaMismatch indicates the database was written by a newer build.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	current, err := s.readSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > SchemaVersion() {
		return fmt.Errorf("%w: database has version %d, this build supports up to %d",
			ErrSchemaMismatch, current, SchemaVersion())
	}
	for v := current; v < SchemaVersion(); v++ {
		if err := s.migrate(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// readSchemaVersion returns 0 for an empty database.
func (s *Store) readSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == nil:
		return version, nil
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	}

	var tables int
	if qerr := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'",
	).Scan(&tables); qerr != nil {
		return 0, fmt.Errorf("check schema_version table: %w", qerr)
	}
	if tables == 0 {
		return 0, nil
	}
	return 0, fmt.Errorf("read schema version: %w", err)
}

func (s *Store) migrate(ctx context.Context, from int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate schema to v%d: %w", from+1, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, migrations[from]); err != nil {
		return fmt.Errorf("migrate schema to v%d: %w", from+1, err)
	}
	record := "UPDATE schema_version SET version = ?"
	if from == 0 {
		record = "INSERT INTO schema_version (version) VALUES (?)"
	}
	if _, err := tx.ExecContext(ctx, record, from+1); err != nil {
		return fmt.Errorf("record schema v%d: %w", from+1, err)
	}
	return tx.Commit()
}
