package queue

import (
	"database/sql"
	"time"
)

// SetSchemaVersionForTest overwrites the recorded schema version.
func SetSchemaVersionForTest(dbPath string, version int) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec("UPDATE schema_version SET version = ?", version)
	return err
}

// ExecForTest runs raw SQL against the store's database.
func (s *Store) ExecForTest(query string) error {
	_, err := s.db.Exec(query)
	return err
}

// SetClockForTest replaces the store's time source.
func (s *Store) SetClockForTest(now func() time.Time) {
	s.now = now
}
