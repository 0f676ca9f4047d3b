package queue

import (
	"errors"
	"time"
)

const itemColumns = "id, slug, field, status, created_at, updated_at"

// timeLayout is fixed width so that lexical order in SQLite matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id         string
		slug       string
		fieldStr   string
		statusStr  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &slug, &fieldStr, &statusStr, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	item := &Item{
		ID:     id,
		Slug:   slug,
		Field:  Field(fieldStr),
		Status: Status(statusStr),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
