package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Create inserts a new item. Status defaults to StatusNew.
func (s *Store) Create(ctx context.Context, in NewItem) (*Item, error) {
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		return nil, Validation("create", "slug is required")
	}
	status := in.Status
	if status == "" {
		status = StatusNew
	}
	status, ok := ParseStatus(string(status))
	if !ok {
		return nil, Validation("create", fmt.Sprintf("unknown status %q", in.Status))
	}
	field, ok := ParseField(string(in.Field))
	if !ok {
		return nil, Validation("create", fmt.Sprintf("unknown field %q", in.Field))
	}

	id := uuid.NewString()
	timestamp := s.timestamp()
	if _, err := s.exec(
		ctx,
		`INSERT INTO queue_items (id, slug, field, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		slug,
		string(field),
		string(status),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert queue item: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches an item. A missing item yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items WHERE id = ?`,
		id,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	return item, nil
}

// List returns one page of items, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) (*Page, error) {
	opts = opts.Normalized()

	var (
		clauses []string
		args    []any
	)
	if opts.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(opts.Status))
	}
	if slug := strings.TrimSpace(opts.Slug); slug != "" {
		clauses = append(clauses, "slug = ?")
		args = append(args, slug)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM queue_items`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count queue items: %w", err)
	}

	query := `SELECT ` + itemColumns + ` FROM queue_items` + where +
		` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, opts.PageSize, opts.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	items := make([]*Item, 0, min(opts.PageSize, max(total-opts.Offset(), 0)))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue items: %w", err)
	}

	return &Page{
		Items:      items,
		Pagination: NewPagination(opts.Page, opts.PageSize, total),
	}, nil
}

// LatestBySlug returns the most recently updated item for slug, or (nil, nil)
// when the slug has none.
func (s *Store) LatestBySlug(ctx context.Context, slug string) (*Item, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, Validation("latest", "slug is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items WHERE slug = ?
         ORDER BY updated_at DESC, created_at DESC, id DESC LIMIT 1`,
		slug,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest queue item: %w", err)
	}
	return item, nil
}

// Update applies patch to the item and bumps updated_at. Missing items
// yield ErrNotFound.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (*Item, error) {
	if patch.Empty() {
		return nil, Validation("update", "patch is empty")
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if patch.Slug != nil {
		slug := strings.TrimSpace(*patch.Slug)
		if slug == "" {
			return nil, Validation("update", "slug must not be empty")
		}
		sets = append(sets, "slug = ?")
		args = append(args, slug)
	}
	if patch.Field != nil {
		field, ok := ParseField(string(*patch.Field))
		if !ok {
			return nil, Validation("update", fmt.Sprintf("unknown field %q", *patch.Field))
		}
		sets = append(sets, "field = ?")
		args = append(args, string(field))
	}
	if patch.Status != nil {
		status, ok := ParseStatus(string(*patch.Status))
		if !ok {
			return nil, Validation("update", fmt.Sprintf("unknown status %q", *patch.Status))
		}
		sets = append(sets, "status = ?")
		args = append(args, string(status))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.timestamp(), id)

	res, err := s.exec(
		ctx,
		`UPDATE queue_items SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update queue item: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, NotFound("update", id)
	}
	item, err := s.GetByID(ctx, id)
	if err == nil && item == nil {
		return nil, NotFound("update", id)
	}
	return item, err
}

// Delete removes an item permanently.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete queue item: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return NotFound("delete", id)
	}
	return nil
}
