package queue

import (
	"context"
	"sort"
)

// Repository is the queue-item store contract. Every call carries the
// caller's bearer credential; backends that do not authenticate ignore it.
//
// Implementations return *Error values classified as authentication,
// upstream, validation or not_found. Get and LatestBySlug return (nil, nil)
// when nothing matches. Writes are last-write-wins.
type Repository interface {
	Create(ctx context.Context, token string, item NewItem) (*Item, error)
	Get(ctx context.Context, token, id string) (*Item, error)
	List(ctx context.Context, token string, opts ListOptions) (*Page, error)
	LatestBySlug(ctx context.Context, token, slug string) (*Item, error)
	Update(ctx context.Context, token, id string, patch Patch) (*Item, error)
	Delete(ctx context.Context, token, id string) error
}

// LatestReader is the read-only slice of Repository the poller needs.
type LatestReader interface {
	LatestBySlug(ctx context.Context, token, slug string) (*Item, error)
}

// Newer reports whether a sorts before b under the latest-by-slug rule:
// later UpdatedAt, then later CreatedAt, then the greater ID.
func Newer(a, b *Item) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Latest picks the latest item among candidates, or nil when empty.
func Latest(items []*Item) *Item {
	var best *Item
	for _, item := range items {
		if item == nil {
			continue
		}
		if best == nil || Newer(item, best) {
			best = item
		}
	}
	return best
}

// SortNewestCreated orders items by CreatedAt descending, the listing order.
func SortNewestCreated(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// LocalRepository adapts a Store to Repository. The credential is accepted
// and ignored.
type LocalRepository struct {
	store *Store
}

// NewLocalRepository wraps store.
func NewLocalRepository(store *Store) *LocalRepository {
	return &LocalRepository{store: store}
}

func (r *LocalRepository) Create(ctx context.Context, _ string, item NewItem) (*Item, error) {
	created, err := r.store.Create(ctx, item)
	if err != nil {
		return nil, classifyStoreErr("create", err)
	}
	return created, nil
}

func (r *LocalRepository) Get(ctx context.Context, _ string, id string) (*Item, error) {
	item, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, classifyStoreErr("get", err)
	}
	return item, nil
}

func (r *LocalRepository) List(ctx context.Context, _ string, opts ListOptions) (*Page, error) {
	page, err := r.store.List(ctx, opts)
	if err != nil {
		return nil, classifyStoreErr("list", err)
	}
	return page, nil
}

func (r *LocalRepository) LatestBySlug(ctx context.Context, _ string, slug string) (*Item, error) {
	item, err := r.store.LatestBySlug(ctx, slug)
	if err != nil {
		return nil, classifyStoreErr("latest", err)
	}
	return item, nil
}

func (r *LocalRepository) Update(ctx context.Context, _ string, id string, patch Patch) (*Item, error) {
	item, err := r.store.Update(ctx, id, patch)
	if err != nil {
		return nil, classifyStoreErr("update", err)
	}
	return item, nil
}

func (r *LocalRepository) Delete(ctx context.Context, _ string, id string) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return classifyStoreErr("delete", err)
	}
	return nil
}

func classifyStoreErr(op string, err error) error {
	return Upstream("queue "+op, err)
}
