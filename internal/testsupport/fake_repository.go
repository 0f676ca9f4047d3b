package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"regenq/internal/queue"
)

// Repository operation names used by FakeRepository counters and error hooks.
const (
	OpCreate = "create"
	OpGet    = "get"
	OpList   = "list"
	OpLatest = "latest"
	OpUpdate = "update"
	OpDelete = "delete"
)

// FakeRepository is an in-memory queue.Repository. Timestamps come from a
// synthetic clock that advances one millisecond per write so ordering is
// deterministic.
type FakeRepository struct {
	mu     sync.Mutex
	items  map[string]*queue.Item
	order  []string
	seq    int
	clock  time.Time
	calls  map[string]int
	errs   map[string]error
	tokens []string

	// LatestHook, when set, runs inside LatestBySlug before the result is
	// computed. Tests use it to hold a read in flight.
	LatestHook func(ctx context.Context)
}

// NewFakeRepository returns an empty fake.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		items: make(map[string]*queue.Item),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		calls: make(map[string]int),
		errs:  make(map[string]error),
	}
}

// SetError makes every subsequent call of op fail with err. A nil err clears
// the failure.
func (f *FakeRepository) SetError(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// Calls reports how many times op was invoked.
func (f *FakeRepository) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls reports the number of calls across every operation.
func (f *FakeRepository) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Tokens returns the credentials seen, in call order.
func (f *FakeRepository) Tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

// Items returns copies of every stored item in insertion order.
func (f *FakeRepository) Items() []queue.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]queue.Item, 0, len(f.order))
	for _, id := range f.order {
		if item, ok := f.items[id]; ok {
			out = append(out, *item)
		}
	}
	return out
}

// SetStatus changes an item's status the way the external worker would.
func (f *FakeRepository) SetStatus(id string, status queue.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		panic(fmt.Sprintf("fake repository: unknown item %q", id))
	}
	item.Status = status
	item.UpdatedAt = f.tick()
}

func (f *FakeRepository) tick() time.Time {
	f.clock = f.clock.Add(time.Millisecond)
	return f.clock
}

func (f *FakeRepository) begin(op, token string) error {
	f.calls[op]++
	f.tokens = append(f.tokens, token)
	return f.errs[op]
}

func (f *FakeRepository) Create(_ context.Context, token string, in queue.NewItem) (*queue.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpCreate, token); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Slug) == "" {
		return nil, queue.Validation("create", "slug is required")
	}
	status := in.Status
	if status == "" {
		status = queue.StatusNew
	}
	f.seq++
	now := f.tick()
	item := &queue.Item{
		ID:        fmt.Sprintf("item-%04d", f.seq),
		Slug:      in.Slug,
		Field:     in.Field,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.items[item.ID] = item
	f.order = append(f.order, item.ID)
	copied := *item
	return &copied, nil
}

func (f *FakeRepository) Get(_ context.Context, token, id string) (*queue.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpGet, token); err != nil {
		return nil, err
	}
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (f *FakeRepository) List(_ context.Context, token string, opts queue.ListOptions) (*queue.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpList, token); err != nil {
		return nil, err
	}
	opts = opts.Normalized()
	matched := make([]*queue.Item, 0, len(f.items))
	for _, id := range f.order {
		item, ok := f.items[id]
		if !ok {
			continue
		}
		if opts.Status != "" && item.Status != opts.Status {
			continue
		}
		if opts.Slug != "" && item.Slug != opts.Slug {
			continue
		}
		copied := *item
		matched = append(matched, &copied)
	}
	queue.SortNewestCreated(matched)
	start := opts.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + opts.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return &queue.Page{
		Items:      matched[start:end],
		Pagination: queue.NewPagination(opts.Page, opts.PageSize, len(matched)),
	}, nil
}

func (f *FakeRepository) LatestBySlug(ctx context.Context, token, slug string) (*queue.Item, error) {
	f.mu.Lock()
	hook := f.LatestHook
	err := f.begin(OpLatest, token)
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	candidates := make([]*queue.Item, 0)
	for _, item := range f.items {
		if item.Slug == slug {
			candidates = append(candidates, item)
		}
	}
	latest := queue.Latest(candidates)
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f *FakeRepository) Update(_ context.Context, token, id string, patch queue.Patch) (*queue.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpUpdate, token); err != nil {
		return nil, err
	}
	item, ok := f.items[id]
	if !ok {
		return nil, queue.NotFound("update", id)
	}
	*item = patch.Apply(*item)
	item.UpdatedAt = f.tick()
	copied := *item
	return &copied, nil
}

func (f *FakeRepository) Delete(_ context.Context, token, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpDelete, token); err != nil {
		return err
	}
	if _, ok := f.items[id]; !ok {
		return queue.NotFound("delete", id)
	}
	delete(f.items, id)
	return nil
}

var _ queue.Repository = (*FakeRepository)(nil)
