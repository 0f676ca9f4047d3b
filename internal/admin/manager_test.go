package admin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regenq/internal/admin"
	"regenq/internal/queue"
	"regenq/internal/testsupport"
)

const token = "secret"

func seed(t *testing.T, repo *testsupport.FakeRepository, n int, slug string) []*queue.Item {
	t.Helper()
	items := make([]*queue.Item, 0, n)
	for i := 0; i < n; i++ {
		item, err := repo.Create(context.Background(), token, queue.NewItem{Slug: slug, Field: queue.FieldPricing})
		require.NoError(t, err)
		items = append(items, item)
	}
	return items
}

func TestListDefaultsAndOrdering(t *testing.T) {
	repo := testsupport.NewFakeRepository()
	items := seed(t, repo, 30, "acme-crm")
	m := admin.New(repo)

	page, err := m.List(context.Background(), token, admin.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 25, page.Pagination.PageSize)
	assert.Equal(t, 30, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.PageCount)
	require.Len(t, page.Items, 25)
	assert.Equal(t, items[29].ID, page.Items[0].ID, "newest first")

	second, err := m.List(context.Background(), token, admin.ListRequest{Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Items, 5)
}

func TestListCapsPageSize(t *testing.T) {
	repo := testsupport.NewFakeRepository()
	seed(t, repo, 12, "acme-crm")
	m := admin.New(repo, admin.WithPageSize(5, 10))

	page, err := m.List(context.Background(), token, admin.ListRequest{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 10, page.Pagination.PageSize)
	assert.Len(t, page.Items, 10)

	page, err = m.List(context.Background(), token, admin.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Pagination.PageSize)
}

func TestListStatusFilter(t *testing.T) {
	repo := testsupport.NewFakeRepository()
	items := seed(t, repo, 4, "acme-crm")
	repo.SetStatus(items[1].ID, queue.StatusError)
	m := admin.New(repo)
	ctx := context.Background()

	page, err := m.List(ctx, token, admin.ListRequest{Status: "Error"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, items[1].ID, page.Items[0].ID)

	page, err = m.List(ctx, token, admin.ListRequest{Status: "all"})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Pagination.Total)

	_, err = m.List(ctx, token, admin.ListRequest{Status: "archived"})
	require.ErrorIs(t, err, queue.ErrValidation)
	assert.Equal(t, 2, repo.Calls(testsupport.OpList))
}

func TestListRequiresToken(t *testing.T) {
	repo := testsupport.NewFakeRepository()
	m := admin.New(repo)

	_, err := m.List(context.Background(), "", admin.ListRequest{})
	require.ErrorIs(t, err, queue.ErrAuthenticationRequired)
	assert.Zero(t, repo.TotalCalls())
}

func TestDescribe(t *testing.T) {
	repo := testsupport.NewFakeRepository()
	items := seed(t, repo, 1, "acme-crm")
	m := admin.New(repo)
	ctx := context.Background()

	item, err := m.Describe(ctx, token, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "acme-crm", item.Slug)

	_, err = m.Describe(ctx, token, "missing")
	require.ErrorIs(t, err, queue.ErrNotFound)

	_, err = m.Describe(ctx, token, " ")
	require.ErrorIs(t, err, queue.ErrValidation)
}

func TestUpdateStatus(t *testing.T) {
	repo := testsupport.NewFakeRepository()
	items := seed(t, repo, 1, "acme-crm")
	m := admin.New(repo)
	ctx := context.Background()

	item, err := m.UpdateStatus(ctx, token, items[0].ID, "finished")
	require.NoError(t, err)
	assert.Equal(t, queue.StatusFinished, item.Status)
	assert.True(t, item.UpdatedAt.After(item.CreatedAt))

	_, err = m.UpdateStatus(ctx, token, items[0].ID, "done")
	require.ErrorIs(t, err, queue.ErrValidation)

	_, err = m.UpdateStatus(ctx, token, "missing", "pending")
	require.ErrorIs(t, err, queue.ErrNotFound)
}

func TestUpdateFieldsValidatesEveryValue(t *testing.T) {
	repo := testsupport.NewFakeRepository()
	items := seed(t, repo, 1, "acme-crm")
	m := admin.New(repo)
	ctx := context.Background()

	blank := "  "
	bogus := "colour"
	_, err := m.UpdateFields(ctx, token, items[0].ID, admin.FieldsPatch{Slug: &blank, Field: &bogus})
	require.ErrorIs(t, err, queue.ErrValidation)
	assert.Contains(t, err.Error(), "slug")
	assert.Contains(t, err.Error(), "field")

	_, err = m.UpdateFields(ctx, token, items[0].ID, admin.FieldsPatch{})
	require.ErrorIs(t, err, queue.ErrValidation)
	assert.Zero(t, repo.Calls(testsupport.OpUpdate))

	slug := " zen-desk "
	all := "all"
	item, err := m.UpdateFields(ctx, token, items[0].ID, admin.FieldsPatch{Slug: &slug, Field: &all})
	require.NoError(t, err)
	assert.Equal(t, "zen-desk", item.Slug)
	assert.Equal(t, queue.FieldAll, item.Field)
	assert.Equal(t, queue.StatusNew, item.Status)
}

func TestDelete(t *testing.T) {
	repo := testsupport.NewFakeRepository()
	items := seed(t, repo, 2, "acme-crm")
	m := admin.New(repo)
	ctx := context.Background()

	require.NoError(t, m.Delete(ctx, token, items[0].ID))
	assert.Len(t, repo.Items(), 1)

	err := m.Delete(ctx, token, items[0].ID)
	require.ErrorIs(t, err, queue.ErrNotFound)
}

func TestStatsCountsEveryStatus(t *testing.T) {
	repo := testsupport.NewFakeRepository()
	items := seed(t, repo, 5, "acme-crm")
	repo.SetStatus(items[0].ID, queue.StatusPending)
	repo.SetStatus(items[1].ID, queue.StatusFinished)
	repo.SetStatus(items[2].ID, queue.StatusFinished)
	m := admin.New(repo)

	stats, err := m.Stats(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, map[queue.Status]int{
		queue.StatusNew:      2,
		queue.StatusPending:  1,
		queue.StatusFinished: 2,
		queue.StatusError:    0,
	}, stats)
	assert.Equal(t, 4, repo.Calls(testsupport.OpList))
}

func TestUpstreamFailuresSurfaceWithoutRetry(t *testing.T) {
	repo := testsupport.NewFakeRepository()
	repo.SetError(testsupport.OpList, errors.New("503 service unavailable"))
	m := admin.New(repo)

	_, err := m.Stats(context.Background(), token)
	require.ErrorIs(t, err, queue.ErrUpstreamUnavailable)
	assert.Equal(t, 1, repo.Calls(testsupport.OpList))
}

func TestNewFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Admin.PageSize = 3
	cfg.Admin.MaxPageSize = 4
	repo := testsupport.NewFakeRepository()
	seed(t, repo, 6, "acme-crm")

	page, err := admin.NewFromConfig(cfg, repo, nil).List(context.Background(), token, admin.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
}
