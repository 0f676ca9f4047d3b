package queue_test

import (
	"math"
	"testing"
	"time"

	"regenq/internal/queue"
)

func TestParseStatus(t *testing.T) {
	for _, status := range queue.AllStatuses() {
		got, ok := queue.ParseStatus(" " + string(status) + " ")
		if !ok || got != status {
			t.Fatalf("ParseStatus(%q) = %q, %v", status, got, ok)
		}
	}
	if got, ok := queue.ParseStatus("FINISHED"); !ok || got != queue.StatusFinished {
		t.Fatalf("expected case-insensitive match, got %q %v", got, ok)
	}
	for _, raw := range []string{"", "done", "failed"} {
		if _, ok := queue.ParseStatus(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := map[queue.Status]bool{
		queue.StatusNew:      false,
		queue.StatusPending:  false,
		queue.StatusFinished: true,
		queue.StatusError:    true,
	}
	for status, want := range terminal {
		if status.IsTerminal() != want {
			t.Fatalf("%s.IsTerminal() = %v, want %v", status, status.IsTerminal(), want)
		}
		if status.InFlight() == want {
			t.Fatalf("%s.InFlight() should be the inverse of IsTerminal", status)
		}
	}
}

func TestParseFieldNormalizesAll(t *testing.T) {
	for _, raw := range []string{"all", "ALL", "", "  "} {
		got, ok := queue.ParseField(raw)
		if !ok || got != queue.FieldAll {
			t.Fatalf("ParseField(%q) = %q, %v; want FieldAll", raw, got, ok)
		}
	}
	if got, ok := queue.ParseField("ShortFacts"); !ok || got != queue.FieldShortFacts {
		t.Fatalf("expected shortfacts, got %q %v", got, ok)
	}
	if _, ok := queue.ParseField("logo"); ok {
		t.Fatal("expected unknown field to be rejected")
	}
	if len(queue.AllFields()) != 9 {
		t.Fatalf("expected 9 fields, got %d", len(queue.AllFields()))
	}
	choices := queue.FieldChoices()
	if choices[0] != "all" {
		t.Fatalf("expected all first in choices, got %v", choices)
	}
}

func TestPatchApplyAndEmpty(t *testing.T) {
	if !(queue.Patch{}).Empty() {
		t.Fatal("zero patch should be empty")
	}
	patch := queue.StatusPatch(queue.StatusPending)
	if patch.Empty() {
		t.Fatal("status patch should not be empty")
	}
	item := queue.Item{ID: "x", Slug: "acme", Status: queue.StatusNew}
	got := patch.Apply(item)
	if got.Status != queue.StatusPending || got.Slug != "acme" || item.Status != queue.StatusNew {
		t.Fatalf("unexpected apply result %+v (original %+v)", got, item)
	}
}

func TestNewPagination(t *testing.T) {
	cases := []struct {
		page, size, total int
		wantCount         int
	}{
		{1, 25, 0, 0},
		{1, 25, 25, 1},
		{1, 25, 26, 2},
		{2, 1, 7, 7},
	}
	for _, tc := range cases {
		got := queue.NewPagination(tc.page, tc.size, tc.total)
		if got.PageCount != tc.wantCount || got.Total != tc.total {
			t.Fatalf("NewPagination(%d,%d,%d) = %+v", tc.page, tc.size, tc.total, got)
		}
	}
	opts := queue.ListOptions{}.Normalized()
	if opts.Page != 1 || opts.PageSize != queue.DefaultPageSize || opts.Offset() != 0 {
		t.Fatalf("unexpected normalized options %+v", opts)
	}
	if got := (queue.ListOptions{Page: 3, PageSize: 10}).Offset(); got != 20 {
		t.Fatalf("expected offset 20, got %d", got)
	}
	if got := (queue.ListOptions{Page: math.MaxInt, PageSize: 1 << 40}).Offset(); got != math.MaxInt {
		t.Fatalf("expected saturated offset, got %d", got)
	}
}

func TestLatestTieBreaks(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &queue.Item{ID: "a", UpdatedAt: base.Add(time.Minute), CreatedAt: base}
	b := &queue.Item{ID: "b", UpdatedAt: base, CreatedAt: base}
	if got := queue.Latest([]*queue.Item{b, a}); got != a {
		t.Fatalf("expected latest updatedAt to win, got %s", got.ID)
	}

	c := &queue.Item{ID: "c", UpdatedAt: base, CreatedAt: base.Add(time.Second)}
	if got := queue.Latest([]*queue.Item{b, c}); got != c {
		t.Fatalf("expected later createdAt to break tie, got %s", got.ID)
	}

	d := &queue.Item{ID: "d", UpdatedAt: base, CreatedAt: base}
	if got := queue.Latest([]*queue.Item{d, b}); got != d {
		t.Fatalf("expected greater id to break full tie, got %s", got.ID)
	}

	if queue.Latest(nil) != nil {
		t.Fatal("expected nil for no candidates")
	}
}
