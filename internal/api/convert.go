package api

import (
	"fmt"
	"sort"
	"time"

	"regenq/internal/queue"
	"regenq/internal/tags"
)

// FromQueueItem converts a domain item into its DTO.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}
	return QueueItem{
		ID:        item.ID,
		Slug:      item.Slug,
		Field:     string(item.Field),
		Status:    string(item.Status),
		CreatedAt: formatTime(item.CreatedAt),
		UpdatedAt: formatTime(item.UpdatedAt),
	}
}

// FromQueueItems converts a slice, never returning nil.
func FromQueueItems(items []*queue.Item) []QueueItem {
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, FromQueueItem(item))
	}
	return out
}

// ToQueueItem converts a DTO back into a domain item, rejecting unknown
// statuses and fields.
func ToQueueItem(dto QueueItem) (*queue.Item, error) {
	status, ok := queue.ParseStatus(dto.Status)
	if !ok {
		return nil, fmt.Errorf("queue item %s: unknown status %q", dto.ID, dto.Status)
	}
	field, ok := queue.ParseField(dto.Field)
	if !ok {
		return nil, fmt.Errorf("queue item %s: unknown field %q", dto.ID, dto.Field)
	}
	item := &queue.Item{
		ID:     dto.ID,
		Slug:   dto.Slug,
		Field:  field,
		Status: status,
	}
	var err error
	if item.CreatedAt, err = parseTime(dto.CreatedAt); err != nil {
		return nil, fmt.Errorf("queue item %s: createdAt: %w", dto.ID, err)
	}
	if item.UpdatedAt, err = parseTime(dto.UpdatedAt); err != nil {
		return nil, fmt.Errorf("queue item %s: updatedAt: %w", dto.ID, err)
	}
	return item, nil
}

// FromPage converts a listing page.
func FromPage(page *queue.Page) QueueListResponse {
	if page == nil {
		return QueueListResponse{Items: []QueueItem{}}
	}
	p := page.Pagination
	return QueueListResponse{
		Items: FromQueueItems(page.Items),
		Pagination: Pagination{
			Page:      p.Page,
			PageSize:  p.PageSize,
			PageCount: p.PageCount,
			Total:     p.Total,
		},
	}
}

// ToPage converts a listing response.
func ToPage(resp QueueListResponse) (*queue.Page, error) {
	items := make([]*queue.Item, 0, len(resp.Items))
	for _, dto := range resp.Items {
		item, err := ToQueueItem(dto)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	p := resp.Pagination
	return &queue.Page{
		Items: items,
		Pagination: queue.Pagination{
			Page:      p.Page,
			PageSize:  p.PageSize,
			PageCount: p.PageCount,
			Total:     p.Total,
		},
	}, nil
}

// FromPatch converts a domain patch into its request body.
func FromPatch(patch queue.Patch) UpdateQueueItemRequest {
	var req UpdateQueueItemRequest
	if patch.Slug != nil {
		slug := *patch.Slug
		req.Slug = &slug
	}
	if patch.Field != nil {
		field := string(*patch.Field)
		req.Field = &field
	}
	if patch.Status != nil {
		status := string(*patch.Status)
		req.Status = &status
	}
	return req
}

// ToPatch validates a request body and converts it into a domain patch.
func ToPatch(req UpdateQueueItemRequest) (queue.Patch, error) {
	var patch queue.Patch
	if req.Slug != nil {
		slug := *req.Slug
		patch.Slug = &slug
	}
	if req.Field != nil {
		field, ok := queue.ParseField(*req.Field)
		if !ok {
			return queue.Patch{}, fmt.Errorf("unknown field %q", *req.Field)
		}
		patch.Field = &field
	}
	if req.Status != nil {
		status, ok := queue.ParseStatus(*req.Status)
		if !ok {
			return queue.Patch{}, fmt.Errorf("unknown status %q", *req.Status)
		}
		patch.Status = &status
	}
	return patch, nil
}

// ToTag converts a wire tag, dropping an unrecognized tagStatus so the
// legacy flag decides.
func ToTag(dto Tag) tags.Tag {
	tag := tags.Tag{DocumentID: dto.DocumentID, Name: dto.Name}
	if dto.TagStatus != nil {
		if status, ok := tags.ParseStatus(*dto.TagStatus); ok {
			tag.TagStatus = &status
		}
	}
	if dto.Excluded != nil {
		excluded := *dto.Excluded
		tag.Excluded = &excluded
	}
	return tag
}

// ToTags converts a tag listing.
func ToTags(resp TagListResponse) []tags.Tag {
	out := make([]tags.Tag, 0, len(resp.Items))
	for _, dto := range resp.Items {
		out = append(out, ToTag(dto))
	}
	return out
}

// MergeQueueStats renders per-status counts keyed by status string, with
// every known status present.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = stats[status]
	}
	for status, count := range stats {
		if _, ok := out[string(status)]; !ok {
			out[string(status)] = count
		}
	}
	return out
}

// SortedStatusKeys returns stats keys in lifecycle order, unknown keys last
// in lexical order.
func SortedStatusKeys(stats map[string]int) []string {
	known := make(map[string]int)
	for i, status := range queue.AllStatuses() {
		known[string(status)] = i
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := known[keys[i]]
		rj, jok := known[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
