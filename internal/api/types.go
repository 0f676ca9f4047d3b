package api

import "time"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = time.RFC3339Nano

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Field     string `json:"field"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// CreateQueueItemRequest is the body of POST /api/queue-items.
type CreateQueueItemRequest struct {
	Slug   string `json:"slug"`
	Field  string `json:"field"`
	Status string `json:"status,omitempty"`
}

// UpdateQueueItemRequest is the body of PATCH /api/queue-items/{id}. Absent
// members are left untouched.
type UpdateQueueItemRequest struct {
	Slug   *string `json:"slug,omitempty"`
	Field  *string `json:"field,omitempty"`
	Status *string `json:"status,omitempty"`
}

// QueueItemResponse wraps a single item. Item is nil when a read-by-slug
// finds nothing.
type QueueItemResponse struct {
	Item *QueueItem `json:"item"`
}

// Pagination mirrors queue.Pagination on the wire.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// QueueListResponse wraps a page of queue items.
type QueueListResponse struct {
	Items      []QueueItem `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Tag is a catalog tag as served by the CMS.
type Tag struct {
	DocumentID string  `json:"documentId"`
	Name       string  `json:"name"`
	TagStatus  *string `json:"tagStatus,omitempty"`
	Excluded   *bool   `json:"excluded,omitempty"`
}

// TagListResponse wraps an entry's tags.
type TagListResponse struct {
	Items []Tag `json:"items"`
}

// StoreStatus reports the local store server's state.
type StoreStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Counts       map[string]int `json:"counts"`
	InFlight     int            `json:"inFlight"`
	Schema       int            `json:"schemaVersion"`
	JournalMode  string         `json:"journalMode,omitempty"`
	Healthy      bool           `json:"healthy"`
	HealthError  string         `json:"healthError,omitempty"`
}

// TriggerRequest is the JSON body of a POST worker webhook.
type TriggerRequest struct {
	Slug  string `json:"slug"`
	Field string `json:"field"`
}
