package admin

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"regenq/internal/queue"
)

const statusAll = "all"

// ListRequest selects one page of queue items.
type ListRequest struct {
	Page     int
	PageSize int
	// Status is "", "all", or one of the queue statuses.
	Status string
	Slug   string
}

func (r ListRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Page, validation.Min(0)),
		validation.Field(&r.PageSize, validation.Min(0)),
		validation.Field(&r.Status, validation.In(statusChoices(true)...).ErrorObject(
			validation.NewError("admin.status_invalid", "status must be one of all, "+joinStatuses()),
		)),
	)
}

func (r ListRequest) status() queue.Status {
	status, _ := queue.ParseStatus(r.Status)
	return status
}

// FieldsPatch carries the editable columns of an item. Nil members are left
// unchanged.
type FieldsPatch struct {
	Slug   *string
	Field  *string
	Status *string
}

// Validate checks every supplied value.
func (p FieldsPatch) Validate() error {
	errs := validation.Errors{}
	if p.Slug == nil && p.Field == nil && p.Status == nil {
		errs["patch"] = validation.NewError("admin.patch_empty", "at least one of slug, field or status is required")
		return errs
	}
	if p.Slug != nil && strings.TrimSpace(*p.Slug) == "" {
		errs["slug"] = validation.NewError("admin.slug_blank", "slug cannot be blank")
	}
	if p.Field != nil {
		if _, ok := queue.ParseField(*p.Field); !ok {
			errs["field"] = validation.NewError("admin.field_invalid", "field must be one of "+strings.Join(queue.FieldChoices(), ", "))
		}
	}
	if p.Status != nil {
		if _, ok := queue.ParseStatus(*p.Status); !ok {
			errs["status"] = validation.NewError("admin.status_invalid", "status must be one of "+joinStatuses())
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Patch converts a validated FieldsPatch.
func (p FieldsPatch) Patch() queue.Patch {
	var out queue.Patch
	if p.Slug != nil {
		slug := strings.TrimSpace(*p.Slug)
		out.Slug = &slug
	}
	if p.Field != nil {
		field, _ := queue.ParseField(*p.Field)
		out.Field = &field
	}
	if p.Status != nil {
		status, _ := queue.ParseStatus(*p.Status)
		out.Status = &status
	}
	return out
}

func statusChoices(withAll bool) []any {
	out := make([]any, 0, 5)
	if withAll {
		out = append(out, statusAll)
	}
	for _, status := range queue.AllStatuses() {
		out = append(out, string(status))
	}
	return out
}

func joinStatuses() string {
	parts := make([]string, 0, 4)
	for _, status := range queue.AllStatuses() {
		parts = append(parts, string(status))
	}
	return strings.Join(parts, ", ")
}
