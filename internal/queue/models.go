package queue

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Status describes where an item sits in the external pipeline.
type Status string

const (
	StatusNew      Status = "new"
	StatusPending  Status = "pending"
	StatusFinished Status = "finished"
	StatusError    Status = "error"
)

var allStatuses = []Status{
	StatusNew,
	StatusPending,
	StatusFinished,
	StatusError,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a raw string into a Status. Matching ignores case and
// surrounding whitespace.
func ParseStatus(raw string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range allStatuses {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether the pipeline is done with the item. Only new and
// pending items are still in flight.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusError
}

// InFlight is the inverse of IsTerminal for known statuses.
func (s Status) InFlight() bool {
	return s == StatusNew || s == StatusPending
}

// Field names the piece of generated content to regenerate. The empty value
// means all fields.
type Field string

const (
	FieldAll           Field = ""
	FieldURL           Field = "url"
	FieldDescription   Field = "description"
	FieldFunctionality Field = "functionality"
	FieldAbstract      Field = "abstract"
	FieldPricing       Field = "pricing"
	FieldTags          Field = "tags"
	FieldVideo         Field = "video"
	FieldShortFacts    Field = "shortfacts"
)

// fieldAllAlias is the user-facing spelling of FieldAll.
const fieldAllAlias = "all"

var allFields = []Field{
	FieldAll,
	FieldURL,
	FieldDescription,
	FieldFunctionality,
	FieldAbstract,
	FieldPricing,
	FieldTags,
	FieldVideo,
	FieldShortFacts,
}

// AllFields returns every field value including FieldAll.
func AllFields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// FieldChoices lists the accepted user inputs, with "all" standing in for
// FieldAll.
func FieldChoices() []string {
	out := make([]string, 0, len(allFields))
	for _, f := range allFields {
		out = append(out, f.Label())
	}
	return out
}

// ParseField normalizes a user-supplied field name. "all" and the empty
// string both map to FieldAll.
func ParseField(raw string) (Field, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == fieldAllAlias {
		return FieldAll, true
	}
	for _, f := range allFields {
		if string(f) == normalized {
			return f, true
		}
	}
	return "", false
}

// Label renders the field for humans; FieldAll prints as "all".
func (f Field) Label() string {
	if f == FieldAll {
		return fieldAllAlias
	}
	return string(f)
}

// Item is a single regeneration request.
type Item struct {
	ID        string
	Slug      string
	Field     Field
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// String implements fmt.Stringer for log output.
func (i *Item) String() string {
	if i == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s[%s/%s %s]", i.ID, i.Slug, i.Field.Label(), i.Status)
}

// NewItem carries the inputs for creating an item. Status defaults to
// StatusNew when left empty.
type NewItem struct {
	Slug   string
	Field  Field
	Status Status
}

// Patch is a partial update. Nil pointers leave the stored value untouched.
type Patch struct {
	Slug   *string
	Field  *Field
	Status *Status
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Slug == nil && p.Field == nil && p.Status == nil
}

// StatusPatch builds a patch that only changes the status.
func StatusPatch(status Status) Patch {
	return Patch{Status: &status}
}

// Apply returns a copy of item with the patch applied. Timestamps are left
// for the caller to manage.
func (p Patch) Apply(item Item) Item {
	if p.Slug != nil {
		item.Slug = *p.Slug
	}
	if p.Field != nil {
		item.Field = *p.Field
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	return item
}

// ListOptions filters and pages a listing. Results are always sorted by
// creation time, newest first. Page is one-based.
type ListOptions struct {
	Page     int
	PageSize int
	Status   Status
	Slug     string
}

// Normalized fills zero values with the defaults used by every backend.
func (o ListOptions) Normalized() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	return o
}

// Offset is the number of rows skipped before the requested page. It
// saturates instead of overflowing.
func (o ListOptions) Offset() int {
	if o.Page <= 1 || o.PageSize <= 0 {
		return 0
	}
	if o.Page-1 > math.MaxInt/o.PageSize {
		return math.MaxInt
	}
	return (o.Page - 1) * o.PageSize
}

// DefaultPageSize applies when ListOptions.PageSize is unset.
const DefaultPageSize = 25

// Pagination describes where a Page sits in the full result set.
type Pagination struct {
	Page      int
	PageSize  int
	PageCount int
	Total     int
}

// NewPagination derives PageCount from the total and page size.
func NewPagination(page, pageSize, total int) Pagination {
	count := 0
	if pageSize > 0 && total > 0 {
		count = (total + pageSize - 1) / pageSize
	}
	return Pagination{Page: page, PageSize: pageSize, PageCount: count, Total: total}
}

// Page is one slice of a listing.
type Page struct {
	Items      []*Item
	Pagination Pagination
}
