package regen

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"regenq/internal/queue"
)

// Request is a normalized regeneration request.
type Request struct {
	Target string
	Field  string
}

// NewRequest trims the target and lower-cases the field.
func NewRequest(target, field string) Request {
	return Request{
		Target: strings.TrimSpace(target),
		Field:  strings.ToLower(strings.TrimSpace(field)),
	}
}

// Validate ensures the target is present and the field belongs to the
// vocabulary. "all" and the empty string both select every field.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Target,
			validation.Required.ErrorObject(validation.NewError("regen.target_required", "target is required")),
		),
		validation.Field(&r.Field,
			validation.In(fieldChoices()...).ErrorObject(
				validation.NewError("regen.field_invalid", "field must be one of "+strings.Join(queue.FieldChoices(), ", ")),
			),
		),
	)
}

// QueueField returns the stored field value; "all" becomes FieldAll.
func (r Request) QueueField() queue.Field {
	field, _ := queue.ParseField(r.Field)
	return field
}

func fieldChoices() []any {
	choices := queue.FieldChoices()
	out := make([]any, 0, len(choices))
	for _, choice := range choices {
		out = append(out, choice)
	}
	return out
}
