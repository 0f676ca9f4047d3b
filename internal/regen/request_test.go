package regen

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regenq/internal/queue"
)

func TestRequestValidateReportsEachField(t *testing.T) {
	err := NewRequest("", "nope").Validate()
	require.Error(t, err)

	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "Target")
	assert.Contains(t, errs, "Field")
}

func TestRequestNormalizesInput(t *testing.T) {
	req := NewRequest("  acme ", " Pricing ")
	require.NoError(t, req.Validate())
	assert.Equal(t, "acme", req.Target)
	assert.Equal(t, queue.FieldPricing, req.QueueField())
	assert.Equal(t, queue.FieldAll, NewRequest("acme", "all").QueueField())
}
