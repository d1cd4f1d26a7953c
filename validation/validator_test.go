package validation_test

import (
	"testing"

	"journal/apperrors"
	"journal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entryRequest struct {
	Title     string `json:"title" validate:"notblank,max=20"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSpent string `json:"time_spent" validate:"required,numeric"`
}

func TestValidate_OK(t *testing.T) {
	v := validation.New()
	err := v.Validate(entryRequest{Title: "Study Go", Date: "2024-03-01", TimeSpent: "90"})
	assert.NoError(t, err)
}

func TestValidate_FieldDetails(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name  string
		req   entryRequest
		field string
		msg   string
	}{
		{"blank title", entryRequest{Title: "   ", Date: "2024-03-01", TimeSpent: "1"}, "title", "is required"},
		{"long title", entryRequest{Title: "this title is far too long", Date: "2024-03-01", TimeSpent: "1"}, "title", "must not exceed 20 characters"},
		{"bad date", entryRequest{Title: "ok", Date: "03/01/2024", TimeSpent: "1"}, "date", "must be a date formatted as 2006-01-02"},
		{"bad duration", entryRequest{Title: "ok", Date: "2024-03-01", TimeSpent: "an hour"}, "time_spent", "must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

			var appErr *apperrors.Error
			require.True(t, apperrors.As(err, &appErr))
			details, ok := appErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.msg, details[tt.field])
		})
	}
}
