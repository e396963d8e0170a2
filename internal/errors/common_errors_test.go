package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMalformedInputError(t *testing.T) {
	cause := fmt.Errorf(`strconv.ParseFloat: parsing "n/a?": invalid syntax`)

	tests := []struct {
		name        string
		row         int
		column      string
		wantMessage string
		wantKeys    []string
	}{
		{
			name:        "row and column",
			row:         12,
			column:      "value",
			wantMessage: `data.csv row 12 column "value": unparseable number`,
			wantKeys:    []string{"file", "row", "column"},
		},
		{
			name:        "file level",
			wantMessage: "data.csv: unparseable number",
			wantKeys:    []string{"file"},
		},
		{
			name:        "row only",
			row:         3,
			wantMessage: "data.csv row 3: unparseable number",
			wantKeys:    []string{"file", "row"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewMalformedInputError("data.csv", tt.row, tt.column, "unparseable number", cause)

			assert.Equal(t, ErrTypeMalformedInput, err.Type)
			assert.Equal(t, tt.wantMessage, err.Message)
			assert.Len(t, err.Context, len(tt.wantKeys))
			for _, k := range tt.wantKeys {
				assert.Contains(t, err.Context, k)
			}
			assert.True(t, errors.Is(err, ErrMalformedInput))
			assert.False(t, errors.Is(err, ErrInsufficientHistory))
			assert.Equal(t, cause, errors.Unwrap(err))
		})
	}
}

func TestAppError_Is(t *testing.T) {
	wrapped := fmt.Errorf("forecast: %w", NewInsufficientHistoryError(2, 8))

	assert.True(t, errors.Is(wrapped, ErrInsufficientHistory))
	assert.False(t, errors.Is(wrapped, ErrMalformedInput))
	assert.False(t, errors.Is(NewStorageError("disk", nil), ErrMalformedInput))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeInsufficientHistory, appErr.Type)
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "[VALIDATION] bad horizon", NewAppValidationError("bad horizon").Error())
	assert.Equal(t, "[STORAGE] read failed: boom",
		NewStorageError("read failed", fmt.Errorf("boom")).Error())
	assert.Equal(t, "[NOT_FOUND] chart not found", NewNotFoundError("chart").Error())
	assert.Equal(t, "[CONFIG] configuration is required", NewConfigError("configuration is required", nil).Error())
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "", "/x").
		WithExtension("error_code", "VALIDATION")

	data, err := pd.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"/errors/validation","title":"Validation Failed","status":400,"instance":"/x","error_code":"VALIDATION"}`, string(data))
}
