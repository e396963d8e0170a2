package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labordash/internal/shared/testutil"
)

func TestNewErrorHandler(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{name: "with stack traces", includeStack: true},
		{name: "without stack traces", includeStack: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)

			handler := NewErrorHandler(logger, tt.includeStack)

			assert.NotNil(t, handler)
			assert.Equal(t, tt.includeStack, handler.includeStack)
		})
	}
}

type rangeCheck struct {
	Horizon int `validate:"min=1,max=24"`
}

func TestErrorHandler_HandleError(t *testing.T) {
	valErr := validator.New().Struct(rangeCheck{Horizon: 0})
	require.Error(t, valErr)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
		wantCode   string
	}{
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "wrapped cancellation",
			err:        fmt.Errorf("loading: %w", context.Canceled),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "api validation error",
			err:        NewValidationError("Invalid request format"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Bad Request",
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "rate limited",
			err:        ErrRateLimitExceeded,
			wantStatus: http.StatusTooManyRequests,
			wantType:   TypeRateLimit,
			wantTitle:  "Too Many Requests",
			wantCode:   "RATE_LIMIT_EXCEEDED",
		},
		{
			name:       "reload conflict",
			err:        ErrReloadInProgress,
			wantStatus: http.StatusConflict,
			wantType:   TypeConflict,
			wantTitle:  "Conflict",
			wantCode:   "RELOAD_IN_PROGRESS",
		},
		{
			name:       "validator errors",
			err:        valErr,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Validation Failed",
		},
		{
			name:       "insufficient history",
			err:        NewInsufficientHistoryError(3, 8),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeInsufficientHistory,
			wantTitle:  "Insufficient History",
			wantCode:   "INSUFFICIENT_HISTORY",
		},
		{
			name:       "malformed input",
			err:        NewMalformedInputError("wb.csv", 4, "value", "unparseable number", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeMalformedInput,
			wantTitle:  "Malformed Input",
			wantCode:   "MALFORMED_INPUT",
		},
		{
			name:       "app validation",
			err:        NewAppValidationError("unknown chart kind"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Validation Failed",
			wantCode:   "VALIDATION",
		},
		{
			name:       "not found",
			err:        NewNotFoundError("chart"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantTitle:  "Resource Not Found",
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "storage",
			err:        NewStorageError("failed to read data directory", fmt.Errorf("permission denied")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeStorage,
			wantTitle:  "Storage Error",
			wantCode:   "STORAGE",
		},
		{
			name:       "plain error",
			err:        fmt.Errorf("something went wrong"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/v1/forecast", nil)

			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantTitle, body["title"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/forecast", body["instance"])
			assert.Contains(t, body, "trace_id")
			assert.NotContains(t, body, "stack")
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}

			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, w.Body.Len())
}

func TestErrorHandler_AppErrorContextBecomesExtensions(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/forecast", nil)

	problem := handler.ErrorToProblem(NewInsufficientHistoryError(3, 8), r)

	assert.Equal(t, 3, problem.Extensions["have"])
	assert.Equal(t, 8, problem.Extensions["need"])
	assert.Equal(t, "forecast needs at least 8 historical points, got 3", problem.Detail)
}

func TestErrorHandler_ValidatorFieldsListed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/forecast", nil)

	problem := handler.ErrorToProblem(validator.New().Struct(rangeCheck{Horizon: 30}), r)

	fields, ok := problem.Extensions["errors"].([]ValidationError)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "Horizon", fields[0].Field)
	assert.Equal(t, "failed on the 'max' rule", fields[0].Message)
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{name: "stack hidden", includeStack: false},
		{name: "stack included", includeStack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, tt.includeStack)

			w := httptest.NewRecorder()
			handler.HandlePanic(w, httptest.NewRequest(http.MethodGet, "/panic", nil), "boom")

			assert.Equal(t, http.StatusInternalServerError, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, TypeInternal, body["type"])
			if tt.includeStack {
				assert.Equal(t, "boom", body["panic"])
				assert.Contains(t, body, "stack")
			} else {
				assert.NotContains(t, body, "panic")
			}
			assert.True(t, logs.ContainsMessage("panic recovered"))
		})
	}
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/v1/observations", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "Method DELETE is not allowed")
}
