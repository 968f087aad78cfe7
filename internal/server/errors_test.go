package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/tender-checklist/internal/checklist"
	"github.com/jonathan/tender-checklist/internal/db"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "not found",
			err:  db.ErrNotFound,
			want: http.StatusNotFound,
		},
		{
			name: "wrapped not found",
			err:  fmt.Errorf("file 7: %w", db.ErrNotFound),
			want: http.StatusNotFound,
		},
		{
			name: "checklist validation",
			err:  &checklist.ValidationError{Field: "file_ids", Message: "at least one file is required"},
			want: http.StatusBadRequest,
		},
		{
			name: "evaluation failure",
			err:  &checklist.EvaluationError{Message: "external model request failed", Err: errors.New("boom")},
			want: http.StatusBadGateway,
		},
		{
			name: "email exists",
			err:  &ErrEmailAlreadyExists{Email: "a@b.com"},
			want: http.StatusConflict,
		},
		{
			name: "invalid credentials",
			err:  &ErrInvalidCredentials{},
			want: http.StatusUnauthorized,
		},
		{
			name: "password mismatch",
			err:  &ErrPasswordMismatch{},
			want: http.StatusUnauthorized,
		},
		{
			name: "user not found",
			err:  &ErrUserNotFound{UserID: uuid.New()},
			want: http.StatusNotFound,
		},
		{
			name: "request validation",
			err:  &ErrValidation{Field: "text", Message: "required"},
			want: http.StatusBadRequest,
		},
		{
			name: "unknown error",
			err:  errors.New("something broke"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["error"]
}

func TestRespondError_HidesUpstreamCause(t *testing.T) {
	s := newTestServer()
	w := httptest.NewRecorder()

	upstream := errors.New("googleapi: Error 403: API key SECRET-INTERNAL rejected")
	s.respondError(w, &checklist.EvaluationError{Message: "external model request failed", Err: upstream})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, "external model request failed", body)
	assert.NotContains(t, body, "googleapi")
	assert.NotContains(t, body, "SECRET-INTERNAL")
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	s := newTestServer()
	w := httptest.NewRecorder()

	s.respondError(w, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, "Internal server error", body)
}

func TestRespondError_ClientErrorsKeepMessage(t *testing.T) {
	s := newTestServer()

	w := httptest.NewRecorder()
	s.respondError(w, fmt.Errorf("file 7: %w", db.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, errorBody(t, w), "file 7")

	w = httptest.NewRecorder()
	s.respondError(w, &ErrValidation{Field: "kind", Message: "must be 'question' or 'condition'"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "validation error: kind")
}

func TestDBError_GenericBody(t *testing.T) {
	s := newTestServer()
	w := httptest.NewRecorder()

	s.dbError(w, errors.New(`pq: relation "files" does not exist`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, "Database error", body)
	assert.NotContains(t, body, "relation")
}
