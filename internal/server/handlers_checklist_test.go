package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleEvaluateChecklist_InvalidBody(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/checklist", strings.NewReader("{"))
	w := httptest.NewRecorder()

	s.handleEvaluateChecklist(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEvaluateChecklist_NoFiles(t *testing.T) {
	s := newTestServer()

	body := `{"questions": ["What is the deadline?"]}`
	req := httptest.NewRequest(http.MethodPost, "/checklist", strings.NewReader(body))
	w := httptest.NewRecorder()

	s.handleEvaluateChecklist(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Contains(t, resp["error"], "FileIDs")
}

func TestHandleEvaluateChecklist_EmptyFileList(t *testing.T) {
	s := newTestServer()

	body := `{"file_ids": [], "questions": ["What is the deadline?"]}`
	req := httptest.NewRequest(http.MethodPost, "/checklist", strings.NewReader(body))
	w := httptest.NewRecorder()

	s.handleEvaluateChecklist(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChat_InvalidBody(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("nope"))
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChat_MissingMessage(t *testing.T) {
	s := newTestServer()

	body := `{"file_ids": [1]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChat_MissingFiles(t *testing.T) {
	s := newTestServer()

	body := `{"message": "Summarize the tender"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
