package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonathan/tender-checklist/internal/checklist"
	"github.com/jonathan/tender-checklist/internal/db"
	"github.com/jonathan/tender-checklist/internal/filestore"
	"github.com/jonathan/tender-checklist/internal/types"
)

// handleEvaluateChecklist runs the stored and inline checklist items against
// the selected documents in a single model call.
func (s *Server) handleEvaluateChecklist(w http.ResponseWriter, r *http.Request) {
	var req types.ChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	docs, err := s.resolveDocuments(r, req.FileIDs)
	if err != nil {
		s.respondError(w, err)
		return
	}

	questions, conditions, err := s.resolveItems(r, req)
	if err != nil {
		s.respondError(w, err)
		return
	}

	result, err := s.evaluator.Evaluate(r.Context(), checklist.Request{
		Documents:  docs,
		Questions:  questions,
		Conditions: conditions,
		ItemIDs:    req.ItemIDs,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleChat answers a free-form question grounded on the selected documents
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	docs, err := s.resolveDocuments(r, req.FileIDs)
	if err != nil {
		s.respondError(w, err)
		return
	}

	reply, used, err := s.evaluator.Chat(r.Context(), req.Message, docs)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.ChatResponse{
		Response:  reply,
		FilesUsed: used,
	})
}

// resolveDocuments loads the referenced file records and pairs them with
// their provider storage references. Every requested ID must exist.
func (s *Server) resolveDocuments(r *http.Request, fileIDs []int64) ([]checklist.Document, error) {
	files, err := s.db.GetFilesByIDs(r.Context(), fileIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}

	byID := make(map[int64]db.StoredFile, len(files))
	for _, f := range files {
		byID[f.ID] = f
	}

	docs := make([]checklist.Document, 0, len(fileIDs))
	for _, id := range fileIDs {
		f, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("file %d: %w", id, db.ErrNotFound)
		}
		docs = append(docs, checklist.Document{
			ID:          f.ID,
			DisplayName: f.DisplayName,
			Reference: filestore.Reference{
				Handle:      f.StorageReference,
				URI:         f.StorageURI,
				MIMEType:    f.ContentType,
				DisplayName: f.DisplayName,
			},
		})
	}
	return docs, nil
}

// resolveItems collects question and condition texts from stored item IDs
// plus any inline texts in the request. Blank inline entries are dropped.
func (s *Server) resolveItems(r *http.Request, req types.ChecklistRequest) (questions, conditions []string, err error) {
	if len(req.ItemIDs) > 0 {
		items, err := s.db.GetItemsByIDs(r.Context(), req.ItemIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load items: %w", err)
		}

		found := make(map[int64]bool, len(items))
		for _, item := range items {
			found[item.ID] = true
			switch item.Kind {
			case db.KindQuestion:
				questions = append(questions, item.Text)
			case db.KindCondition:
				conditions = append(conditions, item.Text)
			}
		}
		for _, id := range req.ItemIDs {
			if !found[id] {
				return nil, nil, fmt.Errorf("item %d: %w", id, db.ErrNotFound)
			}
		}
	}

	for _, q := range req.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	for _, c := range req.Conditions {
		if c = strings.TrimSpace(c); c != "" {
			conditions = append(conditions, c)
		}
	}
	return questions, conditions, nil
}
