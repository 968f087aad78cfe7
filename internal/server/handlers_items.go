package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jonathan/tender-checklist/internal/db"
	"github.com/jonathan/tender-checklist/internal/types"
)

// parseQueryInt parses an integer query parameter with default and max values
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

// handleCreateItem registers a new checklist question or condition
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req types.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.db.CreateItem(r.Context(), req.Text, db.ItemKind(req.Kind))
	if err != nil {
		s.dbError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, item)
}

// handleListItems lists checklist items, optionally filtered by kind and
// active status (?kind=question|condition, ?include_inactive=true)
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	filters := db.ItemFilters{
		ActiveOnly: r.URL.Query().Get("include_inactive") != "true",
	}

	if kind := r.URL.Query().Get("kind"); kind != "" {
		k := db.ItemKind(kind)
		if !k.Valid() {
			s.respondError(w, &ErrValidation{Field: "kind", Message: "must be 'question' or 'condition'"})
			return
		}
		filters.Kind = k
	}

	items, err := s.db.ListItems(r.Context(), filters)
	if err != nil {
		s.dbError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// handleGetItem retrieves a checklist item by ID
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := s.db.GetItem(r.Context(), id)
	if err != nil {
		s.dbError(w, err)
		return
	}
	if item == nil {
		s.errorResponse(w, http.StatusNotFound, "Item not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, item)
}

// handleUpdateItem updates text, kind or active status of an item
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req types.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	update := db.ItemUpdate{
		Text:     req.Text,
		IsActive: req.IsActive,
	}
	if req.Kind != nil {
		k := db.ItemKind(*req.Kind)
		update.Kind = &k
	}

	item, err := s.db.UpdateItem(r.Context(), id, update)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "Item not found")
			return
		}
		s.dbError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, item)
}

// handleDeleteItem deactivates an item; history referencing it stays intact
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := s.db.DeactivateItem(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "Item not found")
			return
		}
		s.dbError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Item deactivated"})
}

// handleHardDeleteItem permanently removes an item
func (s *Server) handleHardDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := s.db.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "Item not found")
			return
		}
		s.dbError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Item deleted"})
}
