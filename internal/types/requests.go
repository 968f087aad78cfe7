// Package types provides request and response definitions for the tender
// checklist HTTP API.
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// CreateItemRequest is the body for creating a checklist item.
type CreateItemRequest struct {
	Text string `json:"text" validate:"required,min=1,max=50000"`
	Kind string `json:"kind" validate:"required,oneof=question condition"`
}

// Validate validates the request. Whitespace-only text is rejected because
// it would produce an unanswerable checklist entry.
func (r *CreateItemRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	validate := validator.New()
	return validate.Struct(r)
}

// UpdateItemRequest is the body for updating a checklist item. Nil fields
// are left unchanged.
type UpdateItemRequest struct {
	Text     *string `json:"text,omitempty" validate:"omitempty,min=1,max=50000"`
	Kind     *string `json:"kind,omitempty" validate:"omitempty,oneof=question condition"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Validate validates the request.
func (r *UpdateItemRequest) Validate() error {
	if r.Text != nil {
		trimmed := strings.TrimSpace(*r.Text)
		r.Text = &trimmed
	}
	validate := validator.New()
	return validate.Struct(r)
}

// ChecklistRequest is the body for running an evaluation. Items can be
// referenced by stored id or supplied inline; at least one question or
// condition must result.
type ChecklistRequest struct {
	FileIDs    []int64  `json:"file_ids" validate:"required,min=1"`
	ItemIDs    []int64  `json:"item_ids,omitempty"`
	Questions  []string `json:"questions,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

// Validate validates the request.
func (r *ChecklistRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ChatRequest is the body for chatting with the selected documents.
type ChatRequest struct {
	Message string  `json:"message" validate:"required,min=1,max=50000"`
	FileIDs []int64 `json:"file_ids" validate:"required,min=1"`
}

// Validate validates the request.
func (r *ChatRequest) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	validate := validator.New()
	return validate.Struct(r)
}

// ChatResponse is the reply for a chat request.
type ChatResponse struct {
	Response  string   `json:"response"`
	FilesUsed []string `json:"files_used"`
}
