package db

import (
	"time"

	"github.com/google/uuid"
)

// ItemKind distinguishes checklist items that expect a free-text answer
// from items that expect a boolean verdict.
type ItemKind string

// Item kinds stored in the items.kind column.
const (
	KindQuestion  ItemKind = "question"
	KindCondition ItemKind = "condition"
)

// Valid reports whether the kind is one of the two known values.
func (k ItemKind) Valid() bool {
	return k == KindQuestion || k == KindCondition
}

// StoredFile is the local metadata record for a document whose bytes live
// in the external provider's file storage.
type StoredFile struct {
	ID               int64     `json:"id"`
	DisplayName      string    `json:"display_name"`
	StorageReference string    `json:"storage_reference"`
	StorageURI       string    `json:"storage_uri,omitempty"`
	FileSize         int64     `json:"file_size"`
	ContentType      string    `json:"content_type"`
	MD5Hash          string    `json:"md5_hash"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// ChecklistItem is a user-defined question or condition.
type ChecklistItem struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Kind      ItemKind  `json:"kind"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session statuses for evaluation runs.
const (
	SessionStatusPending    = "pending"
	SessionStatusProcessing = "processing"
	SessionStatusCompleted  = "completed"
	SessionStatusFailed     = "failed"
)

// EvaluationSession records one checklist run against the external model.
type EvaluationSession struct {
	ID               int64          `json:"id"`
	SessionID        uuid.UUID      `json:"session_id"`
	FileIDs          []int64        `json:"file_ids"`
	ItemIDs          []int64        `json:"item_ids"`
	Results          map[string]any `json:"results,omitempty"`
	Status           string         `json:"status"`
	ErrorMessage     *string        `json:"error_message,omitempty"`
	ProcessingTimeMS *int64         `json:"processing_time_ms,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
}

// User is an account record. PasswordHash is never serialized.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PasswordSet  bool      `json:"password_set"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
