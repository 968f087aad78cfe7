// Package filestore abstracts the provider-side storage that holds uploaded
// document bytes. Local records only keep the opaque handle returned here.
package filestore

import (
	"context"
	"io"
)

// Reference identifies a document held in provider storage. Handle is the
// provider's opaque name (used for deletion and metadata lookups), URI is
// what model requests reference.
type Reference struct {
	Handle      string
	URI         string
	MIMEType    string
	DisplayName string
}

// Store is the capability interface for provider file storage.
type Store interface {
	// Upload stores the document bytes and returns a reference to them.
	Upload(ctx context.Context, displayName string, r io.Reader, mimeType string) (*Reference, error)
	// Delete removes a stored document. Deleting an unknown handle is an error.
	Delete(ctx context.Context, handle string) error
	// EnsureActive blocks until every referenced document is ready for use
	// in model requests, or returns an error.
	EnsureActive(ctx context.Context, refs []Reference) error
	// Close releases any resources held by the store.
	Close() error
}
