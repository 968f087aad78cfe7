package filestore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

// pollInterval is how often EnsureActive re-checks a processing file.
const pollInterval = 2 * time.Second

// GeminiStore implements Store on top of the Gemini Files API.
type GeminiStore struct {
	client *genai.Client
}

// NewGeminiStore creates a store backed by the Gemini Files API
func NewGeminiStore(ctx context.Context, apiKey string) (*GeminiStore, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiStore{client: client}, nil
}

// Upload stores document bytes with the provider and returns the reference
func (s *GeminiStore) Upload(ctx context.Context, displayName string, r io.Reader, mimeType string) (*Reference, error) {
	file, err := s.client.UploadFile(ctx, "", r, &genai.UploadFileOptions{
		DisplayName: displayName,
		MIMEType:    mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file %q: %w", displayName, err)
	}

	return &Reference{
		Handle:      file.Name,
		URI:         file.URI,
		MIMEType:    file.MIMEType,
		DisplayName: displayName,
	}, nil
}

// Delete removes a document from provider storage
func (s *GeminiStore) Delete(ctx context.Context, handle string) error {
	if err := s.client.DeleteFile(ctx, handle); err != nil {
		return fmt.Errorf("failed to delete file %q: %w", handle, err)
	}
	return nil
}

// EnsureActive waits until every referenced file has finished provider-side
// processing. Freshly uploaded files start in a PROCESSING state and cannot
// be referenced by model requests until they become ACTIVE.
func (s *GeminiStore) EnsureActive(ctx context.Context, refs []Reference) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, ref := range refs {
		g.Go(func() error {
			return s.waitForActive(ctx, ref.Handle)
		})
	}
	return g.Wait()
}

func (s *GeminiStore) waitForActive(ctx context.Context, handle string) error {
	for {
		file, err := s.client.GetFile(ctx, handle)
		if err != nil {
			return fmt.Errorf("failed to get file %q: %w", handle, err)
		}

		switch file.State {
		case genai.FileStateActive:
			return nil
		case genai.FileStateFailed:
			return fmt.Errorf("provider failed to process file %q", handle)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Close releases the underlying client
func (s *GeminiStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
