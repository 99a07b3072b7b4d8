package repository

import (
	"context"
	"errors"
)

var (
	// ErrDocumentExists is returned by Create when the id is taken
	ErrDocumentExists = errors.New("document already exists")
	// ErrDocumentNotFound is returned by Update when there is nothing to patch
	ErrDocumentNotFound = errors.New("document not found")
)

// DocumentStore defines the job-document storage operations.
// Field values are limited to string, int64, bool, time.Time, nil, []any and map[string]any,
// and every implementation must give them back with the same types.
type DocumentStore interface {
	// Create fails with ErrDocumentExists if id is already present
	Create(ctx context.Context, token, collection, id string, fields map[string]any) error
	// Update merges fields into an existing document, ErrDocumentNotFound if absent
	Update(ctx context.Context, token, collection, id string, fields map[string]any) error
	// Get returns nil, nil when the document does not exist
	Get(ctx context.Context, token, collection, id string) (map[string]any, error)
}
