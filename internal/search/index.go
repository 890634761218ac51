package search

import (
	"context"
	"errors"
)

var (
	ErrIndexClosed = errors.New("search index is closed")
)

// Document is the indexed projection of a shop
type Document struct {
	ID   int64
	Name string
}

// Index is a full-text index over shop names. It is eventually consistent
// with the catalog store.
type Index interface {
	// Upsert adds the document or replaces the one with the same ID
	Upsert(ctx context.Context, doc Document) error
	// Remove deletes the document; removing an unknown ID is not an error
	Remove(ctx context.Context, id int64) error
	// Match returns the IDs of every document whose name matches one of the
	// query tokens, best match first
	Match(ctx context.Context, query string) ([]int64, error)
	// Replace atomically swaps the whole index content for docs
	Replace(ctx context.Context, docs []Document) error
	Count(ctx context.Context) (int64, error)
	Close() error
}
