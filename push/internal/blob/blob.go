// Package blob defines the store gateway the push pipeline writes through,
// plus the MinIO-backed production implementation and an in-memory store for
// tests and storage-less development.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for a key with no stored entry.
var ErrNotFound = errors.New("blob: key not found")

// Store is the narrow contract the pipeline depends on. Every write is a
// single blind put to a fresh time-derived key; the store never sees
// read-modify-write traffic.
type Store interface {
	// Put stores data under key, tagged with the given content type.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// List returns up to limit keys under prefix, in the store's own
	// enumeration order.
	List(ctx context.Context, prefix string, limit int) ([]string, error)

	// Get returns the bytes stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}
