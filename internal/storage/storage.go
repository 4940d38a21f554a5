// Package storage contains the optional object-storage mirror for ingested
// result files. The filesystem stays the source of truth; the mirror is a
// best-effort secondary copy kept in an S3-compatible bucket.
package storage

import (
	"context"
	"io"
)

// Mirror is an S3-compatible secondary store for result files.
// Implementations must be safe for concurrent use.
type Mirror interface {
	// Put uploads one object under the given key using streaming I/O.
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	// RemovePrefix deletes every object whose key starts with prefix.
	// Used when a project is deleted.
	RemovePrefix(ctx context.Context, prefix string) error
}
