// Package storage defines the Backend abstraction that every table path in
// strata reads and writes through: snapshots, manifests, and SST files are
// all just objects at paths under a table root, whether that root lives on
// local disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"io"
	"strings"

	"github.com/strata-db/strata/pkg/errors"
)

// Backend-specific error codes.
var (
	ErrObjectNotFound = errors.MustNewCode("storage.object_not_found")
	ErrOpenFailed     = errors.MustNewCode("storage.open_failed")
	ErrCreateFailed   = errors.MustNewCode("storage.create_failed")
	ErrRemoveFailed   = errors.MustNewCode("storage.remove_failed")
	ErrListFailed     = errors.MustNewCode("storage.list_failed")
	ErrUnknownScheme  = errors.MustNewCode("storage.unknown_scheme")
	ErrStatFailed     = errors.MustNewCode("storage.stat_failed")
)

// Backend is the storage abstraction every table component reads and
// writes through. Implementations must make Create's result durable only
// once the returned WriteCloser is closed: a reader racing a writer that
// has not yet closed must never observe a partial object, matching the
// write-once semantics snapshots and manifests depend on.
type Backend interface {
	// Open returns a reader for the object at path. It returns an error
	// carrying ErrObjectNotFound if no object exists there.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Create returns a writer for a new object at path. The object becomes
	// visible to Open/Exists/List only after the writer is closed.
	Create(ctx context.Context, path string) (io.WriteCloser, error)

	// Remove deletes the object at path. Removing a nonexistent object is
	// not an error.
	Remove(ctx context.Context, path string) error

	// Exists reports whether an object exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the names of objects directly under dir, non-recursive,
	// in lexical order.
	List(ctx context.Context, dir string) ([]string, error)
}

// SchemeOf reports the URI scheme of root ("s3" for "s3://bucket/prefix",
// "" for a bare local path).
func SchemeOf(root string) string {
	if idx := strings.Index(root, "://"); idx >= 0 {
		return root[:idx]
	}
	return ""
}
