package manifest

import (
	"context"

	"github.com/strata-db/strata/internal/paths"
	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/internal/table/types"
)

// DefaultRollSize is the entry count at which Writer rolls to a new
// manifest file when no explicit size is configured.
const DefaultRollSize = 10000

// Writer accumulates ManifestEntry records and rolls over to a new
// manifest file once the current one reaches RollSize entries, mirroring
// the size-bounded batching a commit-time manifest writer needs so no
// single manifest grows unbounded under a busy table.
type Writer struct {
	ctx      context.Context
	backend  storage.Backend
	paths    *paths.Factory
	rollSize int

	pending []types.ManifestEntry
	metas   []types.ManifestFileMeta
}

// NewWriter creates a manifest writer that mints new manifest files via
// pathFactory and rolls over every rollSize entries (DefaultRollSize if
// rollSize <= 0).
func NewWriter(ctx context.Context, backend storage.Backend, pathFactory *paths.Factory, rollSize int) *Writer {
	if rollSize <= 0 {
		rollSize = DefaultRollSize
	}
	return &Writer{ctx: ctx, backend: backend, paths: pathFactory, rollSize: rollSize}
}

// Write appends one entry, rolling to a new manifest file first if the
// current one is full.
func (w *Writer) Write(e types.ManifestEntry) error {
	w.pending = append(w.pending, e)
	if len(w.pending) >= w.rollSize {
		return w.roll()
	}
	return nil
}

func (w *Writer) roll() error {
	if len(w.pending) == 0 {
		return nil
	}
	path := w.paths.NewManifestPath()
	fileName := path[len(w.paths.ManifestDir())+1:]

	meta, err := WriteManifest(w.ctx, w.backend, path, fileName, w.pending)
	if err != nil {
		return err
	}
	w.metas = append(w.metas, meta)
	w.pending = nil
	return nil
}

// Close flushes any pending entries to a final manifest file and returns
// the ManifestFileMeta for every manifest file written.
func (w *Writer) Close() ([]types.ManifestFileMeta, error) {
	if err := w.roll(); err != nil {
		return nil, err
	}
	return w.metas, nil
}
