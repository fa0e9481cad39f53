// Package local implements storage.Backend over the local filesystem.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/pkg/errors"
)

// Backend is an os-backed storage.Backend. It creates parent directories
// on demand and writes objects atomically: Create writes to a temporary
// sibling file and renames it into place on Close, so a reader never
// observes a partially written object.
type Backend struct{}

// New creates a local filesystem backend.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(storage.ErrObjectNotFound, "object not found", err).AddContext("path", path)
		}
		return nil, errors.New(storage.ErrOpenFailed, "failed to open object", err).AddContext("path", path)
	}
	return f, nil
}

func (b *Backend) Create(_ context.Context, path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.New(storage.ErrCreateFailed, "failed to create parent directory", err).AddContext("path", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, errors.New(storage.ErrCreateFailed, "failed to create object", err).AddContext("path", path)
	}

	return &atomicWriter{tmp: tmp, final: path}, nil
}

func (b *Backend) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.New(storage.ErrRemoveFailed, "failed to remove object", err).AddContext("path", path)
	}
	return nil
}

func (b *Backend) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.New(storage.ErrStatFailed, "failed to stat object", err).AddContext("path", path)
}

func (b *Backend) List(_ context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.New(storage.ErrListFailed, "failed to list directory", err).AddContext("path", dir)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// atomicWriter buffers writes to a temp file and renames it over the final
// path on Close, so concurrent readers never see a partial object.
type atomicWriter struct {
	tmp   *os.File
	final string
}

func (w *atomicWriter) Write(p []byte) (int, error) {
	return w.tmp.Write(p)
}

func (w *atomicWriter) Close() error {
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return errors.New(storage.ErrCreateFailed, "failed to close object", err).AddContext("path", w.final)
	}
	if err := os.Rename(w.tmp.Name(), w.final); err != nil {
		os.Remove(w.tmp.Name())
		return errors.New(storage.ErrCreateFailed, "failed to finalize object", err).AddContext("path", w.final)
	}
	return nil
}
