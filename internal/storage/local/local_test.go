package local

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateThenOpenRoundTrips(t *testing.T) {
	ctx := context.Background()
	b := New()
	path := filepath.Join(t.TempDir(), "manifest", "m1")

	w, err := b.Create(ctx, path)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := b.Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestOpenMissingObjectReportsNotFound(t *testing.T) {
	ctx := context.Background()
	b := New()
	_, err := b.Open(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	b := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot-1")

	ok, err := b.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, ok)

	w, err := b.Create(ctx, path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ok, err = b.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListReturnsSortedNames(t *testing.T) {
	ctx := context.Background()
	b := New()
	dir := t.TempDir()

	for _, name := range []string{"c", "a", "b"} {
		w, err := b.Create(ctx, filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	names, err := b.List(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestRemoveMissingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	b := New()
	err := b.Remove(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.NoError(t, err)
}
