package sst

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/internal/storage/local"
	"github.com/strata-db/strata/internal/table/types"
)

func TestWriteThenReadRoundTrips(t *testing.T) {
	ctx := context.Background()
	backend := local.New()
	path := filepath.Join(t.TempDir(), "bucket-0", "f1")

	w, err := Create(ctx, backend, path, "f1", 0)
	require.NoError(t, err)

	records := []types.KeyValue{
		{Key: types.Row{int64(1)}, Value: types.Row{int64(10)}, Kind: types.KindAdd},
		{Key: types.Row{int64(2)}, Value: types.Row{int64(20)}, Kind: types.KindAdd},
		{Key: types.Row{int64(3)}, Value: types.Row{int64(30)}, Kind: types.KindAdd},
	}
	for _, kv := range records {
		require.NoError(t, w.Write(kv))
	}

	meta, err := w.Close()
	require.NoError(t, err)
	assert.Equal(t, int64(3), meta.RowCount)
	assert.Equal(t, types.Row{int64(1)}, meta.MinKey)
	assert.Equal(t, types.Row{int64(3)}, meta.MaxKey)
	assert.Equal(t, "f1", meta.FileName)
	assert.Greater(t, meta.FileSize, int64(0))

	r, err := Open(ctx, backend, path, 0)
	require.NoError(t, err)
	defer r.Close()

	var got []types.KeyValue
	for {
		batch, err := r.ReadBatch(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, batch.Records...)
		r.ReleaseBatch(batch)
	}
	assert.Equal(t, records, got)
}

func TestReadBatchBeforeReleaseErrors(t *testing.T) {
	ctx := context.Background()
	backend := local.New()
	path := filepath.Join(t.TempDir(), "f1")

	w, err := Create(ctx, backend, path, "f1", 0)
	require.NoError(t, err)
	require.NoError(t, w.Write(types.KeyValue{Key: types.Row{int64(1)}, Value: types.Row{int64(1)}}))
	_, err = w.Close()
	require.NoError(t, err)

	r, err := Open(ctx, backend, path, 0)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadBatch(ctx)
	require.NoError(t, err)
	_, err = r.ReadBatch(ctx)
	assert.Error(t, err)
}

func TestOpenMissingFile(t *testing.T) {
	ctx := context.Background()
	backend := local.New()
	_, err := Open(ctx, backend, filepath.Join(t.TempDir(), "missing"), 0)
	assert.Error(t, err)
}
