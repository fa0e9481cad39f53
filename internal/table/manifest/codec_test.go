package manifest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/internal/paths"
	"github.com/strata-db/strata/internal/storage/local"
	"github.com/strata-db/strata/internal/table/types"
)

func sampleEntries() []types.ManifestEntry {
	return []types.ManifestEntry{
		{
			Kind:      types.KindAdd,
			Partition: types.Row{"a"},
			Bucket:    0,
			File: types.SstFileMeta{
				FileName: "f1",
				FileSize: 100,
				RowCount: 3,
				MinKey:   types.Row{int64(1)},
				MaxKey:   types.Row{int64(3)},
				Level:    0,
			},
		},
		{
			Kind:      types.KindAdd,
			Partition: types.Row{"b"},
			Bucket:    0,
			File: types.SstFileMeta{
				FileName: "f2",
				FileSize: 80,
				RowCount: 2,
				MinKey:   types.Row{int64(4)},
				MaxKey:   types.Row{int64(5)},
				Level:    0,
			},
		},
	}
}

func TestWriteManifestThenReadRoundTrips(t *testing.T) {
	ctx := context.Background()
	backend := local.New()
	path := filepath.Join(t.TempDir(), "manifest", "m1")

	entries := sampleEntries()
	meta, err := WriteManifest(ctx, backend, path, "m1", entries)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.NumAddedFiles)
	assert.Equal(t, 0, meta.NumDeletedFiles)
	require.Len(t, meta.PartitionStats, 1)
	assert.Equal(t, "a", meta.PartitionStats[0].Min)
	assert.Equal(t, "b", meta.PartitionStats[0].Max)

	got, err := ReadManifest(ctx, backend, path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "f1", got[0].File.FileName)
	assert.Equal(t, types.Row{"a"}, got[0].Partition)
	assert.Equal(t, "f2", got[1].File.FileName)
}

func TestWriteManifestListThenReadRoundTrips(t *testing.T) {
	ctx := context.Background()
	backend := local.New()
	path := filepath.Join(t.TempDir(), "manifest", "mlist")

	metas := types.ManifestList{
		{FileName: "m1", FileSize: 10, NumAddedFiles: 2},
		{FileName: "m2", FileSize: 20, NumAddedFiles: 1, NumDeletedFiles: 1},
	}
	require.NoError(t, WriteManifestList(ctx, backend, path, metas))

	got, err := ReadManifestList(ctx, backend, path)
	require.NoError(t, err)
	assert.Equal(t, metas, got)
}

func TestWriterRollsOverAtRollSize(t *testing.T) {
	ctx := context.Background()
	backend := local.New()
	pf := paths.NewFactory(t.TempDir())

	w := NewWriter(ctx, backend, pf, 1)
	entries := sampleEntries()
	require.NoError(t, w.Write(entries[0]))
	require.NoError(t, w.Write(entries[1]))

	metas, err := w.Close()
	require.NoError(t, err)
	assert.Len(t, metas, 2)
}

func TestWriterSingleManifestUnderRollSize(t *testing.T) {
	ctx := context.Background()
	backend := local.New()
	pf := paths.NewFactory(t.TempDir())

	w := NewWriter(ctx, backend, pf, 10)
	for _, e := range sampleEntries() {
		require.NoError(t, w.Write(e))
	}

	metas, err := w.Close()
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, 2, metas[0].NumAddedFiles)
}
