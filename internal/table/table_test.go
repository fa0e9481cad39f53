package table

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/internal/storage/local"
	"github.com/strata-db/strata/internal/table/commit"
	"github.com/strata-db/strata/internal/table/merge"
	"github.com/strata-db/strata/internal/table/scan"
	"github.com/strata-db/strata/internal/table/sst"
	"github.com/strata-db/strata/internal/table/types"
)

func writeSstFile(t *testing.T, tbl *Table, partition types.Row, bucket int, level int, records [][2]int64) types.SstFileMeta {
	t.Helper()
	ctx := context.Background()
	fields := partitionFields(partition)
	spf := tbl.paths.SstPathFactory(fields, bucket)
	path := spf.NewSstPath()
	fileName := path[len(spf.Dir())+1:]

	w, err := sst.Create(ctx, tbl.backend, path, fileName, level)
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, w.Write(types.KeyValue{Key: types.Row{r[0]}, Value: types.Row{r[1]}, Kind: types.KindAdd}))
	}
	meta, err := w.Close()
	require.NoError(t, err)
	return meta
}

func drainReader(t *testing.T, r *merge.Reader) []types.KeyValue {
	t.Helper()
	var out []types.KeyValue
	for {
		rec, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, rec)
	}
	return out
}

func TestScenarioS1AppendAndRead(t *testing.T) {
	ctx := context.Background()
	backend := local.New()
	root := filepath.Join(t.TempDir(), "table")

	tbl, err := Open(ctx, backend, root, 0)
	require.NoError(t, err)
	assert.Nil(t, tbl.CurrentSnapshot())

	meta := writeSstFile(t, tbl, types.Row{}, 0, 0, [][2]int64{{1, 10}, {2, 20}, {3, 30}})
	snap1, err := tbl.Commit(ctx, commit.Increment{
		NewFiles: []commit.FileAndLocation{{Partition: types.Row{}, Bucket: 0, File: meta}},
	}, "writer", "txn-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap1.ID)

	plan, err := tbl.NewScan(ctx, scan.Request{})
	require.NoError(t, err)
	require.Len(t, plan.Files, 1)

	r, err := tbl.Open(plan, types.Row{}, 0, merge.NewDeduplicate(), false)
	require.NoError(t, err)
	defer r.Close()

	got := drainReader(t, r)
	require.Len(t, got, 3)
	assert.Equal(t, types.Row{int64(10)}, got[0].Value)
	assert.Equal(t, types.Row{int64(20)}, got[1].Value)
	assert.Equal(t, types.Row{int64(30)}, got[2].Value)
}

func TestScenarioS2DeduplicatesAcrossCommits(t *testing.T) {
	ctx := context.Background()
	backend := local.New()
	root := filepath.Join(t.TempDir(), "table")
	tbl, err := Open(ctx, backend, root, 0)
	require.NoError(t, err)

	meta1 := writeSstFile(t, tbl, types.Row{}, 0, 0, [][2]int64{{1, 10}, {2, 20}, {3, 30}})
	_, err = tbl.Commit(ctx, commit.Increment{
		NewFiles: []commit.FileAndLocation{{Partition: types.Row{}, Bucket: 0, File: meta1}},
	}, "writer", "txn-1")
	require.NoError(t, err)

	meta2 := writeSstFile(t, tbl, types.Row{}, 0, 0, [][2]int64{{2, 200}, {4, 40}})
	snap2, err := tbl.Commit(ctx, commit.Increment{
		NewFiles: []commit.FileAndLocation{{Partition: types.Row{}, Bucket: 0, File: meta2}},
	}, "writer", "txn-2")
	require.NoError(t, err)

	id := snap2.ID
	plan, err := tbl.NewScan(ctx, scan.Request{SnapshotID: &id})
	require.NoError(t, err)
	require.Len(t, plan.Files, 2)

	r, err := tbl.Open(plan, types.Row{}, 0, merge.NewDeduplicate(), false)
	require.NoError(t, err)
	defer r.Close()

	got := drainReader(t, r)
	require.Len(t, got, 4)
	assert.Equal(t, types.Row{int64(10)}, got[0].Value)
	assert.Equal(t, types.Row{int64(200)}, got[1].Value)
	assert.Equal(t, types.Row{int64(30)}, got[2].Value)
	assert.Equal(t, types.Row{int64(40)}, got[3].Value)
}

func TestScenarioS3CompactionPreservesMergedView(t *testing.T) {
	ctx := context.Background()
	backend := local.New()
	root := filepath.Join(t.TempDir(), "table")
	tbl, err := Open(ctx, backend, root, 0)
	require.NoError(t, err)

	meta1 := writeSstFile(t, tbl, types.Row{}, 0, 0, [][2]int64{{1, 10}, {2, 20}, {3, 30}})
	_, err = tbl.Commit(ctx, commit.Increment{
		NewFiles: []commit.FileAndLocation{{Partition: types.Row{}, Bucket: 0, File: meta1}},
	}, "writer", "txn-1")
	require.NoError(t, err)

	meta2 := writeSstFile(t, tbl, types.Row{}, 0, 0, [][2]int64{{2, 200}, {4, 40}})
	_, err = tbl.Commit(ctx, commit.Increment{
		NewFiles: []commit.FileAndLocation{{Partition: types.Row{}, Bucket: 0, File: meta2}},
	}, "writer", "txn-2")
	require.NoError(t, err)

	compacted := writeSstFile(t, tbl, types.Row{}, 0, 0, [][2]int64{{1, 10}, {2, 200}, {3, 30}, {4, 40}})
	snap3, err := tbl.Commit(ctx, commit.Increment{
		CompactedBefore: []commit.FileAndLocation{
			{Partition: types.Row{}, Bucket: 0, File: meta1},
			{Partition: types.Row{}, Bucket: 0, File: meta2},
		},
		CompactedAfter: []commit.FileAndLocation{{Partition: types.Row{}, Bucket: 0, File: compacted}},
	}, "writer", "txn-3")
	require.NoError(t, err)
	assert.Equal(t, types.CommitCompact, snap3.CommitKind)

	id := snap3.ID
	plan, err := tbl.NewScan(ctx, scan.Request{SnapshotID: &id})
	require.NoError(t, err)
	require.Len(t, plan.Files, 1)

	r, err := tbl.Open(plan, types.Row{}, 0, merge.NewDeduplicate(), false)
	require.NoError(t, err)
	defer r.Close()

	got := drainReader(t, r)
	require.Len(t, got, 4)
	assert.Equal(t, types.Row{int64(200)}, got[1].Value)
}
