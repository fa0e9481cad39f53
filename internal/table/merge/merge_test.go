package merge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/internal/storage/local"
	"github.com/strata-db/strata/internal/table/sst"
	"github.com/strata-db/strata/internal/table/types"
)

func writeFile(t *testing.T, backend storage.Backend, dir, name string, level int, records []types.KeyValue) FileSource {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(dir, name)
	w, err := sst.Create(ctx, backend, path, name, level)
	require.NoError(t, err)
	for _, kv := range records {
		require.NoError(t, w.Write(kv))
	}
	_, err = w.Close()
	require.NoError(t, err)
	return FileSource{Path: path, Level: level}
}

func kv(k, v int64, kind types.Kind) types.KeyValue {
	return types.KeyValue{Key: types.Row{k}, Value: types.Row{v}, Kind: kind}
}

func drain(t *testing.T, r *Reader) []types.KeyValue {
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

func TestMergeDeduplicatesAcrossFiles(t *testing.T) {
	backend := local.New()
	dir := t.TempDir()

	f1 := writeFile(t, backend, dir, "f1", 0, []types.KeyValue{
		kv(1, 10, types.KindAdd),
		kv(3, 30, types.KindAdd),
	})
	f1.Seq = 0
	f2 := writeFile(t, backend, dir, "f2", 0, []types.KeyValue{
		kv(2, 200, types.KindAdd),
		kv(4, 40, types.KindAdd),
	})
	f2.Seq = 1

	r, err := NewReader(context.Background(), backend, []FileSource{f1, f2}, NewDeduplicate(), false)
	require.NoError(t, err)
	defer r.Close()

	got := drain(t, r)
	require.Len(t, got, 4)
	assert.Equal(t, types.Row{int64(1)}, got[0].Key)
	assert.Equal(t, types.Row{int64(2)}, got[1].Key)
	assert.Equal(t, types.Row{int64(200)}, got[1].Value)
	assert.Equal(t, types.Row{int64(3)}, got[2].Key)
	assert.Equal(t, types.Row{int64(4)}, got[3].Key)
}

func TestMergeKeepsNewestLevelOnKeyCollision(t *testing.T) {
	backend := local.New()
	dir := t.TempDir()

	// f1 is level 0 (newer), f2 is level 1 (older), both have key 5.
	f1 := writeFile(t, backend, dir, "f1", 0, []types.KeyValue{kv(5, 500, types.KindAdd)})
	f2 := writeFile(t, backend, dir, "f2", 1, []types.KeyValue{kv(5, 50, types.KindAdd)})

	r, err := NewReader(context.Background(), backend, []FileSource{f1, f2}, NewDeduplicate(), false)
	require.NoError(t, err)
	defer r.Close()

	got := drain(t, r)
	require.Len(t, got, 1)
	assert.Equal(t, types.Row{int64(500)}, got[0].Value)
}

func TestMergeSuppressesTombstoneInMergedView(t *testing.T) {
	backend := local.New()
	dir := t.TempDir()

	f1 := writeFile(t, backend, dir, "f1", 0, []types.KeyValue{kv(1, 0, types.KindDelete)})
	f2 := writeFile(t, backend, dir, "f2", 1, []types.KeyValue{kv(1, 10, types.KindAdd)})

	r, err := NewReader(context.Background(), backend, []FileSource{f1, f2}, NewDeduplicate(), false)
	require.NoError(t, err)
	defer r.Close()

	got := drain(t, r)
	assert.Len(t, got, 0)
}

func TestMergeChangeLogViewEmitsTombstone(t *testing.T) {
	backend := local.New()
	dir := t.TempDir()

	f1 := writeFile(t, backend, dir, "f1", 0, []types.KeyValue{kv(1, 0, types.KindDelete)})
	f2 := writeFile(t, backend, dir, "f2", 1, []types.KeyValue{kv(1, 10, types.KindAdd)})

	r, err := NewReader(context.Background(), backend, []FileSource{f1, f2}, NewDeduplicate(), true)
	require.NoError(t, err)
	defer r.Close()

	got := drain(t, r)
	require.Len(t, got, 1)
	assert.Equal(t, types.KindDelete, got[0].Kind)
}

func TestMergeSumAccumulatesAcrossFiles(t *testing.T) {
	backend := local.New()
	dir := t.TempDir()

	f1 := writeFile(t, backend, dir, "f1", 0, []types.KeyValue{kv(7, 1, types.KindAdd)})
	f2 := writeFile(t, backend, dir, "f2", 0, []types.KeyValue{kv(7, 2, types.KindAdd)})
	f3 := writeFile(t, backend, dir, "f3", 0, []types.KeyValue{kv(7, 3, types.KindAdd)})
	f1.Seq, f2.Seq, f3.Seq = 0, 1, 2

	sum := NewReduce(func(a, b types.Row) types.Row {
		return types.Row{a[0].(int64) + b[0].(int64)}
	})
	r, err := NewReader(context.Background(), backend, []FileSource{f1, f2, f3}, sum, false)
	require.NoError(t, err)
	defer r.Close()

	got := drain(t, r)
	require.Len(t, got, 1)
	assert.Equal(t, types.Row{int64(6)}, got[0].Value)
}

func TestMergeOutputIsStrictlyAscending(t *testing.T) {
	backend := local.New()
	dir := t.TempDir()

	f1 := writeFile(t, backend, dir, "f1", 0, []types.KeyValue{
		kv(5, 5, types.KindAdd), kv(9, 9, types.KindAdd),
	})
	f2 := writeFile(t, backend, dir, "f2", 0, []types.KeyValue{
		kv(1, 1, types.KindAdd), kv(5, 55, types.KindAdd), kv(7, 7, types.KindAdd),
	})
	f1.Seq = 0
	f2.Seq = 1

	r, err := NewReader(context.Background(), backend, []FileSource{f1, f2}, NewDeduplicate(), false)
	require.NoError(t, err)
	defer r.Close()

	got := drain(t, r)
	for i := 1; i < len(got); i++ {
		assert.True(t, types.CompareRows(got[i-1].Key, got[i].Key) < 0, "output must be strictly ascending")
	}
	require.Len(t, got, 4)
}
