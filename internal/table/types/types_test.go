package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareRowsOrdersNumerically(t *testing.T) {
	assert.Equal(t, -1, CompareRows(Row{int64(1)}, Row{int64(2)}))
	assert.Equal(t, 1, CompareRows(Row{int64(5)}, Row{int64(2)}))
	assert.Equal(t, 0, CompareRows(Row{int64(2)}, Row{int64(2)}))
}

func TestCompareRowsOrdersStrings(t *testing.T) {
	assert.Less(t, CompareRows(Row{"a"}, Row{"b"}), 0)
	assert.Greater(t, CompareRows(Row{"b"}, Row{"a"}), 0)
}

func TestCompareRowsMultiField(t *testing.T) {
	assert.Equal(t, 0, CompareRows(Row{"a", int64(1)}, Row{"a", int64(1)}))
	assert.Less(t, CompareRows(Row{"a", int64(1)}, Row{"a", int64(2)}), 0)
	assert.Less(t, CompareRows(Row{"a", int64(9)}, Row{"b", int64(0)}), 0)
}

func TestManifestEntryIdentifierDistinguishesByFileName(t *testing.T) {
	base := ManifestEntry{Partition: Row{"a"}, Bucket: 0, File: SstFileMeta{FileName: "f1"}}
	other := base
	other.File.FileName = "f2"
	assert.NotEqual(t, base.Identifier(), other.Identifier())
}

func TestManifestEntryIdentifierStableAcrossKind(t *testing.T) {
	add := ManifestEntry{Kind: KindAdd, Partition: Row{"a"}, Bucket: 0, File: SstFileMeta{FileName: "f1"}}
	del := ManifestEntry{Kind: KindDelete, Partition: Row{"a"}, Bucket: 0, File: SstFileMeta{FileName: "f1"}}
	assert.Equal(t, add.Identifier(), del.Identifier())
}
