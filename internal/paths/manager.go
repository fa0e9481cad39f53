// Package paths maps the logical entities of a table (snapshots, manifests,
// SST files) onto storage paths rooted at a table directory.
package paths

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PartitionField is one column of a partition key, already rendered to its
// string form by the caller (the table package owns Row -> string formatting;
// paths only knows about path syntax).
type PartitionField struct {
	Name  string
	Value string
}

// Factory is the C1 path factory. It is stateless apart from its root and a
// UUID source, and is safe for concurrent use.
type Factory struct {
	root string
}

// NewFactory creates a path factory rooted at root. Root may be a local
// directory or an object-store prefix; Factory never touches storage itself,
// it only computes path strings.
func NewFactory(root string) *Factory {
	return &Factory{root: strings.TrimRight(root, "/")}
}

// Root returns the table root path.
func (f *Factory) Root() string {
	return f.root
}

// SnapshotPath returns the path for snapshot-<id>.
func (f *Factory) SnapshotPath(id uint64) string {
	return fmt.Sprintf("%s/snapshot/snapshot-%d", f.root, id)
}

// SnapshotDir returns the directory containing all snapshot files.
func (f *Factory) SnapshotDir() string {
	return f.root + "/snapshot"
}

// ManifestDir returns the directory containing manifest and manifest-list
// files.
func (f *Factory) ManifestDir() string {
	return f.root + "/manifest"
}

// NewManifestPath mints a fresh path for a manifest or manifest-list file.
func (f *Factory) NewManifestPath() string {
	return fmt.Sprintf("%s/%s", f.ManifestDir(), uuid.NewString())
}

// PartitionPath renders a partition key as "k1=v1/k2=v2/...". An empty
// partition (unpartitioned table) renders to "".
func PartitionPath(fields []PartitionField) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field.Name + "=" + field.Value
	}
	return strings.Join(parts, "/")
}

// SstPathFactory localizes SST path minting to one (partition, bucket) pair,
// per spec.md's "subordinate SstPathFactory(partition, bucket)" requirement.
type SstPathFactory struct {
	dir string
}

// SstPathFactory returns a subordinate factory scoped to partition and
// bucket.
func (f *Factory) SstPathFactory(partition []PartitionField, bucket int) *SstPathFactory {
	partPath := PartitionPath(partition)
	var dir string
	if partPath == "" {
		dir = fmt.Sprintf("%s/bucket-%d", f.root, bucket)
	} else {
		dir = fmt.Sprintf("%s/%s/bucket-%d", f.root, partPath, bucket)
	}
	return &SstPathFactory{dir: dir}
}

// Dir returns the bucket directory this factory mints files under.
func (s *SstPathFactory) Dir() string {
	return s.dir
}

// NewSstPath mints a fresh path for one SST data file.
func (s *SstPathFactory) NewSstPath() string {
	return fmt.Sprintf("%s/%s", s.dir, uuid.NewString())
}
