// Package table wires the path, storage, manifest, snapshot, predicate,
// scan, merge, and commit packages into the single entrypoint most
// callers use: Open a table root, Commit new files, and read them back
// through NewScan and Open.
package table

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/strata-db/strata/internal/config"
	"github.com/strata-db/strata/internal/paths"
	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/internal/storage/local"
	"github.com/strata-db/strata/internal/storage/s3"
	"github.com/strata-db/strata/internal/table/commit"
	"github.com/strata-db/strata/internal/table/errs"
	"github.com/strata-db/strata/internal/table/merge"
	"github.com/strata-db/strata/internal/table/scan"
	"github.com/strata-db/strata/internal/table/snapshot"
	"github.com/strata-db/strata/internal/table/types"
	"github.com/strata-db/strata/pkg/errors"
)

// Table is a handle onto one table root: its current snapshot pointer
// plus the plumbing needed to commit new increments and plan/read scans.
type Table struct {
	backend   storage.Backend
	paths     *paths.Factory
	planner   *scan.Planner
	committer *commit.Committer
	current   *types.Snapshot
}

// Open opens a table rooted at root, resolving the current snapshot
// pointer as the highest snapshot-<id> present (nil if the table is
// empty). rollSize bounds manifest roll-over (0 uses the default).
func Open(ctx context.Context, backend storage.Backend, root string, rollSize int) (*Table, error) {
	pf := paths.NewFactory(root)

	current, err := latestSnapshotID(ctx, backend, pf)
	if err != nil {
		return nil, err
	}

	t := &Table{
		backend:   backend,
		paths:     pf,
		planner:   scan.NewPlanner(backend, pf),
		committer: commit.NewCommitter(backend, pf, rollSize),
	}

	if current != nil {
		snap, err := snapshot.Read(ctx, backend, pf.SnapshotPath(*current))
		if err != nil {
			return nil, err
		}
		t.current = &snap
	}
	return t, nil
}

// OpenFromConfig opens the table described by cfg, selecting and
// constructing the storage backend (local or S3) from cfg.Storage.
func OpenFromConfig(ctx context.Context, cfg *config.Config) (*Table, error) {
	backend, err := backendFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Open(ctx, backend, cfg.Table.Root, cfg.Scan.ManifestRollSize)
}

func backendFromConfig(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return local.New(), nil
	case "s3":
		return s3.New(ctx, s3.Config{
			Endpoint:        cfg.Storage.S3.Endpoint,
			Bucket:          bucketFromRoot(cfg.Table.Root),
			Region:          cfg.Storage.S3.Region,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			UseSSL:          cfg.Storage.S3.UseSSL,
		})
	default:
		return nil, errors.Newf(config.ErrUnknownStorageBackend, "unknown storage backend %q", cfg.Storage.Backend)
	}
}

func bucketFromRoot(root string) string {
	trimmed := strings.TrimPrefix(root, "s3://")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

// CurrentSnapshot returns the table's current snapshot, or nil if the
// table has never been committed to.
func (t *Table) CurrentSnapshot() *types.Snapshot {
	return t.current
}

// Backend returns the storage backend this table was opened against, for
// callers that need to write files into the table's layout directly
// (e.g. staging a new SST file before committing it).
func (t *Table) Backend() storage.Backend {
	return t.backend
}

// Paths returns the path factory this table was opened against.
func (t *Table) Paths() *paths.Factory {
	return t.paths
}

// Commit publishes inc as a new snapshot on top of the table's current
// snapshot and advances the table's pointer to it.
func (t *Table) Commit(ctx context.Context, inc commit.Increment, commitUser, commitIdentifier string) (types.Snapshot, error) {
	snap, err := t.committer.Commit(ctx, t.current, inc, commitUser, commitIdentifier)
	if err != nil {
		return types.Snapshot{}, err
	}
	t.current = &snap
	return snap, nil
}

// NewScan resolves req into a Plan against this table's planner. A zero
// req.SnapshotID resolves against the table's current snapshot.
func (t *Table) NewScan(ctx context.Context, req scan.Request) (scan.Plan, error) {
	if req.SnapshotID == nil && req.ManifestListOverride == nil && t.current != nil {
		id := t.current.ID
		req.SnapshotID = &id
	}
	return t.planner.Plan(ctx, req)
}

// Open restricts plan to one (partition, bucket) pair and returns a
// merge.Reader streaming the deduplicated key/value records for it.
// Sources are ordered newest-first by level, then by their position in
// plan.Files (later entries are assumed more recently added).
func (t *Table) Open(plan scan.Plan, partition types.Row, bucket int, accumulator merge.Accumulator, changeLog bool) (*merge.Reader, error) {
	var sources []merge.FileSource
	seq := 0
	for i := len(plan.Files) - 1; i >= 0; i-- {
		e := plan.Files[i]
		if e.Bucket != bucket || types.CompareRows(e.Partition, partition) != 0 {
			continue
		}
		fields := partitionFields(e.Partition)
		dir := t.paths.SstPathFactory(fields, bucket).Dir()
		sources = append(sources, merge.FileSource{
			Path:  dir + "/" + e.File.FileName,
			Level: e.File.Level,
			Seq:   seq,
		})
		seq++
	}
	return merge.NewReader(context.Background(), t.backend, sources, accumulator, changeLog)
}

// partitionFields renders a partition Row into path fields using
// positional column names (part0, part1, ...), since the metadata
// engine itself carries no schema naming.
func partitionFields(row types.Row) []paths.PartitionField {
	fields := make([]paths.PartitionField, len(row))
	for i, v := range row {
		fields[i] = paths.PartitionField{Name: "part" + strconv.Itoa(i), Value: scalarToString(v)}
	}
	return fields
}

func scalarToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func latestSnapshotID(ctx context.Context, backend storage.Backend, pf *paths.Factory) (*uint64, error) {
	names, err := backend.List(ctx, pf.SnapshotDir())
	if err != nil {
		return nil, errors.New(errs.IoError, "failed to list snapshot directory", err)
	}
	if len(names) == 0 {
		return nil, nil
	}

	var ids []uint64
	for _, name := range names {
		const prefix = "snapshot-"
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		id, err := strconv.ParseUint(name[len(prefix):], 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	latest := ids[len(ids)-1]
	return &latest, nil
}
