// Package commit turns a batch of files the write path produced into the
// manifest entries and snapshot that publish them.
package commit

import (
	"context"
	"time"

	"github.com/strata-db/strata/internal/metrics"
	"github.com/strata-db/strata/internal/paths"
	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/internal/table/manifest"
	"github.com/strata-db/strata/internal/table/snapshot"
	"github.com/strata-db/strata/internal/table/types"
)

// Increment is the write path's report of one batch of file changes: new
// files from an append, plus the before/after sides of a compaction. It
// is opaque to how those files were produced.
type Increment struct {
	NewFiles        []FileAndLocation
	CompactedBefore []FileAndLocation
	CompactedAfter  []FileAndLocation
}

// FileAndLocation pairs an SstFileMeta with the partition and bucket it
// belongs to, since ManifestEntry needs both to form its identifier.
type FileAndLocation struct {
	Partition types.Row
	Bucket    int
	File      types.SstFileMeta
}

// ToEntries converts inc into the ManifestEntry values a manifest writer
// consumes: NewFiles and CompactedAfter become ADDs, CompactedBefore
// become DELETEs.
func (inc Increment) ToEntries() []types.ManifestEntry {
	entries := make([]types.ManifestEntry, 0, len(inc.NewFiles)+len(inc.CompactedBefore)+len(inc.CompactedAfter))
	for _, f := range inc.NewFiles {
		entries = append(entries, types.ManifestEntry{Kind: types.KindAdd, Partition: f.Partition, Bucket: f.Bucket, File: f.File})
	}
	for _, f := range inc.CompactedAfter {
		entries = append(entries, types.ManifestEntry{Kind: types.KindAdd, Partition: f.Partition, Bucket: f.Bucket, File: f.File})
	}
	for _, f := range inc.CompactedBefore {
		entries = append(entries, types.ManifestEntry{Kind: types.KindDelete, Partition: f.Partition, Bucket: f.Bucket, File: f.File})
	}
	return entries
}

// Kind derives the commit kind for inc: APPEND if no compaction occurred,
// else COMPACT.
func (inc Increment) Kind() types.CommitKind {
	if len(inc.CompactedBefore) == 0 && len(inc.CompactedAfter) == 0 {
		return types.CommitAppend
	}
	return types.CommitCompact
}

// Committer publishes increments as new snapshots against one table root.
type Committer struct {
	backend  storage.Backend
	paths    *paths.Factory
	rollSize int
	now      func() time.Time
}

// NewCommitter creates a committer writing through backend, rooted at
// pathFactory. rollSize bounds how many entries accumulate in one
// manifest file before rolling to the next (DefaultRollSize if <= 0).
func NewCommitter(backend storage.Backend, pathFactory *paths.Factory, rollSize int) *Committer {
	return &Committer{backend: backend, paths: pathFactory, rollSize: rollSize, now: time.Now}
}

// Commit resolves the prior manifest-list for baseSnapshot (nil for an
// empty table), replays it alongside inc's new entries into a fresh
// manifest-list, and publishes a new snapshot at the next id.
func (c *Committer) Commit(ctx context.Context, baseSnapshot *types.Snapshot, inc Increment, commitUser, commitIdentifier string) (types.Snapshot, error) {
	timer := metrics.NewTimer()
	kind := inc.Kind()
	defer func() {
		timer.ObserveDurationVec(metrics.CommitDuration, string(kind))
		metrics.CommitsTotal.WithLabelValues(string(kind)).Inc()
	}()

	var priorMetas types.ManifestList
	var nextID uint64 = 1
	if baseSnapshot != nil {
		nextID = baseSnapshot.ID + 1
		mlPath := c.paths.ManifestDir() + "/" + baseSnapshot.ManifestList
		metas, err := manifest.ReadManifestList(ctx, c.backend, mlPath)
		if err != nil {
			return types.Snapshot{}, err
		}
		priorMetas = metas
	}

	w := manifest.NewWriter(ctx, c.backend, c.paths, c.rollSize)
	for _, e := range inc.ToEntries() {
		if err := w.Write(e); err != nil {
			return types.Snapshot{}, err
		}
	}
	newMetas, err := w.Close()
	if err != nil {
		return types.Snapshot{}, err
	}

	allMetas := make(types.ManifestList, 0, len(priorMetas)+len(newMetas))
	allMetas = append(allMetas, priorMetas...)
	allMetas = append(allMetas, newMetas...)

	mlPath := c.paths.NewManifestPath()
	mlFileName := mlPath[len(c.paths.ManifestDir())+1:]
	if err := manifest.WriteManifestList(ctx, c.backend, mlPath, allMetas); err != nil {
		return types.Snapshot{}, err
	}

	snap := types.Snapshot{
		ID:               nextID,
		ManifestList:     mlFileName,
		CommitUser:       commitUser,
		CommitIdentifier: commitIdentifier,
		CommitKind:       kind,
		TimeMillis:       c.now().UnixMilli(),
	}
	if err := snapshot.Write(ctx, c.backend, c.paths.SnapshotPath(snap.ID), snap); err != nil {
		return types.Snapshot{}, err
	}

	metrics.CommitsTotal.WithLabelValues(string(kind)).Inc()
	return snap, nil
}
