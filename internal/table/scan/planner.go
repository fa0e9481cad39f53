// Package scan resolves a snapshot and a set of filters into the live set
// of ManifestEntry values a read must consult: the scan planner at the
// center of the table engine.
package scan

import (
	"context"

	"github.com/strata-db/strata/internal/metrics"
	"github.com/strata-db/strata/internal/paths"
	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/internal/table/errs"
	"github.com/strata-db/strata/internal/table/manifest"
	"github.com/strata-db/strata/internal/table/predicate"
	"github.com/strata-db/strata/internal/table/snapshot"
	"github.com/strata-db/strata/internal/table/types"
	"github.com/strata-db/strata/pkg/errors"
)

// Request is an immutable value object describing one scan. It is built
// once by the caller and passed to Plan — there is no fluent builder, so
// a Request can be constructed, compared, and reused without worrying
// about shared mutable state.
type Request struct {
	// SnapshotID selects the snapshot to resolve. A nil value means
	// "resolve against ManifestListOverride instead" (a post-commit
	// preview) when set, or an empty plan otherwise.
	SnapshotID *uint64

	// ManifestListOverride, if set, is used instead of reading the
	// snapshot's manifest-list file. Used to preview the file set a
	// not-yet-committed manifest-list would produce.
	ManifestListOverride types.ManifestList

	PartitionFilter *predicate.Predicate
	KeyFilter       *predicate.Predicate
	ValueFilter     *predicate.Predicate
	Bucket          *int

	// WorkerPoolSize bounds concurrent manifest reads. Defaults to 4 when
	// zero or negative.
	WorkerPoolSize int
}

// Plan is the resolved, immutable result of a scan: a snapshot id (if
// any) and the flat list of live manifest entries a read must open.
type Plan struct {
	SnapshotID *uint64
	Files      []types.ManifestEntry
}

// Planner resolves scan requests against one table root.
type Planner struct {
	backend storage.Backend
	paths   *paths.Factory
}

// NewPlanner creates a planner that reads snapshots and manifests through
// backend, rooted at the locations paths describes.
func NewPlanner(backend storage.Backend, pathFactory *paths.Factory) *Planner {
	return &Planner{backend: backend, paths: pathFactory}
}

// Plan resolves req into a live file set, per spec.md's six-step
// protocol: resolve snapshot, prune manifests by stats, read surviving
// manifests concurrently, prune entries, fold ADD/DELETE in list order.
func (p *Planner) Plan(ctx context.Context, req Request) (Plan, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ScanPlanDuration)

	manifestList, snapID, err := p.resolveManifestList(ctx, req)
	if err != nil {
		return Plan{}, err
	}
	if manifestList == nil {
		return Plan{SnapshotID: nil}, nil
	}

	surviving := pruneManifests(manifestList, req.PartitionFilter)
	metrics.ManifestsPruned.Add(float64(len(manifestList) - len(surviving)))

	tasks := make([]manifestTask, len(surviving))
	for i, m := range surviving {
		m := m
		tasks[i] = func(ctx context.Context) ([]types.ManifestEntry, error) {
			path := p.paths.ManifestDir() + "/" + m.FileName
			entries, err := manifest.ReadManifest(ctx, p.backend, path)
			if err != nil {
				return nil, err
			}
			metrics.ManifestsRead.Inc()
			return pruneEntries(entries, req.PartitionFilter, req.Bucket)
		}
	}

	width := req.WorkerPoolSize
	if width <= 0 {
		width = 4
	}
	perManifest, err := runPool(ctx, width, tasks)
	if err != nil {
		return Plan{}, err
	}

	live, err := fold(perManifest)
	if err != nil {
		if errors.Is(err, errs.CorruptManifest) {
			metrics.CorruptManifestsTotal.Inc()
		}
		return Plan{}, err
	}

	return Plan{SnapshotID: snapID, Files: live}, nil
}

func (p *Planner) resolveManifestList(ctx context.Context, req Request) (types.ManifestList, *uint64, error) {
	if req.ManifestListOverride != nil {
		return req.ManifestListOverride, req.SnapshotID, nil
	}
	if req.SnapshotID == nil {
		return nil, nil, nil
	}

	snapPath := p.paths.SnapshotPath(*req.SnapshotID)
	snap, err := snapshot.Read(ctx, p.backend, snapPath)
	if err != nil {
		return nil, nil, err
	}

	mlPath := p.paths.ManifestDir() + "/" + snap.ManifestList
	ml, err := manifest.ReadManifestList(ctx, p.backend, mlPath)
	if err != nil {
		return nil, nil, err
	}

	id := snap.ID
	return ml, &id, nil
}

func pruneManifests(list types.ManifestList, partitionFilter *predicate.Predicate) types.ManifestList {
	if partitionFilter == nil {
		return list
	}
	var kept types.ManifestList
	for _, m := range list {
		rowCount := int64(m.NumAddedFiles + m.NumDeletedFiles)
		ok, err := partitionFilter.TestStats(rowCount, m.PartitionStats)
		if err != nil || ok {
			// A type-mismatch at the stats level is treated the same as
			// "cannot prove exclusion": keep the manifest and let the
			// per-entry evaluation below surface the real error.
			kept = append(kept, m)
		}
	}
	return kept
}

func pruneEntries(entries []types.ManifestEntry, partitionFilter *predicate.Predicate, bucket *int) ([]types.ManifestEntry, error) {
	var kept []types.ManifestEntry
	for _, e := range entries {
		if partitionFilter != nil {
			ok, err := partitionFilter.Test(e.Partition)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if bucket != nil && e.Bucket != *bucket {
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}

// fold applies the ADD/DELETE fold in manifest-list order: manifest
// results are visited in the order their source manifests appear in the
// list (per-manifest reads may have run concurrently, but the fold
// itself is strictly serial and order-sensitive).
func fold(perManifest [][]types.ManifestEntry) ([]types.ManifestEntry, error) {
	live := make(map[string]types.ManifestEntry)
	order := make([]string, 0)

	for _, entries := range perManifest {
		for _, e := range entries {
			id := e.Identifier()
			switch e.Kind {
			case types.KindAdd:
				if _, exists := live[id]; exists {
					return nil, errors.New(errs.CorruptManifest, "duplicate ADD for identifier", nil).AddContext("identifier", id)
				}
				live[id] = e
				order = append(order, id)
				metrics.ManifestEntriesFolded.WithLabelValues("add").Inc()
			case types.KindDelete:
				if _, exists := live[id]; !exists {
					return nil, errors.New(errs.CorruptManifest, "DELETE without matching ADD", nil).AddContext("identifier", id)
				}
				delete(live, id)
				metrics.ManifestEntriesFolded.WithLabelValues("delete").Inc()
			}
		}
	}

	result := make([]types.ManifestEntry, 0, len(live))
	for _, id := range order {
		if e, ok := live[id]; ok {
			result = append(result, e)
		}
	}
	return result, nil
}
