// Package merge implements the k-way merge-tree reader: given a set of
// sorted SST files restricted to one partition and bucket, it produces a
// single ascending, deduplicated key/value stream.
package merge

import (
	"container/heap"
	"context"
	"io"

	"github.com/strata-db/strata/internal/metrics"
	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/internal/table/sst"
	"github.com/strata-db/strata/internal/table/types"
)

// FileSource is one input to a merge: a path to open plus the ordering
// information the merge needs to break ties between files. Callers must
// list sources from newest to oldest; Seq encodes that order and is used
// to break ties between files at the same level.
type FileSource struct {
	Path  string
	Level int
	Seq   int
}

// Reader performs a k-way merge over a set of FileSource files, combining
// records that share a key through an Accumulator.
type Reader struct {
	ctx         context.Context
	backend     storage.Backend
	accumulator Accumulator
	changeLog   bool

	cursors []*cursor
	heap    cursorHeap
	started bool
	timer   *metrics.Timer
}

type cursor struct {
	reader *sst.Reader
	level  int
	seq    int
	batch  *sst.Batch
	idx    int
	done   bool
}

// NewReader opens one sst.Reader per source and prepares the merge.
// ChangeLog controls whether tombstone results are emitted (true) or
// suppressed to produce a merged-view stream (false, the default via
// zero value).
func NewReader(ctx context.Context, backend storage.Backend, sources []FileSource, accumulator Accumulator, changeLog bool) (*Reader, error) {
	r := &Reader{ctx: ctx, backend: backend, accumulator: accumulator, changeLog: changeLog}

	for _, src := range sources {
		sr, err := sst.Open(ctx, backend, src.Path, src.Level)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.cursors = append(r.cursors, &cursor{reader: sr, level: src.Level, seq: src.Seq})
	}
	return r, nil
}

// Close releases every underlying SST reader.
func (r *Reader) Close() error {
	var firstErr error
	for _, c := range r.cursors {
		if err := c.reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Reader) ensureStarted() error {
	if r.started {
		return nil
	}
	r.started = true
	r.timer = metrics.NewTimer()

	r.heap = make(cursorHeap, 0, len(r.cursors))
	for _, c := range r.cursors {
		if err := c.fill(r.ctx); err != nil {
			return err
		}
		if !c.done {
			heap.Push(&r.heap, c)
		}
	}
	heap.Init(&r.heap)
	return nil
}

func (c *cursor) fill(ctx context.Context) error {
	if c.batch != nil && c.idx < len(c.batch.Records) {
		return nil
	}
	if c.batch != nil {
		c.reader.ReleaseBatch(c.batch)
		c.batch = nil
	}
	batch, err := c.reader.ReadBatch(ctx)
	if err == io.EOF {
		c.done = true
		return nil
	}
	if err != nil {
		return err
	}
	c.batch = batch
	c.idx = 0
	return nil
}

func (c *cursor) current() types.KeyValue {
	return c.batch.Records[c.idx]
}

// advance moves c past its current record, refilling from storage if its
// batch is exhausted, and reports whether c still has data.
func (c *cursor) advance(ctx context.Context) (bool, error) {
	c.idx++
	if err := c.fill(ctx); err != nil {
		return false, err
	}
	return !c.done, nil
}

// Next returns the next merged record in ascending key order, or
// (zero, false, nil) once the stream is exhausted. Any underlying read
// error terminates the stream; records already returned remain valid.
func (r *Reader) Next() (types.KeyValue, bool, error) {
	if err := r.ensureStarted(); err != nil {
		return types.KeyValue{}, false, err
	}

	for r.heap.Len() > 0 {
		group := r.popGroup()
		key := group[0].current().Key
		r.accumulator.Reset(key, group[0].current().Value, group[0].current().Kind)
		for _, c := range group[1:] {
			rec := c.current()
			r.accumulator.Add(rec.Value, rec.Kind)
		}

		if err := r.advanceGroup(group); err != nil {
			return types.KeyValue{}, false, err
		}

		value, kind := r.accumulator.Result()
		if kind == types.KindDelete && !r.changeLog {
			continue
		}
		metrics.RowsEmitted.Inc()
		return types.KeyValue{Key: key, Value: value, Kind: kind}, true, nil
	}

	if r.timer != nil {
		r.timer.ObserveDuration(metrics.MergeReadDuration)
		r.timer = nil
	}
	return types.KeyValue{}, false, nil
}

// popGroup pops every cursor sharing the minimum key off the heap,
// ordered newest-first (lower level first, then by Seq), without
// advancing them yet.
func (r *Reader) popGroup() []*cursor {
	first := heap.Pop(&r.heap).(*cursor)
	group := []*cursor{first}
	minKey := first.current().Key

	for r.heap.Len() > 0 && types.CompareRows(r.heap[0].current().Key, minKey) == 0 {
		group = append(group, heap.Pop(&r.heap).(*cursor))
	}
	return group
}

func (r *Reader) advanceGroup(group []*cursor) error {
	for _, c := range group {
		hasMore, err := c.advance(r.ctx)
		if err != nil {
			return err
		}
		if hasMore {
			heap.Push(&r.heap, c)
		}
	}
	return nil
}

// cursorHeap orders cursors by key ascending, then level ascending
// (newer data first), then Seq ascending, matching the contract that
// sources are supplied newest to oldest.
type cursorHeap []*cursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool {
	cmp := types.CompareRows(h[i].current().Key, h[j].current().Key)
	if cmp != 0 {
		return cmp < 0
	}
	if h[i].level != h[j].level {
		return h[i].level < h[j].level
	}
	return h[i].seq < h[j].seq
}

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x any) { *h = append(*h, x.(*cursor)) }

func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
