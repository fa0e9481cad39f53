// Package sst reads and writes SST (sorted string table) data files: the
// leaf-level storage for key/value records in one merge-tree level.
package sst

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/internal/table/errs"
	"github.com/strata-db/strata/internal/table/types"
	"github.com/strata-db/strata/pkg/errors"
)

// BatchSize is the number of records grouped into one Batch by ReadBatch.
const BatchSize = 256

// Batch is a unit of SST records handed to the caller together. The
// caller must call Reader.ReleaseBatch before requesting the next one.
type Batch struct {
	Records []types.KeyValue
}

// Reader streams KeyValue batches from one SST file in the order the
// records were written. Writer requires its caller to supply records in
// ascending key order and does not check it.
type Reader struct {
	rc        io.ReadCloser
	br        *bufio.Reader
	level     int
	held      bool
	exhausted bool
}

// Open opens path for reading. level is the merge-tree level this file
// belongs to; the reader reports it through Level. Records themselves
// carry no level.
func Open(ctx context.Context, backend storage.Backend, path string, level int) (*Reader, error) {
	rc, err := backend.Open(ctx, path)
	if err != nil {
		return nil, errors.New(errs.IoError, "failed to open sst file", err).AddContext("path", path)
	}
	return &Reader{rc: rc, br: bufio.NewReader(rc), level: level}, nil
}

// Level reports the merge-tree level this reader's file belongs to.
func (r *Reader) Level() int { return r.level }

// ReadBatch returns the next batch of records, or (nil, io.EOF) once the
// file is exhausted. The caller must call ReleaseBatch on the previous
// batch before calling ReadBatch again.
func (r *Reader) ReadBatch(ctx context.Context) (*Batch, error) {
	if r.held {
		return nil, errors.New(errs.IoError, "ReadBatch called before ReleaseBatch", nil)
	}
	if r.exhausted {
		return nil, io.EOF
	}

	batch := &Batch{Records: make([]types.KeyValue, 0, BatchSize)}
	for len(batch.Records) < BatchSize {
		select {
		case <-ctx.Done():
			return nil, errors.New(errs.Cancelled, "sst read cancelled", ctx.Err())
		default:
		}

		kv, err := readRecord(r.br)
		if err == io.EOF {
			r.exhausted = true
			break
		}
		if err != nil {
			return nil, errors.New(errs.IoError, "corrupt sst record", err)
		}
		batch.Records = append(batch.Records, kv)
	}

	if len(batch.Records) == 0 {
		return nil, io.EOF
	}
	r.held = true
	return batch, nil
}

// ReleaseBatch returns ownership of batch to the reader, permitting the
// next ReadBatch call.
func (r *Reader) ReleaseBatch(b *Batch) {
	r.held = false
}

// Close releases the underlying storage handle.
func (r *Reader) Close() error {
	return r.rc.Close()
}

func readRecord(br *bufio.Reader) (types.KeyValue, error) {
	kindByte, err := br.ReadByte()
	if err != nil {
		return types.KeyValue{}, err
	}

	key, err := readLenPrefixed(br)
	if err != nil {
		return types.KeyValue{}, unexpectedEOF(err)
	}
	val, err := readLenPrefixed(br)
	if err != nil {
		return types.KeyValue{}, unexpectedEOF(err)
	}

	var kv types.KeyValue
	kv.Kind = types.Kind(kindByte)

	decodedKey, err := types.DecodeRowJSON(key)
	if err != nil {
		return types.KeyValue{}, err
	}
	decodedVal, err := types.DecodeRowJSON(val)
	if err != nil {
		return types.KeyValue{}, err
	}
	kv.Key = decodedKey
	kv.Value = decodedVal
	return kv, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func readLenPrefixed(br *bufio.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Writer appends KeyValue records to a new SST file in the order given
// (the caller is responsible for supplying records in ascending key
// order) and derives the resulting SstFileMeta on Close.
type Writer struct {
	wc       io.WriteCloser
	bw       *bufio.Writer
	path     string
	level    int
	fileName string

	rowCount   int64
	size       int64
	minKey     types.Row
	maxKey     types.Row
	keyStats   []types.FieldStats
	valueStats []types.FieldStats
}

// Create opens a new SST file for writing at path, tagged with level.
// fileName is the bare file identifier recorded in the resulting
// SstFileMeta (typically the last path segment).
func Create(ctx context.Context, backend storage.Backend, path, fileName string, level int) (*Writer, error) {
	wc, err := backend.Create(ctx, path)
	if err != nil {
		return nil, errors.New(errs.IoError, "failed to create sst file", err).AddContext("path", path)
	}
	return &Writer{wc: wc, bw: bufio.NewWriter(wc), path: path, fileName: fileName, level: level}, nil
}

// Write appends one record. Records must be supplied in ascending key
// order; Write does not itself re-sort.
func (w *Writer) Write(kv types.KeyValue) error {
	keyBytes, err := json.Marshal(kv.Key)
	if err != nil {
		return err
	}
	valBytes, err := json.Marshal(kv.Value)
	if err != nil {
		return err
	}

	if err := w.bw.WriteByte(byte(kv.Kind)); err != nil {
		return err
	}
	if err := writeLenPrefixed(w.bw, keyBytes); err != nil {
		return err
	}
	if err := writeLenPrefixed(w.bw, valBytes); err != nil {
		return err
	}

	w.size += int64(1 + 4 + len(keyBytes) + 4 + len(valBytes))
	w.rowCount++
	if w.minKey == nil {
		w.minKey = kv.Key
	}
	w.maxKey = kv.Key
	w.keyStats = accumulateStats(w.keyStats, kv.Key)
	w.valueStats = accumulateStats(w.valueStats, kv.Value)
	return nil
}

func writeLenPrefixed(bw *bufio.Writer, data []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := bw.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := bw.Write(data)
	return err
}

// Close flushes the file and returns its descriptor.
func (w *Writer) Close() (types.SstFileMeta, error) {
	if err := w.bw.Flush(); err != nil {
		return types.SstFileMeta{}, errors.New(errs.IoError, "failed to flush sst file", err)
	}
	if err := w.wc.Close(); err != nil {
		return types.SstFileMeta{}, errors.New(errs.IoError, "failed to close sst file", err)
	}

	return types.SstFileMeta{
		FileName:   w.fileName,
		FileSize:   w.size,
		RowCount:   w.rowCount,
		MinKey:     w.minKey,
		MaxKey:     w.maxKey,
		KeyStats:   w.keyStats,
		ValueStats: w.valueStats,
		Level:      w.level,
	}, nil
}

func accumulateStats(stats []types.FieldStats, row types.Row) []types.FieldStats {
	if stats == nil {
		stats = make([]types.FieldStats, len(row))
	}
	for i, v := range row {
		if i >= len(stats) {
			stats = append(stats, types.FieldStats{})
		}
		if v == nil {
			stats[i].NullCount++
			continue
		}
		if stats[i].Min == nil || types.CompareRows(types.Row{v}, types.Row{stats[i].Min}) < 0 {
			stats[i].Min = v
		}
		if stats[i].Max == nil || types.CompareRows(types.Row{v}, types.Row{stats[i].Max}) > 0 {
			stats[i].Max = v
		}
	}
	return stats
}
