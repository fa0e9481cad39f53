// Package types holds the data model shared across the table engine: rows,
// key/value records, file and manifest metadata, and snapshots. None of
// these types know how to read or write themselves — codecs live in the
// sst, manifest, and snapshot packages.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Row is an ordered, fixed-schema tuple of scalar values. Supported
// element types are string, int64, float64, bool, and nil.
type Row []any

// Kind distinguishes an upsert from a tombstone.
type Kind int8

const (
	KindAdd Kind = iota
	KindDelete
)

func (k Kind) String() string {
	if k == KindDelete {
		return "DELETE"
	}
	return "ADD"
}

// KeyValue is one record read from an SST file.
type KeyValue struct {
	Key   Row
	Value Row
	Kind  Kind
}

// FieldStats summarizes one column across a set of rows.
type FieldStats struct {
	Min       any
	Max       any
	NullCount int64
}

// ColumnStats is a per-field summary, indexed the same way as the Row it
// describes.
type ColumnStats []FieldStats

// SstFileMeta describes one data file. Immutable once written.
type SstFileMeta struct {
	FileName   string
	FileSize   int64
	RowCount   int64
	MinKey     Row
	MaxKey     Row
	KeyStats   ColumnStats
	ValueStats ColumnStats
	Level      int
}

// ManifestEntry is one ADD or DELETE event for one SST file.
type ManifestEntry struct {
	Kind      Kind
	Partition Row
	Bucket    int
	File      SstFileMeta
}

// Identifier returns the entry's globally unique identity:
// (partition, bucket, fileName). Two entries with the same identifier
// refer to the same file's lifecycle event.
func (e ManifestEntry) Identifier() string {
	var b strings.Builder
	for _, v := range e.Partition {
		fmt.Fprintf(&b, "%v\x00", v)
	}
	fmt.Fprintf(&b, "\x01%d\x01%s", e.Bucket, e.File.FileName)
	return b.String()
}

// ManifestFileMeta describes one manifest file: its size, the net
// add/delete counts it carries, and per-partition-field min/max used for
// pruning before the manifest is opened.
type ManifestFileMeta struct {
	FileName        string
	FileSize        int64
	NumAddedFiles   int
	NumDeletedFiles int
	PartitionStats  ColumnStats
}

// ManifestList is the ordered sequence of manifests comprising one
// snapshot, in commit order.
type ManifestList []ManifestFileMeta

// CommitKind classifies why a snapshot was created.
type CommitKind string

const (
	CommitAppend  CommitKind = "APPEND"
	CommitCompact CommitKind = "COMPACT"
)

// Snapshot is an immutable pointer to a table state at one commit.
type Snapshot struct {
	ID               uint64
	ManifestList     string
	CommitUser       string
	CommitIdentifier string
	CommitKind       CommitKind
	TimeMillis       int64
}

// CompareRows orders two rows lexicographically, field by field. nil
// sorts before any value, and int64 and float64 compare numerically with
// each other. Any other mix of element types at one position panics,
// since that indicates a caller bug rather than a data condition. Rows of
// different arity compare by their common prefix, then the shorter row
// sorts first.
func CompareRows(a, b Row) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareScalar(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareScalar(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	switch av := a.(type) {
	case string:
		bv := b.(string)
		return strings.Compare(av, bv)
	case int64:
		bv := toInt64(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case float64:
		bv := toFloat64(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	default:
		panic(fmt.Sprintf("types: unsupported row field type %T", a))
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		panic(fmt.Sprintf("types: expected numeric field, got %T", v))
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		panic(fmt.Sprintf("types: expected numeric field, got %T", v))
	}
}

// DecodeRowJSON decodes a Row from its JSON array form. Unlike a plain
// json.Unmarshal into []any, this preserves the int64/float64 distinction
// of each element: json.Unmarshal always produces float64 for numbers
// decoded into an interface{} target, which would silently corrupt
// integer keys and values on every read-back.
func DecodeRowJSON(data []byte) (Row, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	row := make(Row, len(raw))
	for i, elem := range raw {
		v, err := decodeScalarJSON(elem)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// DecodeColumnStatsJSON decodes ColumnStats from JSON, applying the same
// number-preserving decode to each field's Min/Max.
func DecodeColumnStatsJSON(data []byte) (ColumnStats, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var raw []struct {
		Min       json.RawMessage
		Max       json.RawMessage
		NullCount int64
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	stats := make(ColumnStats, len(raw))
	for i, r := range raw {
		min, err := decodeScalarJSON(r.Min)
		if err != nil {
			return nil, err
		}
		max, err := decodeScalarJSON(r.Max)
		if err != nil {
			return nil, err
		}
		stats[i] = FieldStats{Min: min, Max: max, NullCount: r.NullCount}
	}
	return stats, nil
}

func decodeScalarJSON(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if num, ok := v.(json.Number); ok {
		if i, err := num.Int64(); err == nil {
			return i, nil
		}
		f, err := num.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return v, nil
}
