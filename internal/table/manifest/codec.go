// Package manifest reads and writes manifest files (ADD/DELETE entry
// lists) and manifest-list files (manifest descriptor lists), encoded as
// real Avro object-container files via hamba/avro.
package manifest

import (
	"context"
	"encoding/json"

	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/internal/table/errs"
	"github.com/strata-db/strata/internal/table/types"
	"github.com/strata-db/strata/pkg/errors"
)

var (
	entryAvroSchema    = avro.MustParse(entrySchema)
	fileMetaAvroSchema = avro.MustParse(fileMetaSchema)
)

// WriteManifest encodes entries to a new manifest file at path and
// returns the ManifestFileMeta describing it, including the
// partition-stats summary used for manifest-level pruning.
func WriteManifest(ctx context.Context, backend storage.Backend, path, fileName string, entries []types.ManifestEntry) (types.ManifestFileMeta, error) {
	w, err := backend.Create(ctx, path)
	if err != nil {
		return types.ManifestFileMeta{}, errors.New(errs.IoError, "failed to create manifest file", err).AddContext("path", path)
	}

	enc, err := ocf.NewEncoder(entryAvroSchema.String(), w)
	if err != nil {
		w.Close()
		return types.ManifestFileMeta{}, errors.New(errs.IoError, "failed to start manifest encoder", err)
	}

	var partitionStats types.ColumnStats
	var numAdded, numDeleted int
	var size int64

	for _, e := range entries {
		rec, err := toEntryRecord(e)
		if err != nil {
			w.Close()
			return types.ManifestFileMeta{}, errors.New(errs.FormatError, "failed to encode manifest entry", err)
		}
		if err := enc.Encode(rec); err != nil {
			w.Close()
			return types.ManifestFileMeta{}, errors.New(errs.IoError, "failed to write manifest entry", err)
		}

		if e.Kind == types.KindAdd {
			numAdded++
		} else {
			numDeleted++
		}
		partitionStats = mergePartitionStats(partitionStats, e.Partition)
		size += int64(len(rec.Partition) + len(rec.FileName) + len(rec.MinKey) + len(rec.MaxKey) + len(rec.KeyStats) + len(rec.ValueStats) + 40)
	}

	if err := enc.Close(); err != nil {
		w.Close()
		return types.ManifestFileMeta{}, errors.New(errs.IoError, "failed to flush manifest encoder", err)
	}
	if err := w.Close(); err != nil {
		return types.ManifestFileMeta{}, errors.New(errs.IoError, "failed to close manifest file", err)
	}

	return types.ManifestFileMeta{
		FileName:        fileName,
		FileSize:        size,
		NumAddedFiles:   numAdded,
		NumDeletedFiles: numDeleted,
		PartitionStats:  partitionStats,
	}, nil
}

// ReadManifest decodes all entries from the manifest file at path.
func ReadManifest(ctx context.Context, backend storage.Backend, path string) ([]types.ManifestEntry, error) {
	r, err := backend.Open(ctx, path)
	if err != nil {
		return nil, errors.New(errs.IoError, "failed to open manifest file", err).AddContext("path", path)
	}
	defer r.Close()

	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, errors.New(errs.FormatError, "failed to read manifest header", err).AddContext("path", path)
	}

	var entries []types.ManifestEntry
	for dec.HasNext() {
		var rec entryRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, errors.New(errs.FormatError, "corrupt manifest entry", err).AddContext("path", path)
		}
		entry, err := fromEntryRecord(rec)
		if err != nil {
			return nil, errors.New(errs.FormatError, "corrupt manifest entry payload", err).AddContext("path", path)
		}
		entries = append(entries, entry)
	}
	if err := dec.Error(); err != nil {
		return nil, errors.New(errs.FormatError, "corrupt manifest file", err).AddContext("path", path)
	}

	return entries, nil
}

// WriteManifestList encodes metas to a new manifest-list file at path.
func WriteManifestList(ctx context.Context, backend storage.Backend, path string, metas types.ManifestList) error {
	w, err := backend.Create(ctx, path)
	if err != nil {
		return errors.New(errs.IoError, "failed to create manifest-list file", err).AddContext("path", path)
	}

	enc, err := ocf.NewEncoder(fileMetaAvroSchema.String(), w)
	if err != nil {
		w.Close()
		return errors.New(errs.IoError, "failed to start manifest-list encoder", err)
	}

	for _, m := range metas {
		rec, err := toFileMetaRecord(m)
		if err != nil {
			w.Close()
			return errors.New(errs.FormatError, "failed to encode manifest-list entry", err)
		}
		if err := enc.Encode(rec); err != nil {
			w.Close()
			return errors.New(errs.IoError, "failed to write manifest-list entry", err)
		}
	}

	if err := enc.Close(); err != nil {
		w.Close()
		return errors.New(errs.IoError, "failed to flush manifest-list encoder", err)
	}
	return w.Close()
}

// ReadManifestList decodes a manifest-list file at path.
func ReadManifestList(ctx context.Context, backend storage.Backend, path string) (types.ManifestList, error) {
	r, err := backend.Open(ctx, path)
	if err != nil {
		return nil, errors.New(errs.IoError, "failed to open manifest-list file", err).AddContext("path", path)
	}
	defer r.Close()

	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, errors.New(errs.FormatError, "failed to read manifest-list header", err).AddContext("path", path)
	}

	var metas types.ManifestList
	for dec.HasNext() {
		var rec fileMetaRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, errors.New(errs.FormatError, "corrupt manifest-list entry", err).AddContext("path", path)
		}
		meta, err := fromFileMetaRecord(rec)
		if err != nil {
			return nil, errors.New(errs.FormatError, "corrupt manifest-list entry payload", err).AddContext("path", path)
		}
		metas = append(metas, meta)
	}
	if err := dec.Error(); err != nil {
		return nil, errors.New(errs.FormatError, "corrupt manifest-list file", err).AddContext("path", path)
	}

	return metas, nil
}

func toEntryRecord(e types.ManifestEntry) (entryRecord, error) {
	partition, err := json.Marshal(e.Partition)
	if err != nil {
		return entryRecord{}, err
	}
	minKey, err := json.Marshal(e.File.MinKey)
	if err != nil {
		return entryRecord{}, err
	}
	maxKey, err := json.Marshal(e.File.MaxKey)
	if err != nil {
		return entryRecord{}, err
	}
	keyStats, err := json.Marshal(e.File.KeyStats)
	if err != nil {
		return entryRecord{}, err
	}
	valueStats, err := json.Marshal(e.File.ValueStats)
	if err != nil {
		return entryRecord{}, err
	}

	return entryRecord{
		Kind:       int32(e.Kind),
		Partition:  partition,
		Bucket:     int32(e.Bucket),
		FileName:   e.File.FileName,
		FileSize:   e.File.FileSize,
		RowCount:   e.File.RowCount,
		MinKey:     minKey,
		MaxKey:     maxKey,
		KeyStats:   keyStats,
		ValueStats: valueStats,
		Level:      int32(e.File.Level),
	}, nil
}

func fromEntryRecord(rec entryRecord) (types.ManifestEntry, error) {
	partition, err := types.DecodeRowJSON(rec.Partition)
	if err != nil {
		return types.ManifestEntry{}, err
	}
	minKey, err := types.DecodeRowJSON(rec.MinKey)
	if err != nil {
		return types.ManifestEntry{}, err
	}
	maxKey, err := types.DecodeRowJSON(rec.MaxKey)
	if err != nil {
		return types.ManifestEntry{}, err
	}
	keyStats, err := types.DecodeColumnStatsJSON(rec.KeyStats)
	if err != nil {
		return types.ManifestEntry{}, err
	}
	valueStats, err := types.DecodeColumnStatsJSON(rec.ValueStats)
	if err != nil {
		return types.ManifestEntry{}, err
	}

	return types.ManifestEntry{
		Kind:      types.Kind(rec.Kind),
		Partition: partition,
		Bucket:    int(rec.Bucket),
		File: types.SstFileMeta{
			FileName:   rec.FileName,
			FileSize:   rec.FileSize,
			RowCount:   rec.RowCount,
			MinKey:     minKey,
			MaxKey:     maxKey,
			KeyStats:   keyStats,
			ValueStats: valueStats,
			Level:      int(rec.Level),
		},
	}, nil
}

func toFileMetaRecord(m types.ManifestFileMeta) (fileMetaRecord, error) {
	stats, err := json.Marshal(m.PartitionStats)
	if err != nil {
		return fileMetaRecord{}, err
	}
	return fileMetaRecord{
		FileName:        m.FileName,
		FileSize:        m.FileSize,
		NumAddedFiles:   int32(m.NumAddedFiles),
		NumDeletedFiles: int32(m.NumDeletedFiles),
		PartitionStats:  stats,
	}, nil
}

func fromFileMetaRecord(rec fileMetaRecord) (types.ManifestFileMeta, error) {
	stats, err := types.DecodeColumnStatsJSON(rec.PartitionStats)
	if err != nil {
		return types.ManifestFileMeta{}, err
	}
	return types.ManifestFileMeta{
		FileName:        rec.FileName,
		FileSize:        rec.FileSize,
		NumAddedFiles:   int(rec.NumAddedFiles),
		NumDeletedFiles: int(rec.NumDeletedFiles),
		PartitionStats:  stats,
	}, nil
}

func mergePartitionStats(stats types.ColumnStats, partition types.Row) types.ColumnStats {
	if stats == nil {
		stats = make(types.ColumnStats, len(partition))
	}
	for i, v := range partition {
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
