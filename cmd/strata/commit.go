package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/strata-db/strata/internal/paths"
	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/internal/storage/local"
	"github.com/strata-db/strata/internal/table"
	"github.com/strata-db/strata/internal/table/commit"
	"github.com/strata-db/strata/internal/table/sst"
	"github.com/strata-db/strata/internal/table/types"
)

func newCommitCommand(logger zerolog.Logger) *cobra.Command {
	var partitionFlags []string
	var bucket int
	var commitUser string

	cmd := &cobra.Command{
		Use:   "commit <dir> <sst-files...>",
		Short: "Register already-written SST files as a new snapshot",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			sstFiles := args[1:]

			partition, err := parsePartitionRow(partitionFlags)
			if err != nil {
				return err
			}

			ctx := context.Background()
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			tbl, err := table.OpenFromConfig(ctx, cfg)
			if err != nil {
				return err
			}

			sstPf := tbl.Paths().SstPathFactory(partitionFields(partition), bucket)
			localSrc := local.New()

			inc := commit.Increment{}
			for _, src := range sstFiles {
				meta, err := ingestSstFile(ctx, localSrc, tbl.Backend(), sstPf, src)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", src, err)
				}
				inc.NewFiles = append(inc.NewFiles, commit.FileAndLocation{
					Partition: partition,
					Bucket:    bucket,
					File:      meta,
				})
				logger.Info().Str("source", src).Str("file", meta.FileName).Int64("rows", meta.RowCount).Msg("staged file")
			}

			snap, err := tbl.Commit(ctx, inc, commitUser, fmt.Sprintf("cli-%d", len(sstFiles)))
			if err != nil {
				return err
			}
			logger.Info().Uint64("snapshot", snap.ID).Str("kind", string(snap.CommitKind)).Msg("committed")
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&partitionFlags, "partition", nil, "partition field as key=value, repeatable, in column order")
	cmd.Flags().IntVar(&bucket, "bucket", 0, "bucket number the files belong to")
	cmd.Flags().StringVar(&commitUser, "user", "cli", "commit author recorded on the snapshot")

	return cmd
}

// ingestSstFile copies an externally produced SST file, read from the
// local filesystem via src, into the table's storage backend at a
// freshly minted path, and derives its SstFileMeta by reading it back.
func ingestSstFile(ctx context.Context, srcBackend storage.Backend, dest storage.Backend, sstPf *paths.SstPathFactory, src string) (types.SstFileMeta, error) {
	destPath := sstPf.NewSstPath()
	fileName := filepath.Base(destPath)

	in, err := srcBackend.Open(ctx, src)
	if err != nil {
		return types.SstFileMeta{}, err
	}
	defer in.Close()

	out, err := dest.Create(ctx, destPath)
	if err != nil {
		return types.SstFileMeta{}, err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return types.SstFileMeta{}, err
	}
	if err := out.Close(); err != nil {
		return types.SstFileMeta{}, err
	}

	r, err := sst.Open(ctx, dest, destPath, 0)
	if err != nil {
		return types.SstFileMeta{}, err
	}
	defer r.Close()

	var rowCount int64
	var minKey, maxKey types.Row
	for {
		batch, err := r.ReadBatch(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.SstFileMeta{}, err
		}
		for _, rec := range batch.Records {
			rowCount++
			if minKey == nil {
				minKey = rec.Key
			}
			maxKey = rec.Key
		}
		r.ReleaseBatch(batch)
	}

	return types.SstFileMeta{
		FileName: fileName,
		RowCount: rowCount,
		MinKey:   minKey,
		MaxKey:   maxKey,
	}, nil
}

// parsePartitionRow converts repeated "key=value" flags into a Row in
// the order given; the key names are documentation only, since a Row
// carries no field names.
func parsePartitionRow(flags []string) (types.Row, error) {
	row := make(types.Row, len(flags))
	for i, f := range flags {
		_, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --partition %q, expected key=value", f)
		}
		row[i] = parseScalar(value)
	}
	return row, nil
}

func parseScalar(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func partitionFields(row types.Row) []paths.PartitionField {
	fields := make([]paths.PartitionField, len(row))
	for i, v := range row {
		fields[i] = paths.PartitionField{Name: "part" + strconv.Itoa(i), Value: fmt.Sprintf("%v", v)}
	}
	return fields
}
