package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/strata-db/strata/internal/table"
	"github.com/strata-db/strata/internal/table/merge"
	"github.com/strata-db/strata/internal/table/predicate"
	"github.com/strata-db/strata/internal/table/scan"
)

func newScanCommand(logger zerolog.Logger) *cobra.Command {
	var partitionFlags []string
	var snapshotID uint64
	var bucket int

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Plan a scan and print the live files it resolves, or the merged rows for one partition/bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			bucketSet := cmd.Flags().Changed("bucket")

			ctx := context.Background()
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			tbl, err := table.OpenFromConfig(ctx, cfg)
			if err != nil {
				return err
			}

			req := scan.Request{WorkerPoolSize: cfg.Scan.WorkerPoolSize}
			if snapshotID != 0 {
				req.SnapshotID = &snapshotID
			}

			partition, err := parsePartitionRow(partitionFlags)
			if err != nil {
				return err
			}
			if len(partition) > 0 {
				req.PartitionFilter = partitionEqualFilter(partition)
			}
			if bucketSet {
				req.Bucket = &bucket
			}

			plan, err := tbl.NewScan(ctx, req)
			if err != nil {
				return err
			}
			logger.Info().Int("files", len(plan.Files)).Msg("plan resolved")

			if len(partition) == 0 || !bucketSet {
				return printPlan(plan)
			}
			return printMergedRows(tbl, plan, partition, bucket)
		},
	}

	cmd.Flags().StringArrayVar(&partitionFlags, "partition", nil, "partition field as key=value, repeatable, in column order")
	cmd.Flags().Uint64Var(&snapshotID, "snapshot", 0, "snapshot id to scan (defaults to the current snapshot)")
	cmd.Flags().IntVar(&bucket, "bucket", 0, "bucket number to restrict to")

	return cmd
}

func printPlan(plan scan.Plan) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(plan.Files)
}

func printMergedRows(tbl *table.Table, plan scan.Plan, partition []any, bucket int) error {
	reader, err := tbl.Open(plan, partition, bucket, merge.NewDeduplicate(), false)
	if err != nil {
		return err
	}
	defer reader.Close()

	enc := json.NewEncoder(os.Stdout)
	for {
		kv, ok, err := reader.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := enc.Encode(kv); err != nil {
			return err
		}
	}
}

func partitionEqualFilter(partition []any) *predicate.Predicate {
	p := predicate.Equal(0, partition[0])
	for i := 1; i < len(partition); i++ {
		p = predicate.And(p, predicate.Equal(i, partition[i]))
	}
	return &p
}
