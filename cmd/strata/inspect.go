package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/strata-db/strata/internal/table"
	"github.com/strata-db/strata/internal/table/manifest"
)

func newInspectCommand(logger zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <dir>",
		Short: "Print the snapshot, manifest-list, and manifest chain for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]

			ctx := context.Background()
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			tbl, err := table.OpenFromConfig(ctx, cfg)
			if err != nil {
				return err
			}

			snap := tbl.CurrentSnapshot()
			if snap == nil {
				fmt.Println("table has no snapshots")
				return nil
			}
			fmt.Printf("snapshot %d  kind=%s  user=%s  manifest-list=%s\n",
				snap.ID, snap.CommitKind, snap.CommitUser, snap.ManifestList)

			backend := tbl.Backend()
			pf := tbl.Paths()
			mlPath := pf.ManifestDir() + "/" + snap.ManifestList
			metas, err := manifest.ReadManifestList(ctx, backend, mlPath)
			if err != nil {
				return err
			}

			for _, m := range metas {
				fmt.Printf("  manifest %s  +%d -%d  size=%d\n", m.FileName, m.NumAddedFiles, m.NumDeletedFiles, m.FileSize)

				entries, err := manifest.ReadManifest(ctx, backend, pf.ManifestDir()+"/"+m.FileName)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Printf("    %-6s partition=%v bucket=%d file=%s rows=%d\n",
						e.Kind, e.Partition, e.Bucket, e.File.FileName, e.File.RowCount)
				}
			}
			return nil
		},
	}
	return cmd
}
