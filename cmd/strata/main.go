package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/strata-db/strata/internal/config"
)

func main() {
	logger := setupLogger()

	rootCmd := &cobra.Command{
		Use:   "strata",
		Short: "Operate on a strata table",
		Long: `strata is the operational CLI around the strata table engine.

Examples:
  strata commit ./data --partition region=us --bucket 0 f1.sst f2.sst
  strata scan ./data --snapshot 3 --partition region=us --bucket 0
  strata inspect ./data`,
	}

	rootCmd.AddCommand(
		newCommitCommand(logger),
		newScanCommand(logger),
		newInspectCommand(logger),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func setupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(os.Stdout).With().
		Timestamp().
		Str("component", "strata").
		Logger()
}

// loadConfig builds the config for a table rooted at root, overriding
// whatever table.root a config file on disk might specify.
func loadConfig(root string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Table.Root = root
	return cfg, nil
}
