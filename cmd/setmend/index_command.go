package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"setmend/internal/sampledb"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Sample index maintenance",
	}

	indexCmd.AddCommand(newIndexBuildCommand(ctx))
	indexCmd.AddCommand(newIndexStatsCommand(ctx))

	return indexCmd
}

func newIndexBuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "build <dir> [dir...]",
		Short: "Scan directories and add their audio files to the sample index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			store, err := sampledb.Open(cfg.Paths.IndexDB)
			if err != nil {
				return fmt.Errorf("open sample index: %w", err)
			}
			defer store.Close()

			builder := sampledb.NewBuilder(store, cfg.Index.Extensions, logger)
			stats, err := builder.Build(cmd.Context(), args)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"scanned", strconv.Itoa(stats.Scanned)},
				{"added", strconv.Itoa(stats.Added)},
				{"already indexed", strconv.Itoa(stats.Skipped)},
			}
			printTable(cmd.OutOrStdout(), []tableColumn{col("Stat"), numCol("Count")}, rows)
			return nil
		},
	}
}

func newIndexStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show sample index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := sampledb.Open(cfg.Paths.IndexDB)
			if err != nil {
				return fmt.Errorf("open sample index: %w", err)
			}
			defer store.Close()

			count, err := store.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count index entries: %w", err)
			}
			rows := [][]string{
				{"database", cfg.Paths.IndexDB},
				{"indexed samples", strconv.FormatInt(count, 10)},
			}
			printTable(cmd.OutOrStdout(), []tableColumn{col("Stat"), col("Value")}, rows)
			return nil
		},
	}
}
