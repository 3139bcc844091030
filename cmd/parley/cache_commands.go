package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"parley/internal/stagecache"
)

func newCacheCommand(cmdCtx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the stage cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(cmdCtx))
	cacheCmd.AddCommand(newCacheClearCommand(cmdCtx))

	return cacheCmd
}

func newCacheListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List runs with cached stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := stagecache.Open(cfg)
			if err != nil {
				return fmt.Errorf("open stage cache: %w", err)
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "Stage cache is empty")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, runID := range runs {
				records, err := store.List(cmd.Context(), runID)
				if err != nil {
					return err
				}
				rows = append(rows, []string{runID, fmt.Sprintf("%d", len(records))})
			}
			fmt.Fprintln(out, renderTable([]string{"Run", "Cached Stages"}, rows))
			return nil
		},
	}
}

func newCacheClearCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <run-id> [stage]",
		Short: "Drop cached stages for a run, or one stage of it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := stagecache.Open(cfg)
			if err != nil {
				return fmt.Errorf("open stage cache: %w", err)
			}
			defer store.Close()

			runID := args[0]
			out := cmd.OutOrStdout()
			if len(args) == 2 {
				if err := store.Invalidate(cmd.Context(), runID, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared stage %s of run %s\n", args[1], runID)
				return nil
			}

			if err := store.InvalidateRun(cmd.Context(), runID); err != nil {
				return err
			}
			fmt.Fprintf(out, "Cleared run %s\n", runID)
			return nil
		},
	}
}
