package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"parley/internal/stagecache"
)

func newShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show cached stages for a run",
		Args:  cobra.ExactArgs(1),
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

			records, err := store.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No cached stages for run %s\n", args[0])
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					stageLabel(rec.Stage),
					rec.UpdatedAt.Local().Format(time.RFC3339),
					fmt.Sprintf("%d B", len(rec.Payload)),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Stage", "Updated", "Payload"}, rows))
			return nil
		},
	}
}
