package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"parley/internal/config"
	"parley/internal/enrich"
	"parley/internal/logging"
	"parley/internal/pipeline"
	"parley/internal/report"
	"parley/internal/stagecache"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var runIDFlag string
	var force bool

	cmd := &cobra.Command{
		Use:   "run <audio-file>",
		Short: "Analyze a recording end to end",
		Long: "Run normalizes the recording, transcribes and diarizes it, aligns " +
			"speakers to the transcript, enriches each segment, and publishes the " +
			"result documents. Finished stages are cached per run and reused on rerun.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			audioPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if err := pipeline.Preflight(cfg, audioPath); err != nil {
				return err
			}

			runID := strings.TrimSpace(runIDFlag)
			if runID == "" {
				runID = pipeline.RunID(audioPath)
			}

			store, err := stagecache.Open(cfg)
			if err != nil {
				return fmt.Errorf("open stage cache: %w", err)
			}
			defer store.Close()

			lock, err := stagecache.LockRun(cfg.Paths.CacheDir, runID)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			ctx := cmd.Context()
			if force {
				if err := store.InvalidateRun(ctx, runID); err != nil {
					return err
				}
			}

			collab, err := pipeline.NewCollaborators(cfg)
			if err != nil {
				return err
			}

			workDir := filepath.Join(cfg.Paths.CacheDir, "work", runID)
			if err := os.MkdirAll(workDir, 0o755); err != nil {
				return fmt.Errorf("create work directory: %w", err)
			}

			state := &pipeline.State{}
			stages := pipeline.BuildStages(cfg, collab, audioPath, workDir, state)
			executor := pipeline.NewExecutor(store, logger)

			result := executor.Run(ctx, runID, stages)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderStageTable(result))

			if !result.Completed {
				return fmt.Errorf("run %s failed at stage %s; completed stages stay cached, rerun to resume", runID, result.FailedStage)
			}

			records := enrich.Aggregate(state.Aligned, pipeline.Columns(state, &result), logger)

			var uploader report.Uploader
			s3Uploader, err := report.NewS3Uploader(cfg.Publish.S3)
			if err != nil {
				return err
			}
			if s3Uploader != nil {
				uploader = s3Uploader
			}

			publisher := report.NewPublisher(cfg.Paths.OutputDir, uploader, logger)
			doc := report.Document{
				AudioFile:      audioPath,
				FullTranscript: state.Transcript.FullText,
				Segments:       records,
			}
			paths, err := publisher.Publish(ctx, runID, doc)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Published %d segments for run %s\n", len(records), runID)
			fmt.Fprintf(out, "  %s\n  %s\n  %s\n  %s\n", paths.Final, paths.Simplified, paths.CSV, paths.Transcript)
			return nil
		},
	}

	cmd.Flags().StringVar(&runIDFlag, "run-id", "", "Override the run identifier (default: audio file base name)")
	cmd.Flags().BoolVar(&force, "force", false, "Discard cached stages for this run and recompute everything")
	return cmd
}
