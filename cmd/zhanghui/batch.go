package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkstone/zhanghui/internal/analyzer"
	"github.com/inkstone/zhanghui/internal/batch"
	"github.com/inkstone/zhanghui/internal/svcctx"
)

var (
	batchOutputDir string
	batchWorkers   int
	batchResume    bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <input-dir>",
	Short: "Process a directory of book files",
	Long: `Process every .json book file in a directory with a worker pool.
Files that are not books are skipped and reported; one failing book never
aborts the run. With --resume, completed files recorded in the checkpoint
are skipped on restart.

Interrupting the run (Ctrl+C) stops cooperatively: in-flight books finish
and are persisted, queued books are left for the next run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := svcctx.LoggerFrom(ctx)
		h := svcctx.HomeFrom(ctx)
		cfg := svcctx.ConfigFrom(ctx).Get()

		out := batchOutputDir
		if out == "" {
			out = h.OutputPath()
		}
		workers := cfg.Batch.Workers
		if batchWorkers > 0 {
			workers = batchWorkers
		}

		r := &batch.Runner{
			InputDir:        args[0],
			OutputDir:       out,
			Workers:         workers,
			Logger:          logger,
			WorkCheckpoints: h,
			NewAnalyzer: func() *analyzer.Analyzer {
				return &analyzer.Analyzer{
					Classifier:    svcctx.ClassifierFrom(ctx),
					Logger:        logger,
					MaxIterations: cfg.Analyzer.MaxIterations,
					PassingScore:  cfg.Analyzer.PassingScore,
				}
			},
		}
		if batchResume {
			r.CheckpointPath = h.RunCheckpointPath(cfg.Batch.Checkpoint)
		}

		summary, runErr := r.Run(ctx)
		if summary != nil {
			fmt.Printf("run %s: %d processed (%d passed, %d failed), %d skipped, %d errored\n",
				summary.RunID, summary.Processed, summary.Passed,
				summary.Failed, summary.Skipped, summary.Errored)
		}
		if runErr != nil {
			return runErr
		}
		if summary.Failed > 0 || summary.Errored > 0 {
			return fmt.Errorf("%d book(s) did not pass", summary.Failed+summary.Errored)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutputDir, "output-dir", "o", "", "output directory (default: ~/.zhanghui/output)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "worker count (default from config)")
	batchCmd.Flags().BoolVar(&batchResume, "resume", false, "skip files recorded in the checkpoint")
}
