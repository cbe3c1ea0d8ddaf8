package cli

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/docoutline/internal/batch"
	"github.com/dgallion1/docoutline/internal/outline"
)

var (
	batchIn      string
	batchOut     string
	batchWatch   bool
	batchWorkers int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Outline every document in a directory",
	Long: `Extracts the outline of every supported document in the input
directory and writes <name>_outline.json for each one into the output
directory. With --watch, keeps running and processes new or changed
files until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchIn, "in", "", "input directory (default $INPUT_DIR or ./input)")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "output directory (default $OUTPUT_DIR or ./output)")
	batchCmd.Flags().BoolVar(&batchWatch, "watch", false, "keep watching the input directory")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "documents processed at once (default $WORKER_COUNT)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	in, out, workers := cfg.InputDir, cfg.OutputDir, cfg.WorkerCount
	if batchIn != "" {
		in = batchIn
	}
	if batchOut != "" {
		out = batchOut
	}
	if batchWorkers > 0 {
		workers = batchWorkers
	}

	log := newLogger(cmd)
	runner := batch.NewRunner(outline.New(cfg.Rules), cfg.ParseOptions(), workers, log)
	ctx := commandContext(cmd)

	if batchWatch {
		return runner.Watch(ctx, in, out)
	}

	sum, err := runner.Run(ctx, in, out)
	if err != nil {
		return err
	}
	cmd.Printf("Processed %d documents (%d failed, %d skipped).\n", sum.Processed, sum.Failed, sum.Skipped)
	return nil
}
