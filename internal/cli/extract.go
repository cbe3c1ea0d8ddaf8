package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docoutline/internal/batch"
	"github.com/dgallion1/docoutline/internal/outline"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE...",
	Short: "Print the outline of one or more documents",
	Long: `Extracts the outline of each file and prints it as JSON on stdout.
A file that cannot be processed is reported on stderr; the remaining
files are still printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cmd)
	runner := batch.NewRunner(outline.New(cfg.Rules), cfg.ParseOptions(), 1, log)
	ctx := commandContext(cmd)

	failed := 0
	for _, path := range args {
		out, err := runner.ExtractFile(ctx, path)
		if err != nil {
			log.Error("document failed", "file", filepath.Base(path), "error", err)
			failed++
			continue
		}
		data, err := batch.Encode(out)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(args))
	}
	return nil
}
