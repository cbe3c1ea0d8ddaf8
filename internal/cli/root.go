// Package cli implements the docoutline command line.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/outline"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var (
	verbose   bool
	rulesFile string
)

var rootCmd = &cobra.Command{
	Use:   "docoutline",
	Short: "Extract heading outlines from documents",
	Long: `docoutline infers a title and a numbered heading outline from the
text layout of PDF, text, Markdown, HTML and DOCX documents.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "TOML file overriding the heading rules")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// newLogger writes JSON logs to the command's error stream.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the environment and applies --rules on top of it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if rulesFile != "" {
		rules, err := config.LoadRules(rulesFile, outline.DefaultOptions())
		if err != nil {
			return cfg, err
		}
		cfg.Rules = rules
	}
	return cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
