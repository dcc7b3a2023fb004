// Package main implements the docproc CLI: processing documents through
// the hybrid rules/AI extraction pipeline, watching folders, and
// exporting the archive.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docproc",
	Short: "Hybrid document extraction pipeline",
	Long: `docproc processes documents through a hybrid extraction pipeline:
layout fingerprinting, learned rule-based extraction, and AI escalation
for unfamiliar or low-confidence documents.

Configuration comes from environment variables (SIGNATURE_STORE_PATH,
ARCHIVE_DSN, OPENAI_API_KEY, ...).`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(exportCmd)
}

// newLogger builds the structured logger shared by all commands.
func newLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}
