package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parchment-labs/docproc/internal/ingest"
)

var watchInitialScan bool

func init() {
	watchCmd.Flags().BoolVar(&watchInitialScan, "initial-scan", false, "process files already present in the watched directories")
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Watch directories and process new documents",
	Long: `Watch one or more directories recursively and run every new or
changed document through the extraction pipeline. Runs until interrupted;
learned signatures are persisted on shutdown.

Examples:
  # Watch an inbox folder
  docproc watch ~/Documents/inbox

  # Also process whatever is already there
  docproc watch --initial-scan ~/Documents/inbox`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func runWatch(_ *cobra.Command, args []string) error {
	logger := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer a.close()

	logger.Info("watch.start", "roots", args, "initial_scan", watchInitialScan)
	err = a.svc.Watch(ctx, ingest.WatchConfig{
		Roots:       args,
		InitialScan: watchInitialScan,
		Debounce:    a.cfg.Ingest.Debounce,
	}, func(res ingest.FileResult) {
		if res.Err != "" {
			logger.Error("watch.file.failed", "path", res.Path, "error", res.Err)
			return
		}
		logger.Info("watch.file.ok",
			"path", res.Path,
			"doc_id", res.DocumentID,
			"method", res.Method,
			"confidence", res.Confidence,
		)
	})
	if errors.Is(err, context.Canceled) {
		logger.Info("watch.stop")
		return nil
	}
	return err
}
