package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parchment-labs/docproc/internal/document"
)

var (
	processSender  string
	processVerbose bool
)

func init() {
	processCmd.Flags().StringVar(&processSender, "sender", "", "sender identity for per-sender learned rules")
	processCmd.Flags().BoolVar(&processVerbose, "verbose", false, "include the processing log in the output")
}

var processCmd = &cobra.Command{
	Use:   "process <file>...",
	Short: "Process documents through the extraction pipeline",
	Long: `Process one or more documents and print the normalized records as JSON.

Examples:
  # Process a single invoice
  docproc process invoice.pdf

  # Process a batch with per-sender learned rules
  docproc process --sender acme-corp inbox/*.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

type processOutput struct {
	Record document.NormalizedRecord `json:"record"`
	Log    *document.ProcessingLog   `json:"log,omitempty"`
}

func runProcess(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer a.close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	failures := 0
	for _, path := range args {
		record, plog, err := a.svc.ProcessFile(ctx, path, processSender)
		if err != nil {
			logger.Error("process failed", "path", path, "error", err)
			failures++
			continue
		}
		out := processOutput{Record: record}
		if processVerbose {
			out.Log = &plog
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed", failures, len(args))
	}
	return nil
}
