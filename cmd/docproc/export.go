package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parchment-labs/docproc/constants"
	"github.com/parchment-labs/docproc/internal/archive"
	"github.com/parchment-labs/docproc/internal/export"
)

var (
	exportOut           string
	exportMethod        string
	exportMinConfidence float64
	exportFrom          string
	exportTo            string
	exportLimit         int
)

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "records.xlsx", "output workbook path")
	exportCmd.Flags().StringVar(&exportMethod, "method", "", "filter by processing method (rule_based, ai_assisted)")
	exportCmd.Flags().Float64Var(&exportMinConfidence, "min-confidence", 0, "filter by minimum confidence score")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "filter from date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "filter to date (YYYY-MM-DD, inclusive)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "maximum number of records")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived records to an XLSX workbook",
	Long: `Export archived records to an XLSX workbook. Requires ARCHIVE_DSN.

Examples:
  # Everything
  docproc export --out records.xlsx

  # Only confident AI-assisted extractions from June
  docproc export --method ai_assisted --min-confidence 0.8 \
    --from 2025-06-01 --to 2025-06-30 --out june.xlsx`,
	RunE: runExport,
}

func runExport(_ *cobra.Command, _ []string) error {
	logger := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer a.close()

	if a.repo == nil {
		return errors.New("export requires ARCHIVE_DSN to be set")
	}

	filter := archive.ListFilter{
		Method:        constants.ProcessingMethod(exportMethod),
		MinConfidence: exportMinConfidence,
		Limit:         exportLimit,
	}
	if exportFrom != "" {
		from, err := time.Parse("2006-01-02", exportFrom)
		if err != nil {
			return err
		}
		filter.From = &from
	}
	if exportTo != "" {
		to, err := time.Parse("2006-01-02", exportTo)
		if err != nil {
			return err
		}
		// Inclusive end of day.
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}

	data, err := export.NewService(a.repo, logger).ExportRecordsXLSX(ctx, filter)
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return err
	}
	logger.Info("export.done", "out", exportOut, "bytes", len(data))
	return nil
}
