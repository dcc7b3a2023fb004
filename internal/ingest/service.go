package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/parchment-labs/docproc/constants"
	"github.com/parchment-labs/docproc/internal/archive"
	"github.com/parchment-labs/docproc/internal/common"
	"github.com/parchment-labs/docproc/internal/document"
	"github.com/parchment-labs/docproc/internal/parser"
	"github.com/parchment-labs/docproc/internal/pipeline"
)

// FileResult is the outcome for one ingested file.
type FileResult struct {
	Path       string
	DocumentID string
	Method     string
	Confidence float64
	Err        string
}

// DirStats aggregates a directory scan.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Service runs files through parse, pipeline and archive. The archive is
// optional; without one, records are processed and dropped after the
// result is reported.
type Service struct {
	parser   parser.Parser
	pipeline *pipeline.Processor
	repo     *archive.Repository
	logger   *slog.Logger
}

func NewService(p parser.Parser, proc *pipeline.Processor, repo *archive.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{parser: p, pipeline: proc, repo: repo, logger: logger}
}

// ProcessFile ingests one document end to end.
func (s *Service) ProcessFile(ctx context.Context, path, sender string) (document.NormalizedRecord, document.ProcessingLog, error) {
	if sender != "" {
		ctx = common.WithSender(ctx, sender)
	}
	raw, err := s.parser.Parse(ctx, path)
	if err != nil {
		s.logger.Error("ingest.parse.failed", "path", path, "error", err)
		return document.NormalizedRecord{}, document.ProcessingLog{}, err
	}
	if raw.Metadata == nil {
		raw.Metadata = map[string]any{}
	}
	raw.Metadata["source_path"] = path

	record, plog := s.pipeline.Process(ctx, raw, sender)

	if s.repo != nil {
		if err := s.repo.Save(ctx, record); err != nil {
			s.logger.Error("ingest.archive.failed", "path", path, "error", err)
			return record, plog, err
		}
	}
	return record, plog, nil
}

// ProcessDirectory walks root, filters by allowed extensions, and ingests
// each matching file. Per-file failures are recorded and never abort the
// batch.
func (s *Service) ProcessDirectory(ctx context.Context, root, sender string, exts map[string]struct{}) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	if exts == nil {
		exts = constants.AllowedExtensions
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if d.IsDir() {
			if isHidden(path) && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(path) || !allowed(path, exts) {
			return nil
		}
		stats.Matched++

		results = append(results, s.ingestOne(ctx, path, sender, &stats))
		return nil
	})
	if err != nil {
		return results, stats, err
	}

	s.logger.Info("ingest.scan.done",
		"root", root,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

// Watch consumes watcher events and ingests each path until ctx is
// cancelled. Results are delivered through the callback.
func (s *Service) Watch(ctx context.Context, cfg WatchConfig, onResult func(FileResult)) error {
	evCh, errCh, err := StartWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-evCh:
			if !ok {
				return nil
			}
			var stats DirStats
			res := s.ingestOne(ctx, path, "", &stats)
			if onResult != nil {
				onResult(res)
			}
		case werr, ok := <-errCh:
			if ok && werr != nil {
				s.logger.Error("ingest.watch.error", "error", werr)
			}
		}
	}
}

func (s *Service) ingestOne(ctx context.Context, path, sender string, stats *DirStats) FileResult {
	record, _, err := s.ProcessFile(ctx, path, sender)
	if err != nil {
		stats.Failed++
		return FileResult{Path: path, Err: err.Error()}
	}
	stats.Succeeded++
	return FileResult{
		Path:       path,
		DocumentID: record.DocumentID,
		Method:     string(record.Method),
		Confidence: record.ConfidenceScore,
	}
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
