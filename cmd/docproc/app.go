package main

import (
	"context"
	"log/slog"

	"github.com/parchment-labs/docproc/internal/ai"
	"github.com/parchment-labs/docproc/internal/ai/openai"
	"github.com/parchment-labs/docproc/internal/archive"
	"github.com/parchment-labs/docproc/internal/common"
	"github.com/parchment-labs/docproc/internal/ingest"
	"github.com/parchment-labs/docproc/internal/parser"
	"github.com/parchment-labs/docproc/internal/pipeline"
	"github.com/parchment-labs/docproc/internal/rules"
	"github.com/parchment-labs/docproc/internal/signature"
)

// app bundles the wired components behind one construction path so every
// command sees the same stack.
type app struct {
	cfg    *common.Config
	store  *signature.Store
	repo   *archive.Repository // nil without ARCHIVE_DSN
	svc    *ingest.Service
	logger *slog.Logger
}

// buildApp loads configuration, the signature store and, when configured,
// the archive and the AI client.
func buildApp(ctx context.Context, logger *slog.Logger) (*app, error) {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := signature.NewStore(logger)
	if err := store.Load(cfg.Signatures.StorePath); err != nil {
		return nil, err
	}
	logger.Info("signatures.loaded", "path", cfg.Signatures.StorePath, "count", store.Len())

	var aiExt ai.Extractor
	if cfg.AI.APIKey != "" {
		aiExt = openai.NewClient(openai.Config{
			APIKey:       cfg.AI.APIKey,
			BaseURL:      cfg.AI.BaseURL,
			Model:        cfg.AI.Model,
			Temperature:  cfg.AI.Temperature,
			Timeout:      cfg.AI.Timeout,
			CostPerToken: cfg.AI.CostPerToken,
			Lenient:      true,
		}, logger)
	} else {
		logger.Info("ai.disabled", "reason", "OPENAI_API_KEY not set")
	}

	var repo *archive.Repository
	if cfg.Archive.DSN != "" {
		var err error
		repo, err = archive.NewRepository(ctx, archive.Config{DSN: cfg.Archive.DSN}, logger)
		if err != nil {
			return nil, err
		}
	}

	proc := pipeline.NewProcessor(logger, store,
		rules.NewExtractor(rules.Config{
			DiscoveryBase: cfg.Extraction.DiscoveryBase,
			DiscoveryStep: cfg.Extraction.DiscoveryStep,
			DiscoveryCap:  cfg.Extraction.DiscoveryCap,
			GuidedMatch:   cfg.Extraction.GuidedMatch,
			GuidedMiss:    cfg.Extraction.GuidedMiss,
		}, logger),
		aiExt,
		pipeline.Config{
			EscalationThreshold: cfg.Extraction.EscalationThreshold,
			LearnThreshold:      cfg.Extraction.LearnThreshold,
			AIMaxChars:          cfg.AI.MaxChars,
		})

	return &app{
		cfg:    cfg,
		store:  store,
		repo:   repo,
		svc:    ingest.NewService(parser.New(logger), proc, repo, logger),
		logger: logger,
	}, nil
}

// close persists learned signatures and releases the archive.
func (a *app) close() {
	if err := a.store.Save(a.cfg.Signatures.StorePath); err != nil {
		a.logger.Error("signatures.save_failed", "error", err)
	} else {
		a.logger.Info("signatures.saved", "path", a.cfg.Signatures.StorePath, "count", a.store.Len())
	}
	if a.repo != nil {
		a.repo.Close()
	}
}
