package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/parchment-labs/docproc/constants"
	"github.com/parchment-labs/docproc/internal/ai"
	"github.com/parchment-labs/docproc/internal/common"
	"github.com/parchment-labs/docproc/internal/document"
	"github.com/parchment-labs/docproc/internal/rules"
	"github.com/parchment-labs/docproc/internal/signature"
)

// Config holds the routing thresholds and the AI text budget.
type Config struct {
	EscalationThreshold float64 // escalate to AI below this confidence
	LearnThreshold      float64 // teach the store above this confidence
	AIMaxChars          int     // character budget for text sent to the AI
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		EscalationThreshold: 0.7,
		LearnThreshold:      0.8,
		AIMaxChars:          4000,
	}
}

// Processor runs one document through the hybrid pipeline: fingerprint,
// learned-rule lookup, rule extraction, optional AI escalation, optional
// learning, record assembly. Safe for concurrent use; the signature store
// is the only shared mutable state and serializes itself.
type Processor struct {
	logger    *slog.Logger
	store     *signature.Store
	extractor *rules.Extractor
	ai        ai.Extractor // nil means rules-only operation
	cfg       Config
}

// NewProcessor wires the pipeline. aiExt may be nil; the pipeline then
// never escalates and never learns.
func NewProcessor(logger *slog.Logger, store *signature.Store, extractor *rules.Extractor, aiExt ai.Extractor, cfg Config) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Processor{
		logger:    logger,
		store:     store,
		extractor: extractor,
		ai:        aiExt,
		cfg:       cfg,
	}
}

// Process runs the full policy for one document. It does not fail: AI
// errors degrade to the rule-based result with a logged warning, and
// malformed input yields a floor-confidence record.
func (p *Processor) Process(ctx context.Context, raw document.RawDocument, sender string) (document.NormalizedRecord, document.ProcessingLog) {
	start := time.Now()
	docID := uuid.New().String()

	log := document.ProcessingLog{DocumentID: docID}
	log.Step("started processing")

	// Fingerprinted
	fp := signature.Fingerprint(raw.Text)
	log.Step("extracted signature: " + fp)

	// RuleLookup
	var rsPtr *signature.RuleSet
	rs, found := p.store.GetRules(fp, sender)
	if found {
		rsPtr = &rs
		log.Rule("applied learned rules for signature " + fp)
	} else {
		log.Rule("applied default rules")
	}

	// Extracted
	fields, confidence := p.extractor.Extract(raw.Text, rsPtr)
	method := constants.MethodRuleBased

	p.logger.Info("pipeline.extract.ok",
		"doc_id", docID,
		"fingerprint", fp,
		"guided", found,
		"fields", len(fields),
		"confidence", confidence,
	)

	// AIEscalated: low confidence or unfamiliar layout, either is enough.
	var aiCost float64
	if p.ai != nil && (confidence < p.cfg.EscalationThreshold || !found) {
		log.Step("escalating to AI for low confidence or unfamiliar layout")
		aiCtx := common.WithRequestID(ctx, docID)
		res, err := p.ai.ExtractStructured(aiCtx, truncate(raw.Text, p.cfg.AIMaxChars), raw.SourceType)
		if err != nil {
			// Degrade, never propagate: the rule-based result stands.
			log.Warn("ai extraction failed: " + err.Error())
			p.logger.Warn("pipeline.ai.failed", "doc_id", docID, "error", err)
		} else {
			for k, v := range res.Fields {
				fields[k] = document.Coerce(v) // AI output wins on collision
			}
			if res.Confidence > confidence {
				confidence = res.Confidence
			}
			method = constants.MethodAIAssisted
			log.AIUsage = true
			aiCost = res.Cost
			log.Step(fmt.Sprintf("merged %d AI fields", len(res.Fields)))

			// Learning: only AI-validated extractions are trusted enough
			// to cache; heuristic output never teaches the store.
			if confidence > p.cfg.LearnThreshold {
				p.store.Learn(fp, fields, sender)
				log.Step("learned new rules for signature " + fp)
			}
		}
	}

	// Recorded
	record := buildRecord(docID, raw, fields, confidence, method)

	elapsed := time.Since(start)
	log.ProcessingTime = elapsed.Seconds()
	log.CostEstimate = aiCost
	log.Step(fmt.Sprintf("completed in %.2fs", elapsed.Seconds()))

	p.logger.Info("pipeline.process.ok",
		"doc_id", docID,
		"method", method,
		"confidence", confidence,
		"ai_cost", aiCost,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return record, log
}

// truncate bounds the text sent to the AI collaborator; cost control is
// the pipeline's job, not the collaborator's.
func truncate(text string, maxChars int) string {
	if maxChars > 0 && len(text) > maxChars {
		return text[:maxChars]
	}
	return text
}
