package ai

import (
	"context"

	"github.com/parchment-labs/docproc/constants"
)

// Result is the normalized shape of one AI extraction pass.
type Result struct {
	Fields     map[string]any `json:"fields"`
	Confidence float64        `json:"confidence"` // 0..1 as reported by the model
	Cost       float64        `json:"cost"`       // estimated, in account currency
}

// Extractor is the AI collaborator contract the pipeline depends on.
// Callers are responsible for truncating text to their cost budget before
// invoking it, and for imposing a deadline via ctx if they need bounded
// latency.
type Extractor interface {
	ExtractStructured(ctx context.Context, text string, docType constants.SourceType) (Result, error)
}
