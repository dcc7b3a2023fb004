package document

import (
	"time"

	"github.com/parchment-labs/docproc/constants"
)

// RawDocument is the parsed input handed to the pipeline. The pipeline
// never parses files itself; a parser collaborator produces this.
// Immutable once parsed.
type RawDocument struct {
	Text       string               `json:"text"`
	Metadata   map[string]any       `json:"metadata"`
	SourceType constants.SourceType `json:"source_type"`
}

// ExtractedFields maps normalized field names to their values.
type ExtractedFields map[string]FieldValue

// Clone returns a shallow copy; FieldValue is immutable so a key-level
// copy is enough.
func (f ExtractedFields) Clone() ExtractedFields {
	out := make(ExtractedFields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// NormalizedRecord is the final output for a processed document.
// Immutable once built.
type NormalizedRecord struct {
	DocumentID      string                     `json:"document_id"`
	Title           string                     `json:"title"`
	Content         string                     `json:"content"`
	Metadata        map[string]any             `json:"metadata"`
	ExtractedFields ExtractedFields            `json:"extracted_fields"`
	SourceType      constants.SourceType       `json:"source_type"`
	ProcessedAt     time.Time                  `json:"processed_at"`
	ConfidenceScore float64                    `json:"confidence_score"`
	Method          constants.ProcessingMethod `json:"processing_method"`
}

// ProcessingLog is the human-readable trail for one document. Appended to
// during processing, finalized at the end, never mutated afterwards.
type ProcessingLog struct {
	DocumentID     string   `json:"document_id"`
	Steps          []string `json:"steps"`
	RulesApplied   []string `json:"rules_applied"`
	AIUsage        bool     `json:"ai_usage"`
	CostEstimate   float64  `json:"cost_estimate"`
	ProcessingTime float64  `json:"processing_time"` // seconds
	Warnings       []string `json:"warnings"`
}

// Step appends a processing step description.
func (l *ProcessingLog) Step(s string) {
	l.Steps = append(l.Steps, s)
}

// Rule appends a rules-applied entry.
func (l *ProcessingLog) Rule(s string) {
	l.RulesApplied = append(l.RulesApplied, s)
}

// Warn appends a warning.
func (l *ProcessingLog) Warn(s string) {
	l.Warnings = append(l.Warnings, s)
}
