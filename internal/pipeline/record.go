package pipeline

import (
	"strings"
	"time"

	"github.com/parchment-labs/docproc/constants"
	"github.com/parchment-labs/docproc/internal/document"
)

// buildRecord assembles the immutable output record. Pure given its
// inputs apart from the timestamp.
func buildRecord(docID string, raw document.RawDocument, fields document.ExtractedFields, confidence float64, method constants.ProcessingMethod) document.NormalizedRecord {
	return document.NormalizedRecord{
		DocumentID:      docID,
		Title:           resolveTitle(fields, raw.Text),
		Content:         raw.Text,
		Metadata:        raw.Metadata,
		ExtractedFields: fields,
		SourceType:      raw.SourceType,
		ProcessedAt:     time.Now().UTC(),
		ConfidenceScore: confidence,
		Method:          method,
	}
}

// resolveTitle prefers an extracted title field; a list collapses to its
// first element. Falls back to the first non-empty line of the content.
func resolveTitle(fields document.ExtractedFields, text string) string {
	if v, ok := fields["title"]; ok {
		if title := strings.TrimSpace(v.First()); title != "" {
			return title
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
