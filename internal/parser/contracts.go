package parser

import (
	"context"

	"github.com/parchment-labs/docproc/constants"
	"github.com/parchment-labs/docproc/internal/document"
)

// Parser is the document-parsing collaborator: file in, raw text plus
// structural metadata plus detected type out. Detection failures surface as
// SourceUnknown with best-effort text, never as a swallowed error, so the
// pipeline always has a defined type signal.
type Parser interface {
	Parse(ctx context.Context, path string) (document.RawDocument, error)
}

// reader parses one concrete format.
type reader interface {
	read(path string) (text string, metadata map[string]any, err error)
	sourceType() constants.SourceType
}
