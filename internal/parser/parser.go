package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/parchment-labs/docproc/constants"
	"github.com/parchment-labs/docproc/internal/document"
)

// MultiParser dispatches to a format reader by detected source type.
type MultiParser struct {
	readers map[constants.SourceType]reader
	logger  *slog.Logger
}

var _ Parser = (*MultiParser)(nil)

// New builds a parser with readers for pdf, docx, html and plain text.
func New(logger *slog.Logger) *MultiParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiParser{
		readers: map[constants.SourceType]reader{
			constants.SourcePDF:  pdfReader{},
			constants.SourceDOCX: docxReader{},
			constants.SourceHTML: htmlReader{},
			constants.SourceText: textReader{},
		},
		logger: logger,
	}
}

// Parse detects the format by extension and extracts text plus structural
// metadata. Unrecognized formats are read as plain text and tagged
// SourceUnknown; only I/O and format-level corruption produce errors.
func (p *MultiParser) Parse(ctx context.Context, path string) (document.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return document.RawDocument{}, err
	}

	st := constants.DetectSourceType(path)
	r, ok := p.readers[st]
	if !ok {
		// Best effort: treat as text but keep the unknown tag.
		text, metadata, err := textReader{}.read(path)
		if err != nil {
			return document.RawDocument{}, fmt.Errorf("read %s: %w", path, err)
		}
		p.logger.Warn("parser.unknown_format", "path", path)
		return document.RawDocument{
			Text:       strings.TrimSpace(text),
			Metadata:   metadata,
			SourceType: constants.SourceUnknown,
		}, nil
	}

	text, metadata, err := r.read(path)
	if err != nil {
		return document.RawDocument{}, fmt.Errorf("parse %s as %s: %w", path, st, err)
	}
	p.logger.Info("parser.parse.ok",
		"path", path,
		"source_type", st,
		"text_len", len(text),
	)
	return document.RawDocument{
		Text:       strings.TrimSpace(text),
		Metadata:   metadata,
		SourceType: st,
	}, nil
}

// textReader handles plain text and is the fallback for unknown formats.
type textReader struct{}

func (textReader) sourceType() constants.SourceType { return constants.SourceText }

func (textReader) read(path string) (string, map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	text := string(raw)
	metadata := map[string]any{
		"lines": len(strings.Split(text, "\n")),
		"chars": len(text),
	}
	return text, metadata, nil
}
