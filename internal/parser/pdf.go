package parser

import (
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/parchment-labs/docproc/constants"
)

// pdfReader extracts embedded text; scanned PDFs without a text layer come
// back near-empty, which downstream confidence scoring reflects naturally.
type pdfReader struct{}

func (pdfReader) sourceType() constants.SourceType { return constants.SourcePDF }

func (pdfReader) read(path string) (string, map[string]any, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	var b strings.Builder
	plain, err := r.GetPlainText()
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(&b, plain); err != nil {
		return "", nil, err
	}

	metadata := map[string]any{
		"pages": r.NumPage(),
	}
	return b.String(), metadata, nil
}
