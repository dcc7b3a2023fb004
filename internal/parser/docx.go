package parser

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/parchment-labs/docproc/constants"
)

// docxReader pulls text out of word/document.xml and the title out of
// docProps/core.xml.
type docxReader struct{}

func (docxReader) sourceType() constants.SourceType { return constants.SourceDOCX }

// documentXML mirrors the subset of word/document.xml we care about.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

type coreXML struct {
	Title string `xml:"title"`
}

func (docxReader) read(path string) (string, map[string]any, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var text string
	var paragraphs int
	var title string

	for _, file := range zr.File {
		switch file.Name {
		case "word/document.xml":
			raw, err := readZipFile(file)
			if err != nil {
				return "", nil, err
			}
			text, paragraphs = parseDocumentXML(raw)
		case "docProps/core.xml":
			raw, err := readZipFile(file)
			if err != nil {
				continue // title is optional
			}
			var core coreXML
			if xml.Unmarshal(raw, &core) == nil {
				title = strings.TrimSpace(core.Title)
			}
		}
	}

	metadata := map[string]any{
		"paragraphs": paragraphs,
	}
	if title != "" {
		metadata["title"] = title
	}
	return text, metadata, nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func parseDocumentXML(raw []byte) (string, int) {
	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", 0
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
	}
	return b.String(), len(doc.Body.Paragraphs)
}
