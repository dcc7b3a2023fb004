package parser

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchment-labs/docproc/constants"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParsePlainText(t *testing.T) {
	p := New(nil)
	path := writeFile(t, "note.txt", "Invoice No: 42\nTotal: 9.99\n")

	raw, err := p.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.SourceText, raw.SourceType)
	assert.Equal(t, "Invoice No: 42\nTotal: 9.99", raw.Text)
	assert.Equal(t, 3, raw.Metadata["lines"])
}

func TestParseHTML(t *testing.T) {
	p := New(nil)
	path := writeFile(t, "page.html",
		`<html><head><title>Quarterly Report</title><style>p{}</style></head>`+
			`<body><h1>Summary</h1><p>Revenue was &amp; is fine.</p>`+
			`<a href="https://x.example">link</a><script>alert(1)</script></body></html>`)

	raw, err := p.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.SourceHTML, raw.SourceType)
	assert.Equal(t, "Quarterly Report", raw.Metadata["title"])
	assert.Equal(t, 1, raw.Metadata["links"])
	assert.Contains(t, raw.Text, "Revenue was & is fine.")
	assert.NotContains(t, raw.Text, "alert")
	assert.NotContains(t, raw.Text, "<p>")
}

func writeDOCX(t *testing.T, paragraphs []string, title string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	doc, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	body := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	for _, p := range paragraphs {
		body += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	body += `</w:body></w:document>`
	_, err = doc.Write([]byte(body))
	require.NoError(t, err)

	if title != "" {
		core, err := zw.Create("docProps/core.xml")
		require.NoError(t, err)
		_, err = core.Write([]byte(`<?xml version="1.0"?><coreProperties><title>` + title + `</title></coreProperties>`))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestParseDOCX(t *testing.T) {
	p := New(nil)
	path := writeDOCX(t, []string{"Purchase Order", "Vendor: ACME"}, "PO-1001")

	raw, err := p.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.SourceDOCX, raw.SourceType)
	assert.Equal(t, "Purchase Order\nVendor: ACME", raw.Text)
	assert.Equal(t, 2, raw.Metadata["paragraphs"])
	assert.Equal(t, "PO-1001", raw.Metadata["title"])
}

func TestParseDOCXCorrupt(t *testing.T) {
	p := New(nil)
	path := writeFile(t, "broken.docx", "this is not a zip")

	_, err := p.Parse(context.Background(), path)
	assert.Error(t, err)
}

func TestParseUnknownFormatIsExplicit(t *testing.T) {
	p := New(nil)
	path := writeFile(t, "data.xyz", "some opaque payload")

	raw, err := p.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.SourceUnknown, raw.SourceType)
	assert.Equal(t, "some opaque payload", raw.Text)
}

func TestParseMissingFile(t *testing.T) {
	p := New(nil)
	_, err := p.Parse(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestParseCancelledContext(t *testing.T) {
	p := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Parse(ctx, "whatever.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStripHTMLKeepsBlockBoundaries(t *testing.T) {
	text := stripHTML("<div>first</div><p>second</p>third<br>fourth")
	assert.Contains(t, text, "first\n")
	assert.Contains(t, text, "second\n")
	assert.Contains(t, text, "third")
	assert.Contains(t, text, "fourth")
}
