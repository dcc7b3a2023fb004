package parser

import (
	"html"
	"os"
	"regexp"
	"strings"

	"github.com/parchment-labs/docproc/constants"
)

// htmlReader strips markup down to readable text. Regex-based on purpose:
// ingested pages are document exports, not arbitrary web content, and a
// full DOM parse buys nothing here.
type htmlReader struct{}

func (htmlReader) sourceType() constants.SourceType { return constants.SourceHTML }

var (
	reTitleTag     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	reScriptTag    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reStyleTag     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reHTMLComment  = regexp.MustCompile(`(?s)<!--.*?-->`)
	reBlockClose   = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	reBrTag        = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	reAnyTag       = regexp.MustCompile(`<[^>]+>`)
	reLinkTag      = regexp.MustCompile(`(?i)<a[\s>]`)
	reMultiSpace   = regexp.MustCompile(`[ \t]+`)
	reMultiNewline = regexp.MustCompile(`\n{3,}`)
)

func (htmlReader) read(path string) (string, map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	content := string(raw)

	metadata := map[string]any{
		"links": len(reLinkTag.FindAllString(content, -1)),
	}
	if m := reTitleTag.FindStringSubmatch(content); len(m) > 1 {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			metadata["title"] = title
		}
	}
	return stripHTML(content), metadata, nil
}

// stripHTML removes tags while keeping block boundaries as newlines.
func stripHTML(content string) string {
	content = reScriptTag.ReplaceAllString(content, "")
	content = reStyleTag.ReplaceAllString(content, "")
	content = reHTMLComment.ReplaceAllString(content, "")
	content = reBlockClose.ReplaceAllString(content, "\n")
	content = reBrTag.ReplaceAllString(content, "\n")
	content = reAnyTag.ReplaceAllString(content, " ")
	content = html.UnescapeString(content)

	content = reMultiSpace.ReplaceAllString(content, " ")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	content = strings.Join(lines, "\n")
	content = reMultiNewline.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
