package rules

import (
	"regexp"
	"strings"
)

// Match is one candidate field produced by a detector.
type Match struct {
	Key   string
	Value string
}

// Detector is a pure text->matches function. Detectors are registered in a
// fixed slice and run in order; they never see each other's output, the
// extractor resolves conflicts (first writer wins).
type Detector struct {
	Name string
	Run  func(text string) []Match
}

var (
	// "label: value" and "label - value" lines.
	reKeyValue = regexp.MustCompile(`(?m)^[ \t]*([^:\n]{2,50}?)[ \t]*[:\-][ \t]+([^\n]{1,100}?)[ \t]*$`)
	// "label   CODE-123" lines: label then a code-like token at line end.
	reKeyCode = regexp.MustCompile(`(?m)^([^\n]{2,40}?)[ \t]{2,}([A-Z0-9#\-/]{3,})$`)

	reEmail    = regexp.MustCompile(`[^\s@<>]+@[^\s@<>]+\.[^\s@<>]+`)
	rePhone    = regexp.MustCompile(`\+?\d[\d \-()]{7,}\d`)
	reAmount   = regexp.MustCompile(`[$€£₹][ ]?\d+(?:[.,]\d+)*|\b\d{1,3}(?:,\d{3})+\.\d{2}\b|\b\d+\.\d{2}\b`)
	reDate     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{1,2} [A-Za-z]{3,9} \d{4}\b`)
	reURL      = regexp.MustCompile(`https?://[^\s<>"]+`)
	reCode     = regexp.MustCompile(`\b[A-Z][A-Z0-9]*[0-9][A-Z0-9]*\b|\b[A-Z0-9]+(?:-[A-Z0-9]+)+\b`)
	reTableSep = regexp.MustCompile(`[ \t]{2,}|\t+`)
	reHeader   = regexp.MustCompile(`^[A-Za-z0-9 \-/]{2,50}[:\-]$`)
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeKey lowercases a derived label and collapses non-alphanumeric
// runs to single underscores, so near-duplicate spellings ("Invoice No:",
// "Invoice No -") land on the same field name.
func NormalizeKey(label string) string {
	k := reNonAlnum.ReplaceAllString(strings.ToLower(label), "_")
	return strings.Trim(k, "_")
}

// DefaultDetectors returns the fixed discovery-mode battery, highest
// precision first.
func DefaultDetectors() []Detector {
	return []Detector{
		{Name: "key_value", Run: detectKeyValues},
		{Name: "entities", Run: detectEntities},
		{Name: "tables", Run: detectTableRows},
		{Name: "sections", Run: detectSections},
	}
}

// detectKeyValues finds explicit "label: value" style lines.
func detectKeyValues(text string) []Match {
	var out []Match
	for _, m := range reKeyValue.FindAllStringSubmatch(text, -1) {
		key := NormalizeKey(m[1])
		value := strings.TrimSpace(m[2])
		if key == "" || value == "" {
			continue
		}
		out = append(out, Match{Key: key, Value: value})
	}
	for _, m := range reKeyCode.FindAllStringSubmatch(text, -1) {
		key := NormalizeKey(m[1])
		value := strings.TrimSpace(m[2])
		if key == "" || value == "" {
			continue
		}
		out = append(out, Match{Key: key, Value: value})
	}
	return out
}

// detectEntities labels generic token shapes: emails, phone-like runs,
// currency-like amounts, date-like tokens, URLs, code-like identifiers.
func detectEntities(text string) []Match {
	var out []Match
	emit := func(key string, re *regexp.Regexp) {
		for _, v := range re.FindAllString(text, -1) {
			out = append(out, Match{Key: key, Value: strings.TrimSpace(v)})
		}
	}
	emit("emails", reEmail)
	emit("phone_numbers", rePhone)
	emit("amounts", reAmount)
	emit("dates", reDate)
	emit("urls", reURL)
	emit("codes", reCode)
	return out
}

// detectTableRows reports lines that look like table rows: three or more
// chunks separated by runs of whitespace or tabs.
func detectTableRows(text string) []Match {
	var out []Match
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tokens := reTableSep.Split(line, -1)
		if len(tokens) < 3 {
			continue
		}
		ok := true
		for _, tok := range tokens {
			if strings.TrimSpace(tok) == "" {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, Match{Key: "table_rows", Value: strings.Join(tokens, " | ")})
		}
	}
	return out
}

// detectSections segments the text into named blocks at header-like lines
// (short, all-caps, or ending in a colon/dash). Each section becomes a
// field keyed section_<header>; the headers themselves are reported too.
func detectSections(text string) []Match {
	var out []Match
	var current string
	var body []string

	flush := func() {
		if current != "" && len(body) > 0 {
			for _, line := range body {
				out = append(out, Match{Key: "section_" + current, Value: line})
			}
		}
		body = body[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isHeaderLine(line) {
			flush()
			current = NormalizeKey(strings.TrimRight(line, ":-"))
			out = append(out, Match{Key: "headers", Value: line})
			continue
		}
		body = append(body, line)
	}
	flush()
	return out
}

func isHeaderLine(line string) bool {
	if len(line) >= 80 {
		return false
	}
	if reHeader.MatchString(line) {
		return true
	}
	upper := strings.ToUpper(line)
	return upper == line && strings.IndexFunc(line, func(r rune) bool {
		return r >= 'A' && r <= 'Z'
	}) >= 0
}
