package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchment-labs/docproc/internal/document"
	"github.com/parchment-labs/docproc/internal/signature"
)

func TestExtractGuidedPattern(t *testing.T) {
	e := NewExtractor(DefaultConfig(), nil)
	rs := &signature.RuleSet{Rules: document.ExtractedFields{
		"invoice_no": document.Scalar(`Invoice No: (.+)`),
	}}

	fields, confidence := e.Extract("Invoice No: 12345", rs)
	require.Contains(t, fields, "invoice_no")
	assert.Equal(t, "12345", fields["invoice_no"].String())
	assert.GreaterOrEqual(t, confidence, 0.85)
}

func TestExtractGuidedLiteralSnapshot(t *testing.T) {
	e := NewExtractor(DefaultConfig(), nil)
	// Learned literal values (an AI snapshot), including one with regex
	// metacharacters that cannot compile into a sane pattern.
	rs := &signature.RuleSet{Rules: document.ExtractedFields{
		"total":    document.Scalar("$99.00"),
		"merchant": document.Scalar("ACME Corp"),
	}}

	fields, confidence := e.Extract("ACME Corp\nAmount due: $99.00\n", rs)
	assert.Equal(t, "$99.00", fields["total"].String())
	assert.Equal(t, "ACME Corp", fields["merchant"].String())
	assert.InDelta(t, 0.9, confidence, 1e-9)
}

func TestExtractGuidedMissFloor(t *testing.T) {
	cfg := DefaultConfig()
	e := NewExtractor(cfg, nil)
	rs := &signature.RuleSet{Rules: document.ExtractedFields{
		"invoice_no": document.Scalar(`Invoice No: (.+)`),
		"po_number":  document.Scalar(`PO Number: (.+)`),
	}}

	fields, confidence := e.Extract("Invoice No: 777", rs)
	assert.Contains(t, fields, "invoice_no")
	assert.NotContains(t, fields, "po_number")
	// One match at GuidedMatch, one miss at GuidedMiss, averaged.
	assert.InDelta(t, (cfg.GuidedMatch+cfg.GuidedMiss)/2, confidence, 1e-9)
}

func TestExtractDiscoverySingleField(t *testing.T) {
	e := NewExtractor(DefaultConfig(), nil)
	fields, confidence := e.Extract("Invoice No: 12345", nil)

	require.Contains(t, fields, "invoice_no")
	assert.Equal(t, "12345", fields["invoice_no"].String())
	assert.InDelta(t, 0.4, confidence, 1e-9) // min(0.9, 0.3 + 0.1*1)
}

func TestExtractDiscoveryConfidenceSaturates(t *testing.T) {
	e := NewExtractor(DefaultConfig(), nil)
	text := "Invoice No: 1\nDue Date: 2024-01-02\nContact: a@b.example\n" +
		"Phone: +1 555 000 1111\nTotal: $10.00\nOrder Ref: AB-1\nSite: https://x.example\n"
	fields, confidence := e.Extract(text, nil)

	assert.Greater(t, len(fields), 6)
	assert.InDelta(t, 0.9, confidence, 1e-9)
}

func TestExtractDiscoveryFirstWriterWins(t *testing.T) {
	e := NewExtractor(DefaultConfig(), nil)
	// "emails" from an explicit label must not be clobbered by the generic
	// entity detector that uses the same key.
	text := "Emails: primary-contact\nreach us at other@acme.example\n"
	fields, _ := e.Extract(text, nil)

	require.Contains(t, fields, "emails")
	assert.Equal(t, "primary-contact", fields["emails"].String())
}

func TestExtractDiscoveryMultiMatchStaysList(t *testing.T) {
	e := NewExtractor(DefaultConfig(), nil)
	fields, _ := e.Extract("a@x.example wrote to b@y.example\n", nil)

	require.Contains(t, fields, "emails")
	require.True(t, fields["emails"].IsList())
	assert.Equal(t, []string{"a@x.example", "b@y.example"}, fields["emails"].Values())
}

func TestExtractDiscoveryDistinctMatchesOnly(t *testing.T) {
	e := NewExtractor(DefaultConfig(), nil)
	fields, _ := e.Extract("ping a@x.example and again a@x.example\n", nil)

	require.Contains(t, fields, "emails")
	assert.False(t, fields["emails"].IsList())
	assert.Equal(t, "a@x.example", fields["emails"].String())
}

func TestExtractEmptyTextNeverFails(t *testing.T) {
	cfg := DefaultConfig()
	e := NewExtractor(cfg, nil)

	for _, text := range []string{"", "   \n\t\n", "\x00\x01"} {
		fields, confidence := e.Extract(text, nil)
		assert.Empty(t, fields)
		assert.InDelta(t, cfg.DiscoveryBase, confidence, 1e-9)
	}
}

func TestExtractGuidedEmptyRulesFallsBackToDiscovery(t *testing.T) {
	e := NewExtractor(DefaultConfig(), nil)
	rs := &signature.RuleSet{Rules: document.ExtractedFields{}}
	fields, _ := e.Extract("Invoice No: 9", rs)
	assert.Contains(t, fields, "invoice_no")
}
