package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parchment-labs/docproc/constants"
	"github.com/parchment-labs/docproc/internal/ai"
	"github.com/parchment-labs/docproc/internal/common"
)

var _ ai.Extractor = (*Client)(nil)

// ExtractStructured implements ai.Extractor using text-only chat/completions.
// The caller has already truncated text to its budget; this method sends it
// as-is, validates the model's JSON against the extraction schema, and
// flattens the response into a field map plus confidence and cost estimate.
func (c *Client) ExtractStructured(ctx context.Context, text string, docType constants.SourceType) (ai.Result, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	c.log.Info("ai.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"doc_type", docType,
		"text_len", len(text),
	)

	schema := ai.BuildExtractionJSONSchema()
	sys := buildSystemPrompt(docType)
	user := buildUserPrompt(text)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("ai.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ai.Result{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("ai.extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return ai.Result{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("ai.extract.no_choices", "req_id", rid)
		return ai.Result{}, fmt.Errorf("no choices in chat response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := ai.ValidateJSONAgainstSchema(schema, content); err != nil {
		if !c.cfg.Lenient {
			c.log.Error("ai.extract.schema_validation_failed", "req_id", rid, "error", err)
			return ai.Result{}, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, adjusted, sErr := ai.SanitizeResponse(content)
		if sErr != nil {
			c.log.Error("ai.extract.sanitize_failed", "req_id", rid, "error", sErr)
			return ai.Result{}, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ai.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("ai.extract.schema_validation_failed", "req_id", rid, "error", vErr)
			return ai.Result{}, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("ai.extract.sanitize_applied", "req_id", rid, "adjusted", adjusted)
		content = cleaned
	}

	var parsed struct {
		Title      string         `json:"title"`
		Summary    string         `json:"summary"`
		Fields     map[string]any `json:"fields"`
		Confidence float64        `json:"confidence"`
	}
	if err := json.Unmarshal(content, &parsed); err != nil {
		c.log.Error("ai.extract.unmarshal_failed", "req_id", rid, "error", err)
		return ai.Result{}, fmt.Errorf("unmarshal fields: %w", err)
	}

	fields := parsed.Fields
	if fields == nil {
		fields = make(map[string]any)
	}
	// title/summary ride along as ordinary fields so the pipeline's merge
	// and title resolution see them.
	if parsed.Title != "" {
		fields["title"] = parsed.Title
	}
	if parsed.Summary != "" {
		fields["summary"] = parsed.Summary
	}

	// Rough token estimate drives the cost figure; this is an accounting
	// hint, not billing truth.
	tokens := len(strings.Fields(sys)) + len(strings.Fields(user)) + len(strings.Fields(string(content)))
	cost := float64(tokens) * c.cfg.CostPerToken

	c.log.Info("ai.extract.ok",
		"req_id", rid,
		"fields", len(fields),
		"confidence", parsed.Confidence,
		"est_tokens", tokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ai.Result{Fields: fields, Confidence: parsed.Confidence, Cost: cost}, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("chat response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func buildSystemPrompt(docType constants.SourceType) string {
	parts := []string{
		"You extract structured data from documents. Return ONLY JSON that matches the JSON Schema provided.",
		fmt.Sprintf("The document was parsed from a %s source.", docType),
		"Put every data point you find under 'fields' using lowercase snake_case keys.",
		"Set 'title' to the document title if one is apparent, and 'summary' to one short sentence.",
		"Report 'confidence' in [0,1] for how completely the fields capture the document.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Document content:\n")
	b.WriteString(text)
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
