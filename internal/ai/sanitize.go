package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SanitizeResponse normalizes a model response that is close to, but not
// exactly, the expected shape so the document can still validate:
//   - renames known synonyms (extracted_fields/key_fields -> fields)
//   - coerces a string confidence to a number, clamps to [0,1]
//   - drops null/empty optionals and unknown top-level keys
//
// Only shape is touched, never field content. Returns the cleaned JSON and
// the list of adjusted keys.
func SanitizeResponse(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var adjusted []string
	rename := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			adjusted = append(adjusted, from+"->"+to)
		}
	}
	rename("key_fields", "fields")
	rename("extracted_fields", "fields")
	rename("data", "fields")

	// confidence: accept "0.85" and out-of-range values from sloppy models
	switch t := m["confidence"].(type) {
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			m["confidence"] = clamp01(f)
			adjusted = append(adjusted, "confidence(string)")
		} else {
			delete(m, "confidence")
			adjusted = append(adjusted, "confidence(dropped)")
		}
	case float64:
		if t < 0 || t > 1 {
			m["confidence"] = clamp01(t)
			adjusted = append(adjusted, "confidence(clamped)")
		}
	case nil:
		delete(m, "confidence")
	}

	// fields must be an object; wrap a bare scalar rather than failing
	if v, ok := m["fields"]; ok {
		if _, isMap := v.(map[string]any); !isMap {
			m["fields"] = map[string]any{"value": v}
			adjusted = append(adjusted, "fields(wrapped)")
		}
	}

	// title/summary: drop null or empty
	for _, k := range []string{"title", "summary"} {
		switch t := m[k].(type) {
		case nil:
			if _, present := m[k]; present {
				delete(m, k)
				adjusted = append(adjusted, k+"(null)")
			}
		case string:
			if strings.TrimSpace(t) == "" {
				delete(m, k)
				adjusted = append(adjusted, k+"(empty)")
			}
		}
	}

	// strict additionalProperties friendliness: remove unknown keys
	for k := range m {
		switch k {
		case "title", "summary", "fields", "confidence":
		default:
			delete(m, k)
			adjusted = append(adjusted, k+"(unknown)")
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, fmt.Errorf("sanitize: encode: %w", err)
	}
	return b, adjusted, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
