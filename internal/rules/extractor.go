package rules

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/parchment-labs/docproc/internal/document"
	"github.com/parchment-labs/docproc/internal/signature"
)

// Config holds the heuristic confidence constants. The discovery formula
// (base + step per distinct field, capped) is a stand-in for extraction
// accuracy: it rewards quantity, not correctness, and is kept configurable
// because no better derivation exists for these values.
type Config struct {
	DiscoveryBase float64
	DiscoveryStep float64
	DiscoveryCap  float64
	GuidedMatch   float64
	GuidedMiss    float64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		DiscoveryBase: 0.3,
		DiscoveryStep: 0.1,
		DiscoveryCap:  0.9,
		GuidedMatch:   0.9,
		GuidedMiss:    0.5,
	}
}

// Extractor turns raw text into a field map plus a confidence score.
// Stateless between calls; safe for concurrent use.
type Extractor struct {
	cfg       Config
	detectors []Detector
	logger    *slog.Logger
}

// NewExtractor builds an extractor with the default detector battery.
func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Extractor{cfg: cfg, detectors: DefaultDetectors(), logger: logger}
}

// Extract runs guided mode when a RuleSet is supplied, discovery mode
// otherwise. It never fails: empty or malformed text yields an empty field
// map at the discovery floor confidence.
func (e *Extractor) Extract(text string, rs *signature.RuleSet) (document.ExtractedFields, float64) {
	if rs != nil && len(rs.Rules) > 0 {
		return e.extractGuided(text, rs)
	}
	return e.extractDiscovery(text)
}

// extractGuided applies only the fields named in the learned RuleSet. Each
// stored value is tried as a regex first (a capture group extracts, a plain
// pattern takes the whole match), then as a literal learned snapshot that
// must reappear verbatim. Confidence is the average of per-field scores:
// GuidedMatch for hits, GuidedMiss for fields not found.
func (e *Extractor) extractGuided(text string, rs *signature.RuleSet) (document.ExtractedFields, float64) {
	fields := make(document.ExtractedFields)

	keys := make([]string, 0, len(rs.Rules))
	for k := range rs.Rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var total float64
	matched := 0
	for _, key := range keys {
		var hits []string
		for _, candidate := range rs.Rules[key].Values() {
			if v, ok := applyRule(text, candidate); ok {
				hits = appendDistinct(hits, v)
			}
		}
		switch len(hits) {
		case 0:
			total += e.cfg.GuidedMiss
		case 1:
			fields[key] = document.Scalar(hits[0])
			total += e.cfg.GuidedMatch
			matched++
		default:
			fields[key] = document.List(hits)
			total += e.cfg.GuidedMatch
			matched++
		}
	}

	confidence := e.cfg.DiscoveryBase
	if len(keys) > 0 {
		confidence = total / float64(len(keys))
	}
	e.logger.Debug("rules.extract.guided",
		"rules", len(keys),
		"matched", matched,
		"confidence", confidence,
	)
	return fields, confidence
}

// applyRule evaluates one learned rule value against the text.
func applyRule(text, candidate string) (string, bool) {
	if strings.TrimSpace(candidate) == "" {
		return "", false
	}
	if re, err := regexp.Compile(candidate); err == nil {
		if re.NumSubexp() >= 1 {
			if m := re.FindStringSubmatch(text); m != nil && m[1] != "" {
				return strings.TrimSpace(m[1]), true
			}
		} else if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m), true
		}
	}
	// Learned literal snapshot: trust it only if it still appears verbatim.
	if strings.Contains(text, candidate) {
		return candidate, true
	}
	return "", false
}

// extractDiscovery runs the generic detector battery. Later detectors never
// overwrite fields set by an earlier one, so a precise "label: value" hit is
// not clobbered by a looser generic pattern.
func (e *Extractor) extractDiscovery(text string) (document.ExtractedFields, float64) {
	fields := make(document.ExtractedFields)
	if strings.TrimSpace(text) == "" {
		return fields, e.cfg.DiscoveryBase
	}

	for _, d := range e.detectors {
		grouped := make(map[string][]string)
		var order []string
		for _, m := range d.Run(text) {
			if _, taken := fields[m.Key]; taken {
				continue // first writer wins across detectors
			}
			if _, seen := grouped[m.Key]; !seen {
				order = append(order, m.Key)
			}
			grouped[m.Key] = appendDistinct(grouped[m.Key], m.Value)
		}
		for _, key := range order {
			values := grouped[key]
			if len(values) == 1 {
				fields[key] = document.Scalar(values[0])
			} else {
				fields[key] = document.List(values)
			}
		}
	}

	confidence := e.cfg.DiscoveryBase + e.cfg.DiscoveryStep*float64(len(fields))
	if confidence > e.cfg.DiscoveryCap {
		confidence = e.cfg.DiscoveryCap
	}
	e.logger.Debug("rules.extract.discovery",
		"fields", len(fields),
		"confidence", confidence,
	)
	return fields, confidence
}

func appendDistinct(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
