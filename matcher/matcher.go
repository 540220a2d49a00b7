// Package matcher scores candidate detections against the current plan step.
// Scoring is deterministic: identical inputs always produce identical results.
package matcher

import (
	"strings"
	"unicode"

	"github.com/hairizuan-noorazman/screen-guide/detect"
	"github.com/hairizuan-noorazman/screen-guide/plan"
)

// Config holds the scoring weights and acceptance threshold. These are
// tunable defaults, not a behavioral contract: text similarity dominates
// because targets are described in natural language while the label taxonomy
// is coarse.
type Config struct {
	LabelWeight      float64
	TextWeight       float64
	ConfidenceWeight float64
	Threshold        float64
}

// DefaultConfig returns the default scoring configuration.
func DefaultConfig() Config {
	return Config{
		LabelWeight:      0.3,
		TextWeight:       0.5,
		ConfidenceWeight: 0.2,
		Threshold:        0.35,
	}
}

// mismatchScore is the label-compatibility score for a detection whose label
// does not suit the step's action. Labels are noisy, so mismatches are
// penalized rather than excluded.
const mismatchScore = 0.25

// preferredLabels maps each action to the detection labels that suit it.
var preferredLabels = map[plan.Action]map[string]bool{
	plan.ActionClick:  {"button": true, "icon": true, "link": true},
	plan.ActionType:   {"text_field": true, "search_box": true, "input": true},
	plan.ActionDrag:   {"icon": true, "slider": true, "handle": true},
	plan.ActionScroll: {"scrollbar": true, "list": true, "panel": true},
	plan.ActionRead:   {"text": true, "label": true, "heading": true},
}

// Result is the outcome of matching one detection cycle against a step.
// When Matched is false the other fields are zero values.
type Result struct {
	Matched   bool
	Detection detect.Detection
	Score     float64
}

// Matcher picks the detection that best corresponds to a step's target.
type Matcher struct {
	cfg Config
}

// New creates a matcher with the given configuration. Zero weights fall back
// to the defaults.
func New(cfg Config) *Matcher {
	def := DefaultConfig()
	if cfg.LabelWeight <= 0 {
		cfg.LabelWeight = def.LabelWeight
	}
	if cfg.TextWeight <= 0 {
		cfg.TextWeight = def.TextWeight
	}
	if cfg.ConfidenceWeight <= 0 {
		cfg.ConfidenceWeight = def.ConfidenceWeight
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	return &Matcher{cfg: cfg}
}

// Match scores every detection against the step and returns the best one, or
// an unmatched result when no composite score clears the threshold. Ties
// resolve to the larger bounding-box area, then to the earliest detection in
// input order.
func (m *Matcher) Match(step plan.Step, dets []detect.Detection) Result {
	best := -1
	bestScore := 0.0

	for i, d := range dets {
		score := m.Score(step, d)
		switch {
		case best == -1 || score > bestScore:
			best = i
			bestScore = score
		case score == bestScore && d.Box.Area() > dets[best].Box.Area():
			best = i
		}
	}

	if best == -1 || bestScore < m.cfg.Threshold {
		return Result{}
	}
	return Result{Matched: true, Detection: dets[best], Score: bestScore}
}

// Score computes the composite score for one detection: a weighted sum of
// label/action compatibility, text similarity, and detector confidence.
func (m *Matcher) Score(step plan.Step, d detect.Detection) float64 {
	return m.cfg.LabelWeight*labelCompatibility(step.Action, d.Label) +
		m.cfg.TextWeight*textSimilarity(step.TargetDescription, d) +
		m.cfg.ConfidenceWeight*d.Confidence
}

// labelCompatibility is binary: 1 when the label suits the action, a flat
// penalty otherwise. Actions with no preferred labels (wait) always take the
// penalty since no label carries evidence for them.
func labelCompatibility(action plan.Action, label string) float64 {
	preferred, ok := preferredLabels[action]
	if !ok {
		return mismatchScore
	}
	if preferred[normalizeLabel(label)] {
		return 1.0
	}
	return mismatchScore
}

// textSimilarity is the Jaccard overlap between the target description's
// tokens and the detection's OCR text plus label tokens. Case-insensitive
// and order-insensitive.
func textSimilarity(target string, d detect.Detection) float64 {
	targetTokens := tokenize(target)
	detTokens := tokenize(d.Text + " " + d.Label)
	if len(targetTokens) == 0 || len(detTokens) == 0 {
		return 0
	}

	intersection := 0
	union := len(detTokens)
	for tok := range targetTokens {
		if detTokens[tok] {
			intersection++
		} else {
			union++
		}
	}
	return float64(intersection) / float64(union)
}

// normalizeLabel lowercases a label and strips a trailing plural "s" so that
// e.g. "Buttons" still matches the taxonomy.
func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if len(label) > 3 && strings.HasSuffix(label, "s") && !strings.HasSuffix(label, "ss") {
		label = strings.TrimSuffix(label, "s")
	}
	return label
}

// tokenize splits text into a lowercase token set on any non-alphanumeric
// boundary, so "text_field" yields {"text", "field"}.
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens[b.String()] = true
			b.Reset()
		}
	}

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}
