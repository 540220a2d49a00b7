package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/screen-guide/detect"
	"github.com/hairizuan-noorazman/screen-guide/plan"
)

func clickStep(target string) plan.Step {
	return plan.Step{Index: 0, Action: plan.ActionClick, TargetDescription: target}
}

func TestMatchPicksBestDetection(t *testing.T) {
	m := New(DefaultConfig())
	step := clickStep("Submit button")

	dets := []detect.Detection{
		{Box: detect.BoundingBox{X: 0, Y: 0, Width: 50, Height: 20}, Label: "text_field", Text: "Search", Confidence: 0.8},
		{Box: detect.BoundingBox{X: 100, Y: 100, Width: 80, Height: 30}, Label: "button", Text: "Submit", Confidence: 0.9},
		{Box: detect.BoundingBox{X: 200, Y: 100, Width: 80, Height: 30}, Label: "button", Text: "Cancel", Confidence: 0.9},
	}

	res := m.Match(step, dets)
	require.True(t, res.Matched)
	assert.Equal(t, "Submit", res.Detection.Text)
	assert.Greater(t, res.Score, 0.35)
}

func TestMatchNoDetections(t *testing.T) {
	m := New(DefaultConfig())
	res := m.Match(clickStep("anything"), nil)
	assert.False(t, res.Matched)
	assert.Zero(t, res.Score)
}

func TestMatchBelowThreshold(t *testing.T) {
	m := New(DefaultConfig())
	step := clickStep("blue Submit button in the top right corner")

	// Unrelated text, mismatched label, low confidence: stays unmatched.
	dets := []detect.Detection{
		{Box: detect.BoundingBox{Width: 10, Height: 10}, Label: "window", Text: "Weather forecast", Confidence: 0.2},
	}

	res := m.Match(step, dets)
	assert.False(t, res.Matched)
}

func TestMatchDeterministic(t *testing.T) {
	m := New(DefaultConfig())
	step := clickStep("Submit button")
	dets := []detect.Detection{
		{Box: detect.BoundingBox{Width: 50, Height: 20}, Label: "button", Text: "Submit", Confidence: 0.7},
		{Box: detect.BoundingBox{Width: 60, Height: 25}, Label: "link", Text: "Submit now", Confidence: 0.8},
	}

	first := m.Match(step, dets)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Match(step, dets))
	}
}

func TestMatchTieBreakLargerArea(t *testing.T) {
	m := New(DefaultConfig())
	step := clickStep("Submit button")

	// Identical label, text, and confidence: only the area differs.
	small := detect.Detection{Box: detect.BoundingBox{X: 0, Y: 0, Width: 40, Height: 20}, Label: "button", Text: "Submit", Confidence: 0.9}
	large := detect.Detection{Box: detect.BoundingBox{X: 100, Y: 0, Width: 80, Height: 40}, Label: "button", Text: "Submit", Confidence: 0.9}

	res := m.Match(step, []detect.Detection{small, large})
	require.True(t, res.Matched)
	assert.Equal(t, large, res.Detection)

	// Order-independent: the larger box wins from either position.
	res = m.Match(step, []detect.Detection{large, small})
	require.True(t, res.Matched)
	assert.Equal(t, large, res.Detection)
}

func TestMatchTieBreakInputOrder(t *testing.T) {
	m := New(DefaultConfig())
	step := clickStep("Submit button")

	// Fully identical detections: the first in input order wins.
	a := detect.Detection{Box: detect.BoundingBox{X: 0, Y: 0, Width: 40, Height: 20}, Label: "button", Text: "Submit", Confidence: 0.9}
	b := detect.Detection{Box: detect.BoundingBox{X: 100, Y: 0, Width: 40, Height: 20}, Label: "button", Text: "Submit", Confidence: 0.9}

	res := m.Match(step, []detect.Detection{a, b})
	require.True(t, res.Matched)
	assert.Equal(t, a, res.Detection)
}

func TestMismatchedLabelPenalizedNotExcluded(t *testing.T) {
	m := New(DefaultConfig())
	step := clickStep("Submit button")

	// Label taxonomy is noisy: an exact text match on a mismatched label
	// must still be able to win over nothing at all.
	dets := []detect.Detection{
		{Box: detect.BoundingBox{Width: 50, Height: 20}, Label: "region", Text: "Submit button", Confidence: 0.9},
	}

	res := m.Match(step, dets)
	assert.True(t, res.Matched)
}

func TestTypeActionPrefersTextField(t *testing.T) {
	m := New(DefaultConfig())
	step := plan.Step{Index: 0, Action: plan.ActionType, TargetDescription: "address bar"}

	button := detect.Detection{Box: detect.BoundingBox{Width: 40, Height: 20}, Label: "button", Text: "address bar", Confidence: 0.8}
	field := detect.Detection{Box: detect.BoundingBox{Width: 40, Height: 20}, Label: "text_field", Text: "address bar", Confidence: 0.8}

	assert.Greater(t, m.Score(step, field), m.Score(step, button))
}

func TestTextSimilarityCaseAndOrderInsensitive(t *testing.T) {
	d1 := detect.Detection{Label: "button", Text: "SUBMIT FORM"}
	d2 := detect.Detection{Label: "button", Text: "form submit"}

	assert.Equal(t, textSimilarity("submit form", d1), textSimilarity("Form Submit", d2))
	assert.Greater(t, textSimilarity("submit form", d1), 0.0)
}

func TestTokenizeSplitsLabels(t *testing.T) {
	tokens := tokenize("text_field (primary)")
	assert.Equal(t, map[string]bool{"text": true, "field": true, "primary": true}, tokens)
}

func TestMatchSubmitButtonClearsThreshold(t *testing.T) {
	// Plan with one click step, one strong detection: the score clears the
	// default threshold so the engine will draw this box.
	m := New(DefaultConfig())
	step := clickStep("Submit button")
	det := detect.Detection{
		Box:        detect.BoundingBox{X: 500, Y: 400, Width: 120, Height: 40},
		Label:      "button",
		Text:       "Submit",
		Confidence: 0.9,
		Source:     detect.SourceRemote,
	}

	res := m.Match(step, []detect.Detection{det})
	require.True(t, res.Matched)
	assert.Equal(t, det, res.Detection)
	assert.Greater(t, res.Score, DefaultConfig().Threshold)
}
