package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseablePlan is returned when no steps can be recovered from the
// model output by either the JSON or the plain-text parser.
var ErrUnparseablePlan = errors.New("unable to parse steps from model output")

// rawStep is the wire format plan sources are prompted to emit. Step numbers
// are 1-based on the wire and normalized to 0-based indices on parse.
type rawStep struct {
	StepNumber     int    `json:"step_number"`
	Action         string `json:"action"`
	Target         string `json:"target"`
	Description    string `json:"description"`
	ExpectedResult string `json:"expected_result"`
}

// ParseSteps extracts plan steps from raw model output. It first tries to
// parse a JSON array (with or without markdown code fences), then falls back
// to a line-oriented text parser since models do not always honor the
// JSON-only instruction.
func ParseSteps(raw string) ([]Step, error) {
	raw = stripCodeFences(strings.TrimSpace(raw))

	if steps, err := parseStepsJSON(raw); err == nil {
		return steps, nil
	}

	steps := parseStepsText(raw)
	if len(steps) == 0 {
		return nil, ErrUnparseablePlan
	}
	return steps, nil
}

// stripCodeFences removes a surrounding markdown code fence if present.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func parseStepsJSON(raw string) ([]Step, error) {
	// Locate the outermost JSON array in case the model wrapped it in prose.
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array found")
	}

	var rawSteps []rawStep
	if err := json.Unmarshal([]byte(raw[start:end+1]), &rawSteps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}
	if len(rawSteps) == 0 {
		return nil, fmt.Errorf("empty steps array")
	}

	steps := make([]Step, 0, len(rawSteps))
	for i, rs := range rawSteps {
		action := Action(strings.ToLower(strings.TrimSpace(rs.Action)))
		if !action.IsValid() {
			action = normalizeAction(rs.Action)
		}
		steps = append(steps, Step{
			Index:             i,
			Action:            action,
			TargetDescription: strings.TrimSpace(rs.Target),
			Description:       strings.TrimSpace(rs.Description),
			ExpectedResult:    strings.TrimSpace(rs.ExpectedResult),
		})
	}
	return steps, nil
}

// normalizeAction maps loose model vocabulary onto the fixed action set.
// Anything unrecognized becomes a click, the dominant interaction.
func normalizeAction(raw string) Action {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open", "navigate", "select", "press", "tap":
		return ActionClick
	case "enter", "input", "fill", "write":
		return ActionType
	case "move", "drop":
		return ActionDrag
	case "scroll_down", "scroll_up", "swipe":
		return ActionScroll
	case "pause", "sleep":
		return ActionWait
	case "verify", "check", "observe", "look":
		return ActionRead
	default:
		return ActionClick
	}
}

// stepKeywords mark lines that describe an actionable step in free text.
var stepKeywords = []string{"step", "click", "open", "type", "navigate", "scroll", "drag"}

// parseStepsText recovers steps from plain text output, one step per line
// containing a step keyword. Continuation lines are folded into the previous
// step's description.
func parseStepsText(raw string) []Step {
	var steps []Step

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		isStep := false
		for _, kw := range stepKeywords {
			if strings.Contains(lower, kw) {
				isStep = true
				break
			}
		}

		if isStep {
			steps = append(steps, Step{
				Index:             len(steps),
				Action:            guessAction(lower),
				TargetDescription: line,
				Description:       line,
				ExpectedResult:    "continue to the next step",
			})
		} else if len(steps) > 0 && len(line) > 10 {
			steps[len(steps)-1].Description += " " + line
		}
	}

	return steps
}

func guessAction(lower string) Action {
	switch {
	case strings.Contains(lower, "type") || strings.Contains(lower, "enter"):
		return ActionType
	case strings.Contains(lower, "scroll"):
		return ActionScroll
	case strings.Contains(lower, "drag"):
		return ActionDrag
	case strings.Contains(lower, "wait"):
		return ActionWait
	default:
		return ActionClick
	}
}
