package plansource

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrTaskTooLong is returned when a task description exceeds the prompt limit.
var ErrTaskTooLong = errors.New("task description exceeds maximum length")

// maxTaskLength bounds the user's task description before it is embedded in
// a prompt.
const maxTaskLength = 2000

// planningPrompt instructs the model to emit a machine-parseable step plan.
const planningPrompt = `You are a task planning assistant that breaks down computer tasks into clear, actionable steps.

Given a user's task description, create a step-by-step plan.

IMPORTANT: You MUST respond with ONLY a valid JSON array. No other text, explanations, or formatting.

Each step must have:
- step_number: the sequence number, starting at 1 (integer)
- action: one of "click", "type", "drag", "scroll", "wait", "read" (string)
- target: the UI element to interact with (string)
- description: detailed description of this step (string)
- expected_result: what should happen after this step (string)

Example response:
[{"step_number":1,"action":"click","target":"Chrome icon","description":"Click the Chrome browser icon in the taskbar","expected_result":"Chrome opens"},{"step_number":2,"action":"type","target":"address bar","description":"Click the address bar and type gmail.com","expected_result":"The URL is entered"}]

Rules:
- Respond with ONLY the JSON array
- Use double quotes for all strings
- Keep descriptions clear and concise
- Focus on specific UI elements the user will interact with`

// guidancePrompt frames follow-up conversation while a session is active.
const guidancePrompt = `You are guiding a user through a computer task step by step. Highlight boxes on their screen show where to act.

Guidelines:
- Give ONE short instruction at a time
- Reference the highlighted element by name
- If the user clicked somewhere unexpected or asked for help, briefly reorient them toward the current step
- Be encouraging and concise`

// buildPlanPrompt embeds a sanitized task description into the planning
// request. XML-style tags keep a clear boundary between instructions and
// user-provided text.
func buildPlanPrompt(task string) (string, error) {
	task = SanitizeTask(task)
	if task == "" {
		return "", fmt.Errorf("%w: empty task description", ErrPlanGeneration)
	}
	if len(task) > maxTaskLength {
		return "", fmt.Errorf("%w: %d characters (max %d)", ErrTaskTooLong, len(task), maxTaskLength)
	}

	return fmt.Sprintf("Create a step-by-step plan for this task:\n\n<task>\n%s\n</task>", task), nil
}

// SanitizeTask strips control characters and collapses whitespace in a
// user-provided task description before it reaches a prompt.
func SanitizeTask(task string) string {
	task = strings.TrimSpace(task)

	var b strings.Builder
	for _, r := range task {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(' ')
		case unicode.IsControl(r) || !unicode.IsPrint(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
