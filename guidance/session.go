package guidance

import (
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/hairizuan-noorazman/screen-guide/detect"
	"github.com/hairizuan-noorazman/screen-guide/plan"
)

// session is the mutable run state for one guidance attempt. It is owned
// exclusively by the Engine and mutated only under the Engine's lock;
// detection results produced by a superseded session are discarded by the
// generation check before they touch it.
type session struct {
	id   uuid.UUID
	plan *plan.Plan

	stepIndex int

	// noMatchCount counts consecutive cycles without a match for the
	// current step. Reset on every match, step advance, and user input.
	noMatchCount int

	// recoveryFailures counts full recovery timeouts that elapsed with no
	// user input and no successful detection.
	recoveryFailures int

	// recoveryDeadline bounds the current recovery wait.
	recoveryDeadline time.Time

	// lastBox is the most recently drawn highlight, used for click
	// hit-testing. Nil when nothing is drawn.
	lastBox *detect.BoundingBox

	// lastFrame is the screenshot from the most recent cycle, archived on
	// step completion.
	lastFrame image.Image

	startedAt time.Time
}

func newSession(p *plan.Plan) *session {
	return &session{
		id:        uuid.New(),
		plan:      p,
		startedAt: time.Now(),
	}
}

// currentStep returns the step at the session's cursor. ok is false once the
// cursor has advanced past the final step.
func (s *session) currentStep() (plan.Step, bool) {
	return s.plan.Step(s.stepIndex)
}

// completed reports whether every step has been confirmed.
func (s *session) completed() bool {
	return s.stepIndex >= s.plan.Len()
}
