package guidance

// Phase is the state of the guidance session lifecycle.
type Phase string

const (
	// PhaseIdle means no session is active. Initial state.
	PhaseIdle Phase = "idle"
	// PhasePlanning means a task was submitted and a plan is being generated.
	PhasePlanning Phase = "planning"
	// PhaseAwaitingStart means a plan is ready and waiting for user confirmation.
	PhaseAwaitingStart Phase = "awaiting_start"
	// PhaseGuiding means the detection loop is live and steps are being highlighted.
	PhaseGuiding Phase = "guiding"
	// PhasePaused means the polling loop is suspended but the session is intact.
	PhasePaused Phase = "paused"
	// PhaseRecovering means matching has failed persistently and the engine is
	// waiting for user input or a successful re-detection.
	PhaseRecovering Phase = "recovering"
	// PhaseCompleted means every step was confirmed. Terminal.
	PhaseCompleted Phase = "completed"
	// PhaseError means recovery was exhausted. Terminal for the session.
	PhaseError Phase = "error"
)

func (p Phase) String() string { return string(p) }

// Terminal reports whether the phase ends the session.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// validTransitions enumerates the allowed phase changes. A reset to
// PhaseIdle is additionally allowed from every phase and is not listed.
var validTransitions = map[Phase][]Phase{
	PhaseIdle:          {PhasePlanning},
	PhasePlanning:      {PhaseAwaitingStart, PhaseGuiding, PhaseError},
	PhaseAwaitingStart: {PhaseGuiding},
	PhaseGuiding:       {PhasePaused, PhaseRecovering, PhaseCompleted, PhaseError},
	PhasePaused:        {PhaseGuiding},
	PhaseRecovering:    {PhaseGuiding, PhaseError},
}

// canTransition reports whether moving from one phase to another is legal.
func canTransition(from, to Phase) bool {
	if to == PhaseIdle {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
