package guidance

import (
	"context"

	"github.com/google/uuid"
)

// Event kinds emitted over a session's lifetime.
const (
	EventPlanReady     = "plan_ready"
	EventStepShown     = "step_shown"
	EventStepConfirmed = "step_confirmed"
	EventDeviation     = "deviation"
	EventRecovery      = "recovery"
	EventResumed       = "resumed"
	EventCompleted     = "completed"
	EventFailed        = "failed"
	EventReset         = "reset"
)

// Event is one session lifecycle occurrence handed to the transcript sink.
type Event struct {
	SessionID uuid.UUID
	Kind      string
	StepIndex int
	Detail    string
}

// EventSink receives session events. Implementations must not block the
// caller; the engine records events from inside its own callbacks.
type EventSink interface {
	Record(ctx context.Context, ev Event)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Record(ctx context.Context, ev Event) {}
