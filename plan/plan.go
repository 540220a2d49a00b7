package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEmptyPlan is returned when a plan contains no steps.
	ErrEmptyPlan = errors.New("invalid plan: no steps")

	// ErrNonSequentialSteps is returned when step indices are not 0..N-1 in order.
	ErrNonSequentialSteps = errors.New("invalid plan: step indices are not sequential")

	// ErrMissingTarget is returned when a step has no target description.
	ErrMissingTarget = errors.New("invalid plan: step missing target description")

	// ErrInvalidAction is returned when a step carries an unknown action.
	ErrInvalidAction = errors.New("invalid plan: unknown step action")
)

// Action is the kind of user interaction a step asks for.
type Action string

const (
	ActionClick  Action = "click"
	ActionType   Action = "type"
	ActionDrag   Action = "drag"
	ActionScroll Action = "scroll"
	ActionWait   Action = "wait"
	ActionRead   Action = "read"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionClick, ActionType, ActionDrag, ActionScroll, ActionWait, ActionRead:
		return true
	}
	return false
}

// Step is one planned user action. Steps are immutable once the plan is built.
type Step struct {
	Index             int    `json:"index"`
	Action            Action `json:"action"`
	TargetDescription string `json:"target_description"`
	Description       string `json:"description"`
	ExpectedResult    string `json:"expected_result"`
}

// Plan is an immutable ordered sequence of steps produced by a plan source.
// A session owns exactly one plan at a time; a new plan always replaces the
// old one wholesale.
type Plan struct {
	id        uuid.UUID
	task      string
	steps     []Step
	createdAt time.Time
}

// New validates the given steps and builds a plan. Step indices must be
// 0..N-1 in order and every step needs a target description and a valid
// action.
func New(task string, steps []Step) (*Plan, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyPlan
	}

	for i, s := range steps {
		if s.Index != i {
			return nil, fmt.Errorf("%w: step at position %d has index %d", ErrNonSequentialSteps, i, s.Index)
		}
		if s.TargetDescription == "" {
			return nil, fmt.Errorf("%w: step %d", ErrMissingTarget, i)
		}
		if !s.Action.IsValid() {
			return nil, fmt.Errorf("%w: step %d action %q", ErrInvalidAction, i, s.Action)
		}
	}

	copied := make([]Step, len(steps))
	copy(copied, steps)

	return &Plan{
		id:        uuid.New(),
		task:      task,
		steps:     copied,
		createdAt: time.Now(),
	}, nil
}

// ID returns the plan's unique identifier.
func (p *Plan) ID() uuid.UUID { return p.id }

// Task returns the task description the plan was generated for.
func (p *Plan) Task() string { return p.task }

// CreatedAt returns when the plan was built.
func (p *Plan) CreatedAt() time.Time { return p.createdAt }

// Len returns the number of steps.
func (p *Plan) Len() int { return len(p.steps) }

// Step returns the step at the given index and whether it exists.
func (p *Plan) Step(i int) (Step, bool) {
	if i < 0 || i >= len(p.steps) {
		return Step{}, false
	}
	return p.steps[i], true
}

// Steps returns a copy of all steps in order.
func (p *Plan) Steps() []Step {
	steps := make([]Step, len(p.steps))
	copy(steps, p.steps)
	return steps
}
