package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSteps() []Step {
	return []Step{
		{Index: 0, Action: ActionClick, TargetDescription: "Chrome icon", ExpectedResult: "Chrome opens"},
		{Index: 1, Action: ActionType, TargetDescription: "address bar", ExpectedResult: "URL entered"},
		{Index: 2, Action: ActionClick, TargetDescription: "Submit button", ExpectedResult: "form submitted"},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		steps       []Step
		expectError error
	}{
		{
			name:  "valid plan",
			steps: validSteps(),
		},
		{
			name:        "empty plan rejected",
			steps:       []Step{},
			expectError: ErrEmptyPlan,
		},
		{
			name:        "nil steps rejected",
			steps:       nil,
			expectError: ErrEmptyPlan,
		},
		{
			name: "non-sequential indices rejected",
			steps: []Step{
				{Index: 0, Action: ActionClick, TargetDescription: "a"},
				{Index: 2, Action: ActionClick, TargetDescription: "b"},
			},
			expectError: ErrNonSequentialSteps,
		},
		{
			name: "missing target rejected",
			steps: []Step{
				{Index: 0, Action: ActionClick, TargetDescription: ""},
			},
			expectError: ErrMissingTarget,
		},
		{
			name: "unknown action rejected",
			steps: []Step{
				{Index: 0, Action: Action("teleport"), TargetDescription: "a"},
			},
			expectError: ErrInvalidAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New("open gmail", tt.steps)
			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, p)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "open gmail", p.Task())
			assert.Equal(t, len(tt.steps), p.Len())
			assert.NotZero(t, p.ID())
		})
	}
}

func TestPlanImmutability(t *testing.T) {
	steps := validSteps()
	p, err := New("task", steps)
	require.NoError(t, err)

	// Mutating the input slice after construction must not affect the plan.
	steps[0].TargetDescription = "mutated"
	s, ok := p.Step(0)
	require.True(t, ok)
	assert.Equal(t, "Chrome icon", s.TargetDescription)

	// Mutating the returned copy must not affect the plan either.
	out := p.Steps()
	out[1].TargetDescription = "mutated"
	s, ok = p.Step(1)
	require.True(t, ok)
	assert.Equal(t, "address bar", s.TargetDescription)
}

func TestPlanStepOutOfRange(t *testing.T) {
	p, err := New("task", validSteps())
	require.NoError(t, err)

	_, ok := p.Step(-1)
	assert.False(t, ok)

	_, ok = p.Step(p.Len())
	assert.False(t, ok)
}
