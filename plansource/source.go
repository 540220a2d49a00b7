// Package plansource is the boundary to the AI conversation service that
// turns task descriptions into step plans. Backends normalize their native
// model output into plan.Plan values; conversation state stays inside the
// backend.
package plansource

import (
	"context"
	"errors"

	"github.com/hairizuan-noorazman/screen-guide/plan"
)

var (
	// ErrPlanGeneration is returned when the plan source is unreachable or
	// fails to produce usable output. Recoverable: the user may retry.
	ErrPlanGeneration = errors.New("plan generation failed")

	// ErrUnknownBackend is returned by the factory for an unrecognized
	// backend name.
	ErrUnknownBackend = errors.New("unknown plan source backend")
)

// Source produces step plans and carries the guidance conversation.
type Source interface {
	// GeneratePlan produces an ordered step plan for the task. Malformed
	// model output surfaces as a plan validation error from the plan
	// package; transport and model failures wrap ErrPlanGeneration.
	GeneratePlan(ctx context.Context, task string) (*plan.Plan, error)

	// SendMessage forwards a conversational message (user chat, help
	// requests, or deviation signals such as off-target clicks) and
	// returns the assistant's reply.
	SendMessage(ctx context.Context, message string) (string, error)
}

// conversation is a bounded rolling message buffer shared by backends. Only
// the most recent exchanges matter for guidance context, and unbounded
// history would blow out the model's context window over a long session.
type conversation struct {
	messages []message
	limit    int
}

type message struct {
	role    string
	content string
}

func newConversation(limit int) *conversation {
	if limit <= 0 {
		limit = 20
	}
	return &conversation{limit: limit}
}

func (c *conversation) add(role, content string) {
	c.messages = append(c.messages, message{role: role, content: content})
	if len(c.messages) > c.limit {
		c.messages = c.messages[len(c.messages)-c.limit:]
	}
}

func (c *conversation) recent(n int) []message {
	if n <= 0 || n >= len(c.messages) {
		return c.messages
	}
	return c.messages[len(c.messages)-n:]
}

func (c *conversation) reset() {
	c.messages = nil
}
