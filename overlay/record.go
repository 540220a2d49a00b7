package overlay

import (
	"sync"

	"github.com/hairizuan-noorazman/screen-guide/detect"
)

// RecordingRenderer captures overlay commands for assertions in tests.
type RecordingRenderer struct {
	mu       sync.Mutex
	commands []Command
	active   bool
}

// NewRecordingRenderer creates an empty recorder.
func NewRecordingRenderer() *RecordingRenderer {
	return &RecordingRenderer{}
}

// Draw records a draw command.
func (r *RecordingRenderer) Draw(box detect.BoundingBox, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = true
	r.commands = append(r.commands, Command{Command: "draw", Box: &box, Label: label})
}

// Clear records a clear command unless nothing is active.
func (r *RecordingRenderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.active = false
	r.commands = append(r.commands, Command{Command: "clear"})
}

// Commands returns a copy of all recorded commands.
func (r *RecordingRenderer) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Active reports whether a highlight is currently drawn.
func (r *RecordingRenderer) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// LastDraw returns the most recent draw command, if any.
func (r *RecordingRenderer) LastDraw() (Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.commands) - 1; i >= 0; i-- {
		if r.commands[i].Command == "draw" {
			return r.commands[i], true
		}
	}
	return Command{}, false
}
