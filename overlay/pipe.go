package overlay

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/hairizuan-noorazman/screen-guide/detect"
	"github.com/hairizuan-noorazman/screen-guide/logger"
)

// Command is one overlay instruction on the wire, a single JSON line.
type Command struct {
	Command string              `json:"command"`
	Box     *detect.BoundingBox `json:"box,omitempty"`
	Label   string              `json:"label,omitempty"`
}

// PipeRenderer streams overlay commands as JSON lines to a writer, typically
// the stdin of the UI process that owns the actual screen overlay. Write
// failures are logged and swallowed: a dead UI pipe must not take the
// guidance loop down with it.
type PipeRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	active bool
	logger logger.Logger
}

// NewPipeRenderer creates a renderer writing to the given writer.
func NewPipeRenderer(out io.Writer, log logger.Logger) *PipeRenderer {
	return &PipeRenderer{out: out, logger: log}
}

// Draw emits a draw command for the box.
func (r *PipeRenderer) Draw(box detect.BoundingBox, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = true
	r.emit(Command{Command: "draw", Box: &box, Label: label})
}

// Clear emits a clear command. Repeated clears, or clearing before anything
// was drawn, write nothing.
func (r *PipeRenderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return
	}
	r.active = false
	r.emit(Command{Command: "clear"})
}

func (r *PipeRenderer) emit(cmd Command) {
	data, err := json.Marshal(cmd)
	if err != nil {
		r.logger.Error(context.Background(), "failed to marshal overlay command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if _, err := r.out.Write(append(data, '\n')); err != nil {
		r.logger.Warn(context.Background(), "failed to write overlay command", map[string]interface{}{
			"command": cmd.Command,
			"error":   err.Error(),
		})
	}
}
