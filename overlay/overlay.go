// Package overlay is the engine's boundary to the highlight surface. The
// engine only issues draw and clear commands; rendering happens in an
// external UI process.
package overlay

import "github.com/hairizuan-noorazman/screen-guide/detect"

// Renderer draws highlight boxes over the screen. Commands are
// fire-and-forget: the engine does not await rendering completion. At most
// one highlight is active at a time; Draw replaces any previous highlight
// and Clear is idempotent.
type Renderer interface {
	// Draw highlights the given box with an instruction label.
	Draw(box detect.BoundingBox, label string)

	// Clear removes the active highlight. Clearing when nothing is drawn
	// is a no-op.
	Clear()
}
