package detect

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrDetectorUnavailable is returned when a detector cannot be reached.
	ErrDetectorUnavailable = errors.New("detector unavailable")

	// ErrBadDetectorResponse is returned when a detector responds with a
	// payload that cannot be normalized.
	ErrBadDetectorResponse = errors.New("bad detector response")
)

// Detector finds candidate UI elements in a screenshot. Remote and local
// detectors share this contract; the orchestrator decides which one to ask.
type Detector interface {
	Detect(ctx context.Context, screenshot image.Image) ([]Detection, error)
}
