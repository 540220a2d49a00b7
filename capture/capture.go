package capture

import (
	"context"
	"errors"
	"image"
)

// ErrNoDisplay is returned when no active display is available for capture.
var ErrNoDisplay = errors.New("no active display found")

// Grabber captures the current contents of the primary display. A grab and
// the detection request that consumes it form one unit of work; the engine
// never holds more than one frame at a time.
type Grabber interface {
	Grab(ctx context.Context) (image.Image, error)
}

// StaticGrabber returns a fixed image on every grab. Used in tests.
type StaticGrabber struct {
	Image image.Image
	Err   error
}

func (g *StaticGrabber) Grab(ctx context.Context) (image.Image, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Image, nil
}
