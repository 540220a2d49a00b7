package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ScreenGrabber captures the primary display.
type ScreenGrabber struct{}

// NewScreenGrabber creates a grabber for the primary display. It fails when
// no display is attached, e.g. on a headless machine.
func NewScreenGrabber() (*ScreenGrabber, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, ErrNoDisplay
	}
	return &ScreenGrabber{}, nil
}

// Grab captures the primary display as an RGBA image.
func (g *ScreenGrabber) Grab(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display: %w", err)
	}
	return img, nil
}

// PrimaryBounds returns the pixel bounds of the primary display.
func PrimaryBounds() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, ErrNoDisplay
	}
	return screenshot.GetDisplayBounds(0), nil
}
