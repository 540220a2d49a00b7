package detect

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/screen-guide/logger"
)

// frameWithRect draws a dark rectangle on a white background.
func frameWithRect(w, h int, rect image.Rectangle) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if image.Pt(x, y).In(rect) {
				img.Set(x, y, color.RGBA{A: 255})
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func TestLocalDetectorFindsContrastRegion(t *testing.T) {
	d := NewLocalDetector(LocalConfig{}, logger.NewTestLogger())

	img := frameWithRect(320, 320, image.Rect(32, 32, 96, 64))
	dets, err := d.Detect(context.Background(), img)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	det := dets[0]
	assert.Equal(t, SourceLocal, det.Source)
	assert.Equal(t, "button", det.Label)
	assert.Greater(t, det.Confidence, 0.0)

	// The detected box covers the rectangle, allowing for grid snapping.
	assert.True(t, det.Box.Contains(48, 48), "box should cover the region center")
}

func TestLocalDetectorBlankScreen(t *testing.T) {
	d := NewLocalDetector(LocalConfig{}, logger.NewTestLogger())

	img := frameWithRect(320, 320, image.Rect(0, 0, 0, 0))
	dets, err := d.Detect(context.Background(), img)
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestLocalDetectorWideRegionIsTextField(t *testing.T) {
	d := NewLocalDetector(LocalConfig{}, logger.NewTestLogger())

	img := frameWithRect(640, 320, image.Rect(32, 32, 288, 64))
	dets, err := d.Detect(context.Background(), img)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "text_field", dets[0].Label)
}

func TestLocalDetectorRespectsCancellation(t *testing.T) {
	d := NewLocalDetector(LocalConfig{}, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Detect(ctx, frameWithRect(320, 320, image.Rect(0, 0, 32, 32)))
	assert.ErrorIs(t, err, context.Canceled)
}
