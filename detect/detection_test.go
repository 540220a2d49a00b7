package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{X: 10, Y: 20, Width: 100, Height: 50}

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{name: "center", x: 60, y: 45, want: true},
		{name: "top-left corner inclusive", x: 10, y: 20, want: true},
		{name: "bottom-right corner exclusive", x: 110, y: 70, want: false},
		{name: "left of box", x: 9, y: 45, want: false},
		{name: "below box", x: 60, y: 71, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, box.Contains(tt.x, tt.y))
		})
	}
}

func TestBoundingBoxClamp(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		want BoundingBox
	}{
		{
			name: "inside untouched",
			box:  BoundingBox{X: 10, Y: 10, Width: 50, Height: 50},
			want: BoundingBox{X: 10, Y: 10, Width: 50, Height: 50},
		},
		{
			name: "negative origin trimmed",
			box:  BoundingBox{X: -20, Y: -10, Width: 100, Height: 100},
			want: BoundingBox{X: 0, Y: 0, Width: 80, Height: 90},
		},
		{
			name: "overflow trimmed",
			box:  BoundingBox{X: 150, Y: 150, Width: 100, Height: 100},
			want: BoundingBox{X: 150, Y: 150, Width: 50, Height: 50},
		},
		{
			name: "fully outside collapses",
			box:  BoundingBox{X: 300, Y: 300, Width: 50, Height: 50},
			want: BoundingBox{X: 300, Y: 300, Width: 0, Height: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.box.Clamp(200, 200))
		})
	}
}

func TestFilterDetections(t *testing.T) {
	dets := []Detection{
		{Box: BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, Label: "button", Confidence: 0.9},
		{Box: BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, Label: "weak", Confidence: 0.2},
		{Box: BoundingBox{X: 500, Y: 500, Width: 10, Height: 10}, Label: "offscreen", Confidence: 0.9},
		{Box: BoundingBox{X: 20, Y: 20, Width: 10, Height: 10}, Label: "icon", Confidence: 0.8},
		{Box: BoundingBox{X: 40, Y: 40, Width: 10, Height: 10}, Label: "extra", Confidence: 0.8},
	}

	out := filterDetections(dets, 100, 100, 0.5, 2)
	assert.Len(t, out, 2)
	assert.Equal(t, "button", out[0].Label)
	assert.Equal(t, "icon", out[1].Label)
}
