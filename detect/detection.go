package detect

// Source identifies which detector produced a detection.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// BoundingBox is a rectangle in screen pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the box area in pixels.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Contains reports whether the point (x, y) lies inside the box.
func (b BoundingBox) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Clamp constrains the box to the screen bounds (0,0)-(w,h) and returns the
// result. Degenerate boxes collapse to zero width or height.
func (b BoundingBox) Clamp(w, h int) BoundingBox {
	if b.X < 0 {
		b.Width += b.X
		b.X = 0
	}
	if b.Y < 0 {
		b.Height += b.Y
		b.Y = 0
	}
	if b.X+b.Width > w {
		b.Width = w - b.X
	}
	if b.Y+b.Height > h {
		b.Height = h - b.Y
	}
	if b.Width < 0 {
		b.Width = 0
	}
	if b.Height < 0 {
		b.Height = 0
	}
	return b
}

// Detection is one candidate UI element found in a screenshot. Detections are
// ephemeral: each cycle's set supersedes the previous one. Backend adapters
// normalize their native payloads into this fixed shape at the boundary.
type Detection struct {
	Box        BoundingBox `json:"box"`
	Label      string      `json:"label"`
	Text       string      `json:"text,omitempty"`
	Confidence float64     `json:"confidence"`
	Source     Source      `json:"source"`
}

// filterDetections drops detections below the confidence floor, clamps boxes
// to the screen bounds, discards degenerate boxes, and caps the result count.
func filterDetections(dets []Detection, screenW, screenH int, minConfidence float64, max int) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence < minConfidence {
			continue
		}
		d.Box = d.Box.Clamp(screenW, screenH)
		if d.Box.Area() == 0 {
			continue
		}
		out = append(out, d)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
