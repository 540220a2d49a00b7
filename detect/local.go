package detect

import (
	"context"
	"image"
	"sort"

	"github.com/hairizuan-noorazman/screen-guide/logger"
)

// LocalDetector is the on-device fallback. It has no trained model: it looks
// for regions that stand out from the surrounding background luminance and
// classifies them by shape. Coarse, but it keeps guidance alive when the
// remote service is down.
type LocalDetector struct {
	cellSize      int
	contrast      float64
	maxDetections int
	logger        logger.Logger
}

// LocalConfig holds local detector tuning.
type LocalConfig struct {
	// CellSize is the analysis grid cell edge in pixels. Defaults to 16.
	CellSize int
	// Contrast is the minimum luminance deviation (0-255 scale) between a
	// cell and the global background for the cell to count as foreground.
	// Defaults to 40.
	Contrast float64
	// MaxDetections caps the number of emitted detections. Defaults to 10.
	MaxDetections int
}

// NewLocalDetector creates a local heuristic detector.
func NewLocalDetector(cfg LocalConfig, log logger.Logger) *LocalDetector {
	if cfg.CellSize <= 0 {
		cfg.CellSize = 16
	}
	if cfg.Contrast <= 0 {
		cfg.Contrast = 40
	}
	if cfg.MaxDetections <= 0 {
		cfg.MaxDetections = 10
	}
	return &LocalDetector{
		cellSize:      cfg.CellSize,
		contrast:      cfg.Contrast,
		maxDetections: cfg.MaxDetections,
		logger:        log,
	}
}

// Detect finds contrast regions in the screenshot and classifies them.
func (d *LocalDetector) Detect(ctx context.Context, screenshot image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := screenshot.Bounds()
	cols := bounds.Dx() / d.cellSize
	rows := bounds.Dy() / d.cellSize
	if cols == 0 || rows == 0 {
		return nil, nil
	}

	// Mean luminance per grid cell, sampled on a sparse sub-grid per cell.
	luma := make([]float64, rows*cols)
	var total float64
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			luma[r*cols+c] = d.cellLuminance(screenshot, bounds, c, r)
			total += luma[r*cols+c]
		}
	}
	background := total / float64(rows*cols)

	// Foreground mask: cells that stand out from the background.
	active := make([]bool, rows*cols)
	for i, l := range luma {
		if diff(l, background) >= d.contrast {
			active[i] = true
		}
	}

	regions := connectedRegions(active, cols, rows)

	dets := make([]Detection, 0, len(regions))
	for _, reg := range regions {
		box := BoundingBox{
			X:      bounds.Min.X + reg.minC*d.cellSize,
			Y:      bounds.Min.Y + reg.minR*d.cellSize,
			Width:  (reg.maxC - reg.minC + 1) * d.cellSize,
			Height: (reg.maxR - reg.minR + 1) * d.cellSize,
		}

		// Skip regions too small to click or so large they are probably a
		// window or the whole desktop.
		if box.Area() < 2*d.cellSize*d.cellSize || box.Area() > bounds.Dx()*bounds.Dy()/4 {
			continue
		}

		label, confidence := classifyRegion(box)
		dets = append(dets, Detection{
			Box:        box,
			Label:      label,
			Confidence: confidence,
			Source:     SourceLocal,
		})
	}

	// Largest regions first so the cap keeps the most prominent elements.
	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Box.Area() > dets[j].Box.Area()
	})
	if len(dets) > d.maxDetections {
		dets = dets[:d.maxDetections]
	}

	d.logger.Debug(ctx, "local detection completed", map[string]interface{}{
		"regions":    len(regions),
		"detections": len(dets),
	})
	return dets, nil
}

// cellLuminance samples a 4x4 sub-grid inside the cell and averages the
// luminance. Full per-pixel scans are too slow at detection cadence.
func (d *LocalDetector) cellLuminance(img image.Image, bounds image.Rectangle, col, row int) float64 {
	const samples = 4
	x0 := bounds.Min.X + col*d.cellSize
	y0 := bounds.Min.Y + row*d.cellSize
	step := d.cellSize / samples
	if step == 0 {
		step = 1
	}

	var sum float64
	var n int
	for dy := 0; dy < d.cellSize; dy += step {
		for dx := 0; dx < d.cellSize; dx += step {
			r, g, b, _ := img.At(x0+dx, y0+dy).RGBA()
			// Rec. 601 luma, scaled from 16-bit channels to 0-255.
			sum += (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			n++
		}
	}
	return sum / float64(n)
}

type region struct {
	minC, minR, maxC, maxR int
}

// connectedRegions groups 4-connected active cells into bounding regions.
func connectedRegions(active []bool, cols, rows int) []region {
	visited := make([]bool, len(active))
	var regions []region

	for start := range active {
		if !active[start] || visited[start] {
			continue
		}

		reg := region{minC: cols, minR: rows, maxC: -1, maxR: -1}
		stack := []int{start}
		visited[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			c, r := idx%cols, idx/cols
			if c < reg.minC {
				reg.minC = c
			}
			if c > reg.maxC {
				reg.maxC = c
			}
			if r < reg.minR {
				reg.minR = r
			}
			if r > reg.maxR {
				reg.maxR = r
			}

			for _, n := range [4]int{idx - 1, idx + 1, idx - cols, idx + cols} {
				if n < 0 || n >= len(active) || visited[n] || !active[n] {
					continue
				}
				// Disallow horizontal wrap-around between row ends.
				if (n == idx-1 && c == 0) || (n == idx+1 && c == cols-1) {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}

		regions = append(regions, reg)
	}
	return regions
}

// classifyRegion assigns a coarse label from the region's shape. Confidence
// stays low: shape alone is weak evidence.
func classifyRegion(box BoundingBox) (string, float64) {
	ratio := float64(box.Width) / float64(box.Height)
	switch {
	case ratio >= 3.0:
		return "text_field", 0.5
	case ratio >= 0.7 && ratio <= 1.3:
		return "icon", 0.45
	default:
		return "button", 0.55
	}
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
