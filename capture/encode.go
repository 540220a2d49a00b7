package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// DefaultJPEGQuality is the encoding quality used for detector uploads.
const DefaultJPEGQuality = 85

// Downscale resamples the image so its longest edge is at most maxEdge,
// preserving aspect ratio. Images already within bounds are returned as-is.
// Nearest-neighbor sampling is enough here: the detectors work on coarse
// UI structure, not fine detail.
func Downscale(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return img
	}

	scale := float64(maxEdge) / float64(w)
	if h > w {
		scale = float64(maxEdge) / float64(h)
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		srcY := bounds.Min.Y + y*h/nh
		for x := 0; x < nw; x++ {
			srcX := bounds.Min.X + x*w/nw
			out.Set(x, y, img.At(srcX, srcY))
		}
	}
	return out
}

// EncodeJPEG encodes the image as JPEG with the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
