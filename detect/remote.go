package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/hairizuan-noorazman/screen-guide/capture"
	"github.com/hairizuan-noorazman/screen-guide/logger"
)

// maxUploadEdge is the longest screenshot edge sent to the detection service.
// Larger frames are downscaled first to save bandwidth.
const maxUploadEdge = 1920

// RemoteConfig holds remote detection service configuration.
type RemoteConfig struct {
	BaseURL       string
	Timeout       time.Duration
	MinConfidence float64
	MaxDetections int
}

// RemoteDetector sends screenshots to the detection service and normalizes
// its payload into Detections.
type RemoteDetector struct {
	baseURL       string
	httpClient    *http.Client
	minConfidence float64
	maxDetections int
	logger        logger.Logger
}

// NewRemoteDetector creates a client for the remote detection service.
func NewRemoteDetector(cfg RemoteConfig, log logger.Logger) *RemoteDetector {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteDetector{
		baseURL:       cfg.BaseURL,
		httpClient:    &http.Client{Timeout: timeout},
		minConfidence: cfg.MinConfidence,
		maxDetections: cfg.MaxDetections,
		logger:        log,
	}
}

// analyzeRequest is the wire request for the detection service.
type analyzeRequest struct {
	Image         string  `json:"image"`
	Confidence    float64 `json:"confidence"`
	MaxDetections int     `json:"max_detections"`
}

// analyzeResponse is the wire response from the detection service. Boxes come
// back as [x1, y1, x2, y2] corner pairs.
type analyzeResponse struct {
	Detections []struct {
		Label      string    `json:"label"`
		Text       string    `json:"text"`
		Confidence float64   `json:"confidence"`
		Box        []float64 `json:"box"`
	} `json:"detections"`
}

// Detect uploads the screenshot and returns the normalized detections.
func (d *RemoteDetector) Detect(ctx context.Context, screenshot image.Image) ([]Detection, error) {
	bounds := screenshot.Bounds()
	scaled := capture.Downscale(screenshot, maxUploadEdge)

	// Detections come back in upload coordinates and must be mapped back to
	// screen coordinates when the frame was downscaled.
	scaleX := float64(bounds.Dx()) / float64(scaled.Bounds().Dx())
	scaleY := float64(bounds.Dy()) / float64(scaled.Bounds().Dy())

	jpegData, err := capture.EncodeJPEG(scaled, capture.DefaultJPEGQuality)
	if err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(analyzeRequest{
		Image:         base64.StdEncoding.EncodeToString(jpegData),
		Confidence:    d.minConfidence,
		MaxDetections: d.maxDetections,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/analyze-screenshot", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrDetectorUnavailable, resp.StatusCode, string(body))
	}

	var parsed analyzeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDetectorResponse, err)
	}

	dets := make([]Detection, 0, len(parsed.Detections))
	for i, raw := range parsed.Detections {
		if len(raw.Box) < 4 {
			d.logger.Warn(ctx, "skipping detection with malformed box", map[string]interface{}{
				"index": i,
				"label": raw.Label,
			})
			continue
		}

		x1 := raw.Box[0] * scaleX
		y1 := raw.Box[1] * scaleY
		x2 := raw.Box[2] * scaleX
		y2 := raw.Box[3] * scaleY

		dets = append(dets, Detection{
			Box: BoundingBox{
				X:      int(x1),
				Y:      int(y1),
				Width:  int(x2 - x1),
				Height: int(y2 - y1),
			},
			Label:      raw.Label,
			Text:       raw.Text,
			Confidence: raw.Confidence,
			Source:     SourceRemote,
		})
	}

	return filterDetections(dets, bounds.Dx(), bounds.Dy(), d.minConfidence, d.maxDetections), nil
}
