package detect

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/screen-guide/logger"
)

func TestRemoteDetectorDetect(t *testing.T) {
	var gotReq analyzeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/analyze-screenshot", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"detections": []map[string]interface{}{
				{"label": "button", "text": "Submit", "confidence": 0.9, "box": []float64{10, 20, 60, 50}},
				{"label": "noise", "confidence": 0.1, "box": []float64{0, 0, 5, 5}},
				{"label": "broken", "confidence": 0.9, "box": []float64{1, 2}},
			},
		})
	}))
	defer server.Close()

	d := NewRemoteDetector(RemoteConfig{
		BaseURL:       server.URL,
		Timeout:       time.Second,
		MinConfidence: 0.5,
		MaxDetections: 10,
	}, logger.NewTestLogger())

	dets, err := d.Detect(context.Background(), testFrame())
	require.NoError(t, err)
	require.Len(t, dets, 1, "low-confidence and malformed detections are dropped")

	det := dets[0]
	assert.Equal(t, "button", det.Label)
	assert.Equal(t, "Submit", det.Text)
	assert.Equal(t, SourceRemote, det.Source)
	assert.Equal(t, BoundingBox{X: 10, Y: 20, Width: 50, Height: 30}, det.Box)

	// The request carried a decodable base64 JPEG payload and the configured knobs.
	_, err = base64.StdEncoding.DecodeString(gotReq.Image)
	assert.NoError(t, err)
	assert.Equal(t, 0.5, gotReq.Confidence)
	assert.Equal(t, 10, gotReq.MaxDetections)
}

func TestRemoteDetectorServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	d := NewRemoteDetector(RemoteConfig{BaseURL: server.URL, Timeout: time.Second}, logger.NewTestLogger())

	_, err := d.Detect(context.Background(), testFrame())
	assert.ErrorIs(t, err, ErrDetectorUnavailable)
}

func TestRemoteDetectorUnreachable(t *testing.T) {
	d := NewRemoteDetector(RemoteConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
	}, logger.NewTestLogger())

	_, err := d.Detect(context.Background(), testFrame())
	assert.ErrorIs(t, err, ErrDetectorUnavailable)
}

func TestRemoteDetectorBadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	d := NewRemoteDetector(RemoteConfig{BaseURL: server.URL, Timeout: time.Second}, logger.NewTestLogger())

	_, err := d.Detect(context.Background(), testFrame())
	assert.ErrorIs(t, err, ErrBadDetectorResponse)
}
