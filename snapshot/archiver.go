package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/hairizuan-noorazman/screen-guide/capture"
	"github.com/hairizuan-noorazman/screen-guide/logger"
)

// Archiver encodes confirmed-step screenshots as JPEG and writes them to a
// blob store, keyed by session and step.
type Archiver struct {
	store  BlobStore
	logger logger.Logger
}

// NewArchiver creates an archiver over the given store.
func NewArchiver(store BlobStore, log logger.Logger) *Archiver {
	return &Archiver{store: store, logger: log}
}

// StepKey returns the storage key for one confirmed step's screenshot.
func StepKey(sessionID string, stepIndex int) string {
	return fmt.Sprintf("sessions/%s/step_%03d.jpg", sessionID, stepIndex)
}

// ArchiveStep stores the screenshot taken when a step was confirmed.
func (a *Archiver) ArchiveStep(ctx context.Context, sessionID string, stepIndex int, screenshot image.Image) error {
	data, err := capture.EncodeJPEG(screenshot, capture.DefaultJPEGQuality)
	if err != nil {
		return fmt.Errorf("failed to encode step screenshot: %w", err)
	}

	key := StepKey(sessionID, stepIndex)
	if err := a.store.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return err
	}

	a.logger.Debug(ctx, "archived step screenshot", map[string]interface{}{
		"session_id": sessionID,
		"step_index": stepIndex,
		"key":        key,
		"bytes":      len(data),
	})
	return nil
}

// StepURL returns an access URL for a previously archived step screenshot.
func (a *Archiver) StepURL(ctx context.Context, sessionID string, stepIndex int) (string, error) {
	return a.store.URL(ctx, StepKey(sessionID, stepIndex))
}
