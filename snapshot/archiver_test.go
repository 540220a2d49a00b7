package snapshot

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/screen-guide/logger"
)

func TestStepKey(t *testing.T) {
	assert.Equal(t, "sessions/abc/step_000.jpg", StepKey("abc", 0))
	assert.Equal(t, "sessions/abc/step_042.jpg", StepKey("abc", 42))
}

func TestArchiverStoresDecodableJPEG(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	archiver := NewArchiver(store, logger.NewTestLogger())

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	require.NoError(t, archiver.ArchiveStep(ctx, "run-1", 3, img))

	rc, err := store.Get(ctx, StepKey("run-1", 3))
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
	assert.Equal(t, 48, decoded.Bounds().Dy())

	url, err := archiver.StepURL(ctx, "run-1", 3)
	require.NoError(t, err)
	assert.Contains(t, url, "step_003.jpg")
}
