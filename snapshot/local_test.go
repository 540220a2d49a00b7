package snapshot

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalStore(t *testing.T) {
	tests := []struct {
		name      string
		baseDir   string
		wantError bool
	}{
		{
			name:    "existing directory",
			baseDir: t.TempDir(),
		},
		{
			name:    "creates missing directory",
			baseDir: filepath.Join(t.TempDir(), "snaps"),
		},
		{
			name:      "empty base directory",
			baseDir:   "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewLocalStore(tt.baseDir)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, store)
		})
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	key := "sessions/abc/step_000.jpg"
	payload := []byte("fake jpeg bytes")
	require.NoError(t, store.Put(ctx, key, bytes.NewReader(payload)))

	rc, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	url, err := store.URL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, "step_000.jpg")

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.jpg", "sessions/../../etc/passwd"} {
		assert.ErrorIs(t, store.Put(ctx, key, bytes.NewReader(nil)), ErrInvalidKey, "key %q", key)
	}
}

func TestLocalStoreMissingKey(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(ctx, "sessions/none/step_000.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "sessions/none/step_000.jpg"), ErrNotFound)
	_, err = store.URL(ctx, "sessions/none/step_000.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewBlobStore(t *testing.T) {
	t.Run("local backend", func(t *testing.T) {
		store, err := NewBlobStore(StoreConfig{Backend: "local", Dir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &LocalStore{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewBlobStore(StoreConfig{Backend: "floppy"})
		assert.Error(t, err)
	})
}
