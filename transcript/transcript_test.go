package transcript

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/screen-guide/guidance"
	"github.com/hairizuan-noorazman/screen-guide/logger"
	"github.com/hairizuan-noorazman/screen-guide/testutil"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &Entry{})
	return NewSQLiteStore(db, logger.NewTestLogger())
}

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr error
	}{
		{
			name:  "valid entry",
			entry: Entry{SessionID: uuid.New(), Kind: "step_confirmed"},
		},
		{
			name:    "missing session id",
			entry:   Entry{Kind: "step_confirmed"},
			wantErr: ErrInvalidSessionID,
		},
		{
			name:    "missing kind",
			entry:   Entry{SessionID: uuid.New()},
			wantErr: ErrInvalidKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	sessionID := uuid.New()

	base := time.Now().Add(-time.Minute)
	kinds := []string{"plan_ready", "step_shown", "step_confirmed", "completed"}
	for i, kind := range kinds {
		err := store.Append(ctx, &Entry{
			SessionID: sessionID,
			Kind:      kind,
			StepIndex: i,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	// another session's entries must not leak into the listing
	require.NoError(t, store.Append(ctx, &Entry{SessionID: uuid.New(), Kind: "plan_ready"}))

	entries, err := store.ListBySession(ctx, sessionID, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for i, e := range entries {
		assert.Equal(t, kinds[i], e.Kind)
		assert.NotEqual(t, uuid.Nil, e.ID)
		assert.False(t, e.CreatedAt.IsZero())
	}

	page, err := store.ListBySession(ctx, sessionID, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "step_shown", page[0].Kind)
}

func TestStoreAppendRejectsInvalid(t *testing.T) {
	store := setupStore(t)
	err := store.Append(context.Background(), &Entry{Kind: "step_shown"})
	assert.ErrorIs(t, err, ErrInvalidSessionID)
}

func TestStoreSessions(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	first := uuid.New()
	second := uuid.New()
	require.NoError(t, store.Append(ctx, &Entry{SessionID: first, Kind: "plan_ready"}))
	require.NoError(t, store.Append(ctx, &Entry{SessionID: second, Kind: "plan_ready"}))

	ids, err := store.Sessions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)
}

func TestSinkPersistsEngineEvents(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	sink := NewSink(store, logger.NewTestLogger())

	sessionID := uuid.New()
	sink.Record(ctx, guidance.Event{
		SessionID: sessionID,
		Kind:      guidance.EventStepConfirmed,
		StepIndex: 2,
		Detail:    "button",
	})

	require.Eventually(t, func() bool {
		entries, err := store.ListBySession(ctx, sessionID, 0, 0)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	entries, err := store.ListBySession(ctx, sessionID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, guidance.EventStepConfirmed, entries[0].Kind)
	assert.Equal(t, 2, entries[0].StepIndex)
	assert.Equal(t, "button", entries[0].Detail)
}

func TestOpenCreatesSchema(t *testing.T) {
	store, err := Open(":memory:", logger.NewTestLogger())
	require.NoError(t, err)

	err = store.Append(context.Background(), &Entry{SessionID: uuid.New(), Kind: "plan_ready"})
	assert.NoError(t, err)
}
