package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hairizuan-noorazman/screen-guide/logger"
	"github.com/hairizuan-noorazman/screen-guide/testutil"
	"github.com/hairizuan-noorazman/screen-guide/transcript"
)

func newTranscriptFixture(t *testing.T) (*TranscriptHandler, *transcript.SQLiteStore, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &transcript.Entry{})
	store := transcript.NewSQLiteStore(db, logger.NewTestLogger())
	return NewTranscriptHandler(store, logger.NewTestLogger()), store, db
}

func transcriptRouter(h *TranscriptHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/sessions", h.ListSessions).Methods("GET")
	router.HandleFunc("/api/v1/transcript/{session_id}", h.ListEntries).Methods("GET")
	return router
}

func TestListEntries(t *testing.T) {
	h, store, _ := newTranscriptFixture(t)
	router := transcriptRouter(h)
	sessionID := uuid.New()

	require.NoError(t, store.Append(context.Background(), &transcript.Entry{
		SessionID: sessionID,
		Kind:      "step_confirmed",
		StepIndex: 1,
	}))

	t.Run("returns a session's entries", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/transcript/"+sessionID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp ListEntriesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Total)
		assert.Equal(t, "step_confirmed", resp.Entries[0].Kind)
	})

	t.Run("rejects malformed session id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/transcript/not-a-uuid", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty for unknown session", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/transcript/"+uuid.NewString(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp ListEntriesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.Total)
	})
}

func TestListSessions(t *testing.T) {
	h, _, db := newTranscriptFixture(t)
	router := transcriptRouter(h)

	testutil.CreateFixtures(t, db,
		&transcript.Entry{SessionID: uuid.New(), Kind: "plan_ready"},
		&transcript.Entry{SessionID: uuid.New(), Kind: "plan_ready"},
	)

	req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListSessionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
}
