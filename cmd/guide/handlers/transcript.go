package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hairizuan-noorazman/screen-guide/logger"
	"github.com/hairizuan-noorazman/screen-guide/transcript"
)

// TranscriptHandler serves recorded run transcripts.
type TranscriptHandler struct {
	store  transcript.Store
	logger logger.Logger
}

// NewTranscriptHandler creates a new transcript handler.
func NewTranscriptHandler(store transcript.Store, log logger.Logger) *TranscriptHandler {
	return &TranscriptHandler{
		store:  store,
		logger: log,
	}
}

// ListSessionsResponse represents the recorded sessions listing.
type ListSessionsResponse struct {
	Sessions []uuid.UUID `json:"sessions"`
	Total    int         `json:"total"`
}

// ListEntriesResponse represents one session's transcript.
type ListEntriesResponse struct {
	Entries []*transcript.Entry `json:"entries"`
	Total   int                 `json:"total"`
}

// ListSessions handles listing recorded sessions, newest first.
func (h *TranscriptHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ids, err := h.store.Sessions(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	respondJSON(w, http.StatusOK, ListSessionsResponse{Sessions: ids, Total: len(ids)})
}

// ListEntries handles fetching one session's transcript in order.
func (h *TranscriptHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(mux.Vars(r)["session_id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session ID: must be a valid UUID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.store.ListBySession(r.Context(), sessionID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list transcript entries")
		return
	}
	respondJSON(w, http.StatusOK, ListEntriesResponse{Entries: entries, Total: len(entries)})
}
