package handlers

import (
	"errors"
	"net/http"

	"github.com/hairizuan-noorazman/screen-guide/guidance"
	"github.com/hairizuan-noorazman/screen-guide/logger"
	"github.com/hairizuan-noorazman/screen-guide/plan"
)

// GuidanceHandler exposes the engine over the local control API. The overlay
// UI and click listener drive the engine through these endpoints.
type GuidanceHandler struct {
	engine *guidance.Engine
	logger logger.Logger
}

// NewGuidanceHandler creates a new guidance handler.
func NewGuidanceHandler(engine *guidance.Engine, log logger.Logger) *GuidanceHandler {
	return &GuidanceHandler{
		engine: engine,
		logger: log,
	}
}

// StartTaskRequest represents a task submission.
type StartTaskRequest struct {
	Task string `json:"task"`
}

// StartGuidanceRequest represents a guidance start signal.
type StartGuidanceRequest struct {
	Force bool `json:"force"`
}

// ClickRequest represents a screen-coordinate click event.
type ClickRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ClickResponse reports what the engine did with a click.
type ClickResponse struct {
	Outcome guidance.ClickOutcome `json:"outcome"`
	Phase   guidance.Phase        `json:"phase"`
}

// ChatRequest represents a chat message.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// PlanResponse exposes the active plan for user confirmation.
type PlanResponse struct {
	Task  string      `json:"task"`
	Steps []plan.Step `json:"steps"`
}

// StartTask handles task submission: plan generation begins asynchronously
// and progress is visible through the status endpoint.
func (h *GuidanceHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	var req StartTaskRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Task == "" {
		respondError(w, http.StatusBadRequest, "task is required")
		return
	}

	if err := h.engine.StartTask(r.Context(), req.Task); err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, h.engine.Status())
}

// StartGuidance handles the user's start signal.
func (h *GuidanceHandler) StartGuidance(w http.ResponseWriter, r *http.Request) {
	var req StartGuidanceRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := parseJSON(r, &req, h.logger); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if err := h.engine.StartGuidance(r.Context(), req.Force); err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.engine.Status())
}

// Pause suspends the detection loop.
func (h *GuidanceHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Pause(r.Context()); err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondSuccess(w, "guidance paused")
}

// Resume restarts the detection loop.
func (h *GuidanceHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Resume(r.Context()); err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondSuccess(w, "guidance resumed")
}

// Reset cancels the session from any phase.
func (h *GuidanceHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.engine.Reset(r.Context())
	respondSuccess(w, "session reset")
}

// Click handles a click event from the click listener.
func (h *GuidanceHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.engine.HandleClick(r.Context(), req.X, req.Y)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ClickResponse{
		Outcome: outcome,
		Phase:   h.engine.Phase(),
	})
}

// Chat forwards a chat message to the plan source.
func (h *GuidanceHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.engine.HandleChat(r.Context(), req.Message)
	if err != nil {
		h.logger.Error(r.Context(), "chat message failed", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusBadGateway, "assistant unavailable")
		return
	}
	respondJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

// Status reports the engine's current state.
func (h *GuidanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Status())
}

// Plan exposes the active plan's steps.
func (h *GuidanceHandler) Plan(w http.ResponseWriter, r *http.Request) {
	p := h.engine.Plan()
	if p == nil {
		respondError(w, http.StatusNotFound, "no active plan")
		return
	}
	respondJSON(w, http.StatusOK, PlanResponse{
		Task:  p.Task(),
		Steps: p.Steps(),
	})
}

func (h *GuidanceHandler) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, guidance.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, guidance.ErrNoActiveSession):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
