// Package guidance implements the coordinator that walks a user through a
// step plan: it drives the detection loop on a fixed cadence, routes
// detections through the matcher, issues overlay commands, and advances or
// recovers based on user clicks and detector health.
package guidance

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/hairizuan-noorazman/screen-guide/capture"
	"github.com/hairizuan-noorazman/screen-guide/detect"
	"github.com/hairizuan-noorazman/screen-guide/logger"
	"github.com/hairizuan-noorazman/screen-guide/matcher"
	"github.com/hairizuan-noorazman/screen-guide/overlay"
	"github.com/hairizuan-noorazman/screen-guide/plan"
	"github.com/hairizuan-noorazman/screen-guide/plansource"
)

var (
	// ErrInvalidTransition is returned when an operation is not legal in the
	// current phase.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrNoActiveSession is returned when an operation needs a session and
	// none exists.
	ErrNoActiveSession = errors.New("no active guidance session")

	// ErrRecoveryExhausted ends a session after recovery retries run out.
	// Terminal for the session, not the process.
	ErrRecoveryExhausted = errors.New("recovery retries exhausted")
)

// DetectionService is the slice of the detection orchestrator the engine
// consumes. Failures never surface here as errors, only as an empty result
// plus the LastSucceeded flag.
type DetectionService interface {
	Detect(ctx context.Context, screenshot image.Image) []detect.Detection
	LastSucceeded() bool
	ResetFailures()
}

// StepArchiver stores a screenshot when a step is confirmed. Optional.
type StepArchiver interface {
	ArchiveStep(ctx context.Context, sessionID string, stepIndex int, screenshot image.Image) error
}

// ClickOutcome describes what the engine did with a click event.
type ClickOutcome string

const (
	// ClickAdvanced means the click confirmed the current step.
	ClickAdvanced ClickOutcome = "advanced"
	// ClickCompleted means the click confirmed the final step.
	ClickCompleted ClickOutcome = "completed"
	// ClickDeviation means the click landed outside the highlighted box.
	ClickDeviation ClickOutcome = "deviation"
	// ClickResumed means the click ended a recovery wait.
	ClickResumed ClickOutcome = "resumed"
	// ClickIgnored means no session was in a phase that accepts clicks.
	ClickIgnored ClickOutcome = "ignored"
)

// Config tunes the guidance loop.
type Config struct {
	// TickInterval is the detection cadence.
	TickInterval time.Duration
	// NoMatchStreak is the number of consecutive matchless cycles before
	// recovery starts.
	NoMatchStreak int
	// RecoveryTimeout bounds one recovery wait for user input or a
	// successful re-detection.
	RecoveryTimeout time.Duration
	// RetryCeiling is the number of full recovery timeouts allowed before
	// the session fails.
	RetryCeiling int
	// PlanTimeout bounds plan generation.
	PlanTimeout time.Duration
	// AutoStart skips the confirmation gate and begins guiding as soon as
	// the plan arrives.
	AutoStart bool
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = 2 * time.Second
	}
	if c.NoMatchStreak <= 0 {
		c.NoMatchStreak = 5
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = 10 * time.Second
	}
	if c.RetryCeiling <= 0 {
		c.RetryCeiling = 3
	}
	if c.PlanTimeout <= 0 {
		c.PlanTimeout = 60 * time.Second
	}
	return c
}

// Deps are the engine's collaborators. Sink and Archiver are optional.
type Deps struct {
	Grabber  capture.Grabber
	Detector DetectionService
	Matcher  *matcher.Matcher
	Renderer overlay.Renderer
	Source   plansource.Source
	Sink     EventSink
	Archiver StepArchiver
	Logger   logger.Logger
}

// Engine owns the guidance session and serializes every phase transition
// under one lock. Blocking work (capture, detection, plan generation)
// happens outside the lock; results carry the generation they were started
// under and are discarded when a reset has superseded them.
type Engine struct {
	cfg  Config
	deps Deps

	mu          sync.Mutex
	phase       Phase
	sess        *session
	generation  uint64
	lastErr     error
	lastMessage string
	loopCancel  context.CancelFunc
}

// New creates an idle engine.
func New(cfg Config, deps Deps) *Engine {
	if deps.Sink == nil {
		deps.Sink = NopSink{}
	}
	return &Engine{
		cfg:   cfg.withDefaults(),
		deps:  deps,
		phase: PhaseIdle,
	}
}

// StartTask submits a task description and begins plan generation
// asynchronously. Legal from idle and from the terminal phases, which it
// implicitly resets.
func (e *Engine) StartTask(ctx context.Context, task string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseIdle && !e.phase.Terminal() {
		return fmt.Errorf("%w: cannot start a task while %s", ErrInvalidTransition, e.phase)
	}

	e.discardLocked()
	e.phase = PhasePlanning
	gen := e.generation

	e.deps.Logger.Info(ctx, "task submitted", map[string]interface{}{
		"task": task,
	})
	go e.generatePlan(task, gen)
	return nil
}

func (e *Engine) generatePlan(task string, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.PlanTimeout)
	defer cancel()

	p, err := e.deps.Source.GeneratePlan(ctx, task)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != gen || e.phase != PhasePlanning {
		e.deps.Logger.Debug(ctx, "discarding stale plan result", nil)
		return
	}
	if err != nil {
		e.phase = PhaseIdle
		e.lastErr = err
		e.deps.Logger.Error(ctx, "plan generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	e.sess = newSession(p)
	e.lastErr = nil
	e.deps.Sink.Record(ctx, Event{
		SessionID: e.sess.id,
		Kind:      EventPlanReady,
		Detail:    p.Task(),
	})
	e.deps.Logger.Info(ctx, "plan ready", map[string]interface{}{
		"session_id": e.sess.id.String(),
		"steps":      p.Len(),
	})

	if e.cfg.AutoStart {
		e.phase = PhaseGuiding
		e.startLoopLocked()
	} else {
		e.phase = PhaseAwaitingStart
	}
}

// StartGuidance begins the detection loop for a plan awaiting confirmation.
// force marks a start that bypassed the confirmation prompt; plan validity
// was already enforced at construction either way.
func (e *Engine) StartGuidance(ctx context.Context, force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		return ErrNoActiveSession
	}
	if e.phase != PhaseAwaitingStart {
		return fmt.Errorf("%w: cannot start guidance while %s", ErrInvalidTransition, e.phase)
	}

	e.phase = PhaseGuiding
	e.startLoopLocked()
	e.deps.Logger.Info(ctx, "guidance started", map[string]interface{}{
		"session_id": e.sess.id.String(),
		"forced":     force,
	})
	return nil
}

// Pause suspends the detection loop without touching session progress.
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseGuiding {
		return fmt.Errorf("%w: cannot pause while %s", ErrInvalidTransition, e.phase)
	}
	e.phase = PhasePaused
	e.stopLoopLocked()
	e.deps.Logger.Info(ctx, "guidance paused", map[string]interface{}{
		"session_id": e.sess.id.String(),
		"step_index": e.sess.stepIndex,
	})
	return nil
}

// Resume restarts the detection loop exactly where Pause left it.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhasePaused {
		return fmt.Errorf("%w: cannot resume while %s", ErrInvalidTransition, e.phase)
	}
	e.phase = PhaseGuiding
	e.startLoopLocked()
	e.deps.Logger.Info(ctx, "guidance resumed", map[string]interface{}{
		"session_id": e.sess.id.String(),
		"step_index": e.sess.stepIndex,
	})
	return nil
}

// Reset cancels the session from any phase and returns to idle. In-flight
// detection and plan requests are superseded, not awaited: their results
// carry an older generation and are dropped on arrival.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess != nil {
		e.deps.Sink.Record(ctx, Event{
			SessionID: e.sess.id,
			Kind:      EventReset,
			StepIndex: e.sess.stepIndex,
		})
	}
	e.discardLocked()
	e.phase = PhaseIdle
	e.deps.Logger.Info(ctx, "session reset", nil)
}

// discardLocked supersedes the current session: bumps the generation so late
// results are dropped, stops the loop, and clears overlays and counters.
func (e *Engine) discardLocked() {
	e.generation++
	e.stopLoopLocked()
	e.sess = nil
	e.lastErr = nil
	e.lastMessage = ""
	e.deps.Renderer.Clear()
	e.deps.Detector.ResetFailures()
}

func (e *Engine) startLoopLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	e.loopCancel = cancel
	go e.runLoop(ctx, e.generation)
}

func (e *Engine) stopLoopLocked() {
	if e.loopCancel != nil {
		e.loopCancel()
		e.loopCancel = nil
	}
}

func (e *Engine) runLoop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		e.runCycle(ctx, gen)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runCycle performs one screenshot → detect → match iteration. The blocking
// half runs without the lock; the result is applied under it, after the
// generation check.
func (e *Engine) runCycle(ctx context.Context, gen uint64) {
	e.mu.Lock()
	if e.generation != gen || e.sess == nil ||
		(e.phase != PhaseGuiding && e.phase != PhaseRecovering) {
		e.mu.Unlock()
		return
	}
	step, ok := e.sess.currentStep()
	e.mu.Unlock()
	if !ok {
		return
	}

	screenshot, err := e.deps.Grabber.Grab(ctx)
	if err != nil {
		e.deps.Logger.Warn(ctx, "screen capture failed", map[string]interface{}{
			"error": err.Error(),
		})
		e.applyCycle(ctx, gen, nil, matcher.Result{})
		return
	}

	dets := e.deps.Detector.Detect(ctx, screenshot)
	res := e.deps.Matcher.Match(step, dets)
	e.applyCycle(ctx, gen, screenshot, res)
}

func (e *Engine) applyCycle(ctx context.Context, gen uint64, screenshot image.Image, res matcher.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generation != gen || e.sess == nil {
		return
	}
	if screenshot != nil {
		e.sess.lastFrame = screenshot
	}

	switch e.phase {
	case PhaseGuiding:
		if res.Matched {
			e.drawMatchLocked(ctx, res)
			return
		}
		e.deps.Renderer.Clear()
		e.sess.lastBox = nil
		e.sess.noMatchCount++
		if e.sess.noMatchCount >= e.cfg.NoMatchStreak {
			e.enterRecoveryLocked(ctx)
		}

	case PhaseRecovering:
		if res.Matched {
			e.phase = PhaseGuiding
			e.sess.noMatchCount = 0
			e.sess.recoveryFailures = 0
			e.deps.Detector.ResetFailures()
			e.drawMatchLocked(ctx, res)
			e.deps.Sink.Record(ctx, Event{
				SessionID: e.sess.id,
				Kind:      EventResumed,
				StepIndex: e.sess.stepIndex,
				Detail:    "detection recovered",
			})
			return
		}
		if time.Now().After(e.sess.recoveryDeadline) {
			e.sess.recoveryFailures++
			if e.sess.recoveryFailures >= e.cfg.RetryCeiling {
				e.failLocked(ctx, ErrRecoveryExhausted)
				return
			}
			e.sess.recoveryDeadline = time.Now().Add(e.cfg.RecoveryTimeout)
			e.deps.Logger.Warn(ctx, "recovery timeout elapsed, retrying", map[string]interface{}{
				"session_id": e.sess.id.String(),
				"attempt":    e.sess.recoveryFailures,
			})
		}
	}
}

func (e *Engine) drawMatchLocked(ctx context.Context, res matcher.Result) {
	box := res.Detection.Box
	step, _ := e.sess.currentStep()
	e.deps.Renderer.Draw(box, fmt.Sprintf("Step %d: %s", e.sess.stepIndex+1, step.Description))

	firstShow := e.sess.lastBox == nil
	e.sess.lastBox = &box
	e.sess.noMatchCount = 0
	if firstShow {
		e.deps.Sink.Record(ctx, Event{
			SessionID: e.sess.id,
			Kind:      EventStepShown,
			StepIndex: e.sess.stepIndex,
			Detail:    res.Detection.Label,
		})
	}
}

func (e *Engine) enterRecoveryLocked(ctx context.Context) {
	e.phase = PhaseRecovering
	e.deps.Renderer.Clear()
	e.sess.lastBox = nil
	e.sess.recoveryDeadline = time.Now().Add(e.cfg.RecoveryTimeout)
	e.deps.Logger.Warn(ctx, "entering recovery after repeated no-match cycles", map[string]interface{}{
		"session_id": e.sess.id.String(),
		"step_index": e.sess.stepIndex,
		"streak":     e.sess.noMatchCount,
	})
	e.deps.Sink.Record(ctx, Event{
		SessionID: e.sess.id,
		Kind:      EventRecovery,
		StepIndex: e.sess.stepIndex,
	})
}

func (e *Engine) failLocked(ctx context.Context, err error) {
	e.phase = PhaseError
	e.lastErr = err
	e.deps.Renderer.Clear()
	e.sess.lastBox = nil
	e.stopLoopLocked()
	e.deps.Logger.Error(ctx, "session failed", map[string]interface{}{
		"session_id": e.sess.id.String(),
		"error":      err.Error(),
	})
	e.deps.Sink.Record(ctx, Event{
		SessionID: e.sess.id,
		Kind:      EventFailed,
		StepIndex: e.sess.stepIndex,
		Detail:    err.Error(),
	})
}

// HandleClick processes a screen-coordinate click from the click listener.
// Inside the highlighted box it confirms the step; outside it is forwarded
// to the plan source as a deviation; during recovery any click resumes.
func (e *Engine) HandleClick(ctx context.Context, x, y int) (ClickOutcome, error) {
	e.mu.Lock()

	switch e.phase {
	case PhaseRecovering:
		e.phase = PhaseGuiding
		e.sess.noMatchCount = 0
		e.sess.recoveryFailures = 0
		e.deps.Detector.ResetFailures()
		e.deps.Sink.Record(ctx, Event{
			SessionID: e.sess.id,
			Kind:      EventResumed,
			StepIndex: e.sess.stepIndex,
			Detail:    "user input",
		})
		e.mu.Unlock()
		return ClickResumed, nil
	case PhaseGuiding:
	default:
		e.mu.Unlock()
		return ClickIgnored, nil
	}

	if e.sess.lastBox != nil && e.sess.lastBox.Contains(x, y) {
		return e.confirmStepLocked(ctx), nil
	}

	step, _ := e.sess.currentStep()
	e.deps.Sink.Record(ctx, Event{
		SessionID: e.sess.id,
		Kind:      EventDeviation,
		StepIndex: e.sess.stepIndex,
		Detail:    fmt.Sprintf("click at (%d, %d)", x, y),
	})
	e.mu.Unlock()

	go e.reportDeviation(step, x, y)
	return ClickDeviation, nil
}

// confirmStepLocked advances past the current step. Releases the lock.
func (e *Engine) confirmStepLocked(ctx context.Context) ClickOutcome {
	confirmed := e.sess.stepIndex
	sid := e.sess.id
	frame := e.sess.lastFrame

	e.sess.stepIndex++
	e.sess.noMatchCount = 0
	e.sess.lastBox = nil
	e.deps.Renderer.Clear()
	e.deps.Sink.Record(ctx, Event{
		SessionID: sid,
		Kind:      EventStepConfirmed,
		StepIndex: confirmed,
	})

	outcome := ClickAdvanced
	if e.sess.completed() {
		e.phase = PhaseCompleted
		e.stopLoopLocked()
		e.deps.Sink.Record(ctx, Event{
			SessionID: sid,
			Kind:      EventCompleted,
			StepIndex: confirmed,
		})
		e.deps.Logger.Info(ctx, "task completed", map[string]interface{}{
			"session_id": sid.String(),
			"steps":      e.sess.plan.Len(),
		})
		outcome = ClickCompleted
	}
	e.mu.Unlock()

	if e.deps.Archiver != nil && frame != nil {
		go func() {
			actx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := e.deps.Archiver.ArchiveStep(actx, sid.String(), confirmed, frame); err != nil {
				e.deps.Logger.Warn(actx, "failed to archive step screenshot", map[string]interface{}{
					"session_id": sid.String(),
					"step_index": confirmed,
					"error":      err.Error(),
				})
			}
		}()
	}
	return outcome
}

func (e *Engine) reportDeviation(step plan.Step, x, y int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msg := fmt.Sprintf(
		"The user clicked at (%d, %d), outside the highlighted area for the current step: %q. Briefly reorient them.",
		x, y, step.Description,
	)
	reply, err := e.deps.Source.SendMessage(ctx, msg)
	if err != nil {
		e.deps.Logger.Warn(ctx, "deviation message failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	e.mu.Lock()
	e.lastMessage = reply
	e.mu.Unlock()
}

// HandleChat forwards a chat message to the plan source and returns the
// reply. During recovery, any chat message also resumes guidance.
func (e *Engine) HandleChat(ctx context.Context, msg string) (string, error) {
	e.mu.Lock()
	if e.phase == PhaseRecovering {
		e.phase = PhaseGuiding
		e.sess.noMatchCount = 0
		e.sess.recoveryFailures = 0
		e.deps.Detector.ResetFailures()
		e.deps.Sink.Record(ctx, Event{
			SessionID: e.sess.id,
			Kind:      EventResumed,
			StepIndex: e.sess.stepIndex,
			Detail:    "user input",
		})
	}
	e.mu.Unlock()

	reply, err := e.deps.Source.SendMessage(ctx, msg)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.lastMessage = reply
	e.mu.Unlock()
	return reply, nil
}

// Status is a point-in-time snapshot of the engine for the control API.
type Status struct {
	Phase           Phase      `json:"phase"`
	SessionID       string     `json:"session_id,omitempty"`
	Task            string     `json:"task,omitempty"`
	StepIndex       int        `json:"step_index"`
	TotalSteps      int        `json:"total_steps"`
	CurrentStep     *plan.Step `json:"current_step,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	NoMatchCount    int        `json:"no_match_count"`
	LastDetectionOK bool       `json:"last_detection_ok"`
	LastMessage     string     `json:"last_message,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// Status reports the engine's current state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Phase:           e.phase,
		LastDetectionOK: e.deps.Detector.LastSucceeded(),
		LastMessage:     e.lastMessage,
	}
	if e.lastErr != nil {
		st.Error = e.lastErr.Error()
	}
	if e.sess != nil {
		st.SessionID = e.sess.id.String()
		st.Task = e.sess.plan.Task()
		started := e.sess.startedAt
		st.StartedAt = &started
		st.StepIndex = e.sess.stepIndex
		st.TotalSteps = e.sess.plan.Len()
		st.NoMatchCount = e.sess.noMatchCount
		if step, ok := e.sess.currentStep(); ok {
			st.CurrentStep = &step
		}
	}
	return st
}

// Plan returns the active session's plan, or nil when no session exists.
// Used by the control API to show the plan during confirmation.
func (e *Engine) Plan() *plan.Plan {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	return e.sess.plan
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}
