package detect

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/hairizuan-noorazman/screen-guide/logger"
)

// OrchestratorConfig holds detection orchestration configuration.
type OrchestratorConfig struct {
	// Timeout bounds a single remote detection attempt. Defaults to 5s.
	Timeout time.Duration
	// MinInterval is the minimum spacing between detection cycles. A new
	// cycle does not start until the previous one has resolved and this
	// interval has elapsed. Defaults to 2s.
	MinInterval time.Duration
	// MinConfidence is the confidence floor applied to remote detections.
	MinConfidence float64
	// MaxDetections caps the detections returned per cycle. Defaults to 10.
	MaxDetections int
}

func (c OrchestratorConfig) withDefaults() OrchestratorConfig {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MinInterval <= 0 {
		c.MinInterval = 2 * time.Second
	}
	if c.MaxDetections <= 0 {
		c.MaxDetections = 10
	}
	return c
}

// inflight is one detection cycle in progress. Callers arriving while it is
// unresolved wait on done and share its result instead of starting another
// round-trip.
type inflight struct {
	done chan struct{}
	dets []Detection
}

// Orchestrator runs detection cycles against the remote detector with a
// silent local fallback. It is the sole concurrency control for detection: a
// single-slot admission gate guarantees at most one screenshot/detector
// round-trip is outstanding, and a minimum inter-request interval prevents
// pile-up when the remote service is slow.
//
// Detector faults never escape as errors. A cycle where both detectors fail
// yields an empty detection set; callers observe failures through
// LastSucceeded and FailureStreak.
type Orchestrator struct {
	remote Detector
	local  Detector
	cfg    OrchestratorConfig
	logger logger.Logger

	mu            sync.Mutex
	current       *inflight
	lastResolved  time.Time
	lastSucceeded bool
	failureStreak int
}

// NewOrchestrator creates a detection orchestrator.
func NewOrchestrator(remote, local Detector, cfg OrchestratorConfig, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		remote:        remote,
		local:         local,
		cfg:           cfg.withDefaults(),
		logger:        log,
		lastSucceeded: true,
	}
}

// Detect runs one detection cycle on the screenshot and returns the
// candidate detections. If a cycle is already in flight the call coalesces
// into it and returns that cycle's eventual result. The result is empty when
// both detectors fail or the context is cancelled.
func (o *Orchestrator) Detect(ctx context.Context, screenshot image.Image) []Detection {
	o.mu.Lock()
	if o.current != nil {
		call := o.current
		o.mu.Unlock()
		select {
		case <-call.done:
			return call.dets
		case <-ctx.Done():
			return nil
		}
	}

	call := &inflight{done: make(chan struct{})}
	o.current = call
	wait := o.cfg.MinInterval - time.Since(o.lastResolved)
	o.mu.Unlock()

	// Honor the inter-request interval before touching the detectors. The
	// slot is already claimed, so concurrent callers coalesce rather than
	// queueing their own cycles behind this wait.
	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			o.resolve(call, nil, false, true)
			return nil
		}
	}

	dets, ok := o.runCycle(ctx, screenshot)
	o.resolve(call, dets, ok, ctx.Err() != nil)
	return call.dets
}

// resolve publishes the cycle result and frees the admission slot. Cancelled
// cycles do not touch the success state or failure streak.
func (o *Orchestrator) resolve(call *inflight, dets []Detection, ok, cancelled bool) {
	if dets == nil {
		dets = []Detection{}
	}
	call.dets = dets

	o.mu.Lock()
	o.current = nil
	o.lastResolved = time.Now()
	if !cancelled {
		o.lastSucceeded = ok
		if ok {
			o.failureStreak = 0
		} else {
			o.failureStreak++
		}
	}
	o.mu.Unlock()

	close(call.done)
}

// runCycle attempts remote detection first, then falls back to the local
// detector. Remote failure is transparent to callers.
func (o *Orchestrator) runCycle(ctx context.Context, screenshot image.Image) ([]Detection, bool) {
	remoteCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	dets, err := o.remote.Detect(remoteCtx, screenshot)
	cancel()
	if err == nil {
		return dets, true
	}

	o.logger.Warn(ctx, "remote detection failed, falling back to local detector", map[string]interface{}{
		"error": err.Error(),
	})

	dets, err = o.local.Detect(ctx, screenshot)
	if err != nil {
		o.logger.Error(ctx, "local detection failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}

	bounds := screenshot.Bounds()
	return filterDetections(dets, bounds.Dx(), bounds.Dy(), 0, o.cfg.MaxDetections), true
}

// LastSucceeded reports whether the most recent resolved cycle produced
// detections from either detector.
func (o *Orchestrator) LastSucceeded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastSucceeded
}

// FailureStreak returns the number of consecutive cycles where both
// detectors failed.
func (o *Orchestrator) FailureStreak() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failureStreak
}

// ResetFailures clears the failure streak, e.g. when the user intervenes
// during recovery.
func (o *Orchestrator) ResetFailures() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failureStreak = 0
}
