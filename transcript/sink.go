package transcript

import (
	"context"
	"time"

	"github.com/hairizuan-noorazman/screen-guide/guidance"
	"github.com/hairizuan-noorazman/screen-guide/logger"
)

// Sink adapts a Store to the engine's event interface. Writes happen on a
// separate goroutine so the engine's callbacks never wait on the database;
// a failed write is logged and dropped rather than surfaced.
type Sink struct {
	store  Store
	logger logger.Logger
}

// NewSink creates a sink writing to the given store.
func NewSink(store Store, log logger.Logger) *Sink {
	return &Sink{store: store, logger: log}
}

// Record persists one engine event asynchronously.
func (s *Sink) Record(ctx context.Context, ev guidance.Event) {
	entry := &Entry{
		SessionID: ev.SessionID,
		Kind:      ev.Kind,
		StepIndex: ev.StepIndex,
		Detail:    ev.Detail,
	}
	go func() {
		wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.Append(wctx, entry); err != nil {
			s.logger.Warn(wctx, "dropping transcript event", map[string]interface{}{
				"error":      err.Error(),
				"session_id": ev.SessionID,
				"kind":       ev.Kind,
			})
		}
	}()
}
