// Package transcript persists the event log of a guidance run: plan arrival,
// highlighted steps, confirmations, deviations, recoveries, and the final
// outcome. The log survives the session so a run can be reviewed afterwards.
package transcript

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrEntryNotFound is returned when no transcript entry matches.
	ErrEntryNotFound = errors.New("transcript entry not found")

	// ErrInvalidSessionID is returned when session_id is not set.
	ErrInvalidSessionID = errors.New("session_id is required")

	// ErrInvalidKind is returned when kind is not set.
	ErrInvalidKind = errors.New("kind is required")
)

// Entry is one recorded event in a guidance run.
type Entry struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	SessionID uuid.UUID `json:"session_id" gorm:"type:char(36);not null;index:idx_session_id"`
	Kind      string    `json:"kind" gorm:"type:varchar(32);not null;index:idx_kind"`
	StepIndex int       `json:"step_index" gorm:"not null"`
	Detail    string    `json:"detail" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_created_at"`
}

// BeforeCreate hook to generate a UUID before inserting a new entry
func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Validate checks that the entry has its required fields.
func (e *Entry) Validate() error {
	if e.SessionID == uuid.Nil {
		return ErrInvalidSessionID
	}
	if e.Kind == "" {
		return ErrInvalidKind
	}
	return nil
}
