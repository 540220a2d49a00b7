package transcript

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hairizuan-noorazman/screen-guide/logger"
)

// Store defines the interface for transcript persistence operations.
type Store interface {
	// Append records one entry.
	Append(ctx context.Context, entry *Entry) error

	// ListBySession retrieves a session's entries in chronological order.
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*Entry, error)

	// Sessions lists the distinct session IDs present, newest first.
	Sessions(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// SQLiteStore implements Store using GORM over SQLite.
type SQLiteStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// Open opens (or creates) the transcript database at path and runs
// migrations. Use ":memory:" for an ephemeral store.
func Open(path string, log logger.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript database: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate transcript database: %w", err)
	}
	return NewSQLiteStore(db, log), nil
}

// NewSQLiteStore wraps an already-open database.
func NewSQLiteStore(db *gorm.DB, log logger.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: log,
	}
}

// Append records one entry.
func (s *SQLiteStore) Append(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		s.logger.Error(ctx, "failed to append transcript entry", map[string]interface{}{
			"error":      err.Error(),
			"session_id": entry.SessionID,
			"kind":       entry.Kind,
		})
		return err
	}
	return nil
}

// ListBySession retrieves a session's entries in chronological order.
func (s *SQLiteStore) ListBySession(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	var entries []*Entry
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		s.logger.Error(ctx, "failed to list transcript entries", map[string]interface{}{
			"error":      err.Error(),
			"session_id": sessionID,
		})
		return nil, err
	}
	return entries, nil
}

// Sessions lists the distinct session IDs present, newest first.
func (s *SQLiteStore) Sessions(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&Entry{}).
		Select("session_id").
		Group("session_id").
		Order("MAX(created_at) DESC").
		Limit(limit).
		Pluck("session_id", &ids).Error
	if err != nil {
		s.logger.Error(ctx, "failed to list transcript sessions", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return ids, nil
}
