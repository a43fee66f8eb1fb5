package repository

import (
	"context"

	"github.com/auditrail/backend/domain"
)

// LogFilter narrows activity log listings. The zero value lists everything.
type LogFilter struct {
	UserID string
}

type ActivityLogRepository interface {
	// GetByID returns domain.ErrLogNotFound when no entry has the id.
	GetByID(ctx context.Context, id string) (*domain.ActivityLog, error)
	// Insert is the only write; log entries are immutable once committed.
	Insert(ctx context.Context, log *domain.ActivityLog) error
	// List returns entries in insertion order, which is the order a replay
	// of the exported sequence must follow.
	List(ctx context.Context, filter LogFilter) ([]domain.ActivityLog, error)
	DeleteAll(ctx context.Context) error
}
