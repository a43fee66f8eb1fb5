// Package activity implements the activity recorder: one immutable log entry
// per successful user mutation.
package activity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auditrail/backend/domain"
	"github.com/auditrail/backend/pkg/timefmt"
	"github.com/auditrail/backend/repository"
)

// Recorder appends activity log entries. It trusts its caller: the action and
// snapshot are persisted as given, only the entry id and timestamps are fresh.
type Recorder struct {
	logger *zap.Logger
}

func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger}
}

// Record writes one entry through the supplied repository, which is expected
// to be scoped to the same transaction as the mutation it describes. Store
// failures propagate unchanged.
func (r *Recorder) Record(ctx context.Context, logs repository.ActivityLogRepository, action domain.Action, userID string, snapshot domain.UserSnapshot) (*domain.ActivityLog, error) {
	now := timefmt.Now()
	entry := &domain.ActivityLog{
		ID:         uuid.NewString(),
		UserID:     userID,
		Action:     action,
		Attributes: snapshot,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := logs.Insert(ctx, entry); err != nil {
		return nil, err
	}

	r.logger.Debug("activity recorded",
		zap.String("log_id", entry.ID),
		zap.String("user_id", userID),
		zap.String("action", string(action)),
	)
	return entry, nil
}

// UseCase serves the read side of the activity log.
type UseCase struct {
	store  repository.Store
	logger *zap.Logger
}

func New(store repository.Store, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{store: store, logger: logger}
}

// ListLogs returns entries in insertion order, optionally narrowed to the
// user they reference. The referenced user may no longer exist.
func (uc *UseCase) ListLogs(ctx context.Context, userID string) ([]domain.ActivityLog, error) {
	return uc.store.ActivityLogs().List(ctx, repository.LogFilter{UserID: userID})
}
