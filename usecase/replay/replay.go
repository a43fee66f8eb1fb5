// Package replay rebuilds user and activity-log state from a previously
// captured log sequence, or wipes both collections when handed an empty one.
package replay

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/auditrail/backend/domain"
	"github.com/auditrail/backend/internal/schema"
	"github.com/auditrail/backend/repository"
	"github.com/auditrail/backend/usecase"
)

type UseCase struct {
	store  repository.Store
	guard  *usecase.ReplayGuard
	logger *zap.Logger
}

func New(store repository.Store, guard *usecase.ReplayGuard, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:  store,
		guard:  guard,
		logger: logger,
	}
}

// Replay brings the store to the state described by the entries. An empty
// sequence wipes both collections; a non-empty one is validated in full and
// then applied in the given order as one transaction. The entries' ids and
// timestamps are preserved verbatim: the engine reproduces history, it does
// not generate new audit records. Entry order is authoritative and never
// reordered, even when the timestamps would suggest otherwise.
func (uc *UseCase) Replay(ctx context.Context, entries []schema.LogEntry) error {
	release := uc.guard.Exclusive()
	defer release()

	if len(entries) == 0 {
		return uc.wipe(ctx)
	}
	return uc.apply(ctx, entries)
}

// wipe empties both collections atomically. Wiping an already-empty store
// succeeds and leaves it empty.
func (uc *UseCase) wipe(ctx context.Context) error {
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Users().DeleteAll(ctx); err != nil {
			return err
		}
		return tx.ActivityLogs().DeleteAll(ctx)
	})
	if err != nil {
		return err
	}
	uc.logger.Info("store wiped")
	return nil
}

func (uc *UseCase) apply(ctx context.Context, entries []schema.LogEntry) error {
	// Pre-validation pass: collect every schema problem before any write so
	// a malformed entry late in the sequence cannot leave the store
	// half-mutated, and the caller learns about all of them at once.
	logs, err := decodeAll(entries)
	if err != nil {
		return err
	}

	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		for _, entry := range logs {
			if err := applyEntry(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.logger.Info("replay applied", zap.Int("entries", len(entries)))
	return nil
}

func decodeAll(entries []schema.LogEntry) ([]domain.ActivityLog, error) {
	var collected *multierror.Error
	var invalid []schema.EntryError

	logs := make([]domain.ActivityLog, 0, len(entries))
	for i, entry := range entries {
		if fields := schema.ValidateLogEntry(entry); len(fields) > 0 {
			entryErr := &schema.EntryError{Index: i, Fields: fields}
			collected = multierror.Append(collected, entryErr)
			invalid = append(invalid, *entryErr)
			continue
		}
		log, err := schema.DecodeLog(entry)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	if collected != nil {
		return nil, domain.DetailedError(domain.ErrCodeInvalid, "replay payload failed validation", invalid, collected)
	}
	return logs, nil
}

// applyEntry replays one log record against the transaction-scoped store.
// The user is resolved by the snapshot's id; the snapshot's field values and
// timestamps are applied verbatim, including created_at on update.
func applyEntry(ctx context.Context, tx repository.Store, entry domain.ActivityLog) error {
	users := tx.Users()
	target := entry.Attributes.ID

	existing, err := users.GetByID(ctx, target)
	if err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return err
	}

	switch entry.Action {
	case domain.ActionCreate:
		if existing != nil {
			return domain.NewErrorf(domain.ErrCodeConflict, "user with id %s already exists", target)
		}
		user := entry.Attributes.Restore()
		if err := users.Insert(ctx, &user); err != nil {
			return err
		}
	case domain.ActionUpdate:
		if existing == nil {
			return domain.NewErrorf(domain.ErrCodeNotFound, "user with id %s does not exist", target)
		}
		user := entry.Attributes.Restore()
		if err := users.Update(ctx, &user); err != nil {
			return err
		}
	case domain.ActionDelete:
		if existing == nil {
			return domain.NewErrorf(domain.ErrCodeNotFound, "user with id %s does not exist", target)
		}
		if err := users.Delete(ctx, target); err != nil {
			return err
		}
	default:
		// Unreachable after validation, kept as a guard.
		return domain.NewErrorf(domain.ErrCodeInvalid, "unknown action %q", entry.Action)
	}

	// Read-your-writes inside the transaction makes this catch duplicates
	// within the batch as well as entries already present in the store.
	logs := tx.ActivityLogs()
	if _, err := logs.GetByID(ctx, entry.ID); err == nil {
		return domain.NewErrorf(domain.ErrCodeConflict, "activity log with id %s already exists", entry.ID)
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return err
	}

	return logs.Insert(ctx, &entry)
}
