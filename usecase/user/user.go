// Package user implements the mutation façade over the user collection.
// Every successful mutation records exactly one activity log entry inside
// the same store transaction.
package user

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auditrail/backend/domain"
	"github.com/auditrail/backend/internal/schema"
	"github.com/auditrail/backend/pkg/timefmt"
	"github.com/auditrail/backend/repository"
	"github.com/auditrail/backend/usecase"
	"github.com/auditrail/backend/usecase/activity"
)

// Patch carries a partial update; nil fields are left unchanged.
type Patch struct {
	Email *string
	Name  *string
}

type UseCase struct {
	store    repository.Store
	recorder *activity.Recorder
	guard    *usecase.ReplayGuard
	logger   *zap.Logger
}

func New(store repository.Store, recorder *activity.Recorder, guard *usecase.ReplayGuard, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:    store,
		recorder: recorder,
		guard:    guard,
		logger:   logger,
	}
}

// Create validates the payload, inserts the user with a fresh id and current
// timestamps, and records the creation. Validation failures never touch the
// store.
func (uc *UseCase) Create(ctx context.Context, email, name string) (*domain.User, error) {
	if errs := schema.ValidateNewUser(email, name); len(errs) > 0 {
		return nil, invalid(errs)
	}

	release := uc.guard.Mutate()
	defer release()

	now := timefmt.Now()
	user := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Users().Insert(ctx, user); err != nil {
			return err
		}
		_, err := uc.recorder.Record(ctx, tx.ActivityLogs(), domain.ActionCreate, user.ID, domain.Snapshot(*user))
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("user created", zap.String("user_id", user.ID))
	return user, nil
}

// Update applies the supplied subset of fields, refreshes updated_at, and
// records the post-mutation snapshot.
func (uc *UseCase) Update(ctx context.Context, id string, patch Patch) (*domain.User, error) {
	if errs := schema.ValidateUserPatch(patch.Email, patch.Name); len(errs) > 0 {
		return nil, invalid(errs)
	}

	release := uc.guard.Mutate()
	defer release()

	var user *domain.User
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if patch.Email != nil {
			user.Email = *patch.Email
		}
		if patch.Name != nil {
			user.Name = *patch.Name
		}
		user.UpdatedAt = timefmt.Now()

		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		_, err = uc.recorder.Record(ctx, tx.ActivityLogs(), domain.ActionUpdate, user.ID, domain.Snapshot(*user))
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("user updated", zap.String("user_id", id))
	return user, nil
}

// Delete removes the user and records the snapshot captured before removal.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	release := uc.guard.Mutate()
	defer release()

	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		snapshot := domain.Snapshot(*user)

		if err := tx.Users().Delete(ctx, id); err != nil {
			return err
		}
		_, err = uc.recorder.Record(ctx, tx.ActivityLogs(), domain.ActionDelete, id, snapshot)
		return err
	})
	if err != nil {
		return err
	}

	uc.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.User, error) {
	return uc.store.Users().GetByID(ctx, id)
}

func (uc *UseCase) List(ctx context.Context) ([]domain.User, error) {
	return uc.store.Users().List(ctx)
}

func invalid(errs []schema.FieldError) error {
	return domain.DetailedError(domain.ErrCodeInvalid, "validation failed", errs, nil)
}
