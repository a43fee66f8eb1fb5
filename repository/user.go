package repository

import (
	"context"

	"github.com/auditrail/backend/domain"
)

type UserRepository interface {
	// GetByID returns domain.ErrUserNotFound when no user has the id.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Insert fails with a CONFLICT domain error when the id already exists.
	Insert(ctx context.Context, user *domain.User) error
	// Update overwrites every field of an existing row, timestamps included.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.User, error)
	DeleteAll(ctx context.Context) error
}
