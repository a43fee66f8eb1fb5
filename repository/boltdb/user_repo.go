package boltdb

import (
	"context"
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/auditrail/backend/domain"
)

type userRepository struct {
	run runner
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := r.run.view(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketUsers).Get([]byte(id))
		if raw == nil {
			return domain.ErrUserNotFound
		}
		user = &domain.User{}
		return json.Unmarshal(raw, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Insert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.run.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		if b.Get([]byte(user.ID)) != nil {
			return domain.NewErrorf(domain.ErrCodeConflict, "user with id %s already exists", user.ID)
		}
		return b.Put([]byte(user.ID), payload)
	})
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.run.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		if b.Get([]byte(user.ID)) == nil {
			return domain.ErrUserNotFound
		}
		return b.Put([]byte(user.ID), payload)
	})
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.run.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		if b.Get([]byte(id)) == nil {
			return domain.ErrUserNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := r.run.view(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUsers).ForEach(func(k, v []byte) error {
			var user domain.User
			if err := json.Unmarshal(v, &user); err != nil {
				return err
			}
			users = append(users, user)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) DeleteAll(ctx context.Context) error {
	return r.run.update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketUsers); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketUsers)
		return err
	})
}
