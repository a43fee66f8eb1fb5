package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/auditrail/backend/domain"
	"github.com/auditrail/backend/repository"
)

// Entries live under a monotonically increasing sequence key so listings come
// back in insertion order; a side bucket maps entry id to sequence key for
// existence checks.
type logRepository struct {
	run runner
}

func (r *logRepository) GetByID(ctx context.Context, id string) (*domain.ActivityLog, error) {
	var log *domain.ActivityLog
	err := r.run.view(func(tx *bolt.Tx) error {
		seqKey := tx.Bucket(bucketLogIDs).Get([]byte(id))
		if seqKey == nil {
			return domain.ErrLogNotFound
		}
		raw := tx.Bucket(bucketLogs).Get(seqKey)
		if raw == nil {
			return domain.ErrLogNotFound
		}
		log = &domain.ActivityLog{}
		return json.Unmarshal(raw, log)
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

func (r *logRepository) Insert(ctx context.Context, log *domain.ActivityLog) error {
	if log == nil || log.ID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(log)
	if err != nil {
		return err
	}
	return r.run.update(func(tx *bolt.Tx) error {
		ids := tx.Bucket(bucketLogIDs)
		if ids.Get([]byte(log.ID)) != nil {
			return domain.NewErrorf(domain.ErrCodeConflict, "activity log with id %s already exists", log.ID)
		}

		logs := tx.Bucket(bucketLogs)
		seq, err := logs.NextSequence()
		if err != nil {
			return err
		}
		seqKey := make([]byte, 8)
		binary.BigEndian.PutUint64(seqKey, seq)

		if err := logs.Put(seqKey, payload); err != nil {
			return err
		}
		return ids.Put([]byte(log.ID), seqKey)
	})
}

func (r *logRepository) List(ctx context.Context, filter repository.LogFilter) ([]domain.ActivityLog, error) {
	logs := []domain.ActivityLog{}
	err := r.run.view(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLogs).ForEach(func(k, v []byte) error {
			var log domain.ActivityLog
			if err := json.Unmarshal(v, &log); err != nil {
				return err
			}
			if filter.UserID != "" && log.UserID != filter.UserID {
				return nil
			}
			logs = append(logs, log)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *logRepository) DeleteAll(ctx context.Context) error {
	return r.run.update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketLogs, bucketLogIDs} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
