package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/auditrail/backend/domain"
	"github.com/auditrail/backend/repository"
)

type logRepository struct {
	q querier
}

func (r *logRepository) GetByID(ctx context.Context, id string) (*domain.ActivityLog, error) {
	const query = `
		SELECT id, user_id, action, attributes, created_at, updated_at
		FROM activity_logs
		WHERE id = $1
	`
	log, err := scanLog(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLogNotFound
		}
		return nil, err
	}
	return log, nil
}

func (r *logRepository) Insert(ctx context.Context, log *domain.ActivityLog) error {
	if log == nil || log.ID == "" {
		return domain.ErrInvalidPayload
	}

	attributes, err := json.Marshal(log.Attributes)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO activity_logs (id, user_id, action, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.q.Exec(ctx, query, log.ID, log.UserID, string(log.Action), attributes, log.CreatedAt, log.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.NewErrorf(domain.ErrCodeConflict, "activity log with id %s already exists", log.ID)
		}
		return err
	}
	return nil
}

func (r *logRepository) List(ctx context.Context, filter repository.LogFilter) ([]domain.ActivityLog, error) {
	// seq preserves insertion order, the order a replay must reproduce.
	query := `
		SELECT id, user_id, action, attributes, created_at, updated_at
		FROM activity_logs
		ORDER BY seq
	`
	args := []any{}
	if filter.UserID != "" {
		query = `
			SELECT id, user_id, action, attributes, created_at, updated_at
			FROM activity_logs
			WHERE user_id = $1
			ORDER BY seq
		`
		args = append(args, filter.UserID)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []domain.ActivityLog{}
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, rows.Err()
}

func (r *logRepository) DeleteAll(ctx context.Context) error {
	_, err := r.q.Exec(ctx, `DELETE FROM activity_logs`)
	return err
}

func scanLog(row pgx.Row) (*domain.ActivityLog, error) {
	var log domain.ActivityLog
	var action string
	var attributes []byte

	if err := row.Scan(&log.ID, &log.UserID, &action, &attributes, &log.CreatedAt, &log.UpdatedAt); err != nil {
		return nil, err
	}
	log.Action = domain.Action(action)
	if err := json.Unmarshal(attributes, &log.Attributes); err != nil {
		return nil, err
	}
	return &log, nil
}
