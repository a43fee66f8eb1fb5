// Package auth issues short-lived admin tokens guarding the replay surface.
package auth

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auditrail/backend/domain"
	"github.com/auditrail/backend/repository"
)

type Config struct {
	AdminKey  string
	JWTSecret string
	Issuer    string
	TTL       time.Duration
}

type UseCase struct {
	sessions repository.SessionRepository
	cfg      Config
	logger   *zap.Logger
}

func New(sessions repository.SessionRepository, cfg Config, logger *zap.Logger) *UseCase {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

// IssueToken exchanges the configured admin key for a signed bearer token
// backed by a stored session, so tokens can be revoked before expiry.
func (uc *UseCase) IssueToken(ctx context.Context, adminKey string) (string, *domain.Session, error) {
	if uc.cfg.AdminKey == "" ||
		subtle.ConstantTimeCompare([]byte(adminKey), []byte(uc.cfg.AdminKey)) != 1 {
		return "", nil, domain.ErrUnauthorized
	}

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(uc.cfg.TTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return "", nil, err
	}

	claims := jwt.MapClaims{
		"sid": session.ID,
		"iss": uc.cfg.Issuer,
		"iat": now.Unix(),
		"exp": session.ExpiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.cfg.JWTSecret))
	if err != nil {
		return "", nil, err
	}

	uc.logger.Info("admin token issued", zap.String("session_id", session.ID))
	return token, session, nil
}

// ValidateSession confirms the session behind a token is still live.
func (uc *UseCase) ValidateSession(ctx context.Context, sessionID string) error {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return domain.ErrSessionNotFound
	}
	return nil
}

// RevokeSession invalidates a token before its natural expiry.
func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}
