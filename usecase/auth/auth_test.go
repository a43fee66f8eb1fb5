package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditrail/backend/domain"
)

type memorySessions struct {
	sessions map[string]domain.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]domain.Session)}
}

func (m *memorySessions) Get(_ context.Context, id string) (*domain.Session, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (m *memorySessions) Save(_ context.Context, session *domain.Session) error {
	m.sessions[session.ID] = *session
	return nil
}

func (m *memorySessions) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func newTestUseCase(sessions *memorySessions) *UseCase {
	return New(sessions, Config{
		AdminKey:  "super-secret",
		JWTSecret: "signing-key",
		Issuer:    "auditrail",
		TTL:       time.Hour,
	}, nil)
}

func TestIssueTokenRejectsWrongKey(t *testing.T) {
	uc := newTestUseCase(newMemorySessions())

	for _, key := range []string{"", "wrong", "super-secret "} {
		_, _, err := uc.IssueToken(context.Background(), key)
		assert.ErrorIs(t, err, domain.ErrUnauthorized, "key %q", key)
	}
}

func TestIssueTokenRefusesWhenDisabled(t *testing.T) {
	uc := New(newMemorySessions(), Config{JWTSecret: "signing-key"}, nil)

	// An empty configured admin key never matches, even an empty input.
	_, _, err := uc.IssueToken(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestIssueTokenCreatesVerifiableSession(t *testing.T) {
	sessions := newMemorySessions()
	uc := newTestUseCase(sessions)

	token, session, err := uc.IssueToken(context.Background(), "super-secret")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.True(t, session.ExpiresAt.After(session.CreatedAt))

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("signing-key"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	assert.Equal(t, session.ID, claims["sid"])
	assert.Equal(t, "auditrail", claims["iss"])

	require.NoError(t, uc.ValidateSession(context.Background(), session.ID))
}

func TestValidateSessionUnknownID(t *testing.T) {
	uc := newTestUseCase(newMemorySessions())

	err := uc.ValidateSession(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestValidateSessionExpiryEvictsSession(t *testing.T) {
	sessions := newMemorySessions()
	uc := newTestUseCase(sessions)

	stale := &domain.Session{
		ID:        "stale",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, sessions.Save(context.Background(), stale))

	err := uc.ValidateSession(context.Background(), "stale")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, ok := sessions.sessions["stale"]
	assert.False(t, ok, "expired session is removed on sight")
}

func TestRevokeSession(t *testing.T) {
	sessions := newMemorySessions()
	uc := newTestUseCase(sessions)

	_, session, err := uc.IssueToken(context.Background(), "super-secret")
	require.NoError(t, err)

	require.NoError(t, uc.RevokeSession(context.Background(), session.ID))
	err = uc.ValidateSession(context.Background(), session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
