package handler_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	apiHandler "github.com/auditrail/backend/api/handler"
	"github.com/auditrail/backend/api/transport"
	"github.com/auditrail/backend/domain"
	"github.com/auditrail/backend/internal/infrastructure/monitor"
	"github.com/auditrail/backend/internal/middleware"
	apiRouter "github.com/auditrail/backend/internal/router"
	"github.com/auditrail/backend/internal/schema"
	"github.com/auditrail/backend/repository/boltdb"
	"github.com/auditrail/backend/usecase"
	"github.com/auditrail/backend/usecase/activity"
	authUC "github.com/auditrail/backend/usecase/auth"
	replayUC "github.com/auditrail/backend/usecase/replay"
	userUC "github.com/auditrail/backend/usecase/user"
)

const testAdminKey = "test-admin-key"

type memorySessions struct {
	sessions map[string]domain.Session
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

type testServer struct {
	client  *fasthttp.Client
	monitor *monitor.Monitor
}

// envelope mirrors transport.Envelope with raw payloads so each test can
// decode data into its own shape.
type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  json.RawMessage `json:"error"`
}

func newTestServer(t *testing.T, withAuth bool) *testServer {
	t.Helper()

	store, err := boltdb.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	guard := usecase.NewReplayGuard()
	recorder := activity.NewRecorder(nil)

	mon := monitor.New(store, nil, 50*time.Millisecond, nil)
	mon.Start()
	t.Cleanup(mon.Stop)

	handlers := apiRouter.Handlers{
		User:     apiHandler.NewUserHandler(userUC.New(store, recorder, guard, nil), nil, nil),
		Activity: apiHandler.NewActivityHandler(activity.New(store, nil), nil, nil),
		Replay:   apiHandler.NewReplayHandler(replayUC.New(store, guard, nil), nil, nil),
		Health:   apiHandler.NewHealthHandler(mon, nil, nil),
	}

	var adminMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler
	if withAuth {
		sessions := &memorySessions{sessions: make(map[string]domain.Session)}
		auth := authUC.New(sessions, authUC.Config{
			AdminKey:  testAdminKey,
			JWTSecret: "test-signing-key",
			Issuer:    "auditrail",
			TTL:       time.Hour,
		}, nil)
		handlers.Auth = apiHandler.NewAuthHandler(auth, nil, nil)
		adminMiddleware = middleware.AdminAuth("test-signing-key", auth.ValidateSession, nil)
	}

	r := apiRouter.New(handlers, adminMiddleware)

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: r.Handler}
	go srv.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { ln.Close() })

	return &testServer{
		client: &fasthttp.Client{
			Dial: func(string) (net.Conn, error) { return ln.Dial() },
		},
		monitor: mon,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI("http://test" + path)
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		req.Header.SetContentType("application/json")
		req.SetBody(encoded)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	require.NoError(t, s.client.Do(req, resp))

	var env envelope
	if len(resp.Body()) > 0 {
		require.NoError(t, json.Unmarshal(resp.Body(), &env))
	}
	return resp.StatusCode(), env
}

func (s *testServer) createUser(t *testing.T, email, name string) transport.UserPayload {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/users", map[string]string{
		"email": email,
		"name":  name,
	}, "")
	require.Equal(t, http.StatusCreated, status)

	var user transport.UserPayload
	require.NoError(t, json.Unmarshal(env.Data, &user))
	return user
}

func (s *testServer) listLogs(t *testing.T) []schema.LogEntry {
	t.Helper()
	status, env := s.do(t, http.MethodGet, "/api/v1/logs", nil, "")
	require.Equal(t, http.StatusOK, status)

	var payload transport.LogListPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	return payload.Logs
}

func TestCreateUser(t *testing.T) {
	srv := newTestServer(t, false)

	user := srv.createUser(t, "foo@bar.com", "foo bar")
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "foo@bar.com", user.Email)
	assert.Equal(t, "foo bar", user.Name)
	assert.Regexp(t, `\.\d{6}Z$`, user.CreatedAt, "wire timestamps carry microseconds")
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestCreateUserValidationFailure(t *testing.T) {
	srv := newTestServer(t, false)

	status, env := srv.do(t, http.MethodPost, "/api/v1/users", map[string]string{
		"email": "not-an-email",
		"name":  "x",
	}, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, string(domain.ErrCodeInvalid), env.Code)

	var fields []schema.FieldError
	require.NoError(t, json.Unmarshal(env.Error, &fields))
	require.Len(t, fields, 2, "both violations reported at once")
}

// Payloads are closed-world: keys no field claims are rejected, not ignored.
func TestUnknownPayloadKeysRejected(t *testing.T) {
	srv := newTestServer(t, false)

	status, env := srv.do(t, http.MethodPost, "/api/v1/users", map[string]string{
		"email": "foo@bar.com",
		"name":  "foo bar",
		"role":  "admin",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(domain.ErrCodeInvalid), env.Code)

	created := srv.createUser(t, "foo@bar.com", "foo bar")
	status, _ = srv.do(t, http.MethodPatch, "/api/v1/users/"+created.ID, map[string]string{
		"name":     "renamed",
		"nickname": "f",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	entry := map[string]interface{}{
		"id":      created.ID,
		"user_id": created.ID,
		"action":  "create",
		"extra":   true,
	}
	status, _ = srv.do(t, http.MethodPost, "/api/v1/logs/replay",
		map[string]interface{}{"logs": []interface{}{entry}}, "")
	assert.Equal(t, http.StatusBadRequest, status, "unknown keys inside entries rejected too")
}

func TestUserLifecycle(t *testing.T) {
	srv := newTestServer(t, false)

	created := srv.createUser(t, "foo@bar.com", "foo bar")

	status, env := srv.do(t, http.MethodPatch, "/api/v1/users/"+created.ID, map[string]string{
		"name": "renamed",
	}, "")
	require.Equal(t, http.StatusOK, status)
	var updated transport.UserPayload
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, created.Email, updated.Email, "absent fields stay unchanged")
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	status, env = srv.do(t, http.MethodGet, "/api/v1/users/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, status)
	var fetched transport.UserPayload
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, updated, fetched)

	status, _ = srv.do(t, http.MethodDelete, "/api/v1/users/"+created.ID, nil, "")
	require.Equal(t, http.StatusNoContent, status)

	status, env = srv.do(t, http.MethodGet, "/api/v1/users/"+created.ID, nil, "")
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, string(domain.ErrCodeNotFound), env.Code)
}

func TestUpdateUnknownUser(t *testing.T) {
	srv := newTestServer(t, false)

	status, env := srv.do(t, http.MethodPatch, "/api/v1/users/2ce1f272-f64d-4b2c-a00f-e7aee4e87f1d",
		map[string]string{"name": "renamed"}, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "error", env.Status)
}

func TestLogListingsFollowMutations(t *testing.T) {
	srv := newTestServer(t, false)

	first := srv.createUser(t, "a@example.com", "user a")
	srv.createUser(t, "b@example.com", "user b")
	status, _ := srv.do(t, http.MethodDelete, "/api/v1/users/"+first.ID, nil, "")
	require.Equal(t, http.StatusNoContent, status)

	logs := srv.listLogs(t)
	require.Len(t, logs, 3)
	assert.Equal(t, "create", logs[0].Action)
	assert.Equal(t, "create", logs[1].Action)
	assert.Equal(t, "delete", logs[2].Action)

	status, env := srv.do(t, http.MethodGet, "/api/v1/logs/user/"+first.ID, nil, "")
	require.Equal(t, http.StatusOK, status)
	var payload transport.LogListPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.Len(t, payload.Logs, 2)
	for _, entry := range payload.Logs {
		assert.Equal(t, first.ID, entry.UserID)
	}
}

func TestReplayRequiresLogsKey(t *testing.T) {
	srv := newTestServer(t, false)

	status, env := srv.do(t, http.MethodPost, "/api/v1/logs/replay", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(domain.ErrCodeInvalid), env.Code)
}

// The log listing payload feeds straight back into the replay endpoint: the
// whole capture-wipe-restore loop runs over the wire.
func TestReplayRoundTripOverHTTP(t *testing.T) {
	srv := newTestServer(t, false)

	created := srv.createUser(t, "foo@bar.com", "foo bar")
	status, _ := srv.do(t, http.MethodPatch, "/api/v1/users/"+created.ID,
		map[string]string{"name": "renamed"}, "")
	require.Equal(t, http.StatusOK, status)

	captured := srv.listLogs(t)
	require.Len(t, captured, 2)

	// Empty sequence wipes everything.
	status, _ = srv.do(t, http.MethodPost, "/api/v1/logs/replay",
		map[string]interface{}{"logs": []schema.LogEntry{}}, "")
	require.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, srv.listLogs(t))

	status, _ = srv.do(t, http.MethodPost, "/api/v1/logs/replay",
		transport.LogListPayload{Logs: captured}, "")
	require.Equal(t, http.StatusNoContent, status)

	assert.Equal(t, captured, srv.listLogs(t))

	status, env := srv.do(t, http.MethodGet, "/api/v1/users/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, status)
	var restored transport.UserPayload
	require.NoError(t, json.Unmarshal(env.Data, &restored))
	assert.Equal(t, "renamed", restored.Name)
	assert.Equal(t, created.CreatedAt, restored.CreatedAt, "historical timestamps survive")
}

func TestReplayConflictStatus(t *testing.T) {
	srv := newTestServer(t, false)

	srv.createUser(t, "foo@bar.com", "foo bar")
	captured := srv.listLogs(t)

	// Without wiping first, the log ids collide.
	status, env := srv.do(t, http.MethodPost, "/api/v1/logs/replay",
		transport.LogListPayload{Logs: captured}, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, string(domain.ErrCodeConflict), env.Code)
}

func TestReplayValidationDetails(t *testing.T) {
	srv := newTestServer(t, false)

	bad := schema.LogEntry{ID: "not-a-uuid", Action: "merge"}
	status, env := srv.do(t, http.MethodPost, "/api/v1/logs/replay",
		map[string]interface{}{"logs": []schema.LogEntry{bad}}, "")
	require.Equal(t, http.StatusBadRequest, status)

	var entryErrs []schema.EntryError
	require.NoError(t, json.Unmarshal(env.Error, &entryErrs))
	require.Len(t, entryErrs, 1)
	assert.Equal(t, 0, entryErrs[0].Index)
	assert.NotEmpty(t, entryErrs[0].Fields)
}

func TestReplayGuardedByAdminAuth(t *testing.T) {
	srv := newTestServer(t, true)

	wipe := map[string]interface{}{"logs": []schema.LogEntry{}}

	status, _ := srv.do(t, http.MethodPost, "/api/v1/logs/replay", wipe, "")
	assert.Equal(t, http.StatusUnauthorized, status, "no token")

	status, _ = srv.do(t, http.MethodPost, "/api/v1/logs/replay", wipe, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, status, "malformed token")

	status, env := srv.do(t, http.MethodPost, "/api/v1/auth/token",
		map[string]string{"admin_key": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "error", env.Status)

	status, env = srv.do(t, http.MethodPost, "/api/v1/auth/token",
		map[string]string{"admin_key": testAdminKey}, "")
	require.Equal(t, http.StatusCreated, status)
	var token transport.TokenPayload
	require.NoError(t, json.Unmarshal(env.Data, &token))
	require.NotEmpty(t, token.Token)

	status, _ = srv.do(t, http.MethodPost, "/api/v1/logs/replay", wipe, token.Token)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	require.Eventually(t, func() bool {
		return srv.monitor.GetStatus().Store
	}, 2*time.Second, 20*time.Millisecond, "monitor probes the store")

	status, env := srv.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, false)

	status, _ := srv.do(t, http.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}
