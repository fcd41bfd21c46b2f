package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"synq/backend/internal/api"
	"synq/backend/internal/auth"
	"synq/backend/internal/config"
	"synq/backend/internal/constants"
	"synq/backend/internal/db"
	"synq/backend/internal/metrics"
	models "synq/backend/internal/models/gorm"
	"synq/backend/internal/services"
)

const (
	testSecret = "router-secret"

	sqliteSupportDDL = `
CREATE TABLE audit_logs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	actor_id    INTEGER,
	action_type TEXT NOT NULL,
	target_type TEXT NOT NULL,
	target_id   INTEGER NOT NULL,
	data        TEXT,
	created_at  DATETIME NOT NULL
);
CREATE TABLE api_keys (
	id         TEXT PRIMARY KEY,
	label      TEXT NOT NULL,
	status     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at DATETIME NOT NULL
);`
)

type envelope struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		TotalElements int64  `json:"totalElements"`
		NextCursor    string `json:"nextCursor"`
	} `json:"pagination"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	deps    *api.Dependencies
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:routes_%s?mode=memory&cache=shared", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(models.AllModels()...), "failed to migrate")
	return gdb
}

func newTestServer(t *testing.T, rateLimit config.RateLimitConfig) *testServer {
	t.Helper()

	gdb := setupTestDB(t)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(sqlDB, "sqlite3")
	_, err = sqlxDB.Exec(sqliteSupportDDL)
	require.NoError(t, err)

	deps := api.InitDependencies(api.Infrastructure{
		ORM:     gdb,
		SQL:     sqlxDB,
		Metrics: metrics.NewMetricsRegistry(prometheus.NewRegistry()),
	})
	_, err = deps.Services.Roles.EnsureDefaultRoles(context.Background())
	require.NoError(t, err)

	cfg := &config.Config{
		Auth:      config.AuthConfig{JWTSecret: testSecret},
		RateLimit: rateLimit,
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	return &testServer{
		t:       t,
		handler: RegisterRoutes(cfg, deps, time.Now()),
		deps:    deps,
	}
}

func defaultRateLimit() config.RateLimitConfig {
	return config.RateLimitConfig{RedeemPerMinute: 600, Burst: 50}
}

func token(t *testing.T, username string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.TokenClaims{
		PreferredUsername: username,
		Email:             username + "@synq.test",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "kc-" + username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(method, path, user string, body any) (int, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(s.t, user))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

// id extracts data.id from a successful response.
func (s *testServer) id(env envelope) string {
	s.t.Helper()
	var body struct {
		ID string `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &body))
	require.NotEmpty(s.t, body.ID)
	return body.ID
}

func (s *testServer) me(user string) string {
	s.t.Helper()
	code, env := s.do(http.MethodGet, "/api/v1/users/me", user, nil)
	require.Equal(s.t, http.StatusOK, code)
	return s.id(env)
}

func (s *testServer) createFrequency(owner, slug string, maxParticipants int, private bool) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/frequencies", owner, map[string]any{
		"name":            slug,
		"slug":            slug,
		"isPrivate":       private,
		"maxParticipants": maxParticipants,
	})
	require.Equal(s.t, http.StatusCreated, code, env.Message)
	return s.id(env)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())

	req := httptest.NewRequest(http.MethodGet, "/healthCheck", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAPIRequiresAuthentication(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())

	code, env := s.do(http.MethodGet, "/api/v1/frequencies", "", nil)

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Error)
}

func TestJoinCapacityAndDuplicates(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	freq := s.createFrequency("alice", "general", 2, false)

	code, env := s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/members", "bob", nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Contains(t, string(env.Data), `"role":"MEMBER"`)

	code, env = s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/members", "bob", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", env.Error)

	code, env = s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/members", "carol", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CAPACITY_EXCEEDED", env.Error)

	code, env = s.do(http.MethodGet, "/api/v1/frequencies/"+freq+"/members", "carol", nil)
	require.Equal(t, http.StatusOK, code)
	var members []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &members))
	assert.Len(t, members, 2)
}

func TestSelfJoinIgnoresRequestedRole(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	freq := s.createFrequency("alice", "open", 10, false)

	code, env := s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/members", "mallory", map[string]any{"role": "OWNER"})

	require.Equal(t, http.StatusCreated, code)
	assert.Contains(t, string(env.Data), `"role":"MEMBER"`)
}

func TestPrivateFrequencyNeedsInvite(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	freq := s.createFrequency("alice", "secret", 10, true)

	code, _ := s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/members", "bob", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/api/v1/frequencies/"+freq, "bob", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/invites", "alice", map[string]any{"maxUses": 1})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var invite struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &invite))
	require.Len(t, invite.Token, constants.InviteTokenLength)

	code, env = s.do(http.MethodPost, "/api/v1/invites/"+invite.Token+"/redeem", "bob", nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Contains(t, string(env.Data), `"role":"MEMBER"`)

	code, env = s.do(http.MethodPost, "/api/v1/invites/"+invite.Token+"/redeem", "carol", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "DOMAIN_INVALID", env.Error)

	code, _ = s.do(http.MethodGet, "/api/v1/frequencies/"+freq, "bob", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestInviteRoleCannotExceedInviter(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	freq := s.createFrequency("alice", "ranks", 10, false)
	code, _ := s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/members", "bob", nil)
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/invites", "bob", map[string]any{"roleOnJoin": "MODERATOR"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/api/v1/frequencies/"+freq+"/invites", "bob", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/invites", "carol", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestMessageFlow(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	freq := s.createFrequency("alice", "chat", 10, false)

	code, env := s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/messages", "bob", map[string]any{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error)

	code, env = s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/messages", "alice", map[string]any{"content": "hello"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	parent := s.id(env)

	code, env = s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/messages", "alice", map[string]any{
		"content":   "thread",
		"replyToId": parent,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Contains(t, string(env.Data), `"replyToId":"`+parent+`"`)

	code, env = s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/messages", "alice", map[string]any{
		"content":   "lost",
		"replyToId": "00000000-0000-0000-0000-000000000000",
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, constants.MsgReplyTargetNotFound, env.Message)

	code, env = s.do(http.MethodGet, "/api/v1/messages/"+parent+"/replies", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "thread")

	code, _ = s.do(http.MethodDelete, "/api/v1/messages/"+parent, "bob", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodDelete, "/api/v1/messages/"+parent, "alice", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodGet, "/api/v1/messages/"+parent, "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"content":""`)
	assert.Contains(t, string(env.Data), `"deletedAt"`)

	code, env = s.do(http.MethodGet, "/api/v1/frequencies/"+freq+"/messages", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(1), env.Pagination.TotalElements)

	code, env = s.do(http.MethodGet, "/api/v1/frequencies/"+freq+"/messages?before=not-a-time", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "BAD_REQUEST", env.Error)

	code, env = s.do(http.MethodGet, "/api/v1/frequencies/"+freq+"/messages?before="+time.Now().Add(time.Hour).UTC().Format(time.RFC3339), "alice", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Pagination)
	assert.Empty(t, env.Pagination.NextCursor)
}

func TestModerationRequiresHigherRank(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	freq := s.createFrequency("alice", "mod", 10, false)
	aliceID := s.me("alice")
	bobID := s.me("bob")
	code, _ := s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/members", "bob", nil)
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.do(http.MethodPut, "/api/v1/frequencies/"+freq+"/members/"+aliceID+"/ban", "bob", map[string]any{"banned": true})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(http.MethodPut, "/api/v1/frequencies/"+freq+"/members/"+bobID+"/ban", "alice", map[string]any{"banned": true})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, string(env.Data), `"banned":true`)

	until := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	code, env = s.do(http.MethodPut, "/api/v1/frequencies/"+freq+"/members/"+bobID+"/mute", "alice", map[string]any{"until": until})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, string(env.Data), `"mutedUntil"`)

	code, env = s.do(http.MethodPut, "/api/v1/frequencies/"+freq+"/members/"+aliceID+"/role", "alice", map[string]any{"role": "MEMBER"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVARIANT_VIOLATION", env.Error)

	code, _ = s.do(http.MethodDelete, "/api/v1/frequencies/"+freq+"/members/me", "alice", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPut, "/api/v1/frequencies/"+freq+"/members/"+bobID+"/role", "alice", map[string]any{"role": "OWNER"})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodDelete, "/api/v1/frequencies/"+freq+"/members/me", "alice", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestFrequencyOwnerOnlyWrites(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	freq := s.createFrequency("alice", "owned", 10, false)
	code, _ := s.do(http.MethodPost, "/api/v1/frequencies/"+freq+"/members", "bob", nil)
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.do(http.MethodPut, "/api/v1/frequencies/"+freq, "bob", map[string]any{"name": "renamed"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(http.MethodPut, "/api/v1/frequencies/"+freq, "alice", map[string]any{"name": "renamed"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"name":"renamed"`)

	code, env = s.do(http.MethodGet, "/api/v1/frequencies/slug/owned", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"name":"renamed"`)

	code, env = s.do(http.MethodGet, "/api/v1/frequencies?owner=me", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), freq)

	code, _ = s.do(http.MethodDelete, "/api/v1/frequencies/"+freq, "alice", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/v1/frequencies/"+freq, "alice", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	aliceID := s.me("alice")
	bobID := s.me("bob")

	code, _ := s.do(http.MethodGet, "/api/v1/users", "alice", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(http.MethodGet, "/api/v1/users/"+aliceID, "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), "email")

	code, _ = s.do(http.MethodPut, "/api/v1/users/"+aliceID, "bob", map[string]any{"displayName": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPut, "/api/v1/users/"+bobID, "bob", map[string]any{"roles": []string{"ADMIN"}})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPut, "/api/v1/users/"+bobID, "bob", map[string]any{"displayName": "Bob"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"displayName":"Bob"`)

	// promote alice directly, then use the admin-only routes
	alice, err := s.deps.Services.Users.GetUserByExternalID(context.Background(), aliceID)
	require.NoError(t, err)
	_, err = s.deps.Services.Users.UpdateUser(context.Background(), alice.ID, services.UpdateUserInput{
		Roles: []constants.UserRole{constants.UserRoleAdmin, constants.UserRoleUser},
	})
	require.NoError(t, err)

	code, env = s.do(http.MethodGet, "/api/v1/users?size=1", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(2), env.Pagination.TotalElements)

	code, env = s.do(http.MethodPost, "/api/v1/users", "alice", map[string]any{"username": "dave", "email": "dave@synq.test"})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, _ = s.do(http.MethodGet, "/api/v1/users/username/dave", "bob", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodDelete, "/api/v1/users/"+bobID, "alice", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodGet, "/api/v1/roles", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "MANAGER")
}

func TestRedeemIsRateLimited(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{RedeemPerMinute: 1, Burst: 1})

	code, _ := s.do(http.MethodPost, "/api/v1/invites/unknown/redeem", "bob", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env := s.do(http.MethodPost, "/api/v1/invites/unknown/redeem", "bob", nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Error)
}
