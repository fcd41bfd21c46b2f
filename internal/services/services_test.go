package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"synq/backend/internal/common"
	"synq/backend/internal/constants"
	"synq/backend/internal/db"
	"synq/backend/internal/db/repositories"
	"synq/backend/internal/metrics"
	models "synq/backend/internal/models/gorm"
	"synq/backend/internal/providers"
)

// stepClock advances by one millisecond on every reading so rows written in
// sequence get strictly increasing timestamps.
type stepClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newStepClock() *stepClock {
	return &stepClock{cur: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Millisecond)
	return c.cur
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

type auditEntry struct {
	actorID    *int64
	action     string
	targetType string
	targetID   int64
	data       map[string]interface{}
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (f *fakeAudit) Record(_ context.Context, actorID *int64, action, targetType string, targetID int64, data map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, auditEntry{actorID, action, targetType, targetID, data})
	return nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.action)
	}
	return out
}

type fakeIdentity struct {
	createErr error
	updateErr error
	created   []providers.IdentityUser
	updated   map[string]providers.IdentityUserUpdate
	enabled   map[string]bool
	deleted   []string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		updated: map[string]providers.IdentityUserUpdate{},
		enabled: map[string]bool{},
	}
}

func (f *fakeIdentity) CreateUser(_ context.Context, u providers.IdentityUser) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, u)
	return fmt.Sprintf("kc-%s", u.Username), nil
}

func (f *fakeIdentity) UpdateUser(_ context.Context, id string, u providers.IdentityUserUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated[id] = u
	return nil
}

func (f *fakeIdentity) DeleteUser(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIdentity) SetUserEnabled(_ context.Context, id string, enabled bool) error {
	f.enabled[id] = enabled
	return nil
}

func (f *fakeIdentity) GetProviderType() string { return "fake" }

type testEnv struct {
	ctx         context.Context
	store       *repositories.Store
	clock       *stepClock
	audit       *fakeAudit
	identity    *fakeIdentity
	metrics     *metrics.MetricsRegistry
	cache       *common.CacheService
	users       *UserService
	roles       *RoleService
	frequencies *FrequencyService
	memberships *MembershipService
	invites     *InviteService
	messages    *MessageService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(models.AllModels()...), "failed to migrate")
	return gdb
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repositories.NewStore(setupTestDB(t))
	clock := newStepClock()
	audit := &fakeAudit{}
	identity := newFakeIdentity()
	reg := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	cache := common.NewCacheService(time.Minute, time.Minute)

	env := &testEnv{
		ctx:      context.Background(),
		store:    store,
		clock:    clock,
		audit:    audit,
		identity: identity,
		metrics:  reg,
		cache:    cache,
	}
	env.users = NewUserService(store, identity, cache, audit, reg)
	env.roles = NewRoleService(store)
	env.frequencies = NewFrequencyService(store, cache, audit, reg)
	env.memberships = NewMembershipService(store, audit, reg)
	env.invites = NewInviteService(store, env.memberships, audit, reg)
	env.messages = NewMessageService(store, env.memberships, audit, reg)

	env.users.now = clock.Now
	env.frequencies.now = clock.Now
	env.memberships.now = clock.Now
	env.invites.now = clock.Now
	env.messages.now = clock.Now

	_, err := env.roles.EnsureDefaultRoles(env.ctx)
	require.NoError(t, err)
	return env
}

func (e *testEnv) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := e.users.CreateUser(e.ctx, CreateUserInput{
		Username: username,
		Email:    username + "@synq.test",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) frequency(t *testing.T, slug string, owner *models.User, maxParticipants int, private bool) *models.Frequency {
	t.Helper()
	f, err := e.frequencies.CreateFrequency(e.ctx, CreateFrequencyInput{
		Name:            slug,
		Slug:            slug,
		IsPrivate:       private,
		MaxParticipants: maxParticipants,
	}, owner.ID)
	require.NoError(t, err)
	return f
}

func (e *testEnv) join(t *testing.T, u *models.User, f *models.Frequency) *models.Membership {
	t.Helper()
	m, err := e.memberships.JoinFrequency(e.ctx, u.ID, f.ID, nil, nil)
	require.NoError(t, err)
	return m
}

func roleRef(r constants.MembershipRole) *constants.MembershipRole { return &r }

func intRef(i int) *int { return &i }

func strRef(s string) *string { return &s }
