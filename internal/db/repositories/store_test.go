package repositories

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"synq/backend/internal/constants"
	"synq/backend/internal/db"
	"synq/backend/internal/domainerr"
	models "synq/backend/internal/models/gorm"
)

// setupTestDB opens a private in-memory SQLite database. A single pooled
// connection keeps every query on the same database and serializes writers.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(models.AllModels()...), "failed to migrate")
	return gdb
}

func seedUser(t *testing.T, store *Store, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@synq.test",
		Status:   constants.UserStatusActive,
	}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func seedFrequency(t *testing.T, store *Store, slug string, owner *models.User) *models.Frequency {
	t.Helper()
	f := &models.Frequency{
		Name:            slug,
		Slug:            slug,
		OwnerID:         owner.ID,
		MaxParticipants: 10,
	}
	require.NoError(t, store.Frequencies.Create(context.Background(), f))
	return f
}

func TestBaseModel_CreateAssignsExternalID(t *testing.T) {
	store := NewStore(setupTestDB(t))
	u := seedUser(t, store, "alice")

	assert.NotZero(t, u.ID)
	assert.Len(t, u.ExternalID, 36)
	assert.True(t, u.Active)
	assert.Equal(t, int64(0), u.Version)

	byExt, err := store.Users.GetByExternalID(context.Background(), u.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byExt.ID)
}

func TestUserRepository_DuplicateUsernameIsConflict(t *testing.T) {
	store := NewStore(setupTestDB(t))
	seedUser(t, store, "alice")

	err := store.Users.Create(context.Background(), &models.User{
		Username: "alice",
		Email:    "other@synq.test",
		Status:   constants.UserStatusActive,
	})
	require.Error(t, err)
	assert.Equal(t, domainerr.KindConflict, domainerr.KindOf(err))
}

func TestUserRepository_NotFound(t *testing.T) {
	store := NewStore(setupTestDB(t))

	_, err := store.Users.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
}

func TestUpdateVersioned_StaleWriteIsConflict(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))
	u := seedUser(t, store, "alice")

	first, err := store.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	second, err := store.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)

	first.DisplayName = "Alice"
	require.NoError(t, store.Users.Update(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	second.DisplayName = "Mallory"
	err = store.Users.Update(ctx, second)
	require.Error(t, err)
	assert.Equal(t, domainerr.KindConflict, domainerr.KindOf(err))
	assert.Equal(t, int64(0), second.Version, "version must be restored after a failed write")

	reloaded, err := store.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", reloaded.DisplayName)
}

func TestFrequencyRepository_UpdateKeepsSlug(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))
	f := seedFrequency(t, store, "general", seedUser(t, store, "alice"))

	f.Slug = "renamed"
	f.Name = "General"
	require.NoError(t, store.Frequencies.Update(ctx, f))

	reloaded, err := store.Frequencies.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "general", reloaded.Slug)
	assert.Equal(t, "General", reloaded.Name)
}

func TestMembershipRepository_UniquePair(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))
	alice := seedUser(t, store, "alice")
	f := seedFrequency(t, store, "general", alice)

	m := &models.Membership{UserID: alice.ID, FrequencyID: f.ID, Role: constants.MembershipOwner, JoinedAt: time.Now().UTC()}
	require.NoError(t, store.Memberships.Create(ctx, m))

	dup := &models.Membership{UserID: alice.ID, FrequencyID: f.ID, Role: constants.MembershipMember, JoinedAt: time.Now().UTC()}
	err := store.Memberships.Create(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, domainerr.KindConflict, domainerr.KindOf(err))

	count, err := store.Memberships.CountByFrequency(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInviteRepository_IncrementUsesIsGuarded(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))
	alice := seedUser(t, store, "alice")
	f := seedFrequency(t, store, "general", alice)

	inv := &models.Invite{
		Token:       "abcdef0123456789",
		FrequencyID: f.ID,
		InviterID:   alice.ID,
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
		MaxUses:     2,
		RoleOnJoin:  constants.MembershipMember,
	}
	require.NoError(t, store.Invites.Create(ctx, inv))

	for i := 0; i < 2; i++ {
		ok, err := store.Invites.IncrementUses(ctx, inv.ID, time.Now().UTC())
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := store.Invites.IncrementUses(ctx, inv.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := store.Invites.GetByToken(ctx, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.UsesCount)
}

func TestFrequencyRepository_DeleteCascade(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))
	alice := seedUser(t, store, "alice")
	keep := seedFrequency(t, store, "keep", alice)
	drop := seedFrequency(t, store, "drop", alice)

	for _, f := range []*models.Frequency{keep, drop} {
		require.NoError(t, store.Memberships.Create(ctx, &models.Membership{
			UserID: alice.ID, FrequencyID: f.ID, Role: constants.MembershipOwner, JoinedAt: time.Now().UTC(),
		}))
		require.NoError(t, store.Messages.Create(ctx, &models.Message{
			FrequencyID: f.ID,
			AuthorID:    alice.ID,
			Content:     "hello " + f.Slug,
			Type:        constants.MessageTypeImage,
			Attachments: []models.Attachment{{UploaderID: alice.ID, FileURL: "https://cdn.test/" + f.Slug}},
		}))
		require.NoError(t, store.Invites.Create(ctx, &models.Invite{
			Token: "tok-" + f.Slug, FrequencyID: f.ID, InviterID: alice.ID,
			ExpiresAt: time.Now().UTC().Add(time.Hour), MaxUses: 1, RoleOnJoin: constants.MembershipMember,
		}))
	}

	require.NoError(t, store.Frequencies.DeleteCascade(ctx, drop.ID))

	_, err := store.Frequencies.GetByID(ctx, drop.ID)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)

	gdb := store.DB()
	var n int64
	gdb.Model(&models.Message{}).Where("frequency_id = ?", drop.ID).Count(&n)
	assert.Zero(t, n)
	gdb.Model(&models.Membership{}).Where("frequency_id = ?", drop.ID).Count(&n)
	assert.Zero(t, n)
	gdb.Model(&models.Invite{}).Where("frequency_id = ?", drop.ID).Count(&n)
	assert.Zero(t, n)
	gdb.Model(&models.Attachment{}).Count(&n)
	assert.Equal(t, int64(1), n, "only the kept frequency's attachment remains")

	gdb.Model(&models.Message{}).Where("frequency_id = ?", keep.ID).Count(&n)
	assert.Equal(t, int64(1), n)

	err = store.Frequencies.DeleteCascade(ctx, drop.ID)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
}

func TestMessageRepository_ThreadIDsByAuthor(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	f := seedFrequency(t, store, "general", alice)

	post := func(author *models.User, parent *int64) *models.Message {
		m := &models.Message{FrequencyID: f.ID, AuthorID: author.ID, Content: "x", Type: constants.MessageTypeText, ReplyToID: parent}
		require.NoError(t, store.Messages.Create(ctx, m))
		return m
	}

	root := post(alice, nil)
	reply := post(bob, &root.ID)
	nested := post(bob, &reply.ID)
	unrelated := post(bob, nil)

	ids, err := store.Messages.ThreadIDsByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{root.ID, reply.ID, nested.ID}, ids)
	assert.NotContains(t, ids, unrelated.ID)

	require.NoError(t, store.Messages.DeleteByIDs(ctx, ids))
	_, err = store.Messages.GetByID(ctx, unrelated.ID)
	assert.NoError(t, err)
	_, err = store.Messages.GetByID(ctx, nested.ID)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))

	err := store.Transaction(ctx, func(tx *Store) error {
		seedUser(t, tx, "ghost")
		return domainerr.Conflict("abort")
	})
	require.Error(t, err)

	exists, err := store.Users.ExistsByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRoleRepository_EnsureRoleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))

	created, err := store.Roles.EnsureRole(ctx, constants.UserRoleAdmin, constants.UserRoleAdmin.Description())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Roles.EnsureRole(ctx, constants.UserRoleAdmin, constants.UserRoleAdmin.Description())
	require.NoError(t, err)
	assert.False(t, created)

	roles, err := store.Roles.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}
