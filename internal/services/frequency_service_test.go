package services

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
)

func TestCreateFrequency(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	freq, err := env.frequencies.CreateFrequency(env.ctx, CreateFrequencyInput{
		Name:     "Lo-fi beats",
		Slug:     "lofi",
		Settings: map[string]interface{}{"slowMode": true},
	}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultMaxParticipants, freq.MaxParticipants)
	assert.Equal(t, alice.ID, freq.OwnerID)
	assert.NotEmpty(t, freq.ExternalID)

	_, err = env.frequencies.CreateFrequency(env.ctx, CreateFrequencyInput{Name: "dup", Slug: "lofi"}, alice.ID)
	assert.ErrorIs(t, err, domainerr.ErrConflict)

	_, err = env.frequencies.CreateFrequency(env.ctx, CreateFrequencyInput{Name: "ghost", Slug: "ghost"}, 9999)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)

	_, err = env.frequencies.GetFrequencyBySlug(env.ctx, "ghost")
	assert.ErrorIs(t, err, domainerr.ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.FrequenciesCreatedTotal))
	assert.Equal(t, []string{constants.AuditFrequencyCreated}, env.audit.actions())
}

func TestGetFrequency_Cached(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	freq := env.frequency(t, "cached", alice, 10, false)

	idPrefix := string(constants.CachePrefixFrequencyID)
	slugPrefix := string(constants.CachePrefixFrequencySlug)

	first, err := env.frequencies.GetFrequency(env.ctx, freq.ID)
	require.NoError(t, err)
	second, err := env.frequencies.GetFrequency(env.ctx, freq.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Slug, second.Slug)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CacheMissesTotal.WithLabelValues(idPrefix)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CacheHitsTotal.WithLabelValues(idPrefix)))

	_, err = env.frequencies.GetFrequencyBySlug(env.ctx, "cached")
	require.NoError(t, err)
	_, err = env.frequencies.GetFrequencyBySlug(env.ctx, "cached")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CacheHitsTotal.WithLabelValues(slugPrefix)))

	// mutating a returned copy must not leak into the cache
	second.Name = "scribbled"
	third, err := env.frequencies.GetFrequency(env.ctx, freq.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", third.Name)
}

func TestUpdateFrequency_InvalidatesCache(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	freq := env.frequency(t, "renamed", alice, 10, false)

	_, err := env.frequencies.GetFrequency(env.ctx, freq.ID)
	require.NoError(t, err)
	_, err = env.frequencies.GetFrequencyBySlug(env.ctx, "renamed")
	require.NoError(t, err)

	updated, err := env.frequencies.UpdateFrequency(env.ctx, freq.ID, UpdateFrequencyInput{
		Name:            strRef("Renamed"),
		IsPrivate:       boolRef(true),
		MaxParticipants: intRef(25),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Slug)

	byID, err := env.frequencies.GetFrequency(env.ctx, freq.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", byID.Name)
	assert.True(t, byID.IsPrivate)
	assert.Equal(t, 25, byID.MaxParticipants)

	bySlug, err := env.frequencies.GetFrequencyBySlug(env.ctx, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", bySlug.Name)

	_, err = env.frequencies.UpdateFrequency(env.ctx, 9999, UpdateFrequencyInput{Name: strRef("x")})
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
}

func TestDeleteFrequency_Cascades(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	freq := env.frequency(t, "doomed", alice, 10, false)
	env.join(t, bob, freq)

	msg := env.post(t, bob, freq, "last words")
	invite, err := env.invites.CreateInvite(env.ctx, CreateInviteInput{FrequencyID: freq.ID, InviterID: alice.ID})
	require.NoError(t, err)

	_, err = env.frequencies.GetFrequency(env.ctx, freq.ID)
	require.NoError(t, err)

	require.NoError(t, env.frequencies.DeleteFrequency(env.ctx, freq.ID))

	_, err = env.frequencies.GetFrequency(env.ctx, freq.ID)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
	_, err = env.messages.GetMessage(env.ctx, msg.ID)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
	_, err = env.invites.GetInviteByToken(env.ctx, invite.Token)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)

	memberships, err := env.memberships.ListByUser(env.ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)

	assert.ErrorIs(t, env.frequencies.DeleteFrequency(env.ctx, freq.ID), domainerr.ErrNotFound)
	assert.Contains(t, env.audit.actions(), constants.AuditFrequencyDeleted)
}

func TestCanAccessFrequency(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	open := env.frequency(t, "open", alice, 10, false)
	closed := env.frequency(t, "closed", alice, 10, true)

	ok, err := env.frequencies.CanAccessFrequency(env.ctx, bob.ID, open.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.frequencies.CanAccessFrequency(env.ctx, bob.ID, closed.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = env.frequencies.CanAccessFrequency(env.ctx, alice.ID, closed.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = env.frequencies.CanAccessFrequency(env.ctx, alice.ID, 9999)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
}

func TestListFrequencies(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	env.frequency(t, "one", alice, 10, false)
	env.frequency(t, "two", alice, 10, true)
	three := env.frequency(t, "three", bob, 10, false)

	public, total, err := env.frequencies.ListPublicFrequencies(env.ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, public, 2)
	assert.Equal(t, three.ID, public[0].ID)

	owned, err := env.frequencies.ListFrequenciesByOwner(env.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "one", owned[0].Slug)

	byExternal, err := env.frequencies.GetFrequencyByExternalID(env.ctx, three.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, three.ID, byExternal.ID)
}

func boolRef(b bool) *bool { return &b }
