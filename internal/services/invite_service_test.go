package services

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
)

func TestRedeemInvite_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")
	freq := env.frequency(t, "secret", alice, 10, true)

	invite, err := env.invites.CreateInvite(env.ctx, CreateInviteInput{
		FrequencyID: freq.ID,
		InviterID:   alice.ID,
		MaxUses:     intRef(1),
	})
	require.NoError(t, err)
	assert.Len(t, invite.Token, constants.InviteTokenLength)
	assert.Equal(t, constants.MembershipMember, invite.RoleOnJoin)
	assert.Zero(t, invite.UsesCount)

	m, err := env.invites.RedeemInvite(env.ctx, invite.Token, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.MembershipMember, m.Role)

	stored, err := env.invites.GetInviteByToken(env.ctx, invite.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsesCount)
	assert.False(t, env.invites.IsInviteValid(env.ctx, invite.Token))

	_, err = env.invites.RedeemInvite(env.ctx, invite.Token, carol.ID)
	assert.ErrorIs(t, err, domainerr.ErrDomainInvalid)

	isMember, err := env.memberships.IsMember(env.ctx, carol.ID, freq.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.InviteRedemptionsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.InviteRedemptionsTotal.WithLabelValues("domain_invalid")))
	assert.Contains(t, env.audit.actions(), constants.AuditInviteRedeemed)
}

func TestRedeemInvite_Expired(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	freq := env.frequency(t, "expiring", alice, 10, false)

	invite, err := env.invites.CreateInvite(env.ctx, CreateInviteInput{FrequencyID: freq.ID, InviterID: alice.ID})
	require.NoError(t, err)
	assert.True(t, env.invites.IsInviteValid(env.ctx, invite.Token))

	env.clock.Advance(constants.DefaultInviteTTL + time.Minute)
	assert.False(t, env.invites.IsInviteValid(env.ctx, invite.Token))

	_, err = env.invites.RedeemInvite(env.ctx, invite.Token, bob.ID)
	assert.ErrorIs(t, err, domainerr.ErrDomainInvalid)
	assert.Contains(t, err.Error(), constants.MsgInviteInvalid)
}

func TestRedeemInvite_GrantsRoleOnJoin(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	freq := env.frequency(t, "mods", alice, 10, false)

	invite, err := env.invites.CreateInvite(env.ctx, CreateInviteInput{
		FrequencyID: freq.ID,
		InviterID:   alice.ID,
		MaxUses:     intRef(3),
		RoleOnJoin:  roleRef(constants.MembershipModerator),
	})
	require.NoError(t, err)

	m, err := env.invites.RedeemInvite(env.ctx, invite.Token, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.MembershipModerator, m.Role)

	_, err = env.invites.RedeemInvite(env.ctx, invite.Token, bob.ID)
	assert.ErrorIs(t, err, domainerr.ErrConflict)

	stored, err := env.invites.GetInviteByToken(env.ctx, invite.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsesCount)
	assert.True(t, env.invites.IsInviteValid(env.ctx, invite.Token))
}

func TestRedeemInvite_FullFrequency(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	freq := env.frequency(t, "tiny", alice, 1, false)

	invite, err := env.invites.CreateInvite(env.ctx, CreateInviteInput{FrequencyID: freq.ID, InviterID: alice.ID})
	require.NoError(t, err)

	_, err = env.invites.RedeemInvite(env.ctx, invite.Token, bob.ID)
	assert.ErrorIs(t, err, domainerr.ErrCapacityExceeded)

	stored, err := env.invites.GetInviteByToken(env.ctx, invite.Token)
	require.NoError(t, err)
	assert.Zero(t, stored.UsesCount)
}

func TestRedeemInvite_UnknownToken(t *testing.T) {
	env := newTestEnv(t)
	bob := env.user(t, "bob")

	_, err := env.invites.RedeemInvite(env.ctx, "doesnotexist", bob.ID)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
	assert.False(t, env.invites.IsInviteValid(env.ctx, "doesnotexist"))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.InviteRedemptionsTotal.WithLabelValues("not_found")))
}

func TestCreateInvite_Validation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	outsider := env.user(t, "outsider")
	freq := env.frequency(t, "checks", alice, 10, false)

	_, err := env.invites.CreateInvite(env.ctx, CreateInviteInput{FrequencyID: freq.ID, InviterID: outsider.ID})
	assert.ErrorIs(t, err, domainerr.ErrForbidden)
	assert.Contains(t, err.Error(), constants.MsgOnlyMembersInvite)

	_, err = env.invites.CreateInvite(env.ctx, CreateInviteInput{FrequencyID: freq.ID, InviterID: 9999})
	assert.ErrorIs(t, err, domainerr.ErrNotFound)

	_, err = env.invites.CreateInvite(env.ctx, CreateInviteInput{FrequencyID: 9999, InviterID: alice.ID})
	assert.ErrorIs(t, err, domainerr.ErrNotFound)

	_, err = env.invites.CreateInvite(env.ctx, CreateInviteInput{FrequencyID: freq.ID, InviterID: alice.ID, MaxUses: intRef(0)})
	assert.ErrorIs(t, err, domainerr.ErrDomainInvalid)

	invites, err := env.invites.ListInvitesByFrequency(env.ctx, freq.ID)
	require.NoError(t, err)
	assert.Empty(t, invites)
}

func TestCreateInvite_Defaults(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	freq := env.frequency(t, "defaults", alice, 10, false)

	invite, err := env.invites.CreateInvite(env.ctx, CreateInviteInput{FrequencyID: freq.ID, InviterID: alice.ID})
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultInviteMaxUses, invite.MaxUses)
	assert.Equal(t, env.clock.cur.Add(constants.DefaultInviteTTL), invite.ExpiresAt)
	assert.NotEmpty(t, invite.ExternalID)
}

func TestCreateInvite_RegeneratesTakenToken(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	freq := env.frequency(t, "tokens", alice, 10, false)

	tokens := []string{"aaaaaaaaaaaaaaaa", "aaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbb"}
	calls := 0
	env.invites.newToken = func() string {
		tok := tokens[calls]
		calls++
		return tok
	}

	first, err := env.invites.CreateInvite(env.ctx, CreateInviteInput{FrequencyID: freq.ID, InviterID: alice.ID})
	require.NoError(t, err)
	second, err := env.invites.CreateInvite(env.ctx, CreateInviteInput{FrequencyID: freq.ID, InviterID: alice.ID})
	require.NoError(t, err)

	assert.Equal(t, tokens[0], first.Token)
	assert.Equal(t, tokens[2], second.Token)
	assert.Equal(t, 3, calls)
}

func TestDeleteInvite(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	freq := env.frequency(t, "revoked", alice, 10, false)

	invite, err := env.invites.CreateInvite(env.ctx, CreateInviteInput{FrequencyID: freq.ID, InviterID: alice.ID})
	require.NoError(t, err)

	byExternal, err := env.invites.GetInviteByExternalID(env.ctx, invite.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, invite.ID, byExternal.ID)

	require.NoError(t, env.invites.DeleteInvite(env.ctx, invite.ID))
	assert.False(t, env.invites.IsInviteValid(env.ctx, invite.Token))
	assert.ErrorIs(t, env.invites.DeleteInvite(env.ctx, invite.ID), domainerr.ErrNotFound)
	assert.Contains(t, env.audit.actions(), constants.AuditInviteDeleted)
}
