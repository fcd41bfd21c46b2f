package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"synq/backend/internal/constants"
	"synq/backend/internal/db/repositories"
	"synq/backend/internal/domainerr"
	"synq/backend/internal/logging"
	"synq/backend/internal/metrics"
	"synq/backend/internal/models/entities"
	models "synq/backend/internal/models/gorm"
)

// CreateInviteInput leaves optional fields nil for their defaults: seven
// days, a single use and the MEMBER role.
type CreateInviteInput struct {
	FrequencyID int64
	InviterID   int64
	ExpiresAt   *time.Time
	MaxUses     *int
	RoleOnJoin  *constants.MembershipRole
}

type InviteService struct {
	store       *repositories.Store
	memberships *MembershipService
	audit       AuditRecorder
	metrics     *metrics.MetricsRegistry
	now         func() time.Time
	newToken    func() string
}

func NewInviteService(store *repositories.Store, memberships *MembershipService, audit AuditRecorder, m *metrics.MetricsRegistry) *InviteService {
	return &InviteService{
		store:       store,
		memberships: memberships,
		audit:       audit,
		metrics:     m,
		now:         utcNow,
		newToken:    generateInviteToken,
	}
}

func generateInviteToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:constants.InviteTokenLength]
}

func (s *InviteService) CreateInvite(ctx context.Context, in CreateInviteInput) (*models.Invite, error) {
	logging.Debug("Creating invite", "frequency_id", in.FrequencyID, "inviter_id", in.InviterID)

	inviterExists, err := s.store.Users.Exists(ctx, in.InviterID)
	if err != nil {
		return nil, err
	}
	if !inviterExists {
		return nil, domainerr.NotFound(constants.MsgInviterNotFound)
	}
	if _, err := s.store.Frequencies.GetByID(ctx, in.FrequencyID); err != nil {
		return nil, err
	}

	member, err := s.memberships.IsMember(ctx, in.InviterID, in.FrequencyID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domainerr.Forbidden(constants.MsgOnlyMembersInvite)
	}

	invite := &models.Invite{
		FrequencyID: in.FrequencyID,
		InviterID:   in.InviterID,
		ExpiresAt:   s.now().Add(constants.DefaultInviteTTL),
		MaxUses:     constants.DefaultInviteMaxUses,
		RoleOnJoin:  constants.MembershipMember,
	}
	if in.ExpiresAt != nil {
		invite.ExpiresAt = in.ExpiresAt.UTC()
	}
	if in.MaxUses != nil {
		if *in.MaxUses <= 0 {
			return nil, domainerr.DomainInvalid("Invite must allow at least one use")
		}
		invite.MaxUses = *in.MaxUses
	}
	if in.RoleOnJoin != nil {
		if !in.RoleOnJoin.IsValid() {
			return nil, domainerr.DomainInvalid("Unknown membership role")
		}
		invite.RoleOnJoin = *in.RoleOnJoin
	}

	for {
		invite.Token = s.newToken()
		taken, err := s.store.Invites.ExistsByToken(ctx, invite.Token)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
	}

	if err := s.store.Invites.Create(ctx, invite); err != nil {
		return nil, err
	}

	logging.Info("Invite created", "invite_id", invite.ID, "frequency_id", in.FrequencyID)
	return invite, nil
}

// RedeemInvite joins the user with the invite's role and then counts the
// use. The counter update is guarded so it never passes MaxUses, but a
// redemption racing the last use can still produce one extra membership.
func (s *InviteService) RedeemInvite(ctx context.Context, token string, userID int64) (*models.Membership, error) {
	logging.Debug("Redeeming invite", "user_id", userID)

	membership, err := s.redeem(ctx, token, userID)
	if err != nil {
		s.metrics.InviteRedemptionsTotal.WithLabelValues(strings.ToLower(string(domainerr.KindOf(err)))).Inc()
		return nil, err
	}
	s.metrics.InviteRedemptionsTotal.WithLabelValues("success").Inc()
	return membership, nil
}

func (s *InviteService) redeem(ctx context.Context, token string, userID int64) (*models.Membership, error) {
	invite, err := s.store.Invites.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !invite.IsValidAt(s.now()) {
		return nil, domainerr.DomainInvalid(constants.MsgInviteInvalid)
	}

	member, err := s.memberships.IsMember(ctx, userID, invite.FrequencyID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, domainerr.Conflict(constants.MsgAlreadyMember)
	}

	role := invite.RoleOnJoin
	membership, err := s.memberships.JoinFrequency(ctx, userID, invite.FrequencyID, &role, nil)
	if err != nil {
		return nil, err
	}

	counted, err := s.store.Invites.IncrementUses(ctx, invite.ID, s.now())
	if err != nil {
		return nil, err
	}
	if !counted {
		logging.Warn("Invite exhausted by a concurrent redemption",
			"invite_id", invite.ID,
			"user_id", userID,
		)
	}

	recordAudit(ctx, s.audit, constants.AuditInviteRedeemed, entities.AuditTargetInvite, invite.ID, map[string]interface{}{
		"user_id":      userID,
		"frequency_id": invite.FrequencyID,
		"role":         role,
	})
	logging.Info("Invite redeemed", "invite_id", invite.ID, "user_id", userID)
	return membership, nil
}

// IsInviteValid is false for unknown, expired and exhausted tokens.
func (s *InviteService) IsInviteValid(ctx context.Context, token string) bool {
	invite, err := s.store.Invites.GetByToken(ctx, token)
	if err != nil {
		if domainerr.KindOf(err) != domainerr.KindNotFound {
			logging.Error("Failed to check invite", "error", err)
		}
		return false
	}
	return invite.IsValidAt(s.now())
}

func (s *InviteService) DeleteInvite(ctx context.Context, id int64) error {
	if err := s.store.Invites.Delete(ctx, id); err != nil {
		return err
	}
	recordAudit(ctx, s.audit, constants.AuditInviteDeleted, entities.AuditTargetInvite, id, nil)
	logging.Info("Invite deleted", "invite_id", id)
	return nil
}

func (s *InviteService) GetInviteByToken(ctx context.Context, token string) (*models.Invite, error) {
	return s.store.Invites.GetByToken(ctx, token)
}

func (s *InviteService) GetInviteByExternalID(ctx context.Context, externalID string) (*models.Invite, error) {
	return s.store.Invites.GetByExternalID(ctx, externalID)
}

func (s *InviteService) ListInvitesByFrequency(ctx context.Context, frequencyID int64) ([]models.Invite, error) {
	return s.store.Invites.ListByFrequency(ctx, frequencyID)
}
