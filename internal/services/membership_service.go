package services

import (
	"context"
	"time"

	"synq/backend/internal/constants"
	"synq/backend/internal/db/repositories"
	"synq/backend/internal/domainerr"
	"synq/backend/internal/logging"
	"synq/backend/internal/metrics"
	"synq/backend/internal/models/entities"
	models "synq/backend/internal/models/gorm"
)

// MembershipService owns joins, leaves and moderation state. Ownership and
// capacity rules are checked under the frequency row lock.
type MembershipService struct {
	store   *repositories.Store
	audit   AuditRecorder
	metrics *metrics.MetricsRegistry
	now     func() time.Time
}

func NewMembershipService(store *repositories.Store, audit AuditRecorder, m *metrics.MetricsRegistry) *MembershipService {
	return &MembershipService{
		store:   store,
		audit:   audit,
		metrics: m,
		now:     utcNow,
	}
}

// JoinFrequency adds the user with role (MEMBER when nil).
func (s *MembershipService) JoinFrequency(ctx context.Context, userID, frequencyID int64, role *constants.MembershipRole, nickname *string) (*models.Membership, error) {
	logging.Debug("Joining frequency", "user_id", userID, "frequency_id", frequencyID)

	joinRole := constants.MembershipMember
	if role != nil {
		if !role.IsValid() {
			return nil, domainerr.DomainInvalid("Unknown membership role")
		}
		joinRole = *role
	}

	var membership *models.Membership
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		userExists, err := tx.Users.Exists(ctx, userID)
		if err != nil {
			return err
		}
		if !userExists {
			return domainerr.NotFound(constants.MsgUserNotFound)
		}

		freq, err := tx.Frequencies.GetForUpdate(ctx, frequencyID)
		if err != nil {
			return err
		}

		member, err := tx.Memberships.Exists(ctx, userID, frequencyID)
		if err != nil {
			return err
		}
		if member {
			return domainerr.Conflict(constants.MsgAlreadyMember)
		}

		count, err := tx.Memberships.CountByFrequency(ctx, frequencyID)
		if err != nil {
			return err
		}
		if count >= int64(freq.MaxParticipants) {
			return domainerr.CapacityExceeded(constants.MsgFrequencyFull)
		}

		membership = &models.Membership{
			UserID:      userID,
			FrequencyID: frequencyID,
			Role:        joinRole,
			JoinedAt:    s.now(),
			Nickname:    nickname,
		}
		return tx.Memberships.Create(ctx, membership)
	})
	if err != nil {
		s.metrics.JoinRejectionsTotal.WithLabelValues(string(domainerr.KindOf(err))).Inc()
		return nil, err
	}

	s.metrics.MembershipChangesTotal.WithLabelValues("join").Inc()
	logging.Info("User joined frequency",
		"user_id", userID,
		"frequency_id", frequencyID,
		"role", joinRole,
	)
	return membership, nil
}

// LeaveFrequency removes the membership unless it is the last OWNER.
func (s *MembershipService) LeaveFrequency(ctx context.Context, userID, frequencyID int64) error {
	logging.Debug("Leaving frequency", "user_id", userID, "frequency_id", frequencyID)

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Frequencies.GetForUpdate(ctx, frequencyID); err != nil {
			return err
		}
		m, err := tx.Memberships.Get(ctx, userID, frequencyID)
		if err != nil {
			return err
		}
		if m.Role == constants.MembershipOwner {
			if err := ensureAnotherOwner(ctx, tx, frequencyID, constants.MsgLastOwnerLeave); err != nil {
				return err
			}
		}
		return tx.Memberships.Delete(ctx, m.ID)
	})
	if err != nil {
		return err
	}

	s.metrics.MembershipChangesTotal.WithLabelValues("leave").Inc()
	logging.Info("User left frequency", "user_id", userID, "frequency_id", frequencyID)
	return nil
}

// UpdateMembershipRole changes a member's role. Demoting the only OWNER is
// rejected the same way leaving is.
func (s *MembershipService) UpdateMembershipRole(ctx context.Context, userID, frequencyID int64, newRole constants.MembershipRole) (*models.Membership, error) {
	if !newRole.IsValid() {
		return nil, domainerr.DomainInvalid("Unknown membership role")
	}

	var (
		membership *models.Membership
		previous   constants.MembershipRole
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Frequencies.GetForUpdate(ctx, frequencyID); err != nil {
			return err
		}
		m, err := tx.Memberships.Get(ctx, userID, frequencyID)
		if err != nil {
			return err
		}
		if m.Role == constants.MembershipOwner && newRole != constants.MembershipOwner {
			if err := ensureAnotherOwner(ctx, tx, frequencyID, constants.MsgLastOwnerDemote); err != nil {
				return err
			}
		}
		previous = m.Role
		m.Role = newRole
		if err := tx.Memberships.Update(ctx, m); err != nil {
			return err
		}
		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MembershipChangesTotal.WithLabelValues("role").Inc()
	recordAudit(ctx, s.audit, constants.AuditMemberRole, entities.AuditTargetMembership, membership.ID, map[string]interface{}{
		"user_id":      userID,
		"frequency_id": frequencyID,
		"from":         previous,
		"to":           newRole,
	})
	logging.Info("Membership role updated",
		"user_id", userID,
		"frequency_id", frequencyID,
		"role", newRole,
	)
	return membership, nil
}

// ToggleBan records the ban flag. Enforcement belongs to callers.
func (s *MembershipService) ToggleBan(ctx context.Context, userID, frequencyID int64, banned bool) (*models.Membership, error) {
	logging.Debug("Toggling ban", "user_id", userID, "frequency_id", frequencyID)

	m, err := s.mutate(ctx, userID, frequencyID, func(m *models.Membership) {
		m.Banned = banned
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MembershipChangesTotal.WithLabelValues("ban").Inc()
	recordAudit(ctx, s.audit, constants.AuditMemberBan, entities.AuditTargetMembership, m.ID, map[string]interface{}{
		"user_id":      userID,
		"frequency_id": frequencyID,
		"banned":       banned,
	})
	logging.Info("Ban status updated", "user_id", userID, "frequency_id", frequencyID, "banned", banned)
	return m, nil
}

// MuteMember sets the mute window; nil until lifts it.
func (s *MembershipService) MuteMember(ctx context.Context, userID, frequencyID int64, until *time.Time) (*models.Membership, error) {
	if until != nil {
		u := until.UTC()
		until = &u
	}

	m, err := s.mutate(ctx, userID, frequencyID, func(m *models.Membership) {
		m.MutedUntil = until
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MembershipChangesTotal.WithLabelValues("mute").Inc()
	recordAudit(ctx, s.audit, constants.AuditMemberMute, entities.AuditTargetMembership, m.ID, map[string]interface{}{
		"user_id":      userID,
		"frequency_id": frequencyID,
		"muted_until":  until,
	})
	logging.Info("Mute updated", "user_id", userID, "frequency_id", frequencyID)
	return m, nil
}

func (s *MembershipService) mutate(ctx context.Context, userID, frequencyID int64, fn func(*models.Membership)) (*models.Membership, error) {
	var membership *models.Membership
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		m, err := tx.Memberships.Get(ctx, userID, frequencyID)
		if err != nil {
			return err
		}
		fn(m)
		if err := tx.Memberships.Update(ctx, m); err != nil {
			return err
		}
		membership = m
		return nil
	})
	return membership, err
}

func ensureAnotherOwner(ctx context.Context, tx *repositories.Store, frequencyID int64, msg string) error {
	owners, err := tx.Memberships.CountByRole(ctx, frequencyID, constants.MembershipOwner)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return domainerr.InvariantViolation(msg)
	}
	return nil
}

func (s *MembershipService) GetMembership(ctx context.Context, userID, frequencyID int64) (*models.Membership, error) {
	return s.store.Memberships.Get(ctx, userID, frequencyID)
}

func (s *MembershipService) ListByUser(ctx context.Context, userID int64) ([]models.Membership, error) {
	return s.store.Memberships.ListByUser(ctx, userID)
}

func (s *MembershipService) ListByFrequency(ctx context.Context, frequencyID int64) ([]models.Membership, error) {
	return s.store.Memberships.ListByFrequency(ctx, frequencyID)
}

func (s *MembershipService) IsMember(ctx context.Context, userID, frequencyID int64) (bool, error) {
	return s.store.Memberships.Exists(ctx, userID, frequencyID)
}

// HasRole is an exact role match; use RequireRole for rank checks.
func (s *MembershipService) HasRole(ctx context.Context, userID, frequencyID int64, role constants.MembershipRole) (bool, error) {
	m, err := s.store.Memberships.Get(ctx, userID, frequencyID)
	if err != nil {
		if domainerr.KindOf(err) == domainerr.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return m.Role == role, nil
}

func (s *MembershipService) CountMembers(ctx context.Context, frequencyID int64) (int64, error) {
	return s.store.Memberships.CountByFrequency(ctx, frequencyID)
}

// RequireRole returns the actor's membership when it ranks at least min.
func (s *MembershipService) RequireRole(ctx context.Context, actorID, frequencyID int64, min constants.MembershipRole) (*models.Membership, error) {
	m, err := s.store.Memberships.Get(ctx, actorID, frequencyID)
	if err != nil {
		if domainerr.KindOf(err) == domainerr.KindNotFound {
			return nil, domainerr.Forbidden(constants.MsgNotMember)
		}
		return nil, err
	}
	if !m.Role.AtLeast(min) {
		return nil, domainerr.Forbidden(constants.MsgInsufficientRole)
	}
	return m, nil
}
