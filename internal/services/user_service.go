package services

import (
	"context"
	"errors"
	"time"

	"synq/backend/internal/common"
	"synq/backend/internal/constants"
	"synq/backend/internal/db/repositories"
	"synq/backend/internal/domainerr"
	"synq/backend/internal/logging"
	"synq/backend/internal/metrics"
	"synq/backend/internal/models/entities"
	models "synq/backend/internal/models/gorm"
	"synq/backend/internal/providers"
)

type CreateUserInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	AvatarURL   string
	Roles       []constants.UserRole
	Metadata    map[string]interface{}
}

// UpdateUserInput leaves nil fields untouched; a non-nil Roles replaces the
// user's system roles.
type UpdateUserInput struct {
	Email         *string
	DisplayName   *string
	AvatarURL     *string
	EmailVerified *bool
	Status        *constants.UserStatus
	Roles         []constants.UserRole
	Metadata      map[string]interface{}
}

// UserService keeps local users and mirrors them to the identity provider.
// Creation aborts when the provider fails; later provider calls are best
// effort and never roll back the local change.
type UserService struct {
	store    *repositories.Store
	identity providers.IdentityProvider
	cache    common.CacheInterface
	audit    AuditRecorder
	metrics  *metrics.MetricsRegistry
	now      func() time.Time
}

func NewUserService(store *repositories.Store, identity providers.IdentityProvider, cache common.CacheInterface, audit AuditRecorder, m *metrics.MetricsRegistry) *UserService {
	return &UserService{
		store:    store,
		identity: identity,
		cache:    cache,
		audit:    audit,
		metrics:  m,
		now:      utcNow,
	}
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	logging.Debug("Creating user", "username", in.Username)

	if err := s.ensureAvailable(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	roleNames := in.Roles
	if len(roleNames) == 0 {
		roleNames = []constants.UserRole{constants.UserRoleUser}
	}
	roles, err := s.store.Roles.GetByNames(ctx, roleNames)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(uniqueRoles(roleNames)) {
		return nil, domainerr.NotFound(constants.MsgRoleNotFound)
	}

	subjectID, err := s.identity.CreateUser(ctx, providers.IdentityUser{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.DisplayName,
		Password:  in.Password,
	})
	if err != nil {
		s.metrics.IdentityProviderErrors.WithLabelValues("create").Inc()
		return nil, domainerr.Internal("Failed to create user in identity provider", err)
	}

	user := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		AvatarURL:   in.AvatarURL,
		Status:      constants.UserStatusActive,
		Metadata:    in.Metadata,
		Roles:       roles,
	}
	if subjectID != "" {
		user.ExternalIdentityID = &subjectID
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		if subjectID != "" {
			s.bestEffort("delete", func() error { return s.identity.DeleteUser(ctx, subjectID) })
		}
		return nil, err
	}

	logging.Info("User created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *UserService) ensureAvailable(ctx context.Context, username, email string) error {
	taken, err := s.store.Users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return domainerr.Conflict(constants.MsgUsernameTaken)
	}
	taken, err = s.store.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return domainerr.Conflict(constants.MsgEmailTaken)
	}
	return nil
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var roles []models.Role
	if in.Roles != nil {
		roles, err = s.store.Roles.GetByNames(ctx, in.Roles)
		if err != nil {
			return nil, err
		}
		if len(roles) != len(uniqueRoles(in.Roles)) {
			return nil, domainerr.NotFound(constants.MsgRoleNotFound)
		}
	}

	emailChanged := in.Email != nil && *in.Email != user.Email
	if emailChanged {
		taken, err := s.store.Users.ExistsByEmail(ctx, *in.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domainerr.Conflict(constants.MsgEmailTaken)
		}
		user.Email = *in.Email
	}
	if in.DisplayName != nil {
		user.DisplayName = *in.DisplayName
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}
	if in.EmailVerified != nil {
		user.EmailVerified = *in.EmailVerified
	}
	statusChanged := in.Status != nil && *in.Status != user.Status
	if in.Status != nil {
		user.Status = *in.Status
	}
	if in.Metadata != nil {
		user.Metadata = in.Metadata
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.Users.Update(ctx, user); err != nil {
			return err
		}
		if in.Roles != nil {
			return tx.Users.ReplaceRoles(ctx, user, roles)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if subject := user.ExternalIdentityID; subject != nil {
		if emailChanged || in.DisplayName != nil {
			update := providers.IdentityUserUpdate{FirstName: in.DisplayName}
			if emailChanged {
				update.Email = in.Email
			}
			s.bestEffort("update", func() error { return s.identity.UpdateUser(ctx, *subject, update) })
		}
		if statusChanged {
			enabled := user.Status == constants.UserStatusActive
			s.bestEffort("set_enabled", func() error { return s.identity.SetUserEnabled(ctx, *subject, enabled) })
		}
	}

	logging.Info("User updated", "user_id", id)
	return user, nil
}

// DeleteUser refuses while the user is the last OWNER of any frequency.
// Otherwise it hands owner_id of the user's frequencies to another OWNER and
// removes the user's messages with their reply threads, uploaded
// attachments, memberships, issued invites and role links in one
// transaction.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	logging.Debug("Deleting user", "user_id", id)

	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	var handedOver []models.Frequency
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		handedOver = handedOver[:0]

		memberships, err := tx.Memberships.ListByUser(ctx, id)
		if err != nil {
			return err
		}
		for _, m := range memberships {
			if m.Role != constants.MembershipOwner {
				continue
			}
			if _, err := tx.Frequencies.GetForUpdate(ctx, m.FrequencyID); err != nil {
				return err
			}
			if err := ensureAnotherOwner(ctx, tx, m.FrequencyID, constants.MsgUserOwnsFreqs); err != nil {
				return err
			}
		}

		owned, err := tx.Frequencies.ListByOwner(ctx, id)
		if err != nil {
			return err
		}
		for i := range owned {
			freq := &owned[i]
			heir, err := tx.Memberships.FirstWithRoleExcept(ctx, freq.ID, constants.MembershipOwner, id)
			if errors.Is(err, domainerr.ErrNotFound) {
				return domainerr.InvariantViolation(constants.MsgUserOwnsFreqs)
			}
			if err != nil {
				return err
			}
			if err := tx.Frequencies.SetOwner(ctx, freq, heir.UserID); err != nil {
				return err
			}
			handedOver = append(handedOver, *freq)
		}

		threadIDs, err := tx.Messages.ThreadIDsByAuthor(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Messages.DeleteAttachmentsByUploader(ctx, id); err != nil {
			return err
		}
		if err := tx.Messages.DeleteByIDs(ctx, threadIDs); err != nil {
			return err
		}
		if err := tx.Memberships.DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := tx.Invites.DeleteByInviter(ctx, id); err != nil {
			return err
		}
		return tx.Users.Delete(ctx, user)
	})
	if err != nil {
		return err
	}

	for i := range handedOver {
		evictFrequency(s.cache, &handedOver[i])
		logging.Info("Frequency owner reassigned", "frequency_id", handedOver[i].ID, "owner_id", handedOver[i].OwnerID)
	}

	if user.ExternalIdentityID != nil {
		subject := *user.ExternalIdentityID
		s.bestEffort("delete", func() error { return s.identity.DeleteUser(ctx, subject) })
	}

	recordAudit(ctx, s.audit, constants.AuditUserDeleted, entities.AuditTargetUser, id, map[string]interface{}{
		"username": user.Username,
	})
	logging.Info("User deleted", "user_id", id)
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.Users.GetByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.store.Users.GetByUsername(ctx, username)
}

func (s *UserService) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.store.Users.GetByExternalID(ctx, externalID)
}

func (s *UserService) ListUsers(ctx context.Context, page, size int) ([]models.User, int64, error) {
	offset, limit := pageBounds(page, size, constants.MaxPageSize)
	return s.store.Users.List(ctx, offset, limit)
}

// ProvisionFromExternalIdentity returns the local user linked to the
// identity provider subject, creating it on first sight. Repeated calls for
// one subject return the same user.
func (s *UserService) ProvisionFromExternalIdentity(ctx context.Context, externalID, username, email string) (*models.User, error) {
	user, err := s.store.Users.GetByIdentityID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domainerr.ErrNotFound) {
		return nil, err
	}

	logging.Info("Provisioning user from identity provider", "subject", externalID, "username", username)

	subject := externalID
	user = &models.User{
		Username:           username,
		Email:              email,
		DisplayName:        username,
		EmailVerified:      true,
		Status:             constants.UserStatusActive,
		ExternalIdentityID: &subject,
	}

	defaultRole, err := s.store.Roles.GetByName(ctx, constants.UserRoleUser)
	switch {
	case err == nil:
		user.Roles = []models.Role{*defaultRole}
	case errors.Is(err, domainerr.ErrNotFound):
		logging.Warn("Default role missing, run ensure-roles", "role", constants.UserRoleUser)
	default:
		return nil, err
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, domainerr.ErrConflict) {
			// a concurrent request for the same subject won
			if existing, lookupErr := s.store.Users.GetByIdentityID(ctx, externalID); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateLastLogin(ctx context.Context, id int64) error {
	return s.store.Users.TouchLastLogin(ctx, id, s.now())
}

func (s *UserService) bestEffort(operation string, call func() error) {
	if err := call(); err != nil {
		s.metrics.IdentityProviderErrors.WithLabelValues(operation).Inc()
		logging.Error("Identity provider call failed", "operation", operation, "error", err)
	}
}

func uniqueRoles(roles []constants.UserRole) map[constants.UserRole]struct{} {
	set := make(map[constants.UserRole]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}
