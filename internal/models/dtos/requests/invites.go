package requests

import (
	"time"

	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
)

type CreateInviteRequest struct {
	ExpiresAt  *time.Time                `json:"expiresAt,omitempty"`
	MaxUses    *int                      `json:"maxUses,omitempty"`
	RoleOnJoin *constants.MembershipRole `json:"roleOnJoin,omitempty"`
}

func (r *CreateInviteRequest) Validate() error {
	if r.MaxUses != nil && *r.MaxUses <= 0 {
		return domainerr.BadRequest("maxUses must be positive")
	}
	if r.RoleOnJoin != nil && !r.RoleOnJoin.IsValid() {
		return domainerr.BadRequest("roleOnJoin must be OWNER, MODERATOR, MEMBER or GUEST")
	}
	return nil
}
