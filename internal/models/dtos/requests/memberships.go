package requests

import (
	"time"

	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
)

// JoinFrequencyRequest joins the caller, or adds UserID when an owner or
// moderator adds someone else.
type JoinFrequencyRequest struct {
	UserID   string                    `json:"userId,omitempty"`
	Role     *constants.MembershipRole `json:"role,omitempty"`
	Nickname *string                   `json:"nickname,omitempty"`
}

func (r *JoinFrequencyRequest) Validate() error {
	if r.Role != nil && !r.Role.IsValid() {
		return domainerr.BadRequest("role must be OWNER, MODERATOR, MEMBER or GUEST")
	}
	if r.Nickname != nil && len(*r.Nickname) > 64 {
		return domainerr.BadRequest("nickname must be at most 64 characters")
	}
	return nil
}

type UpdateRoleRequest struct {
	Role constants.MembershipRole `json:"role"`
}

func (r *UpdateRoleRequest) Validate() error {
	if !r.Role.IsValid() {
		return domainerr.BadRequest("role must be OWNER, MODERATOR, MEMBER or GUEST")
	}
	return nil
}

type BanRequest struct {
	Banned bool `json:"banned"`
}

// MuteRequest clears the mute when Until is nil.
type MuteRequest struct {
	Until *time.Time `json:"until,omitempty"`
}
