package constants

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// MembershipRole mirrors the memberships.role column
type MembershipRole string

const (
	MembershipOwner     MembershipRole = "OWNER"
	MembershipModerator MembershipRole = "MODERATOR"
	MembershipMember    MembershipRole = "MEMBER"
	MembershipGuest     MembershipRole = "GUEST"
)

// privilege rank, higher wins. Declaration order above is not meaningful.
var membershipRank = map[MembershipRole]int{
	MembershipGuest:     10,
	MembershipMember:    20,
	MembershipModerator: 30,
	MembershipOwner:     40,
}

// String implements fmt.Stringer
func (r MembershipRole) String() string { return string(r) }

// Rank returns the privilege rank of the role, 0 for unknown roles.
func (r MembershipRole) Rank() int { return membershipRank[r] }

// AtLeast reports whether r carries at least the privileges of min.
func (r MembershipRole) AtLeast(min MembershipRole) bool {
	return r.IsValid() && r.Rank() >= min.Rank()
}

// Outranks reports whether r is strictly more privileged than other.
func (r MembershipRole) Outranks(other MembershipRole) bool {
	return r.Rank() > other.Rank()
}

func (r MembershipRole) IsValid() bool {
	_, ok := membershipRank[r]
	return ok
}

// ParseMembershipRole accepts any letter case.
func ParseMembershipRole(s string) (MembershipRole, error) {
	r := MembershipRole(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown membership role %q", s)
	}
	return r, nil
}

/* ---------- DB adapters so sqlx (or database/sql) scans/values cleanly ---------- */

// Scan implements the sql.Scanner interface
func (r *MembershipRole) Scan(src interface{}) error {
	if src == nil {
		*r = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*r = MembershipRole(v)
	case []byte:
		*r = MembershipRole(v)
	default:
		return fmt.Errorf("MembershipRole: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (r MembershipRole) Value() (driver.Value, error) { return string(r), nil }

// UserRole is a system-wide role, independent of any frequency.
type UserRole string

const (
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleManager UserRole = "MANAGER"
	UserRoleUser    UserRole = "USER"
)

// AllUserRoles lists every system role in bootstrap order.
var AllUserRoles = []UserRole{UserRoleAdmin, UserRoleManager, UserRoleUser}

func (r UserRole) String() string { return string(r) }

func (r UserRole) Description() string {
	switch r {
	case UserRoleAdmin:
		return "Administrator with full system access"
	case UserRoleManager:
		return "Manager with elevated privileges"
	case UserRoleUser:
		return "Standard user with basic access"
	}
	return ""
}

func (r UserRole) IsValid() bool { return r.Description() != "" }

// UserStatus mirrors users.status
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusInactive  UserStatus = "INACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}
