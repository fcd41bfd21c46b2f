package responses

import (
	"time"

	"synq/backend/internal/constants"
	models "synq/backend/internal/models/gorm"
)

type FrequencyResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Slug            string                 `json:"slug"`
	Description     string                 `json:"description,omitempty"`
	IsPrivate       bool                   `json:"isPrivate"`
	MaxParticipants int                    `json:"maxParticipants"`
	CoverImageURL   string                 `json:"coverImageUrl,omitempty"`
	Settings        map[string]interface{} `json:"settings,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

func FromFrequency(f *models.Frequency) FrequencyResponse {
	return FrequencyResponse{
		ID:              f.ExternalID,
		Name:            f.Name,
		Slug:            f.Slug,
		Description:     f.Description,
		IsPrivate:       f.IsPrivate,
		MaxParticipants: f.MaxParticipants,
		CoverImageURL:   f.CoverImageURL,
		Settings:        f.Settings,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

func FromFrequencies(freqs []models.Frequency) []FrequencyResponse {
	out := make([]FrequencyResponse, 0, len(freqs))
	for i := range freqs {
		out = append(out, FromFrequency(&freqs[i]))
	}
	return out
}

type MembershipResponse struct {
	ID         string                   `json:"id"`
	User       *UserSummary             `json:"user,omitempty"`
	Role       constants.MembershipRole `json:"role"`
	JoinedAt   time.Time                `json:"joinedAt"`
	MutedUntil *time.Time               `json:"mutedUntil,omitempty"`
	Banned     bool                     `json:"banned"`
	Nickname   *string                  `json:"nickname,omitempty"`
}

func FromMembership(m *models.Membership) MembershipResponse {
	return MembershipResponse{
		ID:         m.ExternalID,
		User:       SummarizeUser(m.User),
		Role:       m.Role,
		JoinedAt:   m.JoinedAt,
		MutedUntil: m.MutedUntil,
		Banned:     m.Banned,
		Nickname:   m.Nickname,
	}
}

func FromMemberships(ms []models.Membership) []MembershipResponse {
	out := make([]MembershipResponse, 0, len(ms))
	for i := range ms {
		out = append(out, FromMembership(&ms[i]))
	}
	return out
}

type InviteResponse struct {
	ID         string                   `json:"id"`
	Token      string                   `json:"token"`
	ExpiresAt  time.Time                `json:"expiresAt"`
	MaxUses    int                      `json:"maxUses"`
	UsesCount  int                      `json:"usesCount"`
	RoleOnJoin constants.MembershipRole `json:"roleOnJoin"`
	CreatedAt  time.Time                `json:"createdAt"`
}

func FromInvite(i *models.Invite) InviteResponse {
	return InviteResponse{
		ID:         i.ExternalID,
		Token:      i.Token,
		ExpiresAt:  i.ExpiresAt,
		MaxUses:    i.MaxUses,
		UsesCount:  i.UsesCount,
		RoleOnJoin: i.RoleOnJoin,
		CreatedAt:  i.CreatedAt,
	}
}

func FromInvites(invites []models.Invite) []InviteResponse {
	out := make([]InviteResponse, 0, len(invites))
	for i := range invites {
		out = append(out, FromInvite(&invites[i]))
	}
	return out
}
