package requests

import (
	"regexp"
	"strings"

	"synq/backend/internal/domainerr"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type CreateFrequencyRequest struct {
	Name            string                 `json:"name"`
	Slug            string                 `json:"slug"`
	Description     string                 `json:"description,omitempty"`
	IsPrivate       bool                   `json:"isPrivate"`
	MaxParticipants int                    `json:"maxParticipants,omitempty"`
	CoverImageURL   string                 `json:"coverImageUrl,omitempty"`
	Settings        map[string]interface{} `json:"settings,omitempty"`
}

func (r *CreateFrequencyRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))

	if r.Name == "" || len(r.Name) > 128 {
		return domainerr.BadRequest("name is required and must be at most 128 characters")
	}
	if len(r.Slug) > 128 || !slugPattern.MatchString(r.Slug) {
		return domainerr.BadRequest("slug must be lowercase letters, digits and single dashes")
	}
	if r.MaxParticipants < 0 {
		return domainerr.BadRequest("maxParticipants must not be negative")
	}
	return nil
}

// UpdateFrequencyRequest has no slug: slugs are immutable.
type UpdateFrequencyRequest struct {
	Name            *string                `json:"name,omitempty"`
	Description     *string                `json:"description,omitempty"`
	IsPrivate       *bool                  `json:"isPrivate,omitempty"`
	MaxParticipants *int                   `json:"maxParticipants,omitempty"`
	CoverImageURL   *string                `json:"coverImageUrl,omitempty"`
	Settings        map[string]interface{} `json:"settings,omitempty"`
}

func (r *UpdateFrequencyRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		if trimmed == "" || len(trimmed) > 128 {
			return domainerr.BadRequest("name must be between 1 and 128 characters")
		}
		r.Name = &trimmed
	}
	if r.MaxParticipants != nil && *r.MaxParticipants <= 0 {
		return domainerr.BadRequest("maxParticipants must be positive")
	}
	return nil
}
