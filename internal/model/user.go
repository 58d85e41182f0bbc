package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}

	return role, nil
}

type Provider string

const ProviderGoogle Provider = "GOOGLE"

type User struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Provider        Provider  `json:"provider"`
	Identifier      string    `json:"-"`
	Role            Role      `json:"role"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ExternalIdentity is what an identity provider tells us about the person
// that just signed in. ID is the provider-scoped subject.
type ExternalIdentity struct {
	Provider   Provider
	ID         string
	Email      string
	Name       string
	PictureURL string
}

// Principal is the authenticated caller, derived from access token claims only.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

type UserProfile struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	Role            Role      `json:"role"`
}

func (u User) Profile() UserProfile {
	return UserProfile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
		Role:            u.Role,
	}
}
