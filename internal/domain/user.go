package domain

import (
	"fmt"
	"strings"
	"time"
)

// UserType determines what a user may see and manage.
type UserType int

const (
	Citizen   UserType = 1
	Investor  UserType = 2
	Authority UserType = 3
)

func (t UserType) String() string {
	switch t {
	case Citizen:
		return "Citizen"
	case Investor:
		return "Investor"
	case Authority:
		return "Authority"
	}
	return fmt.Sprintf("UserType(%d)", int(t))
}

// CanViewAllIssues reports whether the user type may list issues system-wide.
func (t UserType) CanViewAllIssues() bool {
	return t == Authority || t == Investor
}

func ParseUserType(s string) (UserType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "citizen":
		return Citizen, true
	case "investor":
		return Investor, true
	case "authority":
		return Authority, true
	}
	return 0, false
}

// User is an anonymous account: the username is derived from
// (provider, externalId) and no name, email or password is ever stored.
type User struct {
	ID                    string    `json:"id"`
	Username              string    `json:"username"`
	Role                  string    `json:"role"`
	UserType              UserType  `json:"user_type"`
	RegistrationCompleted bool      `json:"registration_completed"`
	OnboardingStep        *string   `json:"onboarding_step,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// ExternalLogin links a User to one OAuth identity. The (provider, external_id)
// pair is unique system-wide; a user holds at most one login per provider.
type ExternalLogin struct {
	ID         string    `json:"id"`
	Provider   string    `json:"provider"`
	ExternalID string    `json:"external_id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Username derives the opaque account name for an external identity.
func Username(provider, externalID string) string {
	return provider + "_" + externalID
}
