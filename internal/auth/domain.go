package auth

import (
	"fmt"
	"time"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
)

var (
	// ErrTokenInvalid covers malformed, expired and wrongly signed tokens.
	ErrTokenInvalid = fmt.Errorf("invalid token: %w", httpx.ErrUnauthorized)
	// ErrTokenRevoked indicates the token was logged out.
	ErrTokenRevoked = fmt.Errorf("token revoked: %w", httpx.ErrUnauthorized)
	// ErrEmailTaken indicates an account already uses the email.
	ErrEmailTaken = fmt.Errorf("email already registered: %w", httpx.ErrDuplicate)
	// ErrContactTaken indicates an account already uses the phone contact.
	ErrContactTaken = fmt.Errorf("contact already registered: %w", httpx.ErrDuplicate)
	// ErrRoleNotAllowed indicates a role that cannot be self-assigned.
	ErrRoleNotAllowed = httpx.Invalid("role", "must be one of customer agent")
)

// Account is the credential view of a user record.
type Account struct {
	ID           int64       `json:"id"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Email        string      `json:"email"`
	Contact      string      `json:"contact,omitempty"`
	Role         policy.Role `json:"role"`
	PasswordHash string      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Actor returns the policy identity of the account.
func (a Account) Actor() policy.Actor {
	return policy.Actor{ID: a.ID, Role: a.Role}
}

// NewAccount holds the fields persisted on registration.
type NewAccount struct {
	FirstName    string
	LastName     string
	Email        string
	Contact      string
	Role         policy.Role
	PasswordHash string
}
