// Package users manages user records and their customer and tour guide views.
package users

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
)

var (
	ErrEmailTaken   = fmt.Errorf("user: email already in use: %w", httpx.ErrDuplicate)
	ErrContactTaken = fmt.Errorf("user: contact already in use: %w", httpx.ErrDuplicate)
	ErrInUse        = fmt.Errorf("user: still referenced by bookings, tours or assignments: %w", httpx.ErrConflict)
	ErrNoMatches    = fmt.Errorf("user: no users found: %w", httpx.ErrNotFound)
)

// Kind selects the projection of the users table an operation works on. A
// record whose role differs from Role is reported as not found.
type Kind struct {
	Type policy.ResourceType
	Role policy.Role
}

var (
	AnyUser   = Kind{Type: policy.User}
	Customers = Kind{Type: policy.Customer, Role: policy.RoleCustomer}
	Guides    = Kind{Type: policy.Guide, Role: policy.RoleGuide}
)

func (k Kind) notFound() error {
	return fmt.Errorf("%s: %w", strings.ReplaceAll(string(k.Type), "_", " "), httpx.ErrNotFound)
}

func (k Kind) matches(u *User) bool {
	return k.Role == "" || u.Role == k.Role
}

// User is a person with an account. Guides carry a biography, languages and
// experience.
type User struct {
	ID              int64       `json:"id"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Email           string      `json:"email"`
	Contact         string      `json:"contact,omitempty"`
	Role            policy.Role `json:"role"`
	Biography       string      `json:"bio,omitempty"`
	Languages       []string    `json:"languages,omitempty"`
	ExperienceYears *int        `json:"experience_years,omitempty"`
	PasswordHash    string      `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// FullName renders the display name in title case.
func (u User) FullName() string {
	name := strings.Join(strings.Fields(u.FirstName+" "+u.LastName), " ")
	return cases.Title(language.Und).String(name)
}

// MarshalJSON adds the derived username.
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return json.Marshal(struct {
		plain
		Username string `json:"username"`
	}{plain: plain(u), Username: u.FullName()})
}

func (u User) resource() *policy.Resource {
	return policy.Owned(u.ID, u.ID)
}
