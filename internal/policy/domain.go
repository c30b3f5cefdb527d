// Package policy holds the role and ownership rules that gate every read and
// mutation in TourDesk. Decisions are pure functions of their inputs.
package policy

import (
	"fmt"
	"strings"
)

// Role is the single role carried by an actor.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleGuide    Role = "guide"
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleGuide, RoleCustomer, RoleAgent}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleGuide, RoleCustomer, RoleAgent:
		return true
	}
	return false
}

// ParseRole normalises raw into a Role. The legacy "traveler" label maps to customer.
func ParseRole(raw string) (Role, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "traveler" {
		return RoleCustomer, nil
	}
	role := Role(value)
	if !role.Valid() {
		return "", fmt.Errorf("policy: unknown role %q", raw)
	}
	return role, nil
}

// Action is an operation an actor attempts on a resource type.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionReadAll Action = "read_all"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	// ActionSearch covers directory style lookups over user records.
	ActionSearch Action = "search"
	// ActionChangeRole gates edits of a user's role field.
	ActionChangeRole Action = "change_role"
)

// ResourceType names an entity governed by the policy.
type ResourceType string

const (
	User           ResourceType = "user"
	Customer       ResourceType = "customer"
	Guide          ResourceType = "guide"
	Accommodation  ResourceType = "accommodation"
	Tour           ResourceType = "tour"
	Booking        ResourceType = "booking"
	Payment        ResourceType = "payment"
	TourAssignment ResourceType = "tour_assignment"
	// Policy is the catalogue itself, served to admins for inspection.
	Policy ResourceType = "policy"
)

// Actor is an authenticated caller.
type Actor struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the actor holds the superuser role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) authenticated() bool {
	return a.ID > 0 && a.Role.Valid()
}

// Resource is the authorization view of a loaded row: its id and owning actor.
// OwnerID is zero when the row has no owner.
type Resource struct {
	ID      int64
	OwnerID int64
}

// Owned builds a Resource from an id and owner reference.
func Owned(id, ownerID int64) *Resource {
	return &Resource{ID: id, OwnerID: ownerID}
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Rule    Rule
	Reason  string
}

func allow(rule Rule, reason string) Decision {
	return Decision{Allowed: true, Rule: rule, Reason: reason}
}

func deny(rule Rule, reason string) Decision {
	return Decision{Allowed: false, Rule: rule, Reason: reason}
}
