package policy

import (
	"maps"
	"slices"
)

// Rule is a predicate over an actor and an optional resource.
type Rule int

const (
	// RuleDeny is the zero value; pairs without an explicit rule resolve to it.
	RuleDeny Rule = iota
	// RuleAuthenticated admits any authenticated actor.
	RuleAuthenticated
	// RuleAdmin admits admins only.
	RuleAdmin
	// RuleAdminOrOwner admits admins and the resource owner.
	RuleAdminOrOwner
	// RuleOwner admits the resource owner only, admins included only when they own it.
	RuleOwner
)

// NeedsResource reports whether the rule inspects a loaded resource.
func (r Rule) NeedsResource() bool {
	return r == RuleAdminOrOwner || r == RuleOwner
}

func (r Rule) String() string {
	switch r {
	case RuleAuthenticated:
		return "authenticated"
	case RuleAdmin:
		return "admin"
	case RuleAdminOrOwner:
		return "admin_or_owner"
	case RuleOwner:
		return "owner"
	default:
		return "deny"
	}
}

// MarshalText renders the rule name in JSON payloads.
func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Entry describes one resource type in the catalogue.
type Entry struct {
	Type ResourceType `json:"type"`
	// OwnerField is the column holding the owner reference; empty when unowned.
	OwnerField string `json:"owner_field,omitempty"`
	// CreateRole restricts creation to a single role when set.
	CreateRole Role `json:"create_role,omitempty"`
	// UniqueOn lists the fields checked for duplicates before creation.
	UniqueOn []string        `json:"unique_on,omitempty"`
	Rules    map[Action]Rule `json:"rules"`
}

var catalogue = map[ResourceType]Entry{
	Accommodation: {
		Type:       Accommodation,
		OwnerField: "user_id",
		UniqueOn:   []string{"name", "user_id"},
		Rules: map[Action]Rule{
			ActionCreate:  RuleAuthenticated,
			ActionRead:    RuleAuthenticated,
			ActionReadAll: RuleAuthenticated,
			ActionUpdate:  RuleAdminOrOwner,
			ActionDelete:  RuleAdminOrOwner,
		},
	},
	Tour: {
		Type:       Tour,
		OwnerField: "user_id",
		UniqueOn:   []string{"name", "user_id"},
		Rules: map[Action]Rule{
			ActionCreate:  RuleAuthenticated,
			ActionRead:    RuleAuthenticated,
			ActionReadAll: RuleAuthenticated,
			ActionUpdate:  RuleAdminOrOwner,
			ActionDelete:  RuleAdminOrOwner,
		},
	},
	Booking: {
		Type:       Booking,
		OwnerField: "user_id",
		Rules: map[Action]Rule{
			ActionCreate:  RuleAuthenticated,
			ActionRead:    RuleAdminOrOwner,
			ActionReadAll: RuleAuthenticated,
			ActionUpdate:  RuleAdminOrOwner,
			ActionDelete:  RuleAdminOrOwner,
		},
	},
	// Payment creation is decided against the booking being paid for.
	Payment: {
		Type:       Payment,
		OwnerField: "user_id",
		Rules: map[Action]Rule{
			ActionCreate:  RuleOwner,
			ActionRead:    RuleAdminOrOwner,
			ActionReadAll: RuleAdmin,
			ActionUpdate:  RuleAdmin,
			ActionDelete:  RuleAdmin,
		},
	},
	TourAssignment: {
		Type:       TourAssignment,
		OwnerField: "guide_id",
		CreateRole: RoleAdmin,
		Rules: map[Action]Rule{
			ActionCreate:  RuleAdmin,
			ActionRead:    RuleAdminOrOwner,
			ActionReadAll: RuleAdmin,
			ActionUpdate:  RuleAdmin,
			ActionDelete:  RuleAdmin,
		},
	},
	Customer: {
		Type:       Customer,
		OwnerField: "id",
		Rules: map[Action]Rule{
			ActionRead:    RuleAdminOrOwner,
			ActionReadAll: RuleAdmin,
			ActionUpdate:  RuleAdminOrOwner,
			ActionDelete:  RuleAdminOrOwner,
		},
	},
	Guide: {
		Type:       Guide,
		OwnerField: "id",
		CreateRole: RoleAdmin,
		UniqueOn:   []string{"email"},
		Rules: map[Action]Rule{
			ActionCreate:  RuleAdmin,
			ActionRead:    RuleAdminOrOwner,
			ActionReadAll: RuleAdmin,
			ActionUpdate:  RuleAdminOrOwner,
			ActionDelete:  RuleAdmin,
		},
	},
	User: {
		Type:       User,
		OwnerField: "id",
		UniqueOn:   []string{"email"},
		Rules: map[Action]Rule{
			ActionRead:       RuleAuthenticated,
			ActionReadAll:    RuleAdmin,
			ActionSearch:     RuleAuthenticated,
			ActionUpdate:     RuleAdminOrOwner,
			ActionDelete:     RuleAdmin,
			ActionChangeRole: RuleAdmin,
		},
	},
	Policy: {
		Type: Policy,
		Rules: map[Action]Rule{
			ActionRead:    RuleAdmin,
			ActionReadAll: RuleAdmin,
			ActionUpdate:  RuleAdmin,
			ActionDelete:  RuleAdmin,
		},
	},
}

// Lookup returns a copy of the catalogue entry for rt.
func Lookup(rt ResourceType) (Entry, bool) {
	entry, ok := catalogue[rt]
	if !ok {
		return Entry{}, false
	}
	entry.UniqueOn = slices.Clone(entry.UniqueOn)
	entry.Rules = maps.Clone(entry.Rules)
	return entry, true
}

// Types returns every catalogued resource type in name order.
func Types() []ResourceType {
	types := slices.Collect(maps.Keys(catalogue))
	slices.Sort(types)
	return types
}

// Entries returns copies of every catalogue entry in name order.
func Entries() []Entry {
	types := Types()
	entries := make([]Entry, 0, len(types))
	for _, rt := range types {
		entry, _ := Lookup(rt)
		entries = append(entries, entry)
	}
	return entries
}
