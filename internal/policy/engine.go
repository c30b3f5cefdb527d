package policy

import "fmt"

// Engine evaluates catalogue rules. It holds no mutable state after construction
// and is safe for concurrent use.
type Engine struct {
	overrides map[ResourceType]map[Action]Rule
}

// Option customises an Engine.
type Option func(*Engine)

// WithAdminPayments lets admins record payments against bookings they do not own.
func WithAdminPayments() Option {
	return func(e *Engine) {
		e.override(Payment, ActionCreate, RuleAdminOrOwner)
	}
}

// WithRule replaces a single catalogue rule.
func WithRule(rt ResourceType, action Action, rule Rule) Option {
	return func(e *Engine) {
		e.override(rt, action, rule)
	}
}

// NewEngine constructs an engine backed by the static catalogue.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{overrides: make(map[ResourceType]map[Action]Rule)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) override(rt ResourceType, action Action, rule Rule) {
	rules, ok := e.overrides[rt]
	if !ok {
		rules = make(map[Action]Rule)
		e.overrides[rt] = rules
	}
	rules[action] = rule
}

// Rule resolves the rule for a pair. Unknown pairs resolve to RuleDeny.
func (e *Engine) Rule(rt ResourceType, action Action) Rule {
	if rules, ok := e.overrides[rt]; ok {
		if rule, ok := rules[action]; ok {
			return rule
		}
	}
	entry, ok := catalogue[rt]
	if !ok {
		return RuleDeny
	}
	return entry.Rules[action]
}

// Decide returns the decision for actor performing action on a resource of type rt.
// res is the loaded instance, or nil when the action targets the collection or a
// resource that does not yet exist. For Payment creation res is the booking being paid.
func (e *Engine) Decide(actor Actor, action Action, rt ResourceType, res *Resource) Decision {
	rule := e.Rule(rt, action)
	if !actor.authenticated() {
		return deny(rule, "actor is not authenticated")
	}

	switch rule {
	case RuleAuthenticated:
		return allow(rule, "authenticated")
	case RuleAdmin:
		if actor.IsAdmin() {
			return allow(rule, "admin")
		}
		return deny(rule, fmt.Sprintf("%s %s requires admin", rt, action))
	case RuleAdminOrOwner:
		if actor.IsAdmin() {
			return allow(rule, "admin")
		}
		if res == nil {
			return deny(rule, "resource not loaded")
		}
		if owns(actor, res) {
			return allow(rule, "owner")
		}
		return deny(rule, fmt.Sprintf("actor %d does not own %s %d", actor.ID, rt, res.ID))
	case RuleOwner:
		if res == nil {
			return deny(rule, "resource not loaded")
		}
		if owns(actor, res) {
			return allow(rule, "owner")
		}
		return deny(rule, fmt.Sprintf("actor %d does not own %s %d", actor.ID, rt, res.ID))
	default:
		return deny(RuleDeny, fmt.Sprintf("no rule for %s %s", rt, action))
	}
}

// Allowed is shorthand for Decide(...).Allowed.
func (e *Engine) Allowed(actor Actor, action Action, rt ResourceType, res *Resource) bool {
	return e.Decide(actor, action, rt, res).Allowed
}

func owns(actor Actor, res *Resource) bool {
	return res.OwnerID != 0 && res.OwnerID == actor.ID
}
