package shared

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
)

// DecisionObserver receives every decision made through an Authorizer.
type DecisionObserver interface {
	ObserveDecision(rt policy.ResourceType, action policy.Action, allowed bool)
}

// Loader fetches the target resource. It must return an error wrapping
// httpx.ErrNotFound when the target does not exist.
type Loader func(ctx context.Context) (*policy.Resource, error)

// Authorizer adapts the policy engine to service code: it logs and counts
// decisions and translates DENY into httpx.ErrForbidden.
type Authorizer struct {
	engine   *policy.Engine
	logger   *slog.Logger
	observer DecisionObserver
}

// NewAuthorizer constructs an Authorizer. logger and observer may be nil.
func NewAuthorizer(engine *policy.Engine, logger *slog.Logger, observer DecisionObserver) *Authorizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Authorizer{engine: engine, logger: logger, observer: observer}
}

// Engine exposes the underlying policy engine.
func (a *Authorizer) Engine() *policy.Engine {
	return a.engine
}

// Authorize decides on an already loaded resource, or nil for collection
// and creation actions.
func (a *Authorizer) Authorize(ctx context.Context, actor policy.Actor, action policy.Action, rt policy.ResourceType, res *policy.Resource) error {
	decision := a.engine.Decide(actor, action, rt, res)
	if a.observer != nil {
		a.observer.ObserveDecision(rt, action, decision.Allowed)
	}
	if decision.Allowed {
		return nil
	}
	attrs := []any{
		slog.Int64("actor", actor.ID),
		slog.String("role", string(actor.Role)),
		slog.String("resource", string(rt)),
		slog.String("action", string(action)),
		slog.String("rule", decision.Rule.String()),
		slog.String("reason", decision.Reason),
	}
	if res != nil {
		attrs = append(attrs, slog.Int64("resource_id", res.ID))
	}
	a.logger.WarnContext(ctx, "authorization denied", attrs...)
	return fmt.Errorf("%w: %s %s not permitted", httpx.ErrForbidden, action, rt)
}

// Check decides rules that ignore ownership before load runs, so a denied
// actor never reaches the store. Ownership rules run load first and report
// its NotFound before deciding.
func (a *Authorizer) Check(ctx context.Context, actor policy.Actor, action policy.Action, rt policy.ResourceType, load Loader) error {
	rule := a.engine.Rule(rt, action)
	if !rule.NeedsResource() {
		if err := a.Authorize(ctx, actor, action, rt, nil); err != nil {
			return err
		}
		if load == nil {
			return nil
		}
		_, err := load(ctx)
		return err
	}
	if load == nil {
		return a.Authorize(ctx, actor, action, rt, nil)
	}
	res, err := load(ctx)
	if err != nil {
		return err
	}
	return a.Authorize(ctx, actor, action, rt, res)
}
