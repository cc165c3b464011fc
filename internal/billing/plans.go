// Package billing is the thin boundary to the subscription provider.
// The rest of the system consumes exactly one decision from it: whether
// a user may hold another phone number under their plan.
package billing

import (
	"context"
	"fmt"
)

// Plan describes one subscription tier. Payment handling belongs to the
// external billing provider; only the limits matter here.
type Plan struct {
	Name       string `json:"name"`
	MaxNumbers int    `json:"max_numbers"`
}

// The built-in plan catalog.
var plans = map[string]Plan{
	"free":     {Name: "free", MaxNumbers: 1},
	"starter":  {Name: "starter", MaxNumbers: 3},
	"business": {Name: "business", MaxNumbers: 10},
}

// DefaultPlan applies to users with no recorded subscription.
const DefaultPlan = "free"

// PlanByName returns a plan from the catalog.
func PlanByName(name string) (Plan, error) {
	if p, ok := plans[name]; ok {
		return p, nil
	}
	return Plan{}, fmt.Errorf("unknown plan %q", name)
}

// Plans lists the catalog.
func Plans() []Plan {
	return []Plan{plans["free"], plans["starter"], plans["business"]}
}

// PlanResolver reports which plan a user subscribes to. The production
// implementation asks the billing provider; StaticResolver serves tests
// and single-tenant deployments.
type PlanResolver interface {
	PlanFor(ctx context.Context, userID string) (Plan, error)
}

// StaticResolver resolves every user to one configured plan.
type StaticResolver struct {
	Plan string
}

// PlanFor returns the configured plan, falling back to the default.
func (r StaticResolver) PlanFor(ctx context.Context, userID string) (Plan, error) {
	name := r.Plan
	if name == "" {
		name = DefaultPlan
	}
	return PlanByName(name)
}

// Entitlements answers the number-limit question for a user.
type Entitlements struct {
	resolver PlanResolver
}

// NewEntitlements creates an entitlement checker over a plan resolver.
func NewEntitlements(resolver PlanResolver) *Entitlements {
	return &Entitlements{resolver: resolver}
}

// CanAddNumber reports whether a user holding ownedCount numbers may
// purchase another under their plan.
func (e *Entitlements) CanAddNumber(ctx context.Context, userID string, ownedCount int) (bool, error) {
	plan, err := e.resolver.PlanFor(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("resolving plan: %w", err)
	}
	return ownedCount < plan.MaxNumbers, nil
}
