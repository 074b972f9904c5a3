package authorization

import (
	"context"
	"fmt"

	"github.com/torii-authz/torii/internal/entities"
	"github.com/torii-authz/torii/internal/repositories"
)

// Evaluator applies the configured rules to one requested operation. It is
// a stateless, side-effect-free read path: every call reads the rule store
// fresh, so administrative edits take effect on the next request without a
// redeploy.
type Evaluator struct {
	rules repositories.RuleRepository
}

// NewEvaluator creates a new Evaluator
func NewEvaluator(rules repositories.RuleRepository) *Evaluator {
	return &Evaluator{rules: rules}
}

// Evaluate decides whether an individual may perform the named operation on
// the named resource. The global rule, when configured, is checked first; a
// global deny is unconditional, so the specific rule is not fetched. A key
// with no rule configured defaults to allow.
func (e *Evaluator) Evaluate(ctx context.Context, individual *entities.Individual, resource string, operation string) (*entities.Decision, error) {
	global, err := e.rules.FindGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch global rule: %w", err)
	}
	if global != nil && !global.Allows(individual.Markers) {
		return &entities.Decision{Allowed: false, Reason: entities.ReasonGlobalRuleDenied}, nil
	}

	rule, err := e.rules.Find(ctx, resource, operation)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rule for %s#%s: %w", resource, operation, err)
	}
	if rule == nil {
		return &entities.Decision{Allowed: true, Reason: entities.ReasonNoRestriction}, nil
	}
	if !rule.Allows(individual.Markers) {
		return &entities.Decision{Allowed: false, Reason: entities.ReasonRuleDenied}, nil
	}

	return &entities.Decision{Allowed: true, Reason: entities.ReasonRuleSatisfied}, nil
}
