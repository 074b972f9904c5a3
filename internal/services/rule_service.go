package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/torii-authz/torii/internal/entities"
	"github.com/torii-authz/torii/internal/repositories"
)

// RuleService owns the administrative write boundary of the rule store.
// The evaluator trusts one rule per key, so every write is validated and
// normalized here before it reaches the repository.
type RuleService struct {
	rules repositories.RuleRepository
}

// NewRuleService creates a new RuleService
func NewRuleService(rules repositories.RuleRepository) *RuleService {
	return &RuleService{rules: rules}
}

// PutGlobal creates or replaces the global rule. Passing an empty marker
// list keeps the rule row but switches the restriction off.
func (s *RuleService) PutGlobal(ctx context.Context, acceptedMarkers []string) (*entities.Rule, error) {
	rule := &entities.Rule{
		ID:              uuid.NewString(),
		Scope:           entities.ScopeGlobal,
		AcceptedMarkers: normalizeMarkers(acceptedMarkers),
	}
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule: %w", err)
	}
	if err := s.rules.Upsert(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// PutRule creates or replaces the rule for (resource, operation). An empty
// operation configures a resource-wide rule.
func (s *RuleService) PutRule(ctx context.Context, resource string, operation string, acceptedMarkers []string) (*entities.Rule, error) {
	scope := entities.ScopeOperation
	if operation == "" {
		scope = entities.ScopeResource
	}

	rule := &entities.Rule{
		ID:              uuid.NewString(),
		Scope:           scope,
		Resource:        resource,
		Operation:       operation,
		AcceptedMarkers: normalizeMarkers(acceptedMarkers),
	}
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule: %w", err)
	}
	if err := s.rules.Upsert(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule removes the rule with the given ID
func (s *RuleService) DeleteRule(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("rule ID is required")
	}
	return s.rules.Delete(ctx, id)
}

// ListRules returns all configured rules
func (s *RuleService) ListRules(ctx context.Context) ([]*entities.Rule, error) {
	return s.rules.List(ctx)
}

// normalizeMarkers sorts the marker list and drops duplicates and empty
// strings. Order and multiplicity never affect evaluation, so storing a
// canonical form keeps the admin API idempotent.
func normalizeMarkers(markers []string) []string {
	seen := make(map[string]struct{}, len(markers))
	normalized := make([]string, 0, len(markers))
	for _, m := range markers {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		normalized = append(normalized, m)
	}
	sort.Strings(normalized)
	return normalized
}
