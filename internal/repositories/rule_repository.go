package repositories

import (
	"context"

	"github.com/torii-authz/torii/internal/entities"
)

// RuleRepository defines the interface for rule store access.
// Absence of a rule is a normal, common state: lookups return nil when no
// rule is configured for the requested key, never an error.
type RuleRepository interface {
	// FindGlobal returns the global rule, or nil when none is configured.
	FindGlobal(ctx context.Context) (*entities.Rule, error)

	// Find returns the rule configured for (resource, operation). An
	// operation-specific rule takes precedence over a resource-wide rule
	// for the same resource. Returns nil when neither is configured.
	Find(ctx context.Context, resource string, operation string) (*entities.Rule, error)

	// Upsert creates the rule, or replaces the existing rule for the same key.
	Upsert(ctx context.Context, rule *entities.Rule) error

	// Delete removes the rule with the given ID
	Delete(ctx context.Context, id string) error

	// List returns all configured rules
	List(ctx context.Context) ([]*entities.Rule, error)
}
