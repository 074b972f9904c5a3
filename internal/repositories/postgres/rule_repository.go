package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/torii-authz/torii/internal/entities"
	"github.com/torii-authz/torii/internal/repositories"
)

// PostgresRuleRepository implements RuleRepository using PostgreSQL
type PostgresRuleRepository struct {
	db *sql.DB
}

// NewPostgresRuleRepository creates a new PostgreSQL rule repository
func NewPostgresRuleRepository(db *sql.DB) repositories.RuleRepository {
	return &PostgresRuleRepository{db: db}
}

// FindGlobal retrieves the global rule, or nil when none is configured
func (r *PostgresRuleRepository) FindGlobal(ctx context.Context) (*entities.Rule, error) {
	query := `
		SELECT id, accepted_markers, created_at, updated_at
		FROM rules
		WHERE scope = 'global'
	`
	rule := &entities.Rule{Scope: entities.ScopeGlobal}
	var markers []string

	err := r.db.QueryRowContext(ctx, query).Scan(
		&rule.ID, pq.Array(&markers), &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find global rule: %w", err)
	}

	rule.AcceptedMarkers = markers
	return rule, nil
}

// Find retrieves the rule for (resource, operation). An operation-specific
// rule wins over a resource-wide rule for the same resource. Returns nil
// when neither is configured.
func (r *PostgresRuleRepository) Find(ctx context.Context, resource string, operation string) (*entities.Rule, error) {
	query := `
		SELECT id, scope, resource, operation, accepted_markers, created_at, updated_at
		FROM rules
		WHERE resource = $1 AND (operation = $2 OR operation IS NULL)
		ORDER BY operation NULLS LAST
		LIMIT 1
	`
	rule := &entities.Rule{}
	var op sql.NullString
	var markers []string

	err := r.db.QueryRowContext(ctx, query, resource, operation).Scan(
		&rule.ID, &rule.Scope, &rule.Resource, &op,
		pq.Array(&markers), &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find rule for %s#%s: %w", resource, operation, err)
	}

	rule.Operation = op.String
	rule.AcceptedMarkers = markers
	return rule, nil
}

// Upsert creates the rule, or replaces the existing rule for the same key.
// Conflict targets match the partial unique indexes that enforce
// one-row-per-key at the database level.
func (r *PostgresRuleRepository) Upsert(ctx context.Context, rule *entities.Rule) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	var query string
	args := []interface{}{rule.ID, pq.Array(rule.AcceptedMarkers), time.Now()}

	switch rule.Scope {
	case entities.ScopeGlobal:
		query = `
			INSERT INTO rules (id, scope, accepted_markers, created_at, updated_at)
			VALUES ($1, 'global', $2, $3, $3)
			ON CONFLICT ((scope)) WHERE scope = 'global'
			DO UPDATE SET accepted_markers = EXCLUDED.accepted_markers, updated_at = EXCLUDED.updated_at
		`
	case entities.ScopeResource:
		query = `
			INSERT INTO rules (id, scope, resource, accepted_markers, created_at, updated_at)
			VALUES ($1, 'resource', $4, $2, $3, $3)
			ON CONFLICT (resource) WHERE scope = 'resource'
			DO UPDATE SET accepted_markers = EXCLUDED.accepted_markers, updated_at = EXCLUDED.updated_at
		`
		args = append(args, rule.Resource)
	case entities.ScopeOperation:
		query = `
			INSERT INTO rules (id, scope, resource, operation, accepted_markers, created_at, updated_at)
			VALUES ($1, 'operation', $4, $5, $2, $3, $3)
			ON CONFLICT (resource, operation) WHERE scope = 'operation'
			DO UPDATE SET accepted_markers = EXCLUDED.accepted_markers, updated_at = EXCLUDED.updated_at
		`
		args = append(args, rule.Resource, rule.Operation)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert rule %s: %w", rule, err)
	}
	return nil
}

// Delete removes the rule with the given ID
func (r *PostgresRuleRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM rules WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule not found: %s", id)
	}
	return nil
}

// List returns all configured rules, global rule first
func (r *PostgresRuleRepository) List(ctx context.Context) ([]*entities.Rule, error) {
	query := `
		SELECT id, scope, resource, operation, accepted_markers, created_at, updated_at
		FROM rules
		ORDER BY scope = 'global' DESC, resource, operation NULLS FIRST
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []*entities.Rule
	for rows.Next() {
		rule := &entities.Rule{}
		var resource, op sql.NullString
		var markers []string

		if err := rows.Scan(
			&rule.ID, &rule.Scope, &resource, &op,
			pq.Array(&markers), &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		rule.Resource = resource.String
		rule.Operation = op.String
		rule.AcceptedMarkers = markers
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rules, nil
}
