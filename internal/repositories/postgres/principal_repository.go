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

// PostgresPrincipalRepository implements PrincipalRepository using PostgreSQL
type PostgresPrincipalRepository struct {
	db *sql.DB
}

// NewPostgresPrincipalRepository creates a new PostgreSQL principal repository
func NewPostgresPrincipalRepository(db *sql.DB) repositories.PrincipalRepository {
	return &PostgresPrincipalRepository{db: db}
}

// Resolve maps a login identity to the individual behind it.
// Returns ErrPrincipalNotFound when the identity is unknown.
func (r *PostgresPrincipalRepository) Resolve(ctx context.Context, identity string) (*entities.Individual, error) {
	query := `
		SELECT p.id, p.is_admin, p.created_at, p.updated_at,
		       COALESCE(array_agg(m.marker) FILTER (WHERE m.marker IS NOT NULL), '{}')
		FROM principals p
		JOIN principal_logins l ON l.principal_id = p.id
		LEFT JOIN principal_markers m ON m.principal_id = p.id
		WHERE l.login = $1
		GROUP BY p.id, p.is_admin, p.created_at, p.updated_at
	`
	return r.queryIndividual(ctx, query, identity)
}

// GetByID retrieves an individual by its ID
func (r *PostgresPrincipalRepository) GetByID(ctx context.Context, id string) (*entities.Individual, error) {
	query := `
		SELECT p.id, p.is_admin, p.created_at, p.updated_at,
		       COALESCE(array_agg(m.marker) FILTER (WHERE m.marker IS NOT NULL), '{}')
		FROM principals p
		LEFT JOIN principal_markers m ON m.principal_id = p.id
		WHERE p.id = $1
		GROUP BY p.id, p.is_admin, p.created_at, p.updated_at
	`
	return r.queryIndividual(ctx, query, id)
}

func (r *PostgresPrincipalRepository) queryIndividual(ctx context.Context, query string, arg string) (*entities.Individual, error) {
	individual := &entities.Individual{}
	var markers []string

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&individual.ID, &individual.Admin,
		&individual.CreatedAt, &individual.UpdatedAt,
		pq.Array(&markers),
	)
	if err == sql.ErrNoRows {
		return nil, repositories.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}

	individual.Markers = markers
	return individual, nil
}

// Create creates a new individual and links its first login identity.
// Both rows are written in one transaction so a half-created individual
// can never be resolved.
func (r *PostgresPrincipalRepository) Create(ctx context.Context, individual *entities.Individual, identity string) error {
	if err := individual.Validate(); err != nil {
		return fmt.Errorf("invalid individual: %w", err)
	}
	if identity == "" {
		return fmt.Errorf("login identity is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO principals (id, is_admin, created_at, updated_at) VALUES ($1, $2, $3, $3)`,
		individual.ID, individual.Admin, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create principal: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO principal_logins (login, principal_id, created_at) VALUES ($1, $2, $3)`,
		identity, individual.ID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to link login: %w", err)
	}

	for _, marker := range individual.Markers {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO principal_markers (principal_id, marker, granted_at) VALUES ($1, $2, $3)`,
			individual.ID, marker, now,
		)
		if err != nil {
			return fmt.Errorf("failed to grant marker %s: %w", marker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LinkLogin attaches an additional login identity to an existing individual
func (r *PostgresPrincipalRepository) LinkLogin(ctx context.Context, id string, identity string) error {
	if identity == "" {
		return fmt.Errorf("login identity is required")
	}

	query := `INSERT INTO principal_logins (login, principal_id, created_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, identity, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to link login: %w", err)
	}
	return nil
}

// GrantMarker adds a status marker to an individual.
// Granting a marker the individual already carries is a no-op.
func (r *PostgresPrincipalRepository) GrantMarker(ctx context.Context, id string, marker string) error {
	if marker == "" {
		return fmt.Errorf("marker is required")
	}

	query := `
		INSERT INTO principal_markers (principal_id, marker, granted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (principal_id, marker) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, id, marker, time.Now())
	if err != nil {
		return fmt.Errorf("failed to grant marker: %w", err)
	}
	return nil
}

// RevokeMarker removes a status marker from an individual
func (r *PostgresPrincipalRepository) RevokeMarker(ctx context.Context, id string, marker string) error {
	query := `DELETE FROM principal_markers WHERE principal_id = $1 AND marker = $2`
	_, err := r.db.ExecContext(ctx, query, id, marker)
	if err != nil {
		return fmt.Errorf("failed to revoke marker: %w", err)
	}
	return nil
}

// SetAdmin sets or clears the administrator designation
func (r *PostgresPrincipalRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	query := `UPDATE principals SET is_admin = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, admin, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set admin: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repositories.ErrPrincipalNotFound
	}
	return nil
}
