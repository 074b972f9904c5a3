package repositories

import (
	"context"
	"errors"

	"github.com/torii-authz/torii/internal/entities"
)

// ErrPrincipalNotFound is returned when a login identity does not resolve
// to a known individual. Callers are expected to treat it as a deny.
var ErrPrincipalNotFound = errors.New("principal not found")

// PrincipalRepository defines the interface for the principal directory
type PrincipalRepository interface {
	// Resolve maps a login identity to the individual behind it, including
	// the individual's current marker set.
	// Returns ErrPrincipalNotFound when the identity is unknown.
	Resolve(ctx context.Context, identity string) (*entities.Individual, error)

	// GetByID retrieves an individual by its ID.
	// Returns ErrPrincipalNotFound when no such individual exists.
	GetByID(ctx context.Context, id string) (*entities.Individual, error)

	// Create creates a new individual and links its first login identity
	Create(ctx context.Context, individual *entities.Individual, identity string) error

	// LinkLogin attaches an additional login identity to an existing
	// individual, so a re-registration resolves to the same individual.
	LinkLogin(ctx context.Context, id string, identity string) error

	// GrantMarker adds a status marker to an individual. Granting a marker
	// the individual already carries is a no-op.
	GrantMarker(ctx context.Context, id string, marker string) error

	// RevokeMarker removes a status marker from an individual
	RevokeMarker(ctx context.Context, id string, marker string) error

	// SetAdmin sets or clears the administrator designation
	SetAdmin(ctx context.Context, id string, admin bool) error
}
