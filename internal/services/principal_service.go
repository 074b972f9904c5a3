package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/torii-authz/torii/internal/entities"
	"github.com/torii-authz/torii/internal/repositories"
)

// PrincipalService manages the principal directory: individuals, their
// login identities, and their status markers. Markers belong to the
// individual, not the login, so a re-registration keeps what was earned.
type PrincipalService struct {
	principals repositories.PrincipalRepository
}

// NewPrincipalService creates a new PrincipalService
func NewPrincipalService(principals repositories.PrincipalRepository) *PrincipalService {
	return &PrincipalService{principals: principals}
}

// Register creates a new individual with its first login identity
func (s *PrincipalService) Register(ctx context.Context, login string, admin bool) (*entities.Individual, error) {
	if login == "" {
		return nil, fmt.Errorf("login is required")
	}

	individual := &entities.Individual{
		ID:    uuid.NewString(),
		Admin: admin,
	}
	if err := s.principals.Create(ctx, individual, login); err != nil {
		return nil, err
	}
	return individual, nil
}

// LinkLogin attaches an additional login identity to an existing individual
func (s *PrincipalService) LinkLogin(ctx context.Context, id string, login string) error {
	if id == "" {
		return fmt.Errorf("individual ID is required")
	}
	if login == "" {
		return fmt.Errorf("login is required")
	}
	return s.principals.LinkLogin(ctx, id, login)
}

// GrantMarker adds a status marker to an individual
func (s *PrincipalService) GrantMarker(ctx context.Context, id string, marker string) error {
	if id == "" {
		return fmt.Errorf("individual ID is required")
	}
	if marker == "" {
		return fmt.Errorf("marker is required")
	}
	return s.principals.GrantMarker(ctx, id, marker)
}

// RevokeMarker removes a status marker from an individual
func (s *PrincipalService) RevokeMarker(ctx context.Context, id string, marker string) error {
	if id == "" {
		return fmt.Errorf("individual ID is required")
	}
	if marker == "" {
		return fmt.Errorf("marker is required")
	}
	return s.principals.RevokeMarker(ctx, id, marker)
}

// SetAdmin sets or clears the administrator designation
func (s *PrincipalService) SetAdmin(ctx context.Context, id string, admin bool) error {
	if id == "" {
		return fmt.Errorf("individual ID is required")
	}
	return s.principals.SetAdmin(ctx, id, admin)
}

// Resolve maps a login identity to the individual behind it
func (s *PrincipalService) Resolve(ctx context.Context, login string) (*entities.Individual, error) {
	if login == "" {
		return nil, fmt.Errorf("login is required")
	}
	return s.principals.Resolve(ctx, login)
}
