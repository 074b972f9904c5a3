package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/torii-authz/torii/internal/entities"
	"github.com/torii-authz/torii/internal/httpx"
	"github.com/torii-authz/torii/internal/repositories"
)

// === Shared helpers for all handlers ===

// ruleJSON is the wire representation of a rule
type ruleJSON struct {
	ID              string   `json:"id"`
	Scope           string   `json:"scope"`
	Resource        string   `json:"resource,omitempty"`
	Operation       string   `json:"operation,omitempty"`
	AcceptedMarkers []string `json:"accepted_markers"`
	CreatedAt       string   `json:"created_at,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
}

// individualJSON is the wire representation of an individual
type individualJSON struct {
	ID      string   `json:"id"`
	Admin   bool     `json:"admin"`
	Markers []string `json:"markers"`
}

func ruleToJSON(rule *entities.Rule) ruleJSON {
	out := ruleJSON{
		ID:              rule.ID,
		Scope:           string(rule.Scope),
		Resource:        rule.Resource,
		Operation:       rule.Operation,
		AcceptedMarkers: rule.AcceptedMarkers,
	}
	if out.AcceptedMarkers == nil {
		out.AcceptedMarkers = []string{}
	}
	if !rule.CreatedAt.IsZero() {
		out.CreatedAt = rule.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !rule.UpdatedAt.IsZero() {
		out.UpdatedAt = rule.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func individualToJSON(individual *entities.Individual) individualJSON {
	out := individualJSON{
		ID:      individual.ID,
		Admin:   individual.Admin,
		Markers: individual.Markers,
	}
	if out.Markers == nil {
		out.Markers = []string{}
	}
	return out
}

// handleCheckError maps a Check failure to an HTTP status. Collaborator
// failures come back as 503 so callers can fail closed.
func handleCheckError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repositories.ErrPrincipalNotFound):
		httpx.WriteError(w, http.StatusNotFound, "principal not found")
	case isValidationError(err):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		httpx.WriteError(w, http.StatusServiceUnavailable, "authorization backend unavailable")
	}
}

// handleAdminError maps an administrative write failure to an HTTP status
func handleAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repositories.ErrPrincipalNotFound):
		httpx.WriteError(w, http.StatusNotFound, "principal not found")
	case isValidationError(err):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case strings.Contains(err.Error(), "not found"):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func isValidationError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "is required") ||
		strings.Contains(msg, "must not") ||
		strings.Contains(msg, "invalid")
}
