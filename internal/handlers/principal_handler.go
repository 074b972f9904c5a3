package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/torii-authz/torii/internal/httpx"
	"github.com/torii-authz/torii/internal/services"
)

// PrincipalHandler serves the administrative principal directory API
type PrincipalHandler struct {
	principals *services.PrincipalService
}

// NewPrincipalHandler creates a new PrincipalHandler
func NewPrincipalHandler(principals *services.PrincipalService) *PrincipalHandler {
	return &PrincipalHandler{principals: principals}
}

type registerRequest struct {
	Login string `json:"login"`
	Admin bool   `json:"admin"`
}

type linkLoginRequest struct {
	Login string `json:"login"`
}

type setAdminRequest struct {
	Admin bool `json:"admin"`
}

// Register handles POST /v1/principals
func (h *PrincipalHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	individual, err := h.principals.Register(r.Context(), req.Login, req.Admin)
	if err != nil {
		handleAdminError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, individualToJSON(individual))
}

// Resolve handles GET /v1/principals/resolve?login=...
func (h *PrincipalHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	login := r.URL.Query().Get("login")

	individual, err := h.principals.Resolve(r.Context(), login)
	if err != nil {
		handleAdminError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, individualToJSON(individual))
}

// LinkLogin handles POST /v1/principals/{principalID}/logins
func (h *PrincipalHandler) LinkLogin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "principalID")

	var req linkLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.principals.LinkLogin(r.Context(), id, req.Login); err != nil {
		handleAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GrantMarker handles PUT /v1/principals/{principalID}/markers/{marker}
func (h *PrincipalHandler) GrantMarker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "principalID")
	marker := chi.URLParam(r, "marker")

	if err := h.principals.GrantMarker(r.Context(), id, marker); err != nil {
		handleAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevokeMarker handles DELETE /v1/principals/{principalID}/markers/{marker}
func (h *PrincipalHandler) RevokeMarker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "principalID")
	marker := chi.URLParam(r, "marker")

	if err := h.principals.RevokeMarker(r.Context(), id, marker); err != nil {
		handleAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAdmin handles PUT /v1/principals/{principalID}/admin
func (h *PrincipalHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "principalID")

	var req setAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.principals.SetAdmin(r.Context(), id, req.Admin); err != nil {
		handleAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
