package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/torii-authz/torii/internal/httpx"
	"github.com/torii-authz/torii/internal/services"
)

// RuleHandler serves the administrative rule API
type RuleHandler struct {
	rules *services.RuleService
}

// NewRuleHandler creates a new RuleHandler
func NewRuleHandler(rules *services.RuleService) *RuleHandler {
	return &RuleHandler{rules: rules}
}

type putRuleRequest struct {
	Resource        string   `json:"resource"`
	Operation       string   `json:"operation"`
	AcceptedMarkers []string `json:"accepted_markers"`
}

type putGlobalRuleRequest struct {
	AcceptedMarkers []string `json:"accepted_markers"`
}

// List handles GET /v1/rules
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.ListRules(r.Context())
	if err != nil {
		handleAdminError(w, err)
		return
	}

	out := make([]ruleJSON, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleToJSON(rule))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Put handles PUT /v1/rules
func (h *RuleHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req putRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.rules.PutRule(r.Context(), req.Resource, req.Operation, req.AcceptedMarkers)
	if err != nil {
		handleAdminError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ruleToJSON(rule))
}

// PutGlobal handles PUT /v1/rules/global
func (h *RuleHandler) PutGlobal(w http.ResponseWriter, r *http.Request) {
	var req putGlobalRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.rules.PutGlobal(r.Context(), req.AcceptedMarkers)
	if err != nil {
		handleAdminError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ruleToJSON(rule))
}

// Delete handles DELETE /v1/rules/{ruleID}
func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ruleID")

	if err := h.rules.DeleteRule(r.Context(), id); err != nil {
		handleAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
