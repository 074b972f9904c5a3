package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/torii-authz/torii/internal/httpx"
	"github.com/torii-authz/torii/internal/services/authorization"
)

// DecisionRecorder records decision outcomes for observability.
type DecisionRecorder interface {
	RecordDecision(allowed bool)
}

// CheckHandler serves the decision endpoint
type CheckHandler struct {
	checker  authorization.CheckerInterface
	recorder DecisionRecorder // optional
}

// NewCheckHandler creates a new CheckHandler. recorder may be nil.
func NewCheckHandler(checker authorization.CheckerInterface, recorder DecisionRecorder) *CheckHandler {
	return &CheckHandler{checker: checker, recorder: recorder}
}

type checkRequest struct {
	Principal string `json:"principal"`
	Resource  string `json:"resource"`
	Operation string `json:"operation"`
}

type checkResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
	Admin   bool   `json:"admin"`
}

// Check handles POST /v1/check
func (h *CheckHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.checker.Check(r.Context(), &authorization.CheckRequest{
		Principal: req.Principal,
		Resource:  req.Resource,
		Operation: req.Operation,
	})
	if err != nil {
		handleCheckError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordDecision(resp.Allowed)
	}

	httpx.WriteJSON(w, http.StatusOK, checkResponse{
		Allowed: resp.Allowed,
		Reason:  resp.Reason,
		Admin:   resp.Admin,
	})
}
