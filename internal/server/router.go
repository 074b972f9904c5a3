package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/torii-authz/torii/internal/handlers"
	"github.com/torii-authz/torii/internal/httpx"
	"github.com/torii-authz/torii/internal/mw"
	"github.com/torii-authz/torii/internal/services"
	"github.com/torii-authz/torii/internal/services/authorization"
)

// Deps bundles the collaborators the router needs.
type Deps struct {
	Checker    authorization.CheckerInterface
	Rules      *services.RuleService
	Principals *services.PrincipalService

	// Optional collaborators. A nil Health makes /healthz unconditionally
	// healthy; a nil Recorder or MetricsMW disables that instrumentation.
	Health    func(r *http.Request) error
	Recorder  handlers.DecisionRecorder
	MetricsMW func(http.Handler) http.Handler
}

// Options holds router behavior knobs.
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
	// ProtectAdmin puts the administrative API behind the authorizer
	// itself, under the "admin" resource. Off by default so a fresh
	// deployment can bootstrap its first rules and principals.
	ProtectAdmin   bool
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP API.
func NewRouter(deps Deps, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r.Use(middleware.Timeout(timeout))

	if deps.MetricsMW != nil {
		r.Use(deps.MetricsMW)
	}

	if opts.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.PrincipalHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(req); err != nil {
				httpx.WriteError(w, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	checkHandler := handlers.NewCheckHandler(deps.Checker, deps.Recorder)
	ruleHandler := handlers.NewRuleHandler(deps.Rules)
	principalHandler := handlers.NewPrincipalHandler(deps.Principals)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/check", checkHandler.Check)

		r.Group(func(r chi.Router) {
			if opts.ProtectAdmin {
				r.Use(mw.Authorize(deps.Checker, "admin", mw.OperationFromMethod))
			}

			r.Get("/rules", ruleHandler.List)
			r.Put("/rules", ruleHandler.Put)
			r.Put("/rules/global", ruleHandler.PutGlobal)
			r.Delete("/rules/{ruleID}", ruleHandler.Delete)

			r.Post("/principals", principalHandler.Register)
			r.Get("/principals/resolve", principalHandler.Resolve)
			r.Post("/principals/{principalID}/logins", principalHandler.LinkLogin)
			r.Put("/principals/{principalID}/markers/{marker}", principalHandler.GrantMarker)
			r.Delete("/principals/{principalID}/markers/{marker}", principalHandler.RevokeMarker)
			r.Put("/principals/{principalID}/admin", principalHandler.SetAdmin)
		})
	})

	return r
}
