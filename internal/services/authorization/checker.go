package authorization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/torii-authz/torii/internal/entities"
	"github.com/torii-authz/torii/internal/repositories"
	"github.com/torii-authz/torii/internal/repositories/postgres"
	"github.com/torii-authz/torii/pkg/cache"
)

// CheckerInterface defines the interface for authorization checks
type CheckerInterface interface {
	Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error)
}

// Checker is the public entry point for authorization checks. It resolves
// the requesting principal, then hands the rule evaluation to the
// Evaluator. An unknown principal fails before any rule lookup.
type Checker struct {
	principals repositories.PrincipalRepository
	evaluator  *Evaluator
	cache      cache.Cache               // Optional cache for decisions
	revisions  postgres.RevisionProvider // Revision source for cache keys
	cacheTTL   time.Duration             // TTL for cached decisions
}

// CheckRequest contains the parameters for one authorization check
type CheckRequest struct {
	Principal string // Login identity of the requesting principal
	Resource  string // Resource the operation targets (e.g. "listings")
	Operation string // Operation within the resource (e.g. "sell")
}

// CheckResponse contains the result of an authorization check.
// Admin reports the resolved individual's administrator designation;
// callers may use it to bypass a deny, the evaluator itself never does.
type CheckResponse struct {
	Allowed bool   // Whether the rules permit the operation
	Reason  string // Why the decision came out this way
	Admin   bool   // Administrator designation of the resolved individual
}

// NewChecker creates a new Checker without decision caching
func NewChecker(principals repositories.PrincipalRepository, evaluator *Evaluator) *Checker {
	return &Checker{
		principals: principals,
		evaluator:  evaluator,
	}
}

// NewCheckerWithCache creates a new Checker with decision caching enabled.
// Cached entries are keyed by the rule-store revision and the individual's
// marker set, so a rule edit or a marker change invalidates instantly and
// cached results are indistinguishable from fresh evaluations.
func NewCheckerWithCache(
	principals repositories.PrincipalRepository,
	evaluator *Evaluator,
	c cache.Cache,
	revisions postgres.RevisionProvider,
	cacheTTL time.Duration,
) *Checker {
	return &Checker{
		principals: principals,
		evaluator:  evaluator,
		cache:      c,
		revisions:  revisions,
		cacheTTL:   cacheTTL,
	}
}

// Check performs an authorization check.
// Returns repositories.ErrPrincipalNotFound when the principal identity does
// not resolve; callers are expected to treat that as a deny.
func (c *Checker) Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, fmt.Errorf("invalid check request: %w", err)
	}

	// Resolve first: an unknown principal must fail before any rule lookup,
	// and resolution is never cached so marker changes apply immediately.
	individual, err := c.principals.Resolve(ctx, req.Principal)
	if err != nil {
		if errors.Is(err, repositories.ErrPrincipalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}

	useCache := c.cache != nil && c.revisions != nil

	var cacheKey string
	if useCache {
		revision, err := c.revisions.Current(ctx)
		if err != nil {
			// Evaluate directly when the revision source is unavailable.
			useCache = false
		} else {
			cacheKey = c.cacheKey(req, individual, revision)
			if cached, found := c.cache.Get(ctx, cacheKey); found {
				if decision, ok := cached.(entities.Decision); ok {
					return &CheckResponse{
						Allowed: decision.Allowed,
						Reason:  decision.Reason,
						Admin:   individual.Admin,
					}, nil
				}
			}
		}
	}

	decision, err := c.evaluator.Evaluate(ctx, individual, req.Resource, req.Operation)
	if err != nil {
		return nil, err
	}

	if useCache && cacheKey != "" {
		_ = c.cache.Set(ctx, cacheKey, *decision, c.cacheTTL)
	}

	return &CheckResponse{
		Allowed: decision.Allowed,
		Reason:  decision.Reason,
		Admin:   individual.Admin,
	}, nil
}

// cacheKey builds the cache key for a check. The marker set is sorted
// before hashing, so the key is order-independent.
func (c *Checker) cacheKey(req *CheckRequest, individual *entities.Individual, revision string) string {
	markers := append([]string(nil), individual.Markers...)
	sort.Strings(markers)

	keyData := fmt.Sprintf("%s:%s:%s:%s",
		revision,
		req.Resource,
		req.Operation,
		strings.Join(markers, ","),
	)
	hash := sha256.Sum256([]byte(keyData))
	return hex.EncodeToString(hash[:])
}

// validateRequest validates the check request
func (c *Checker) validateRequest(req *CheckRequest) error {
	if req.Principal == "" {
		return fmt.Errorf("principal is required")
	}
	if req.Resource == "" {
		return fmt.Errorf("resource is required")
	}
	if req.Operation == "" {
		return fmt.Errorf("operation is required")
	}
	return nil
}
