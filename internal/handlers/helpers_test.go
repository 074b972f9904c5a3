package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/torii-authz/torii/internal/entities"
	"github.com/torii-authz/torii/internal/repositories"
	"github.com/torii-authz/torii/internal/services/authorization"
)

// stubChecker returns a canned response or error.
type stubChecker struct {
	resp *authorization.CheckResponse
	err  error
	last *authorization.CheckRequest
}

func (c *stubChecker) Check(ctx context.Context, req *authorization.CheckRequest) (*authorization.CheckResponse, error) {
	c.last = req
	if c.err != nil {
		return nil, c.err
	}
	return c.resp, nil
}

// countingRecorder counts decision outcomes.
type countingRecorder struct {
	allowed int
	denied  int
}

func (r *countingRecorder) RecordDecision(allowed bool) {
	if allowed {
		r.allowed++
	} else {
		r.denied++
	}
}

// memoryRuleRepository is an in-memory RuleRepository for handler tests.
type memoryRuleRepository struct {
	rules   map[string]*entities.Rule // keyed by ID
	global  *entities.Rule
	findErr error
}

func newMemoryRuleRepository() *memoryRuleRepository {
	return &memoryRuleRepository{rules: make(map[string]*entities.Rule)}
}

func (m *memoryRuleRepository) FindGlobal(ctx context.Context) (*entities.Rule, error) {
	return m.global, nil
}

func (m *memoryRuleRepository) Find(ctx context.Context, resource, operation string) (*entities.Rule, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.rules {
		if r.Resource == resource && r.Operation == operation {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memoryRuleRepository) Upsert(ctx context.Context, rule *entities.Rule) error {
	if rule.Scope == entities.ScopeGlobal {
		m.global = rule
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *memoryRuleRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.rules[id]; !ok {
		return errNotFound("rule", id)
	}
	delete(m.rules, id)
	return nil
}

func (m *memoryRuleRepository) List(ctx context.Context) ([]*entities.Rule, error) {
	out := make([]*entities.Rule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	return out, nil
}

// memoryPrincipalRepository is an in-memory PrincipalRepository.
type memoryPrincipalRepository struct {
	byLogin map[string]*entities.Individual
	byID    map[string]*entities.Individual
}

func newMemoryPrincipalRepository() *memoryPrincipalRepository {
	return &memoryPrincipalRepository{
		byLogin: make(map[string]*entities.Individual),
		byID:    make(map[string]*entities.Individual),
	}
}

func (m *memoryPrincipalRepository) Resolve(ctx context.Context, identity string) (*entities.Individual, error) {
	individual, ok := m.byLogin[identity]
	if !ok {
		return nil, repositories.ErrPrincipalNotFound
	}
	return individual, nil
}

func (m *memoryPrincipalRepository) GetByID(ctx context.Context, id string) (*entities.Individual, error) {
	individual, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrPrincipalNotFound
	}
	return individual, nil
}

func (m *memoryPrincipalRepository) Create(ctx context.Context, individual *entities.Individual, identity string) error {
	m.byID[individual.ID] = individual
	m.byLogin[identity] = individual
	return nil
}

func (m *memoryPrincipalRepository) LinkLogin(ctx context.Context, id, identity string) error {
	individual, ok := m.byID[id]
	if !ok {
		return repositories.ErrPrincipalNotFound
	}
	m.byLogin[identity] = individual
	return nil
}

func (m *memoryPrincipalRepository) GrantMarker(ctx context.Context, id, marker string) error {
	individual, ok := m.byID[id]
	if !ok {
		return repositories.ErrPrincipalNotFound
	}
	if !individual.HasMarker(marker) {
		individual.Markers = append(individual.Markers, marker)
	}
	return nil
}

func (m *memoryPrincipalRepository) RevokeMarker(ctx context.Context, id, marker string) error {
	individual, ok := m.byID[id]
	if !ok {
		return repositories.ErrPrincipalNotFound
	}
	kept := individual.Markers[:0]
	for _, existing := range individual.Markers {
		if existing != marker {
			kept = append(kept, existing)
		}
	}
	individual.Markers = kept
	return nil
}

func (m *memoryPrincipalRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	individual, ok := m.byID[id]
	if !ok {
		return repositories.ErrPrincipalNotFound
	}
	individual.Admin = admin
	return nil
}

type errNotFoundError struct{ kind, id string }

func errNotFound(kind, id string) error { return &errNotFoundError{kind: kind, id: id} }

func (e *errNotFoundError) Error() string { return e.kind + " not found: " + e.id }

// serve routes a request through a chi router so URL params resolve.
func serve(register func(r chi.Router), req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	register(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
