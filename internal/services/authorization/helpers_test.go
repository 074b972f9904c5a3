package authorization

import (
	"context"
	"sync"
	"time"

	"github.com/torii-authz/torii/internal/entities"
	"github.com/torii-authz/torii/internal/repositories"
	pkgcache "github.com/torii-authz/torii/pkg/cache"
)

// mockRuleRepository is a hand-written RuleRepository for evaluator tests.
// It counts calls so tests can assert on short-circuit behavior.
type mockRuleRepository struct {
	globalRule *entities.Rule
	globalErr  error
	rules      map[string]*entities.Rule // keyed by "resource#operation", "" operation for resource-wide
	findErr    error

	findGlobalCalls int
	findCalls       int
}

func (m *mockRuleRepository) FindGlobal(ctx context.Context) (*entities.Rule, error) {
	m.findGlobalCalls++
	if m.globalErr != nil {
		return nil, m.globalErr
	}
	return m.globalRule, nil
}

func (m *mockRuleRepository) Find(ctx context.Context, resource, operation string) (*entities.Rule, error) {
	m.findCalls++
	if m.findErr != nil {
		return nil, m.findErr
	}
	if rule, ok := m.rules[resource+"#"+operation]; ok {
		return rule, nil
	}
	if rule, ok := m.rules[resource+"#"]; ok {
		return rule, nil
	}
	return nil, nil
}

func (m *mockRuleRepository) Upsert(ctx context.Context, rule *entities.Rule) error { return nil }
func (m *mockRuleRepository) Delete(ctx context.Context, id string) error           { return nil }
func (m *mockRuleRepository) List(ctx context.Context) ([]*entities.Rule, error)    { return nil, nil }

// mockPrincipalRepository resolves logins from a fixed map.
type mockPrincipalRepository struct {
	individuals  map[string]*entities.Individual // keyed by login
	resolveErr   error
	resolveCalls int
}

func (m *mockPrincipalRepository) Resolve(ctx context.Context, identity string) (*entities.Individual, error) {
	m.resolveCalls++
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	individual, ok := m.individuals[identity]
	if !ok {
		return nil, repositories.ErrPrincipalNotFound
	}
	return individual, nil
}

func (m *mockPrincipalRepository) GetByID(ctx context.Context, id string) (*entities.Individual, error) {
	return nil, repositories.ErrPrincipalNotFound
}

func (m *mockPrincipalRepository) Create(ctx context.Context, individual *entities.Individual, identity string) error {
	return nil
}
func (m *mockPrincipalRepository) LinkLogin(ctx context.Context, id, identity string) error { return nil }
func (m *mockPrincipalRepository) GrantMarker(ctx context.Context, id, marker string) error { return nil }
func (m *mockPrincipalRepository) RevokeMarker(ctx context.Context, id, marker string) error {
	return nil
}
func (m *mockPrincipalRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	return nil
}

// stubCache is a map-backed cache that ignores TTL.
type stubCache struct {
	mu    sync.Mutex
	items map[string]interface{}
	sets  int
	gets  int
}

func newStubCache() *stubCache {
	return &stubCache{items: make(map[string]interface{})}
}

func (c *stubCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.items[key]
	return v, ok
}

func (c *stubCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.items[key] = value
	return nil
}

func (c *stubCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *stubCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]interface{})
	return nil
}

func (c *stubCache) Close() error               { return nil }
func (c *stubCache) Metrics() *pkgcache.Metrics { return nil }

// stubRevisions serves a settable revision string.
type stubRevisions struct {
	revision string
	err      error
}

func (s *stubRevisions) Current(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.revision, nil
}
