package authorization

import (
	"context"
	"errors"
	"testing"

	"github.com/torii-authz/torii/internal/entities"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		globalRule  *entities.Rule
		rules       map[string]*entities.Rule
		markers     []string
		resource    string
		operation   string
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "no rules configured allows",
			resource:    "listings",
			operation:   "sell",
			wantAllowed: true,
			wantReason:  entities.ReasonNoRestriction,
		},
		{
			name:       "global rule denies unmarked individual",
			globalRule: &entities.Rule{Scope: entities.ScopeGlobal, AcceptedMarkers: []string{"verified"}},
			markers:    []string{"beta"},
			resource:   "listings",
			operation:  "sell",
			wantReason: entities.ReasonGlobalRuleDenied,
		},
		{
			name:        "global rule passes marked individual through to specific rule",
			globalRule:  &entities.Rule{Scope: entities.ScopeGlobal, AcceptedMarkers: []string{"verified"}},
			markers:     []string{"verified"},
			resource:    "listings",
			operation:   "sell",
			wantAllowed: true,
			wantReason:  entities.ReasonNoRestriction,
		},
		{
			name: "specific rule denies",
			rules: map[string]*entities.Rule{
				"listings#sell": {Scope: entities.ScopeOperation, Resource: "listings", Operation: "sell", AcceptedMarkers: []string{"seller"}},
			},
			markers:    []string{"beta"},
			resource:   "listings",
			operation:  "sell",
			wantReason: entities.ReasonRuleDenied,
		},
		{
			name: "specific rule satisfied",
			rules: map[string]*entities.Rule{
				"listings#sell": {Scope: entities.ScopeOperation, Resource: "listings", Operation: "sell", AcceptedMarkers: []string{"seller"}},
			},
			markers:     []string{"seller"},
			resource:    "listings",
			operation:   "sell",
			wantAllowed: true,
			wantReason:  entities.ReasonRuleSatisfied,
		},
		{
			name: "resource-wide rule covers every operation",
			rules: map[string]*entities.Rule{
				"listings#": {Scope: entities.ScopeResource, Resource: "listings", AcceptedMarkers: []string{"member"}},
			},
			markers:    nil,
			resource:   "listings",
			operation:  "browse",
			wantReason: entities.ReasonRuleDenied,
		},
		{
			name: "rule with empty accepted set allows",
			rules: map[string]*entities.Rule{
				"listings#sell": {Scope: entities.ScopeOperation, Resource: "listings", Operation: "sell", AcceptedMarkers: []string{}},
			},
			markers:     nil,
			resource:    "listings",
			operation:   "sell",
			wantAllowed: true,
			wantReason:  entities.ReasonRuleSatisfied,
		},
		{
			name:       "global and specific both apply, global wins on deny",
			globalRule: &entities.Rule{Scope: entities.ScopeGlobal, AcceptedMarkers: []string{"verified"}},
			rules: map[string]*entities.Rule{
				"listings#sell": {Scope: entities.ScopeOperation, Resource: "listings", Operation: "sell", AcceptedMarkers: []string{"seller"}},
			},
			markers:    []string{"seller"},
			resource:   "listings",
			operation:  "sell",
			wantReason: entities.ReasonGlobalRuleDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRuleRepository{globalRule: tt.globalRule, rules: tt.rules}
			evaluator := NewEvaluator(repo)
			individual := &entities.Individual{ID: "ind-1", Markers: tt.markers}

			decision, err := evaluator.Evaluate(context.Background(), individual, tt.resource, tt.operation)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if decision.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", decision.Allowed, tt.wantAllowed)
			}
			if decision.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", decision.Reason, tt.wantReason)
			}
		})
	}
}

func TestEvaluateGlobalDenyShortCircuits(t *testing.T) {
	repo := &mockRuleRepository{
		globalRule: &entities.Rule{Scope: entities.ScopeGlobal, AcceptedMarkers: []string{"verified"}},
		rules: map[string]*entities.Rule{
			"listings#sell": {Scope: entities.ScopeOperation, Resource: "listings", Operation: "sell"},
		},
	}
	evaluator := NewEvaluator(repo)
	individual := &entities.Individual{ID: "ind-1", Markers: []string{"beta"}}

	decision, err := evaluator.Evaluate(context.Background(), individual, "listings", "sell")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if decision.Allowed {
		t.Error("expected deny")
	}
	if repo.findCalls != 0 {
		t.Errorf("specific rule was fetched %d times after global deny, want 0", repo.findCalls)
	}
}

func TestEvaluateRepositoryErrors(t *testing.T) {
	t.Run("global lookup failure", func(t *testing.T) {
		repo := &mockRuleRepository{globalErr: errors.New("connection reset")}
		evaluator := NewEvaluator(repo)

		_, err := evaluator.Evaluate(context.Background(), &entities.Individual{ID: "ind-1"}, "listings", "sell")
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("specific lookup failure", func(t *testing.T) {
		repo := &mockRuleRepository{findErr: errors.New("connection reset")}
		evaluator := NewEvaluator(repo)

		_, err := evaluator.Evaluate(context.Background(), &entities.Individual{ID: "ind-1"}, "listings", "sell")
		if err == nil {
			t.Fatal("expected error")
		}
	})
}
