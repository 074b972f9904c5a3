package entities

import (
	"fmt"
	"time"
)

// RuleScope identifies which requests a rule applies to. The global scope
// replaces the reserved-resource-name convention: there is no sentinel
// resource string that could collide with a real resource.
type RuleScope string

const (
	// ScopeGlobal applies to every request, regardless of resource.
	// At most one global rule may exist.
	ScopeGlobal RuleScope = "global"

	// ScopeResource applies to every operation on a single resource.
	ScopeResource RuleScope = "resource"

	// ScopeOperation applies to a single operation on a single resource.
	ScopeOperation RuleScope = "operation"
)

// Rule describes the authorization requirement for one key in the rule
// store. Rules are created and edited out-of-band by administrators; the
// evaluator only ever reads them.
type Rule struct {
	ID              string    // Rule ID (UUID)
	Scope           RuleScope // Which requests the rule applies to
	Resource        string    // Resource name (empty for global rules)
	Operation       string    // Operation name (empty for global and resource-wide rules)
	AcceptedMarkers []string  // Markers that satisfy the rule; empty means no restriction
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Allows reports whether an individual carrying the given markers satisfies
// this rule. A rule with no accepted markers is permissive: an empty set
// means the restriction is currently switched off, not that nobody
// qualifies. Otherwise at least one shared marker is required.
func (r *Rule) Allows(markers []string) bool {
	if len(r.AcceptedMarkers) == 0 {
		return true
	}

	accepted := make(map[string]struct{}, len(r.AcceptedMarkers))
	for _, m := range r.AcceptedMarkers {
		accepted[m] = struct{}{}
	}

	for _, m := range markers {
		if _, ok := accepted[m]; ok {
			return true
		}
	}
	return false
}

// Validate checks that the rule's fields match its scope
func (r *Rule) Validate() error {
	switch r.Scope {
	case ScopeGlobal:
		if r.Resource != "" {
			return fmt.Errorf("global rule must not name a resource")
		}
		if r.Operation != "" {
			return fmt.Errorf("global rule must not name an operation")
		}
	case ScopeResource:
		if r.Resource == "" {
			return fmt.Errorf("resource is required")
		}
		if r.Operation != "" {
			return fmt.Errorf("resource-wide rule must not name an operation")
		}
	case ScopeOperation:
		if r.Resource == "" {
			return fmt.Errorf("resource is required")
		}
		if r.Operation == "" {
			return fmt.Errorf("operation is required")
		}
	default:
		return fmt.Errorf("unknown rule scope: %s", r.Scope)
	}

	for _, m := range r.AcceptedMarkers {
		if m == "" {
			return fmt.Errorf("accepted marker must not be empty")
		}
	}
	return nil
}

// String returns a string representation of the rule's key
// Format: "*" for global, "resource" or "resource#operation" otherwise
func (r *Rule) String() string {
	switch r.Scope {
	case ScopeGlobal:
		return "*"
	case ScopeResource:
		return r.Resource
	default:
		return fmt.Sprintf("%s#%s", r.Resource, r.Operation)
	}
}
