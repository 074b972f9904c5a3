package entities

import (
	"fmt"
	"time"
)

// Individual represents the durable identity behind one or more login
// accounts. A person who deletes their account and re-registers under a new
// login still resolves to the same Individual, so markers earned once are
// never lost to re-registration.
type Individual struct {
	ID        string   // Individual ID (UUID)
	Admin     bool     // Administrator designation; consumed by callers for the rule bypass
	Markers   []string // Status markers earned by this individual (e.g. "beta", "age-verified")
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasMarker returns true if the individual carries the given status marker.
// Marker order and multiplicity are irrelevant.
func (i *Individual) HasMarker(marker string) bool {
	for _, m := range i.Markers {
		if m == marker {
			return true
		}
	}
	return false
}

// Validate checks if the individual is valid
func (i *Individual) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("individual ID is required")
	}
	for _, m := range i.Markers {
		if m == "" {
			return fmt.Errorf("marker must not be empty")
		}
	}
	return nil
}
