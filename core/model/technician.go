package model

import (
	"fmt"
	"time"
)

// RouteStop is one committed stop on a technician's route.
type RouteStop struct {
	JobID    string    `json:"job_id"`
	Location GeoPoint  `json:"location"`
	Anchor   time.Time `json:"anchor,omitempty"` // scheduled arrival when known
}

// Technician is one member of the roster with an ordered route of stops.
// The route is immutable input to a scoring pass; insertion is hypothetical
// until the decision policy commits it externally.
type Technician struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Skills    []string    `json:"skills"`
	Territory string      `json:"territory"`
	Route     []RouteStop `json:"route"`
}

// Validate checks the technician configuration.
func (t Technician) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("technician id is required")
	}
	for i, s := range t.Route {
		if !s.Location.Valid() {
			return fmt.Errorf("technician %s: stop %d location out of bounds", t.ID, i)
		}
	}
	return nil
}

// HasSkill reports whether the technician's skill set contains the tag.
// Matching is exact; partial credit for a miss is the scorer's concern.
func (t Technician) HasSkill(tag string) bool {
	for _, s := range t.Skills {
		if s == tag {
			return true
		}
	}
	return false
}
