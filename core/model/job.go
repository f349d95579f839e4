package model

import (
	"fmt"
	"time"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within coordinate bounds.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// TimeWindow is the requested start and end of a service appointment.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Job represents a service appointment to be scored against the roster.
// Trial jobs built by the slot generator carry no window and are never
// persisted; only the booked job is durable, and durability belongs to the
// CRM collaborator.
type Job struct {
	ID           string      `json:"id"`
	Address      string      `json:"address"`
	Location     GeoPoint    `json:"location"`
	Window       *TimeWindow `json:"window,omitempty"`
	JobType      string      `json:"job_type"` // category tag, e.g. "Repair", "Reroof"
	Value        float64     `json:"value"`    // estimated monetary value
	Territory    string      `json:"territory"`
	AssignedTech string      `json:"assigned_tech,omitempty"`
}

// Validate checks that the job is sound enough to enter the scoring pipeline.
func (j Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if !j.Location.Valid() {
		return fmt.Errorf("job %s: location out of bounds", j.ID)
	}
	if j.Value < 0 {
		return fmt.Errorf("job %s: value must be non-negative", j.ID)
	}
	if j.Window != nil {
		// A window is all-or-nothing: one zero endpoint would silently
		// reroute the job onto the slot-suggestion path.
		if j.Window.Start.IsZero() != j.Window.End.IsZero() {
			return fmt.Errorf("job %s: window requires both start and end", j.ID)
		}
		if j.Window.End.Before(j.Window.Start) {
			return fmt.Errorf("job %s: window end before start", j.ID)
		}
	}
	return nil
}

// HasWindow reports whether the job carries a committed time window.
func (j Job) HasWindow() bool {
	return j.Window != nil && !j.Window.Start.IsZero() && !j.Window.End.IsZero()
}

// WithWindow returns a copy of the job pinned to the given window. Used by
// the slot generator to build trial jobs without touching the original.
func (j Job) WithWindow(start, end time.Time) Job {
	j.Window = &TimeWindow{Start: start, End: end}
	return j
}
