package logging

import (
	"context"
	"time"
)

// CandidateRecord mirrors one ranked candidate for logging purposes.
type CandidateRecord struct {
	TechID    string  `json:"tech_id"`
	TechName  string  `json:"tech_name"`
	Position  int     `json:"position"`
	Cost      float64 `json:"cost"`
	Rationale string  `json:"rationale"`
}

// SlotRecord mirrors one suggested slot for logging purposes.
type SlotRecord struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	TechID string    `json:"tech_id"`
	Cost   float64   `json:"cost"`
}

// LogRecord captures one dispatch decision and its ranked alternatives.
type LogRecord struct {
	Timestamp  time.Time         `json:"timestamp"`
	DecisionID string            `json:"decision_id"`
	JobID      string            `json:"job_id"`
	Mode       string            `json:"mode"`
	Booked     bool              `json:"booked"`
	TechID     string            `json:"tech_id,omitempty"`
	Cost       float64           `json:"cost,omitempty"`
	Candidates []CandidateRecord `json:"candidates,omitempty"`
	Slots      []SlotRecord      `json:"slots,omitempty"`
	Excluded   map[string]string `json:"excluded,omitempty"`
}

// LogQuery defines filters for retrieving records.
type LogQuery struct {
	Start  time.Time
	End    time.Time
	JobID  string
	TechID string
	Mode   string
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// matches reports whether a record passes the query filters.
func (q LogQuery) matches(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.JobID != "" && r.JobID != q.JobID {
		return false
	}
	if q.Mode != "" && r.Mode != q.Mode {
		return false
	}
	if q.TechID != "" {
		if r.TechID == q.TechID {
			return true
		}
		for _, c := range r.Candidates {
			if c.TechID == q.TechID {
				return true
			}
		}
		return false
	}
	return true
}
