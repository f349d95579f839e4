package dispatch

import (
	"context"
	"time"

	"github.com/scrambledgregs/fleet-sub001/core/model"
)

// Mode selects how a dispatch decision is executed.
type Mode string

const (
	// ModeAuto commits the top-ranked candidate to the booking collaborator.
	ModeAuto Mode = "auto"
	// ModeApprove returns the ranked list for human confirmation.
	ModeApprove Mode = "approve"
)

// Valid reports whether the mode is one of the two supported values.
func (m Mode) Valid() bool { return m == ModeAuto || m == ModeApprove }

// Insertion describes one hypothetical placement of a job in a route.
// Position i means "insert before stop i"; i == len(route) appends.
type Insertion struct {
	Position    int     `json:"position"`
	TravelDelta float64 `json:"travel_delta_minutes"`
	Cost        float64 `json:"cost"`
	Rationale   string  `json:"rationale"`
}

// RankedCandidate pairs a technician with their best insertion for a job.
type RankedCandidate struct {
	TechID    string    `json:"tech_id"`
	TechName  string    `json:"tech_name"`
	Insertion Insertion `json:"insertion"`
}

// RankResult is the output of ranking the full roster for one job.
// Candidates are sorted ascending by cost; index 0 is the best fit.
// Excluded maps technician IDs to the reason they could not be scored.
type RankResult struct {
	JobID      string            `json:"job_id"`
	Candidates []RankedCandidate `json:"candidates"`
	Excluded   map[string]string `json:"excluded,omitempty"`
}

// SlotOption is one candidate start time with the best fit found for it.
type SlotOption struct {
	Start time.Time       `json:"start"`
	End   time.Time       `json:"end"`
	Top   RankedCandidate `json:"top"`
}

// RosterRanking ranks the roster for one job. Implemented by Ranker;
// declared as an interface so the slot generator and policy can be tested
// against stubs.
type RosterRanking interface {
	Rank(ctx context.Context, job model.Job, roster []model.Technician) (RankResult, error)
}

// BookingClient is the external CRM/scheduling collaborator used by the
// decision policy in auto mode. Each write is independent; the engine does
// not retry failures.
type BookingClient interface {
	AssignTechnician(ctx context.Context, jobID, techID string) error
	ConfirmWindow(ctx context.Context, jobID string, start, end time.Time) error
	AppendNote(ctx context.Context, jobID, text string) error
}

// AssignmentNotifier announces committed assignments to field clients.
// Notification is best-effort and never blocks a booking.
type AssignmentNotifier interface {
	NotifyAssignment(ctx context.Context, techID string, job model.Job, note string) error
}
