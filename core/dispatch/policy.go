package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/scrambledgregs/fleet-sub001/core/logger"
	"github.com/scrambledgregs/fleet-sub001/core/model"
)

// ErrBookingFailed marks a commit-stage failure: scoring succeeded but one
// of the external booking writes did not. Callers decide whether to retry
// or fall back to approval; the engine never retries.
var ErrBookingFailed = errors.New("dispatch: booking write failed")

// Decision is the outcome of the dispatch policy for one finalized job.
type Decision struct {
	DecisionID   string            `json:"decision_id"`
	Mode         Mode              `json:"mode"`
	Booked       bool              `json:"booked"`
	NoCandidates bool              `json:"no_candidates"`
	Candidate    *RankedCandidate  `json:"candidate,omitempty"`
	Candidates   []RankedCandidate `json:"candidates,omitempty"`
}

// DecisionPolicy selects between auto-commit and human approval. In auto
// mode the top-ranked candidate is written to the booking collaborator;
// in approve mode nothing is written and the full ranked list is returned.
type DecisionPolicy struct {
	crm BookingClient
	log logger.Logger
}

// NewDecisionPolicy creates a policy. The booking client may only be nil
// when the policy is used exclusively in approve mode.
func NewDecisionPolicy(crm BookingClient, log logger.Logger) *DecisionPolicy {
	return &DecisionPolicy{crm: crm, log: log}
}

// Decide applies the policy to a ranking. An empty ranking yields a
// "no candidates" decision in either mode and never touches the booking
// collaborator.
func (p *DecisionPolicy) Decide(ctx context.Context, job model.Job, ranking RankResult, mode Mode) (Decision, error) {
	dec := Decision{DecisionID: uuid.NewString(), Mode: mode}
	if len(ranking.Candidates) == 0 {
		dec.NoCandidates = true
		p.log.Infof("no candidates for job %s, nothing to commit", job.ID)
		return dec, nil
	}

	if mode == ModeApprove {
		dec.Candidates = ranking.Candidates
		return dec, nil
	}

	top := ranking.Candidates[0]
	dec.Candidate = &top
	if p.crm == nil {
		return dec, fmt.Errorf("%w: no booking client configured", ErrBookingFailed)
	}
	if err := p.crm.AssignTechnician(ctx, job.ID, top.TechID); err != nil {
		bookingsTotal.WithLabelValues("failed").Inc()
		return dec, fmt.Errorf("%w: assign technician: %v", ErrBookingFailed, err)
	}
	if job.Window != nil {
		if err := p.crm.ConfirmWindow(ctx, job.ID, job.Window.Start, job.Window.End); err != nil {
			bookingsTotal.WithLabelValues("failed").Inc()
			return dec, fmt.Errorf("%w: confirm window: %v", ErrBookingFailed, err)
		}
	}
	note := fmt.Sprintf("Dispatched to %s (position %d, cost %.3f): %s",
		top.TechName, top.Insertion.Position, top.Insertion.Cost, top.Insertion.Rationale)
	if err := p.crm.AppendNote(ctx, job.ID, note); err != nil {
		bookingsTotal.WithLabelValues("failed").Inc()
		return dec, fmt.Errorf("%w: append note: %v", ErrBookingFailed, err)
	}

	dec.Booked = true
	bookingsTotal.WithLabelValues("booked").Inc()
	p.log.Infof("job %s booked to %s at cost %.3f", job.ID, top.TechID, top.Insertion.Cost)
	return dec, nil
}

// AuditNote rebuilds the note text written for a decision, used by callers
// that notify field clients after a booking.
func (d Decision) AuditNote() string {
	if d.Candidate == nil {
		return ""
	}
	c := d.Candidate
	return fmt.Sprintf("Dispatched to %s (position %d, cost %.3f): %s",
		c.TechName, c.Insertion.Position, c.Insertion.Cost, c.Insertion.Rationale)
}
