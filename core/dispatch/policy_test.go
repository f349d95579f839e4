package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// recordingCRM counts booking writes and can fail a chosen operation.
type recordingCRM struct {
	assigns  int
	confirms int
	notes    []string
	lastTech string
	failOn   string
}

func (c *recordingCRM) AssignTechnician(ctx context.Context, jobID, techID string) error {
	if c.failOn == "assign" {
		return errors.New("crm down")
	}
	c.assigns++
	c.lastTech = techID
	return nil
}

func (c *recordingCRM) ConfirmWindow(ctx context.Context, jobID string, start, end time.Time) error {
	if c.failOn == "confirm" {
		return errors.New("crm down")
	}
	c.confirms++
	return nil
}

func (c *recordingCRM) AppendNote(ctx context.Context, jobID, text string) error {
	if c.failOn == "note" {
		return errors.New("crm down")
	}
	c.notes = append(c.notes, text)
	return nil
}

func rankedResult() RankResult {
	return RankResult{
		JobID: "job-1",
		Candidates: []RankedCandidate{
			{TechID: "t1", TechName: "Ana", Insertion: Insertion{Position: 2, TravelDelta: 8, Cost: 3.1, Rationale: "Δtravel ~8m, skill=1, value=4%"}},
			{TechID: "t2", TechName: "Ben", Insertion: Insertion{Position: 0, TravelDelta: 14, Cost: 6.7, Rationale: "Δtravel ~14m, skill=0.5, value=4%"}},
		},
	}
}

func TestDecideAutoEmptyRankingNoWrites(t *testing.T) {
	crm := &recordingCRM{}
	p := NewDecisionPolicy(crm, nopLog())
	dec, err := p.Decide(context.Background(), repairJob(), RankResult{}, ModeAuto)
	if err != nil {
		t.Fatalf("no candidates is not an error: %v", err)
	}
	if !dec.NoCandidates || dec.Booked {
		t.Fatalf("expected no-candidates decision, got %+v", dec)
	}
	if crm.assigns != 0 || crm.confirms != 0 || len(crm.notes) != 0 {
		t.Fatal("empty ranking must not touch the booking collaborator")
	}
}

func TestDecideAutoBooksTopCandidate(t *testing.T) {
	crm := &recordingCRM{}
	p := NewDecisionPolicy(crm, nopLog())
	dec, err := p.Decide(context.Background(), repairJob(), rankedResult(), ModeAuto)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !dec.Booked || dec.Candidate == nil || dec.Candidate.TechID != "t1" {
		t.Fatalf("expected top candidate booked, got %+v", dec)
	}
	if crm.assigns != 1 || crm.confirms != 1 || len(crm.notes) != 1 {
		t.Fatalf("expected three writes, got %d/%d/%d", crm.assigns, crm.confirms, len(crm.notes))
	}
	if crm.lastTech != "t1" {
		t.Fatalf("assigned %s, want t1", crm.lastTech)
	}
	if !strings.Contains(crm.notes[0], "cost 3.100") || !strings.Contains(crm.notes[0], "Δtravel ~8m") {
		t.Fatalf("audit note missing cost or rationale: %q", crm.notes[0])
	}
	if dec.DecisionID == "" {
		t.Fatal("decision id must be set")
	}
}

func TestDecideApproveWritesNothing(t *testing.T) {
	crm := &recordingCRM{}
	p := NewDecisionPolicy(crm, nopLog())
	dec, err := p.Decide(context.Background(), repairJob(), rankedResult(), ModeApprove)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if dec.Booked {
		t.Fatal("approve mode must not book")
	}
	if len(dec.Candidates) != 2 {
		t.Fatalf("approve mode must surface the full list, got %d", len(dec.Candidates))
	}
	if crm.assigns != 0 || crm.confirms != 0 || len(crm.notes) != 0 {
		t.Fatal("approve mode must not touch the booking collaborator")
	}
}

func TestDecideAutoSurfacesBookingFailure(t *testing.T) {
	for _, failOn := range []string{"assign", "confirm", "note"} {
		crm := &recordingCRM{failOn: failOn}
		p := NewDecisionPolicy(crm, nopLog())
		dec, err := p.Decide(context.Background(), repairJob(), rankedResult(), ModeAuto)
		if !errors.Is(err, ErrBookingFailed) {
			t.Fatalf("failure on %s: expected ErrBookingFailed, got %v", failOn, err)
		}
		if dec.Booked {
			t.Fatalf("failure on %s: decision must not report booked", failOn)
		}
	}
}
