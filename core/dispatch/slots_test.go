package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/scrambledgregs/fleet-sub001/core/model"
)

// stubRanker returns a canned result for every probe.
type stubRanker struct {
	result RankResult
	calls  int
	bases  []time.Time
}

func (s *stubRanker) Rank(ctx context.Context, job model.Job, roster []model.Technician) (RankResult, error) {
	s.calls++
	if job.Window != nil {
		s.bases = append(s.bases, job.Window.Start)
	}
	return s.result, nil
}

func TestSuggestReturnsTopThreeSlots(t *testing.T) {
	ranker := &stubRanker{result: RankResult{
		Candidates: []RankedCandidate{{TechID: "t1", TechName: "Tech 1", Insertion: Insertion{Cost: 1.5}}},
	}}
	gen := NewSlotGenerator(ranker)
	base := time.Date(2025, 6, 2, 9, 0, 42, 1234, time.UTC)
	job := model.Job{ID: "j1", Location: model.GeoPoint{Lat: 1, Lng: 1}}

	slots, err := gen.Suggest(context.Background(), base, job, nil)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if ranker.calls != DefaultProbeCount {
		t.Fatalf("expected %d probes, got %d", DefaultProbeCount, ranker.calls)
	}
	if len(slots) != DefaultSlotsKept {
		t.Fatalf("expected %d slots, got %d", DefaultSlotsKept, len(slots))
	}
	// Equal costs keep probe order: 30 minutes apart from the first probe,
	// seconds zeroed.
	first := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	for i, s := range slots {
		want := first.Add(time.Duration(i) * DefaultProbeStep)
		if !s.Start.Equal(want) {
			t.Fatalf("slot %d start %v, want %v", i, s.Start, want)
		}
		if !s.End.Equal(want.Add(DefaultServiceDuration)) {
			t.Fatalf("slot %d end %v, want %v", i, s.End, want.Add(DefaultServiceDuration))
		}
		if s.Top.TechID != "t1" {
			t.Fatalf("slot %d top %s", i, s.Top.TechID)
		}
	}
}

func TestSuggestProbesCarryTrialWindows(t *testing.T) {
	ranker := &stubRanker{result: RankResult{
		Candidates: []RankedCandidate{{TechID: "t1", Insertion: Insertion{Cost: 1}}},
	}}
	gen := NewSlotGenerator(ranker)
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	job := model.Job{ID: "j1", Location: model.GeoPoint{Lat: 1, Lng: 1}}
	if _, err := gen.Suggest(context.Background(), base, job, nil); err != nil {
		t.Fatalf("suggest: %v", err)
	}
	for i, got := range ranker.bases {
		want := base.Add(time.Duration(i) * DefaultProbeStep)
		if !got.Equal(want) {
			t.Fatalf("probe %d pinned to %v, want %v", i, got, want)
		}
	}
	if job.Window != nil {
		t.Fatal("original job must stay windowless")
	}
}

func TestSuggestEmptyWhenNothingScoreable(t *testing.T) {
	ranker := &stubRanker{result: RankResult{}}
	gen := NewSlotGenerator(ranker)
	slots, err := gen.Suggest(context.Background(), time.Now(), model.Job{ID: "j1", Location: model.GeoPoint{Lat: 1, Lng: 1}}, nil)
	if err != nil {
		t.Fatalf("no availability is not an error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}
