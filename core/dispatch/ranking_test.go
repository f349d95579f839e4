package dispatch

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/scrambledgregs/fleet-sub001/core/model"
)

// stubETA returns a fixed travel time for every pair and counts lookups.
// Individual legs can be forced to fail.
type stubETA struct {
	mu      sync.Mutex
	minutes float64
	calls   int
	failAll bool
}

func (s *stubETA) EstimateTravelMinutes(ctx context.Context, from, to model.GeoPoint) (float64, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.failAll {
		return 0, errors.New("eta unavailable")
	}
	return s.minutes, nil
}

func (s *stubETA) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func nopLog() testLogger { return testLogger{} }

// testLogger discards everything; tests assert on returned values only.
type testLogger struct{}

func (testLogger) Debugf(string, ...any)         {}
func (testLogger) Debugw(string, map[string]any) {}
func (testLogger) Infof(string, ...any)          {}
func (testLogger) Warnf(string, ...any)          {}
func (testLogger) Errorf(string, ...any)         {}

func repairJob() model.Job {
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return model.Job{
		ID:        "job-1",
		Location:  model.GeoPoint{Lat: 33.45, Lng: -112.07},
		Window:    &model.TimeWindow{Start: start, End: start.Add(time.Hour)},
		JobType:   "Repair",
		Value:     2000,
		Territory: "EAST",
	}
}

func TestRankEmptyRoster(t *testing.T) {
	r := NewRanker(&stubETA{minutes: 10}, NewFitScorer(), 0, nopLog())
	res, err := r.Rank(context.Background(), repairJob(), nil)
	if err != nil {
		t.Fatalf("empty roster must not be an error: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Fatalf("expected empty ranking, got %d", len(res.Candidates))
	}
}

func TestRankSkillScenario(t *testing.T) {
	// Both technicians idle in the job's territory; only skill differs.
	roster := []model.Technician{
		{ID: "a", Name: "Tech A", Skills: []string{"Repair"}, Territory: "EAST"},
		{ID: "b", Name: "Tech B", Skills: []string{"Inspection"}, Territory: "EAST"},
	}
	r := NewRanker(&stubETA{minutes: 10}, NewFitScorer(), 0, nopLog())
	res, err := r.Rank(context.Background(), repairJob(), roster)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(res.Candidates))
	}
	if res.Candidates[0].TechID != "a" {
		t.Fatalf("skilled technician must rank first, got %s", res.Candidates[0].TechID)
	}
	if res.Candidates[0].Insertion.Cost >= res.Candidates[1].Insertion.Cost {
		t.Fatal("skilled technician must rank strictly ahead")
	}
}

func TestRankNoETACallsForEmptyRoutes(t *testing.T) {
	eta := &stubETA{minutes: 10}
	roster := []model.Technician{{ID: "a", Skills: []string{"Repair"}}}
	r := NewRanker(eta, NewFitScorer(), 0, nopLog())
	res, err := r.Rank(context.Background(), repairJob(), roster)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if eta.callCount() != 0 {
		t.Fatalf("empty route must issue no ETA calls, issued %d", eta.callCount())
	}
	if res.Candidates[0].Insertion.Position != 0 || res.Candidates[0].Insertion.TravelDelta != 0 {
		t.Fatalf("empty route must score only position 0 with zero delta: %+v", res.Candidates[0].Insertion)
	}
}

func routedRoster() []model.Technician {
	return []model.Technician{
		{ID: "a", Name: "Tech A", Skills: []string{"Repair"}, Territory: "EAST", Route: []model.RouteStop{
			{JobID: "s1", Location: model.GeoPoint{Lat: 33.40, Lng: -112.00}},
			{JobID: "s2", Location: model.GeoPoint{Lat: 33.50, Lng: -112.10}},
			{JobID: "s3", Location: model.GeoPoint{Lat: 33.60, Lng: -112.20}},
		}},
		{ID: "b", Name: "Tech B", Skills: []string{"Repair"}, Territory: "WEST", Route: []model.RouteStop{
			{JobID: "s4", Location: model.GeoPoint{Lat: 34.00, Lng: -111.90}},
		}},
		{ID: "c", Name: "Tech C", Skills: []string{"Inspection"}, Territory: "EAST"},
	}
}

func TestRankDeterminism(t *testing.T) {
	r := NewRanker(&stubETA{minutes: 10}, NewFitScorer(), 4, nopLog())
	first, err := r.Rank(context.Background(), repairJob(), routedRoster())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Rank(context.Background(), repairJob(), routedRoster())
		if err != nil {
			t.Fatalf("rank: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("ranking is not deterministic:\n%+v\n%+v", first, again)
		}
	}
}

func TestRankSortOrderAndPositionBounds(t *testing.T) {
	roster := routedRoster()
	r := NewRanker(&stubETA{minutes: 10}, NewFitScorer(), 0, nopLog())
	res, err := r.Rank(context.Background(), repairJob(), roster)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	routeLen := map[string]int{}
	for _, tech := range roster {
		routeLen[tech.ID] = len(tech.Route)
	}
	for i, c := range res.Candidates {
		if i > 0 && c.Insertion.Cost < res.Candidates[i-1].Insertion.Cost {
			t.Fatalf("ranking not sorted ascending at index %d", i)
		}
		if c.Insertion.Position < 0 || c.Insertion.Position > routeLen[c.TechID] {
			t.Fatalf("position %d out of bounds for %s", c.Insertion.Position, c.TechID)
		}
	}
}

func TestRankTieBreakPreservesInputOrder(t *testing.T) {
	roster := []model.Technician{
		{ID: "first", Skills: []string{"Repair"}, Territory: "EAST"},
		{ID: "second", Skills: []string{"Repair"}, Territory: "EAST"},
	}
	r := NewRanker(&stubETA{minutes: 10}, NewFitScorer(), 0, nopLog())
	res, err := r.Rank(context.Background(), repairJob(), roster)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if res.Candidates[0].TechID != "first" {
		t.Fatalf("equal costs must keep input order, got %s first", res.Candidates[0].TechID)
	}
}

func TestBestInsertionFirstPositionWinsTies(t *testing.T) {
	// Constant travel times make both end positions equally cheap; the
	// first one scanned must win.
	roster := []model.Technician{
		{ID: "a", Skills: []string{"Repair"}, Route: []model.RouteStop{
			{Location: model.GeoPoint{Lat: 33.40, Lng: -112.00}},
			{Location: model.GeoPoint{Lat: 33.50, Lng: -112.10}},
		}},
	}
	r := NewRanker(&stubETA{minutes: 10}, NewFitScorer(), 0, nopLog())
	res, err := r.Rank(context.Background(), repairJob(), roster)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if got := res.Candidates[0].Insertion.Position; got != 0 {
		t.Fatalf("expected first tied position 0, got %d", got)
	}
}

func TestRankExcludesUnscoreableTechnician(t *testing.T) {
	roster := []model.Technician{
		{ID: "routed", Skills: []string{"Repair"}, Route: []model.RouteStop{
			{Location: model.GeoPoint{Lat: 33.40, Lng: -112.00}},
		}},
		{ID: "idle", Skills: []string{"Repair"}},
	}
	r := NewRanker(&stubETA{minutes: 10, failAll: true}, NewFitScorer(), 0, nopLog())
	res, err := r.Rank(context.Background(), repairJob(), roster)
	if err != nil {
		t.Fatalf("one bad lookup must not fail the request: %v", err)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].TechID != "idle" {
		t.Fatalf("expected only the idle technician ranked, got %+v", res.Candidates)
	}
	if _, ok := res.Excluded["routed"]; !ok {
		t.Fatalf("routed technician should be reported excluded: %+v", res.Excluded)
	}
}

func TestRankCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRanker(&stubETA{minutes: 10}, NewFitScorer(), 0, nopLog())
	if _, err := r.Rank(ctx, repairJob(), routedRoster()); err == nil {
		t.Fatal("expected context cancellation error")
	}
}
