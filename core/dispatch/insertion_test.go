package dispatch

import (
	"testing"

	"github.com/scrambledgregs/fleet-sub001/core/eta"
	"github.com/scrambledgregs/fleet-sub001/core/model"
)

func tableOf(minutes map[eta.Leg]float64) *legTable {
	return &legTable{minutes: minutes, errs: map[eta.Leg]error{}}
}

func TestInsertionLegsEmptyRoute(t *testing.T) {
	job := model.Job{ID: "j", Location: model.GeoPoint{Lat: 1, Lng: 1}}
	if legs := insertionLegs(job, nil, 0); len(legs) != 0 {
		t.Fatalf("empty route must need no legs, got %d", len(legs))
	}
}

func TestInsertionLegsEndpointsAndInterior(t *testing.T) {
	job := model.Job{ID: "j", Location: model.GeoPoint{Lat: 1, Lng: 1}}
	route := []model.RouteStop{
		{Location: model.GeoPoint{Lat: 2, Lng: 2}},
		{Location: model.GeoPoint{Lat: 3, Lng: 3}},
	}
	if n := len(insertionLegs(job, route, 0)); n != 1 {
		t.Fatalf("head insertion needs 1 leg, got %d", n)
	}
	if n := len(insertionLegs(job, route, 2)); n != 1 {
		t.Fatalf("tail insertion needs 1 leg, got %d", n)
	}
	if n := len(insertionLegs(job, route, 1)); n != 3 {
		t.Fatalf("interior insertion needs 3 legs, got %d", n)
	}
}

func TestInsertionDeltaEmptyRoute(t *testing.T) {
	job := model.Job{ID: "j", Location: model.GeoPoint{Lat: 1, Lng: 1}}
	delta, ok := insertionDelta(job, nil, 0, tableOf(nil))
	if !ok || delta != 0 {
		t.Fatalf("empty route: expected delta 0, scoreable, got %v %v", delta, ok)
	}
}

func TestInsertionDeltaInterior(t *testing.T) {
	jobLoc := model.GeoPoint{Lat: 1, Lng: 1}
	a := model.GeoPoint{Lat: 2, Lng: 2}
	b := model.GeoPoint{Lat: 3, Lng: 3}
	job := model.Job{ID: "j", Location: jobLoc}
	route := []model.RouteStop{{Location: a}, {Location: b}}
	table := tableOf(map[eta.Leg]float64{
		{From: a, To: jobLoc}: 12,
		{From: jobLoc, To: b}: 9,
		{From: a, To: b}:      15,
	})
	delta, ok := insertionDelta(job, route, 1, table)
	if !ok || delta != 6 {
		t.Fatalf("expected delta 6, got %v (ok=%v)", delta, ok)
	}
}

func TestInsertionDeltaClampedAtZero(t *testing.T) {
	jobLoc := model.GeoPoint{Lat: 1, Lng: 1}
	a := model.GeoPoint{Lat: 2, Lng: 2}
	b := model.GeoPoint{Lat: 3, Lng: 3}
	job := model.Job{ID: "j", Location: jobLoc}
	route := []model.RouteStop{{Location: a}, {Location: b}}
	// Pathological provider response: detour "saves" time.
	table := tableOf(map[eta.Leg]float64{
		{From: a, To: jobLoc}: 2,
		{From: jobLoc, To: b}: 3,
		{From: a, To: b}:      20,
	})
	delta, ok := insertionDelta(job, route, 1, table)
	if !ok || delta != 0 {
		t.Fatalf("expected clamped delta 0, got %v (ok=%v)", delta, ok)
	}
}

func TestInsertionDeltaUnscoreableOnMissingLeg(t *testing.T) {
	jobLoc := model.GeoPoint{Lat: 1, Lng: 1}
	a := model.GeoPoint{Lat: 2, Lng: 2}
	job := model.Job{ID: "j", Location: jobLoc}
	route := []model.RouteStop{{Location: a}}
	if _, ok := insertionDelta(job, route, 1, tableOf(nil)); ok {
		t.Fatal("missing leg must mark the position unscoreable, not zero cost")
	}
}
