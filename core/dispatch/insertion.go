package dispatch

import (
	"github.com/scrambledgregs/fleet-sub001/core/eta"
	"github.com/scrambledgregs/fleet-sub001/core/model"
)

// insertionLegs returns the travel legs needed to price inserting job before
// stop i of route: prev→job, job→next and the prev→next leg the detour
// replaces. An empty route needs no legs at all.
func insertionLegs(job model.Job, route []model.RouteStop, i int) []eta.Leg {
	var legs []eta.Leg
	if i > 0 {
		legs = append(legs, eta.Leg{From: route[i-1].Location, To: job.Location})
	}
	if i < len(route) {
		legs = append(legs, eta.Leg{From: job.Location, To: route[i].Location})
	}
	if i > 0 && i < len(route) {
		legs = append(legs, eta.Leg{From: route[i-1].Location, To: route[i].Location})
	}
	return legs
}

// insertionDelta computes the marginal travel cost in minutes of inserting
// job at position i, reading travel times from the prefetched table. The
// second return is false when any required leg failed to resolve, marking
// the position unscoreable.
func insertionDelta(job model.Job, route []model.RouteStop, i int, table *legTable) (float64, bool) {
	var t1, t2, t0 float64
	if i > 0 {
		m, ok := table.minutesFor(eta.Leg{From: route[i-1].Location, To: job.Location})
		if !ok {
			return 0, false
		}
		t1 = m
	}
	if i < len(route) {
		m, ok := table.minutesFor(eta.Leg{From: job.Location, To: route[i].Location})
		if !ok {
			return 0, false
		}
		t2 = m
	}
	if i > 0 && i < len(route) {
		m, ok := table.minutesFor(eta.Leg{From: route[i-1].Location, To: route[i].Location})
		if !ok {
			return 0, false
		}
		t0 = m
	}
	delta := t1 + t2 - t0
	if delta < 0 {
		// Clamp pathological "savings" so they cannot dominate the cost.
		delta = 0
	}
	return delta, true
}
