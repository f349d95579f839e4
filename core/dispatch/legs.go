package dispatch

import (
	"context"
	"sync"

	"github.com/gammazero/workerpool"

	"github.com/scrambledgregs/fleet-sub001/core/eta"
)

// legTable holds the travel times resolved for one ranking call. It is
// built once, then read concurrently-safe because it is never mutated after
// fetchLegs returns.
type legTable struct {
	minutes map[eta.Leg]float64
	errs    map[eta.Leg]error
}

// minutesFor returns the resolved travel time for a leg. The second return
// is false when the lookup failed or was never requested.
func (t *legTable) minutesFor(l eta.Leg) (float64, bool) {
	m, ok := t.minutes[l]
	return m, ok
}

// failures returns the number of legs that could not be resolved.
func (t *legTable) failures() int { return len(t.errs) }

// fetchLegs resolves every unique leg through the ETA provider with bounded
// concurrency. Each leg is an independently dispatchable unit of work; the
// pool fans them out and StopWait joins them before any cost is computed.
// Tasks observe context cancellation before dialing the provider.
func fetchLegs(ctx context.Context, provider eta.Provider, legs map[eta.Leg]struct{}, maxInflight int) *legTable {
	table := &legTable{
		minutes: make(map[eta.Leg]float64, len(legs)),
		errs:    make(map[eta.Leg]error),
	}
	if len(legs) == 0 {
		return table
	}
	if maxInflight <= 0 {
		maxInflight = DefaultMaxInflightETA
	}
	wp := workerpool.New(maxInflight)
	var mu sync.Mutex
	for l := range legs {
		l := l
		wp.Submit(func() {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				table.errs[l] = err
				mu.Unlock()
				return
			}
			m, err := provider.EstimateTravelMinutes(ctx, l.From, l.To)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				table.errs[l] = err
				etaFailures.Inc()
				return
			}
			table.minutes[l] = m
		})
	}
	wp.StopWait()
	return table
}
