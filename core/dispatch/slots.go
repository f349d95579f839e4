package dispatch

import (
	"context"
	"sort"
	"time"

	"github.com/scrambledgregs/fleet-sub001/core/model"
)

// Slot generation defaults: six probes stepping 30 minutes from the base
// time, one hour of service per slot, top three kept.
const (
	DefaultProbeCount      = 6
	DefaultProbeStep       = 30 * time.Minute
	DefaultServiceDuration = time.Hour
	DefaultSlotsKept       = 3
)

// SlotGenerator proposes candidate start times for a job without a
// committed window by ranking the roster against a trial copy of the job
// pinned to each probe time.
type SlotGenerator struct {
	Ranker          RosterRanking
	ProbeCount      int
	ProbeStep       time.Duration
	ServiceDuration time.Duration
	Keep            int
}

// NewSlotGenerator returns a generator with the default probe schedule.
func NewSlotGenerator(ranker RosterRanking) *SlotGenerator {
	return &SlotGenerator{
		Ranker:          ranker,
		ProbeCount:      DefaultProbeCount,
		ProbeStep:       DefaultProbeStep,
		ServiceDuration: DefaultServiceDuration,
		Keep:            DefaultSlotsKept,
	}
}

// Suggest probes start times forward from base and returns the best slots
// sorted ascending by their top candidate's cost. Probes that produced no
// ranked result are skipped; an empty return means no availability in the
// probed window, which is a valid outcome rather than an error. The stable
// sort preserves probe order between equal costs.
func (g *SlotGenerator) Suggest(ctx context.Context, base time.Time, job model.Job, roster []model.Technician) ([]SlotOption, error) {
	first := base.Truncate(time.Minute)
	var options []SlotOption
	for p := 0; p < g.ProbeCount; p++ {
		start := first.Add(time.Duration(p) * g.ProbeStep)
		end := start.Add(g.ServiceDuration)
		trial := job.WithWindow(start, end)
		res, err := g.Ranker.Rank(ctx, trial, roster)
		if err != nil {
			return nil, err
		}
		slotProbes.Inc()
		if len(res.Candidates) == 0 {
			continue
		}
		options = append(options, SlotOption{Start: start, End: end, Top: res.Candidates[0]})
	}
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Top.Insertion.Cost < options[j].Top.Insertion.Cost
	})
	if len(options) > g.Keep {
		options = options[:g.Keep]
	}
	return options, nil
}
