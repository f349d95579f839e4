package dispatch

import (
	"context"
	"sort"
	"time"

	"github.com/scrambledgregs/fleet-sub001/core/eta"
	"github.com/scrambledgregs/fleet-sub001/core/logger"
	"github.com/scrambledgregs/fleet-sub001/core/model"
)

// DefaultMaxInflightETA bounds concurrent ETA lookups per ranking call.
const DefaultMaxInflightETA = 16

// Ranker scores one job against every technician in the roster and sorts
// the results ascending by fit cost. It holds no state between calls;
// ranking is deterministic given the job, the roster snapshot, the weights
// and the provider's responses.
type Ranker struct {
	eta         eta.Provider
	scorer      FitScorer
	maxInflight int
	log         logger.Logger
}

// NewRanker creates a Ranker. A zero maxInflight falls back to
// DefaultMaxInflightETA.
func NewRanker(provider eta.Provider, scorer FitScorer, maxInflight int, log logger.Logger) *Ranker {
	if maxInflight <= 0 {
		maxInflight = DefaultMaxInflightETA
	}
	return &Ranker{eta: provider, scorer: scorer, maxInflight: maxInflight, log: log}
}

// Rank implements RosterRanking. An empty roster yields an empty result,
// not an error. Technicians whose every position failed to resolve travel
// times are excluded and reported in RankResult.Excluded; one bad lookup
// never blanks out the whole suggestion list. The only error returned is
// context cancellation.
func (r *Ranker) Rank(ctx context.Context, job model.Job, roster []model.Technician) (RankResult, error) {
	res := RankResult{JobID: job.ID}
	if len(roster) == 0 {
		return res, nil
	}
	start := time.Now()

	need := make(map[eta.Leg]struct{})
	for _, tech := range roster {
		for i := 0; i <= len(tech.Route); i++ {
			for _, l := range insertionLegs(job, tech.Route, i) {
				need[l] = struct{}{}
			}
		}
	}
	table := fetchLegs(ctx, r.eta, need, r.maxInflight)
	if err := ctx.Err(); err != nil {
		return RankResult{}, err
	}
	if n := table.failures(); n > 0 {
		r.log.Warnf("%d of %d travel legs failed to resolve for job %s", n, len(need), job.ID)
	}

	for _, tech := range roster {
		best, ok := r.bestInsertion(job, tech, table)
		if !ok {
			if res.Excluded == nil {
				res.Excluded = make(map[string]string)
			}
			res.Excluded[tech.ID] = "travel time unavailable for every position"
			continue
		}
		res.Candidates = append(res.Candidates, RankedCandidate{
			TechID:    tech.ID,
			TechName:  tech.Name,
			Insertion: best,
		})
	}
	// Stable sort keeps input order between equal costs; the first
	// technician scanned wins ties.
	sort.SliceStable(res.Candidates, func(i, j int) bool {
		return res.Candidates[i].Insertion.Cost < res.Candidates[j].Insertion.Cost
	})

	techniciansRanked.Add(float64(len(roster)))
	rankDuration.Observe(time.Since(start).Seconds())
	r.log.Debugw("roster ranked", map[string]any{
		"job_id":     job.ID,
		"candidates": len(res.Candidates),
		"excluded":   len(res.Excluded),
		"legs":       len(need),
	})
	return res, nil
}

// bestInsertion scans every insertion position 0..len(route) inclusive and
// keeps the minimum-cost one. Replacement happens only on strict
// improvement so the first position achieving the minimum wins ties. The
// route is read-only. The second return is false when no position could be
// scored.
func (r *Ranker) bestInsertion(job model.Job, tech model.Technician, table *legTable) (Insertion, bool) {
	var best Insertion
	found := false
	routeLen := len(tech.Route)
	for i := 0; i <= routeLen; i++ {
		delta, ok := insertionDelta(job, tech.Route, i, table)
		if !ok {
			continue
		}
		cost, rationale := r.scorer.Score(job, tech, i, routeLen, delta)
		if !found || cost < best.Cost {
			best = Insertion{Position: i, TravelDelta: delta, Cost: cost, Rationale: rationale}
			found = true
		}
	}
	return best, found
}
