package dispatch

import (
	"fmt"
	"math"

	"github.com/scrambledgregs/fleet-sub001/core/model"
)

// ValueScale normalizes job value into a unitless fraction for scoring.
const ValueScale = 50000

// loadThreshold is the route length above which each extra stop adds
// loadStep to the balance penalty.
const (
	loadThreshold = 4
	loadStep      = 0.1
)

// Weights holds the multi-factor scoring coefficients. Travel, disruption,
// window risk, territory mismatch and load balance add cost; skill match and
// job value are credits that reduce it. Lower total cost wins.
type Weights struct {
	Travel            float64 `json:"travel"`
	Disruption        float64 `json:"disruption"`
	SkillCredit       float64 `json:"skill_credit"`
	ValueCredit       float64 `json:"value_credit"`
	WindowRisk        float64 `json:"window_risk"`
	TerritoryMismatch float64 `json:"territory_mismatch"`
	LoadBalance       float64 `json:"load_balance"`
}

// DefaultWeights returns the coefficients every scoring call shares unless
// overridden in configuration.
func DefaultWeights() Weights {
	return Weights{
		Travel:            0.50,
		Disruption:        0.20,
		SkillCredit:       0.25,
		ValueCredit:       0.15,
		WindowRisk:        0.20,
		TerritoryMismatch: 0.05,
		LoadBalance:       0.05,
	}
}

// FitScorer combines a travel delta with job and technician attributes into
// a single scalar cost. Scoring is a pure function of its inputs.
type FitScorer struct {
	Weights Weights
}

// NewFitScorer returns a scorer with the default weights.
func NewFitScorer() FitScorer {
	return FitScorer{Weights: DefaultWeights()}
}

// Score computes the fit cost of inserting job at position pos in a route of
// routeLen stops, given the marginal travel delta in minutes. It also
// returns a short rationale summarizing the dominant drivers.
func (s FitScorer) Score(job model.Job, tech model.Technician, pos, routeLen int, travel float64) (float64, string) {
	disruption := 0.0
	if pos > 0 && pos < routeLen {
		// Interior insertions perturb an already committed sequence.
		disruption = 1
	}
	skill := 0.5
	if tech.HasSkill(job.JobType) {
		skill = 1.0
	}
	value := job.Value / ValueScale
	windowRisk := 0.0
	if !job.HasWindow() {
		// Feasibility could not be confirmed without a window.
		windowRisk = 1
	}
	territory := 0.0
	if job.Territory != "" && tech.Territory != "" && job.Territory != tech.Territory {
		territory = 1
	}
	load := math.Max(0, float64(routeLen-loadThreshold)) * loadStep

	w := s.Weights
	total := w.Travel*travel +
		w.Disruption*disruption -
		w.SkillCredit*skill -
		w.ValueCredit*value +
		w.WindowRisk*windowRisk +
		w.TerritoryMismatch*territory +
		w.LoadBalance*load

	rationale := fmt.Sprintf("Δtravel ~%.0fm, skill=%g, value=%.0f%%", travel, skill, value*100)
	return total, rationale
}
