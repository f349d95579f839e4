package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/scrambledgregs/fleet-sub001/core/metrics"
)

// PromSink records dispatch decisions in Prometheus metrics.
type PromSink struct {
	decisions *prometheus.CounterVec
	bestCost  prometheus.Histogram
	excluded  prometheus.Counter
	slots     prometheus.Counter
}

// NewPromSink registers decision metrics on the default Prometheus
// registerer. The Prometheus server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_decisions_total",
		Help: "Total number of dispatch decisions",
	}, []string{"mode", "booked"})
	bestCost := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_best_cost",
		Help:    "Fit cost of the best candidate per ranking",
		Buckets: []float64{0, 1, 2.5, 5, 10, 25, 50, 100},
	})
	excluded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_technicians_excluded_total",
		Help: "Technicians excluded from rankings because travel times failed to resolve",
	})
	slots := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_slots_suggested_total",
		Help: "Candidate slots returned to callers",
	})

	for _, c := range []prometheus.Collector{decisions, bestCost, excluded, slots} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return &PromSink{decisions: decisions, bestCost: bestCost, excluded: excluded, slots: slots}, nil
}

// RecordDecision increments the counter for each decision.
func (s *PromSink) RecordDecision(recs []coremetrics.DecisionRecord) error {
	for _, r := range recs {
		s.decisions.WithLabelValues(r.Mode, strconv.FormatBool(r.Booked)).Inc()
	}
	return nil
}

// RecordRankSummary observes the best cost and exclusion count.
func (s *PromSink) RecordRankSummary(sum coremetrics.RankSummary) error {
	s.bestCost.Observe(sum.BestCost)
	s.excluded.Add(float64(sum.Excluded))
	return nil
}

// RecordSlots counts suggested slots.
func (s *PromSink) RecordSlots(recs []coremetrics.SlotRecord) error {
	s.slots.Add(float64(len(recs)))
	return nil
}
