package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rankDuration      prometheus.Histogram
	techniciansRanked prometheus.Counter
	slotProbes        prometheus.Counter
	etaFailures       prometheus.Counter
	bookingsTotal     *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Histogram, prometheus.Counter, prometheus.Counter, prometheus.Counter, *prometheus.CounterVec) {
	dur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_rank_duration_seconds",
		Help:    "Time to rank the full roster for one job",
		Buckets: prometheus.DefBuckets,
	})
	ranked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_technicians_ranked_total",
		Help: "Number of technicians scored across all ranking calls",
	})
	probes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_slot_probes_total",
		Help: "Number of candidate slot probes evaluated",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_eta_failures_total",
		Help: "Number of ETA lookups that failed or timed out",
	})
	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_bookings_total",
		Help: "Booking attempts by outcome",
	}, []string{"outcome"})
	return dur, ranked, probes, failures, bookings
}

func init() {
	rankDuration, techniciansRanked, slotProbes, etaFailures, bookingsTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(rankDuration, techniciansRanked, slotProbes, etaFailures, bookingsTotal)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	rankDuration, techniciansRanked, slotProbes, etaFailures, bookingsTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
