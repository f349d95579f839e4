package metrics

import coremetrics "github.com/scrambledgregs/fleet-sub001/core/metrics"

// MultiSink fans decision records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDecision forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordDecision(recs []coremetrics.DecisionRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordDecision(recs); err != nil {
			return err
		}
	}
	return nil
}

// RecordRankSummary forwards summaries to sinks that support them.
func (m *MultiSink) RecordRankSummary(sum coremetrics.RankSummary) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.RankSummaryRecorder); ok {
			if err := rec.RecordRankSummary(sum); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSlots forwards slot records to sinks that support them.
func (m *MultiSink) RecordSlots(recs []coremetrics.SlotRecord) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.SlotRecorder); ok {
			if err := rec.RecordSlots(recs); err != nil {
				return err
			}
		}
	}
	return nil
}
