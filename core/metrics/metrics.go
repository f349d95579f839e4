package metrics

import "time"

// DecisionRecord represents one dispatch decision to be recorded.
type DecisionRecord struct {
	DecisionID string
	JobID      string
	Mode       string
	TechID     string
	Position   int
	Cost       float64
	Booked     bool
	Time       time.Time
}

// MetricsSink records dispatch decisions for observability purposes.
type MetricsSink interface {
	RecordDecision(records []DecisionRecord) error
}

// RankSummary captures the cost distribution of one roster ranking.
type RankSummary struct {
	JobID       string
	Technicians int
	Excluded    int
	BestCost    float64
	MeanCost    float64
	StdDevCost  float64
	Time        time.Time
}

// RankSummaryRecorder is implemented by sinks able to record ranking
// cost-spread summaries.
type RankSummaryRecorder interface {
	RecordRankSummary(summary RankSummary) error
}

// SlotRecord represents one suggested candidate slot.
type SlotRecord struct {
	JobID  string
	Start  time.Time
	End    time.Time
	TechID string
	Cost   float64
	Time   time.Time
}

// SlotRecorder records suggested slots.
type SlotRecorder interface {
	RecordSlots(records []SlotRecord) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordDecision([]DecisionRecord) error { return nil }
func (NopSink) RecordRankSummary(RankSummary) error   { return nil }
func (NopSink) RecordSlots([]SlotRecord) error        { return nil }
