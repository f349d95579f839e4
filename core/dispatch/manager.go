package dispatch

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/scrambledgregs/fleet-sub001/core/dispatch/logging"
	"github.com/scrambledgregs/fleet-sub001/core/events"
	"github.com/scrambledgregs/fleet-sub001/core/logger"
	coremetrics "github.com/scrambledgregs/fleet-sub001/core/metrics"
	"github.com/scrambledgregs/fleet-sub001/core/model"
	"github.com/scrambledgregs/fleet-sub001/internal/eventbus"
)

// Request is one dispatch invocation: a job, the roster snapshot it is
// scored against and the decision mode. Base seeds slot probing when the
// job has no committed window; a zero Base means "now".
type Request struct {
	Job    model.Job          `json:"job"`
	Roster []model.Technician `json:"roster"`
	Mode   Mode               `json:"mode"`
	Base   time.Time          `json:"base,omitempty"`
}

// Outcome is what a dispatch invocation produced: a decision with its
// ranking when the job had a window, or candidate slots when it did not.
type Outcome struct {
	Decision *Decision    `json:"decision,omitempty"`
	Ranking  RankResult   `json:"ranking,omitempty"`
	Slots    []SlotOption `json:"slots,omitempty"`
}

// Manager wires ranking, slot generation and the decision policy together
// and fans results out to metrics, events and the decision log.
type Manager struct {
	ranker   RosterRanking
	slots    *SlotGenerator
	policy   *DecisionPolicy
	notifier AssignmentNotifier
	metrics  coremetrics.MetricsSink
	bus      eventbus.EventBus
	store    logging.LogStore
	log      logger.Logger
}

// NewManager creates a manager. Ranker, policy and logger are mandatory;
// metrics sink, event bus, notifier and log store are optional and attached
// via setters.
func NewManager(ranker RosterRanking, policy *DecisionPolicy, log logger.Logger) (*Manager, error) {
	if ranker == nil || policy == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewManager")
	}
	return &Manager{
		ranker: ranker,
		slots:  NewSlotGenerator(ranker),
		policy: policy,
		log:    log,
	}, nil
}

// SetMetricsSink configures the sink decisions are recorded to.
func (m *Manager) SetMetricsSink(sink coremetrics.MetricsSink) { m.metrics = sink }

// SetEventBus configures the bus dispatch events are published on.
func (m *Manager) SetEventBus(bus eventbus.EventBus) { m.bus = bus }

// SetLogStore configures the store used to persist decision logs.
func (m *Manager) SetLogStore(store logging.LogStore) { m.store = store }

// SetNotifier configures the field-client notifier for auto bookings.
func (m *Manager) SetNotifier(n AssignmentNotifier) { m.notifier = n }

// SlotGenerator returns the generator so callers can tune probe settings.
func (m *Manager) SlotGenerator() *SlotGenerator { return m.slots }

// Close releases resources held by the manager.
func (m *Manager) Close() error {
	if m.bus != nil {
		m.bus.Close()
	}
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}

// Dispatch validates the request and runs either the slot-suggestion path
// (job without a window) or the rank-and-decide path (job with a committed
// window).
func (m *Manager) Dispatch(ctx context.Context, req Request) (Outcome, error) {
	if !req.Mode.Valid() {
		return Outcome{}, fmt.Errorf("dispatch: unknown mode %q", req.Mode)
	}
	if err := req.Job.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("dispatch: %w", err)
	}
	for _, tech := range req.Roster {
		if err := tech.Validate(); err != nil {
			return Outcome{}, fmt.Errorf("dispatch: %w", err)
		}
	}

	if !req.Job.HasWindow() {
		return m.suggestSlots(ctx, req)
	}
	return m.rankAndDecide(ctx, req)
}

func (m *Manager) suggestSlots(ctx context.Context, req Request) (Outcome, error) {
	base := req.Base
	if base.IsZero() {
		base = time.Now()
	}
	opts, err := m.slots.Suggest(ctx, base, req.Job, req.Roster)
	if err != nil {
		return Outcome{}, err
	}
	if len(opts) == 0 {
		m.log.Infof("no availability for job %s in probed window", req.Job.ID)
	}
	if m.bus != nil {
		m.bus.Publish(events.SlotEvent{JobID: req.Job.ID, Base: base, Slots: len(opts)})
	}
	m.recordSlots(req.Job.ID, opts)
	m.appendLog(ctx, logging.LogRecord{
		Timestamp: time.Now(),
		JobID:     req.Job.ID,
		Mode:      string(req.Mode),
		Slots:     slotRecords(opts),
	})
	return Outcome{Slots: opts}, nil
}

func (m *Manager) rankAndDecide(ctx context.Context, req Request) (Outcome, error) {
	ranking, err := m.ranker.Rank(ctx, req.Job, req.Roster)
	if err != nil {
		return Outcome{}, err
	}
	if m.bus != nil {
		m.bus.Publish(events.RankEvent{
			JobID:      req.Job.ID,
			Candidates: len(ranking.Candidates),
			Excluded:   len(ranking.Excluded),
		})
	}
	m.recordRankSummary(ranking)

	dec, decErr := m.policy.Decide(ctx, req.Job, ranking, req.Mode)
	if req.Mode == ModeAuto && m.bus != nil {
		ev := events.BookingEvent{JobID: req.Job.ID, Booked: dec.Booked, Err: decErr}
		if dec.Candidate != nil {
			ev.TechID = dec.Candidate.TechID
			ev.Cost = dec.Candidate.Insertion.Cost
		}
		m.bus.Publish(ev)
	}
	if dec.Booked && m.notifier != nil {
		if err := m.notifier.NotifyAssignment(ctx, dec.Candidate.TechID, req.Job, dec.AuditNote()); err != nil {
			m.log.Warnf("assignment notification failed for job %s: %v", req.Job.ID, err)
		}
	}

	m.recordDecision(req.Job.ID, dec)
	rec := logging.LogRecord{
		Timestamp:  time.Now(),
		DecisionID: dec.DecisionID,
		JobID:      req.Job.ID,
		Mode:       string(req.Mode),
		Booked:     dec.Booked,
		Candidates: candidateRecords(ranking.Candidates),
		Excluded:   ranking.Excluded,
	}
	if dec.Candidate != nil {
		rec.TechID = dec.Candidate.TechID
		rec.Cost = dec.Candidate.Insertion.Cost
	}
	m.appendLog(ctx, rec)

	return Outcome{Decision: &dec, Ranking: ranking}, decErr
}

// recordRankSummary computes the cost spread of the ranking and hands it to
// the sink when it cares about summaries.
func (m *Manager) recordRankSummary(ranking RankResult) {
	rr, ok := m.metrics.(coremetrics.RankSummaryRecorder)
	if !ok || len(ranking.Candidates) == 0 {
		return
	}
	costs := make([]float64, len(ranking.Candidates))
	for i, c := range ranking.Candidates {
		costs[i] = c.Insertion.Cost
	}
	summary := coremetrics.RankSummary{
		JobID:       ranking.JobID,
		Technicians: len(ranking.Candidates) + len(ranking.Excluded),
		Excluded:    len(ranking.Excluded),
		BestCost:    costs[0],
		MeanCost:    stat.Mean(costs, nil),
		Time:        time.Now(),
	}
	if len(costs) > 1 {
		summary.StdDevCost = stat.StdDev(costs, nil)
	}
	if err := rr.RecordRankSummary(summary); err != nil {
		m.log.Errorf("rank summary metrics error: %v", err)
	}
}

func (m *Manager) recordDecision(jobID string, dec Decision) {
	if m.metrics == nil {
		return
	}
	rec := coremetrics.DecisionRecord{
		DecisionID: dec.DecisionID,
		JobID:      jobID,
		Mode:       string(dec.Mode),
		Booked:     dec.Booked,
		Time:       time.Now(),
	}
	if dec.Candidate != nil {
		rec.TechID = dec.Candidate.TechID
		rec.Position = dec.Candidate.Insertion.Position
		rec.Cost = dec.Candidate.Insertion.Cost
	}
	if err := m.metrics.RecordDecision([]coremetrics.DecisionRecord{rec}); err != nil {
		m.log.Errorf("metrics error: %v", err)
	}
}

func (m *Manager) recordSlots(jobID string, opts []SlotOption) {
	sr, ok := m.metrics.(coremetrics.SlotRecorder)
	if !ok || len(opts) == 0 {
		return
	}
	recs := make([]coremetrics.SlotRecord, len(opts))
	for i, o := range opts {
		recs[i] = coremetrics.SlotRecord{
			JobID:  jobID,
			Start:  o.Start,
			End:    o.End,
			TechID: o.Top.TechID,
			Cost:   o.Top.Insertion.Cost,
			Time:   time.Now(),
		}
	}
	if err := sr.RecordSlots(recs); err != nil {
		m.log.Errorf("slot metrics error: %v", err)
	}
}

func (m *Manager) appendLog(ctx context.Context, rec logging.LogRecord) {
	if m.store == nil {
		return
	}
	if err := m.store.Append(ctx, rec); err != nil {
		m.log.Errorf("decision log append failed: %v", err)
	}
}

func candidateRecords(cands []RankedCandidate) []logging.CandidateRecord {
	recs := make([]logging.CandidateRecord, len(cands))
	for i, c := range cands {
		recs[i] = logging.CandidateRecord{
			TechID:    c.TechID,
			TechName:  c.TechName,
			Position:  c.Insertion.Position,
			Cost:      c.Insertion.Cost,
			Rationale: c.Insertion.Rationale,
		}
	}
	return recs
}

func slotRecords(opts []SlotOption) []logging.SlotRecord {
	recs := make([]logging.SlotRecord, len(opts))
	for i, o := range opts {
		recs[i] = logging.SlotRecord{Start: o.Start, End: o.End, TechID: o.Top.TechID, Cost: o.Top.Insertion.Cost}
	}
	return recs
}
