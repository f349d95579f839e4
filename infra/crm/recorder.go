package crm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Write records one booking call received by the Recorder.
type Write struct {
	Op     string
	JobID  string
	TechID string
	Start  time.Time
	End    time.Time
	Text   string
}

// Recorder is an in-memory BookingClient used in tests and dry runs. Ops in
// FailOps return an error instead of recording.
type Recorder struct {
	mu      sync.Mutex
	Writes  []Write
	FailOps map[string]bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{FailOps: make(map[string]bool)}
}

func (r *Recorder) record(w Write) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailOps[w.Op] {
		return fmt.Errorf("crm: %s rejected", w.Op)
	}
	r.Writes = append(r.Writes, w)
	return nil
}

// AssignTechnician records an assignment write.
func (r *Recorder) AssignTechnician(_ context.Context, jobID, techID string) error {
	return r.record(Write{Op: "assign", JobID: jobID, TechID: techID})
}

// ConfirmWindow records a window confirmation write.
func (r *Recorder) ConfirmWindow(_ context.Context, jobID string, start, end time.Time) error {
	return r.record(Write{Op: "window", JobID: jobID, Start: start, End: end})
}

// AppendNote records a note write.
func (r *Recorder) AppendNote(_ context.Context, jobID, text string) error {
	return r.record(Write{Op: "note", JobID: jobID, Text: text})
}
