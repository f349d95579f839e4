package events

import "time"

// SlotEvent is published after slot suggestion completes for a job.
type SlotEvent struct {
	JobID string
	Base  time.Time
	Slots int
}
