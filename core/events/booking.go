package events

// BookingEvent is published after an auto-mode commit attempt.
type BookingEvent struct {
	JobID  string
	TechID string
	Cost   float64
	Booked bool
	Err    error
}
