package events

// RankEvent is published after the roster has been ranked for a job.
type RankEvent struct {
	JobID      string
	Candidates int
	Excluded   int
}
