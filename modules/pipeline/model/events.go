package model

import "time"

// Status is the terminal outcome of a batch run, recorded in the
// summary event and used by cmd/batchd to pick an exit code (§5, §7).
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// StageEvent is emitted once per pipeline stage (§6.5).
type StageEvent struct {
	Stage              string
	StartedAt          time.Time
	FinishedAt         time.Time
	RecordsIn          int
	RecordsOut         int
	Rejections         []string
	WorkerID           int
	MissedSoftDeadline bool
}

// SummaryEvent is emitted once per batch, after every stage finishes or
// the run aborts (§6.5).
type SummaryEvent struct {
	BatchID           string
	BatchDate         time.Time
	Status            Status
	UsersProcessed    int
	JobsScored        int
	PicksWritten      int
	QueueRows         int
	LowInventoryUsers int
	StartedAt         time.Time
	FinishedAt        time.Time
}
