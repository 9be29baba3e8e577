package model

import "time"

// Status is the DailyEmailQueue row's delivery lifecycle (§3).
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// GeneratorMetadata records how the row's pick list was produced, for
// the external renderer and for debugging a run after the fact.
type GeneratorMetadata struct {
	Model           string
	TemplateVersion string
	FallbackUsed    bool
}

// DailyEmailQueue is one row per (user_id, scheduled_date): the Queue
// Writer's output, handed to the external renderer/sender (§4.H). The
// core never renders HTML or sends mail; it only writes this row.
type DailyEmailQueue struct {
	UserID          int32
	ScheduledDate   time.Time
	Recipient       string
	SubjectTemplate string
	PickIDs         []int64 // job ids, in section priority then section-rank order
	Metadata        GeneratorMetadata
	Status          Status
	RetryCount      int
	LowInventory    bool
	GeneratedAt     time.Time
}
