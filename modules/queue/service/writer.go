package service

import (
	"context"
	"fmt"
	"time"

	allocmodel "github.com/andreypavlenko/matchday/modules/allocation/model"
	"github.com/andreypavlenko/matchday/modules/queue/model"
	"github.com/andreypavlenko/matchday/modules/queue/ports"
	usermodel "github.com/andreypavlenko/matchday/modules/users/model"
)

// generatorModel and templateVersion identify the row in the external
// renderer's metadata (§4.H); bumping templateVersion lets the renderer
// distinguish rows produced by an older allocation run.
const (
	generatorModel  = "daily-matching-pipeline"
	templateVersion = "v1"
)

// Writer turns one user's AllocationResult into a DailyEmailQueue row.
// It never renders HTML (§4.H, Non-goals); SubjectTemplate is a finished
// plain line stating the pick count and scheduled date, with no
// placeholder left for the external renderer to expand.
type Writer struct{}

// NewWriter builds a Writer. It has no dependencies of its own; all
// state flows through Run's arguments.
func NewWriter() *Writer {
	return &Writer{}
}

// BuildRow assembles the queue row for one user. Picks must already be
// in section-priority then section-rank order, as produced by
// Allocator.Allocate's append sequence over model.Order.
func (w *Writer) BuildRow(user *usermodel.User, result allocmodel.AllocationResult, scheduledDate, generatedAt time.Time) model.DailyEmailQueue {
	pickIDs := make([]int64, 0, len(result.Picks))
	fallbackUsed := false
	for _, p := range result.Picks {
		pickIDs = append(pickIDs, p.JobID)
		if p.PickReason == allocmodel.PickReasonFallback {
			fallbackUsed = true
		}
	}

	subject := fmt.Sprintf("%d new job picks for %s", len(pickIDs), scheduledDate.Format("2006-01-02"))

	return model.DailyEmailQueue{
		UserID:          user.UserID,
		ScheduledDate:   scheduledDate,
		Recipient:       user.Contact,
		SubjectTemplate: subject,
		PickIDs:         pickIDs,
		Metadata: model.GeneratorMetadata{
			Model:           generatorModel,
			TemplateVersion: templateVersion,
			FallbackUsed:    fallbackUsed,
		},
		Status:       model.StatusPending,
		LowInventory: result.LowInventory,
		GeneratedAt:  generatedAt,
	}
}

// Run writes one queue row per user who received at least one pick.
// Users with zero picks are skipped entirely: no queue row, nothing for
// the renderer to act on (§5 "queue row NOT written for that user").
func Run(ctx context.Context, writer *Writer, repo ports.QueueRepository, users []*usermodel.User, allocations map[int32]allocmodel.AllocationResult, scheduledDate, generatedAt time.Time) error {
	rows := make([]model.DailyEmailQueue, 0, len(users))

	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, ok := allocations[user.UserID]
		if !ok || len(result.Picks) == 0 {
			continue
		}

		rows = append(rows, writer.BuildRow(user, result, scheduledDate, generatedAt))
	}

	if len(rows) == 0 {
		return nil
	}

	return repo.UpsertBatch(ctx, rows)
}
