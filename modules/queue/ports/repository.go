package ports

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/queue/model"
)

// QueueRepository persists DailyEmailQueue rows. Upserts are keyed on
// (user_id, scheduled_date), giving at-most-once insertion per day (§5).
type QueueRepository interface {
	UpsertBatch(ctx context.Context, rows []model.DailyEmailQueue) error
}
