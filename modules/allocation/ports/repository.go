package ports

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/allocation/model"
)

// PickRepository persists one user's 40 daily picks, keyed by
// pick_date (§3, §6.2).
type PickRepository interface {
	UpsertBatch(ctx context.Context, picks []model.DailyJobPick) error
}
