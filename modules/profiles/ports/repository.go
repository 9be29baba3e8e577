package ports

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/profiles/model"
)

// ProfileRepository persists this run's UserProfile set. Regenerated
// each run; previous day's data is not read back (§3 Lifecycle).
type ProfileRepository interface {
	UpsertBatch(ctx context.Context, profiles []*model.UserProfile) error
	Get(ctx context.Context, userID int32) (*model.UserProfile, error)
}
