package ports

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/matching/model"
)

// MappingRepository persists this run's UserJobMapping rows, the
// top-K-per-user output of the Matcher (§3, §4.F).
type MappingRepository interface {
	// UpsertBatch writes one user's top-K mapping rows in a single
	// transaction, mirroring the jobs module's batch-upsert contract.
	UpsertBatch(ctx context.Context, rows []model.UserJobMapping) error
}
