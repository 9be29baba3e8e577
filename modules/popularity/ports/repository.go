package ports

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/popularity/model"
)

// PopularityRepository persists and serves the per-batch
// EmployerPopularity aggregate. Written once per run by the Popularity
// Aggregator; read by the Scorer.
type PopularityRepository interface {
	UpsertBatch(ctx context.Context, rows []model.EmployerPopularity) error
	Get(ctx context.Context, endclCD string) (model.EmployerPopularity, bool, error)
	All(ctx context.Context) (map[string]model.EmployerPopularity, error)
}
