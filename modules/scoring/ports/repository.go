package ports

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/scoring/model"
)

// EnrichmentRepository persists and retrieves per-job scoring output.
type EnrichmentRepository interface {
	// UpsertBatch writes a batch of enrichments in a single transaction,
	// mirroring the jobs module's batch-upsert contract (§5).
	UpsertBatch(ctx context.Context, rows []model.JobEnrichment) error

	Get(ctx context.Context, jobID int64) (*model.JobEnrichment, error)

	// All returns every stored enrichment, keyed by job_id, for the
	// Matcher to join against its candidate set.
	All(ctx context.Context) (map[int64]model.JobEnrichment, error)
}
