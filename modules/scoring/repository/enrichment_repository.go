package repository

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/scoring/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrichmentRepository implements ports.EnrichmentRepository over
// Postgres.
type EnrichmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrichmentRepository creates a new enrichment repository.
func NewEnrichmentRepository(pool *pgxpool.Pool) *EnrichmentRepository {
	return &EnrichmentRepository{pool: pool}
}

const upsertEnrichmentQuery = `
	INSERT INTO job_enrichment (
		job_id, basic_score, seo_score, personalized_score_base, composite,
		needs_categories, applications_30d, clicks_30d, needs_recalculation, computed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (job_id) DO UPDATE SET
		basic_score = EXCLUDED.basic_score,
		seo_score = EXCLUDED.seo_score,
		personalized_score_base = EXCLUDED.personalized_score_base,
		composite = EXCLUDED.composite,
		needs_categories = EXCLUDED.needs_categories,
		applications_30d = EXCLUDED.applications_30d,
		clicks_30d = EXCLUDED.clicks_30d,
		needs_recalculation = EXCLUDED.needs_recalculation,
		computed_at = EXCLUDED.computed_at
`

// UpsertBatch writes a run's scoring output in a single transaction.
func (r *EnrichmentRepository) UpsertBatch(ctx context.Context, rows []model.JobEnrichment) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range rows {
		batch.Queue(upsertEnrichmentQuery,
			e.JobID, e.BasicScore, e.SEOScore, e.PersonalizedScoreBase, e.Composite,
			needsCategoryStrings(e.NeedsCategories), e.Applications30d, e.Clicks30d,
			e.NeedsRecalculation, e.ComputedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Get returns the enrichment row for a single job.
func (r *EnrichmentRepository) Get(ctx context.Context, jobID int64) (*model.JobEnrichment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT job_id, basic_score, seo_score, personalized_score_base, composite,
			needs_categories, applications_30d, clicks_30d, needs_recalculation, computed_at
		FROM job_enrichment
		WHERE job_id = $1
	`, jobID)

	e, err := scanEnrichment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// All returns every stored enrichment, keyed by job_id.
func (r *EnrichmentRepository) All(ctx context.Context) (map[int64]model.JobEnrichment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT job_id, basic_score, seo_score, personalized_score_base, composite,
			needs_categories, applications_30d, clicks_30d, needs_recalculation, computed_at
		FROM job_enrichment
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]model.JobEnrichment)
	for rows.Next() {
		e, err := scanEnrichment(rows)
		if err != nil {
			return nil, err
		}
		out[e.JobID] = e
	}
	return out, rows.Err()
}

func scanEnrichment(row pgx.Row) (model.JobEnrichment, error) {
	var e model.JobEnrichment
	var categories []string
	err := row.Scan(
		&e.JobID, &e.BasicScore, &e.SEOScore, &e.PersonalizedScoreBase, &e.Composite,
		&categories, &e.Applications30d, &e.Clicks30d, &e.NeedsRecalculation, &e.ComputedAt,
	)
	if err != nil {
		return model.JobEnrichment{}, err
	}
	e.NeedsCategories = needsCategoriesFromStrings(categories)
	return e, nil
}

func needsCategoryStrings(categories []model.NeedsCategory) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

func needsCategoriesFromStrings(values []string) []model.NeedsCategory {
	out := make([]model.NeedsCategory, len(values))
	for i, v := range values {
		out[i] = model.NeedsCategory(v)
	}
	return out
}
