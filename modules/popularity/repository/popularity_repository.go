package repository

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/popularity/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PopularityRepository implements ports.PopularityRepository over
// Postgres.
type PopularityRepository struct {
	pool *pgxpool.Pool
}

// NewPopularityRepository creates a new popularity repository.
func NewPopularityRepository(pool *pgxpool.Pool) *PopularityRepository {
	return &PopularityRepository{pool: pool}
}

const upsertPopularityQuery = `
	INSERT INTO employer_popularity (
		endcl_cd, views_7d, clicks_7d, applications_7d,
		views_30d, clicks_30d, applications_30d,
		views_360d, clicks_360d, applications_360d,
		application_rate, popularity_score, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (endcl_cd) DO UPDATE SET
		views_7d = EXCLUDED.views_7d,
		clicks_7d = EXCLUDED.clicks_7d,
		applications_7d = EXCLUDED.applications_7d,
		views_30d = EXCLUDED.views_30d,
		clicks_30d = EXCLUDED.clicks_30d,
		applications_30d = EXCLUDED.applications_30d,
		views_360d = EXCLUDED.views_360d,
		clicks_360d = EXCLUDED.clicks_360d,
		applications_360d = EXCLUDED.applications_360d,
		application_rate = EXCLUDED.application_rate,
		popularity_score = EXCLUDED.popularity_score,
		updated_at = EXCLUDED.updated_at
`

// UpsertBatch writes this run's popularity aggregate in a single
// transaction.
func (r *PopularityRepository) UpsertBatch(ctx context.Context, rows []model.EmployerPopularity) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range rows {
		batch.Queue(upsertPopularityQuery,
			p.EndclCD, p.Views7d, p.Clicks7d, p.Applications7d,
			p.Views30d, p.Clicks30d, p.Applications30d,
			p.Views360d, p.Clicks360d, p.Applications360d,
			p.ApplicationRate, p.PopularityScore, p.UpdatedAt,
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

// Get returns the popularity row for a single employer.
func (r *PopularityRepository) Get(ctx context.Context, endclCD string) (model.EmployerPopularity, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT endcl_cd, views_7d, clicks_7d, applications_7d,
			views_30d, clicks_30d, applications_30d,
			views_360d, clicks_360d, applications_360d,
			application_rate, popularity_score, updated_at
		FROM employer_popularity
		WHERE endcl_cd = $1
	`, endclCD)

	p, err := scanPopularity(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.EmployerPopularity{}, false, nil
		}
		return model.EmployerPopularity{}, false, err
	}
	return p, true, nil
}

// All returns every popularity row, keyed by endcl_cd, for the Scorer
// to hold in memory across its sharded workers.
func (r *PopularityRepository) All(ctx context.Context) (map[string]model.EmployerPopularity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT endcl_cd, views_7d, clicks_7d, applications_7d,
			views_30d, clicks_30d, applications_30d,
			views_360d, clicks_360d, applications_360d,
			application_rate, popularity_score, updated_at
		FROM employer_popularity
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]model.EmployerPopularity)
	for rows.Next() {
		p, err := scanPopularity(rows)
		if err != nil {
			return nil, err
		}
		out[p.EndclCD] = p
	}
	return out, rows.Err()
}

func scanPopularity(row pgx.Row) (model.EmployerPopularity, error) {
	var p model.EmployerPopularity
	err := row.Scan(
		&p.EndclCD, &p.Views7d, &p.Clicks7d, &p.Applications7d,
		&p.Views30d, &p.Clicks30d, &p.Applications30d,
		&p.Views360d, &p.Clicks360d, &p.Applications360d,
		&p.ApplicationRate, &p.PopularityScore, &p.UpdatedAt,
	)
	return p, err
}
