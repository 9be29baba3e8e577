package repository

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/matching/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MappingRepository implements ports.MappingRepository over Postgres.
// The user_job_mapping table is keyed by batch_date and is not
// partitioned (§3, §6.2).
type MappingRepository struct {
	pool *pgxpool.Pool
}

// NewMappingRepository creates a new mapping repository.
func NewMappingRepository(pool *pgxpool.Pool) *MappingRepository {
	return &MappingRepository{pool: pool}
}

const upsertMappingQuery = `
	INSERT INTO user_job_mapping (
		user_id, job_id, batch_date, composite_score, rank,
		editorial_eligible, regional_eligible, nearby_eligible,
		high_income_eligible, new_eligible
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (user_id, job_id, batch_date) DO UPDATE SET
		composite_score = EXCLUDED.composite_score,
		rank = EXCLUDED.rank,
		editorial_eligible = EXCLUDED.editorial_eligible,
		regional_eligible = EXCLUDED.regional_eligible,
		nearby_eligible = EXCLUDED.nearby_eligible,
		high_income_eligible = EXCLUDED.high_income_eligible,
		new_eligible = EXCLUDED.new_eligible
`

// UpsertBatch writes one user's top-K mapping rows in a single
// transaction.
func (r *MappingRepository) UpsertBatch(ctx context.Context, rows []model.UserJobMapping) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertMappingQuery,
			row.UserID, row.JobID, row.BatchDate, row.CompositeScore, row.Rank,
			row.EditorialEligible, row.RegionalEligible, row.NearbyEligible,
			row.HighIncomeEligible, row.NewEligible,
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
