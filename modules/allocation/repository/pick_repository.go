package repository

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/allocation/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PickRepository implements ports.PickRepository over Postgres. The
// daily_job_picks table is keyed by pick_date and is not partitioned
// (§3, §6.2).
type PickRepository struct {
	pool *pgxpool.Pool
}

// NewPickRepository creates a new pick repository.
func NewPickRepository(pool *pgxpool.Pool) *PickRepository {
	return &PickRepository{pool: pool}
}

const upsertPickQuery = `
	INSERT INTO daily_job_picks (
		user_id, job_id, pick_date, section, section_rank,
		composite_score, pick_reason
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id, job_id, pick_date) DO UPDATE SET
		section = EXCLUDED.section,
		section_rank = EXCLUDED.section_rank,
		composite_score = EXCLUDED.composite_score,
		pick_reason = EXCLUDED.pick_reason
`

// UpsertBatch writes one user's picks in a single transaction.
func (r *PickRepository) UpsertBatch(ctx context.Context, picks []model.DailyJobPick) error {
	if len(picks) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range picks {
		batch.Queue(upsertPickQuery,
			p.UserID, p.JobID, p.PickDate, p.Section, p.SectionRank,
			p.CompositeScore, p.PickReason,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range picks {
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
