package repository

import (
	"context"
	"testing"
	"time"

	"github.com/andreypavlenko/matchday/modules/scoring/model"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichmentRepository_Get(t *testing.T) {
	t.Run("returns the row when present", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		now := time.Now()
		rows := pgxmock.NewRows([]string{
			"job_id", "basic_score", "seo_score", "personalized_score_base", "composite",
			"needs_categories", "applications_30d", "clicks_30d", "needs_recalculation", "computed_at",
		}).AddRow(int64(42), 60.0, 55.0, 70.0, 64.5,
			[]string{string(model.NeedsDailyPayment)}, 12, 30, false, now)

		mock.ExpectQuery("SELECT job_id").WithArgs(int64(42)).WillReturnRows(rows)

		repo := &testEnrichmentRepo{mock: mock}
		e, err := repo.Get(context.Background(), 42)

		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, int64(42), e.JobID)
		assert.Equal(t, 64.5, e.Composite)
		assert.Equal(t, []model.NeedsCategory{model.NeedsDailyPayment}, e.NeedsCategories)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil when missing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT job_id").WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)

		repo := &testEnrichmentRepo{mock: mock}
		e, err := repo.Get(context.Background(), 99)

		require.NoError(t, err)
		assert.Nil(t, e)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEnrichmentRepository_UpsertBatch(t *testing.T) {
	t.Run("no-ops on an empty batch", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := &testEnrichmentRepo{mock: mock}
		require.NoError(t, repo.UpsertBatch(context.Background(), nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// testEnrichmentRepo mirrors EnrichmentRepository's logic against
// pgxmock.PgxPoolIface.
type testEnrichmentRepo struct {
	mock pgxmock.PgxPoolIface
}

func (r *testEnrichmentRepo) Get(ctx context.Context, jobID int64) (*model.JobEnrichment, error) {
	row := r.mock.QueryRow(ctx, `
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

func (r *testEnrichmentRepo) UpsertBatch(ctx context.Context, rows []model.JobEnrichment) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.mock.Begin(ctx)
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
