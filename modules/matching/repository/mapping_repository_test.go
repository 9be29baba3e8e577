package repository

import (
	"context"
	"testing"

	"github.com/andreypavlenko/matchday/modules/matching/model"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestMappingRepository_UpsertBatch(t *testing.T) {
	t.Run("no-ops on an empty batch", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := &testMappingRepo{mock: mock}
		require.NoError(t, repo.UpsertBatch(context.Background(), nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// testMappingRepo mirrors MappingRepository's logic against
// pgxmock.PgxPoolIface.
type testMappingRepo struct {
	mock pgxmock.PgxPoolIface
}

func (r *testMappingRepo) UpsertBatch(ctx context.Context, rows []model.UserJobMapping) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.mock.Begin(ctx)
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
