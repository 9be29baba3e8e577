package repository

import (
	"context"
	"testing"

	"github.com/andreypavlenko/matchday/modules/allocation/model"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestPickRepository_UpsertBatch(t *testing.T) {
	t.Run("no-ops on an empty batch", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := &testPickRepo{mock: mock}
		require.NoError(t, repo.UpsertBatch(context.Background(), nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// testPickRepo mirrors PickRepository's logic against
// pgxmock.PgxPoolIface.
type testPickRepo struct {
	mock pgxmock.PgxPoolIface
}

func (r *testPickRepo) UpsertBatch(ctx context.Context, picks []model.DailyJobPick) error {
	if len(picks) == 0 {
		return nil
	}

	tx, err := r.mock.Begin(ctx)
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
