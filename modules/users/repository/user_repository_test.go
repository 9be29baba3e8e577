package repository

import (
	"context"
	"testing"
	"time"

	"github.com/andreypavlenko/matchday/modules/users/model"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByID(t *testing.T) {
	t.Run("returns user successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		now := time.Now()
		prefCD, cityCD := 13, 13101
		rows := pgxmock.NewRows([]string{
			"user_id", "contact", "pref_cd", "city_cd", "is_active", "subscribed", "created_at", "updated_at",
		}).AddRow(int32(7), "opaque-contact-7", &prefCD, &cityCD, true, true, now, now)

		mock.ExpectQuery("SELECT user_id").WithArgs(int32(7)).WillReturnRows(rows)

		repo := &testUserRepo{mock: mock}
		user, err := repo.GetByID(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, int32(7), user.UserID)
		assert.True(t, user.IsEligible())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when user not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT user_id").WithArgs(int32(99)).WillReturnError(pgx.ErrNoRows)

		repo := &testUserRepo{mock: mock}
		user, err := repo.GetByID(context.Background(), 99)

		assert.Nil(t, user)
		assert.Equal(t, model.ErrUserNotFound, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_ListEligibleActive(t *testing.T) {
	t.Run("returns only active, subscribed users", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		now := time.Now()
		rows := pgxmock.NewRows([]string{
			"user_id", "contact", "pref_cd", "city_cd", "is_active", "subscribed", "created_at", "updated_at",
		}).
			AddRow(int32(1), "c1", nil, nil, true, true, now, now).
			AddRow(int32(2), "c2", nil, nil, true, true, now, now)

		mock.ExpectQuery("SELECT user_id.+WHERE is_active = true AND subscribed = true").WillReturnRows(rows)

		repo := &testUserRepo{mock: mock}
		users, err := repo.ListEligibleActive(context.Background())

		require.NoError(t, err)
		assert.Len(t, users, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_CountEligibleActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	repo := &testUserRepo{mock: mock}
	count, err := repo.CountEligibleActive(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

// testUserRepo mirrors UserRepository's logic against pgxmock.PgxPoolIface.
type testUserRepo struct {
	mock pgxmock.PgxPoolIface
}

func (r *testUserRepo) GetByID(ctx context.Context, userID int32) (*model.User, error) {
	row := r.mock.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *testUserRepo) ListEligibleActive(ctx context.Context) ([]*model.User, error) {
	rows, err := r.mock.Query(ctx, `SELECT `+userColumns+` FROM users WHERE is_active = true AND subscribed = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *testUserRepo) CountEligibleActive(ctx context.Context) (int, error) {
	var count int
	err := r.mock.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active = true AND subscribed = true`).Scan(&count)
	return count, err
}
