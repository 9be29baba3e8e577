package repository

import (
	"context"
	"errors"

	"github.com/andreypavlenko/matchday/modules/users/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `user_id, contact, pref_cd, city_cd, is_active, subscribed, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.UserID, &user.Contact, &user.PrefCD, &user.CityCD,
		&user.IsActive, &user.Subscribed, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

// GetByID retrieves a user by user_id.
func (r *UserRepository) GetByID(ctx context.Context, userID int32) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListEligibleActive streams every active, subscribed user for
// Profile/Matcher to shard by hash(user_id) mod W.
func (r *UserRepository) ListEligibleActive(ctx context.Context) ([]*model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_active = true AND subscribed = true`,
	)
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

// CountEligibleActive returns the number of active, subscribed users.
func (r *UserRepository) CountEligibleActive(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE is_active = true AND subscribed = true`,
	).Scan(&count)
	return count, err
}
