package repository

import (
	"context"
	"time"

	"github.com/andreypavlenko/matchday/modules/actions/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActionRepository implements ports.ActionRepository over Postgres.
type ActionRepository struct {
	pool *pgxpool.Pool
}

// NewActionRepository creates a new action repository.
func NewActionRepository(pool *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{pool: pool}
}

// EmployerCounts returns view/click/application tallies per endcl_cd
// since the given time, for the Popularity Aggregator.
func (r *ActionRepository) EmployerCounts(ctx context.Context, since time.Time) (map[string]model.EmployerCounts, error) {
	query := `
		SELECT
			endcl_cd,
			COUNT(*) FILTER (WHERE action_type = 'view') AS views,
			COUNT(*) FILTER (WHERE action_type = 'click') AS clicks,
			COUNT(*) FILTER (WHERE action_type IN ('apply', 'application')) AS applications
		FROM user_actions
		WHERE action_timestamp >= $1 AND endcl_cd IS NOT NULL
		GROUP BY endcl_cd
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]model.EmployerCounts)
	for rows.Next() {
		var endclCD string
		var c model.EmployerCounts
		if err := rows.Scan(&endclCD, &c.Views, &c.Clicks, &c.Applications); err != nil {
			return nil, err
		}
		counts[endclCD] = c
	}
	return counts, rows.Err()
}

// UserActionsSince returns a user's actions since the given time,
// denormalized with job attributes for the Profile Builder.
func (r *ActionRepository) UserActionsSince(ctx context.Context, userID int32, since time.Time) ([]model.ActionWithJob, error) {
	query := `
		SELECT
			a.user_id, a.job_id, a.endcl_cd, a.action_type, a.action_timestamp,
			j.pref_cd, j.city_cd, j.occupation_cd1, j.employment_type_cd, j.min_salary, j.max_salary
		FROM user_actions a
		LEFT JOIN jobs j ON j.job_id = a.job_id
		WHERE a.user_id = $1 AND a.action_timestamp >= $2
	`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []model.ActionWithJob
	for rows.Next() {
		var a model.ActionWithJob
		if err := rows.Scan(
			&a.UserID, &a.JobID, &a.EndclCD, &a.ActionType, &a.ActionTimestamp,
			&a.PrefCD, &a.CityCD, &a.OccupationCD1, &a.EmploymentTypeCD, &a.MinSalary, &a.MaxSalary,
		); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// JobCounts returns view/click/application tallies per job_id since
// the given time, for the Scorer's personalized base.
func (r *ActionRepository) JobCounts(ctx context.Context, since time.Time) (map[int64]model.EngagementCounts, error) {
	query := `
		SELECT
			job_id,
			COUNT(*) FILTER (WHERE action_type = 'view') AS views,
			COUNT(*) FILTER (WHERE action_type = 'click') AS clicks,
			COUNT(*) FILTER (WHERE action_type IN ('apply', 'application')) AS applications
		FROM user_actions
		WHERE action_timestamp >= $1 AND job_id IS NOT NULL
		GROUP BY job_id
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]model.EngagementCounts)
	for rows.Next() {
		var jobID int64
		var c model.EngagementCounts
		if err := rows.Scan(&jobID, &c.Views, &c.Clicks, &c.Applications); err != nil {
			return nil, err
		}
		counts[jobID] = c
	}
	return counts, rows.Err()
}

// RecentEmployers returns the set of endcl_cd with an apply/application
// action since the given time — the 14-day recent_employers set.
func (r *ActionRepository) RecentEmployers(ctx context.Context, userID int32, since time.Time) (map[string]bool, error) {
	query := `
		SELECT DISTINCT endcl_cd
		FROM user_actions
		WHERE user_id = $1
			AND action_timestamp >= $2
			AND action_type IN ('apply', 'application')
			AND endcl_cd IS NOT NULL
	`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employers := make(map[string]bool)
	for rows.Next() {
		var endclCD string
		if err := rows.Scan(&endclCD); err != nil {
			return nil, err
		}
		employers[endclCD] = true
	}
	return employers, rows.Err()
}
