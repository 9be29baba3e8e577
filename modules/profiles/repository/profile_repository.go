package repository

import (
	"context"
	"errors"

	"github.com/andreypavlenko/matchday/modules/profiles/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository implements ports.ProfileRepository over Postgres.
// Frequency maps are stored as jsonb; parsed eagerly on read back into
// the typed maps callers operate on.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

const upsertProfileQuery = `
	INSERT INTO user_profiles (
		user_id, pref_freq, city_freq, occupation_freq, employment_freq, employer_freq,
		salary_avg, salary_min, salary_max, salary_count,
		application_count, click_count, view_count, last_application_date,
		recent_employers, built_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (user_id) DO UPDATE SET
		pref_freq = EXCLUDED.pref_freq,
		city_freq = EXCLUDED.city_freq,
		occupation_freq = EXCLUDED.occupation_freq,
		employment_freq = EXCLUDED.employment_freq,
		employer_freq = EXCLUDED.employer_freq,
		salary_avg = EXCLUDED.salary_avg,
		salary_min = EXCLUDED.salary_min,
		salary_max = EXCLUDED.salary_max,
		salary_count = EXCLUDED.salary_count,
		application_count = EXCLUDED.application_count,
		click_count = EXCLUDED.click_count,
		view_count = EXCLUDED.view_count,
		last_application_date = EXCLUDED.last_application_date,
		recent_employers = EXCLUDED.recent_employers,
		built_at = EXCLUDED.built_at
`

// UpsertBatch writes this run's profile set in a single transaction.
func (r *ProfileRepository) UpsertBatch(ctx context.Context, profiles []*model.UserProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range profiles {
		recentEmployers := make([]string, 0, len(p.RecentEmployers))
		for endclCD := range p.RecentEmployers {
			recentEmployers = append(recentEmployers, endclCD)
		}

		batch.Queue(upsertProfileQuery,
			p.UserID, p.PrefFreq, p.CityFreq, p.OccupationFreq, p.EmploymentFreq, p.EmployerFreq,
			p.SalaryStats.Avg, p.SalaryStats.Min, p.SalaryStats.Max, p.SalaryStats.Count,
			p.ApplicationCount, p.ClickCount, p.ViewCount, p.LastApplication,
			recentEmployers, p.BuiltAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range profiles {
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

// Get retrieves a single user's profile for this run.
func (r *ProfileRepository) Get(ctx context.Context, userID int32) (*model.UserProfile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, pref_freq, city_freq, occupation_freq, employment_freq, employer_freq,
			salary_avg, salary_min, salary_max, salary_count,
			application_count, click_count, view_count, last_application_date,
			recent_employers, built_at
		FROM user_profiles
		WHERE user_id = $1
	`, userID)

	p := &model.UserProfile{}
	var recentEmployers []string
	err := row.Scan(
		&p.UserID, &p.PrefFreq, &p.CityFreq, &p.OccupationFreq, &p.EmploymentFreq, &p.EmployerFreq,
		&p.SalaryStats.Avg, &p.SalaryStats.Min, &p.SalaryStats.Max, &p.SalaryStats.Count,
		&p.ApplicationCount, &p.ClickCount, &p.ViewCount, &p.LastApplication,
		&recentEmployers, &p.BuiltAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	p.RecentEmployers = make(map[string]bool, len(recentEmployers))
	for _, endclCD := range recentEmployers {
		p.RecentEmployers[endclCD] = true
	}
	return p, nil
}
