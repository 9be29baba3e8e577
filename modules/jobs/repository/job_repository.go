package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andreypavlenko/matchday/modules/jobs/model"
	"github.com/andreypavlenko/matchday/modules/jobs/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JobRepository implements ports.JobRepository over Postgres.
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository.
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

const upsertJobQuery = `
	INSERT INTO jobs (
		job_id, endcl_cd, title, company_name, pref_cd, city_cd, station_name,
		latitude, longitude, min_salary, max_salary, salary_type, fee, hours,
		work_days, description, benefits, occupation_cd1, occupation_cd2,
		employment_type_cd, feature_codes, posting_date, end_at, is_active,
		has_daily_payment, has_weekly_payment, has_no_experience,
		has_student_welcome, has_remote_work, has_transportation,
		has_high_income, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		$31, $32, $33
	)
	ON CONFLICT (job_id) DO UPDATE SET
		endcl_cd = EXCLUDED.endcl_cd,
		title = EXCLUDED.title,
		company_name = EXCLUDED.company_name,
		pref_cd = EXCLUDED.pref_cd,
		city_cd = EXCLUDED.city_cd,
		station_name = EXCLUDED.station_name,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		min_salary = EXCLUDED.min_salary,
		max_salary = EXCLUDED.max_salary,
		salary_type = EXCLUDED.salary_type,
		fee = EXCLUDED.fee,
		hours = EXCLUDED.hours,
		work_days = EXCLUDED.work_days,
		description = EXCLUDED.description,
		benefits = EXCLUDED.benefits,
		occupation_cd1 = EXCLUDED.occupation_cd1,
		occupation_cd2 = EXCLUDED.occupation_cd2,
		employment_type_cd = EXCLUDED.employment_type_cd,
		feature_codes = EXCLUDED.feature_codes,
		posting_date = COALESCE(jobs.posting_date, EXCLUDED.posting_date),
		end_at = EXCLUDED.end_at,
		is_active = EXCLUDED.is_active,
		has_daily_payment = EXCLUDED.has_daily_payment,
		has_weekly_payment = EXCLUDED.has_weekly_payment,
		has_no_experience = EXCLUDED.has_no_experience,
		has_student_welcome = EXCLUDED.has_student_welcome,
		has_remote_work = EXCLUDED.has_remote_work,
		has_transportation = EXCLUDED.has_transportation,
		has_high_income = EXCLUDED.has_high_income,
		updated_at = EXCLUDED.updated_at
`

func upsertArgs(job *model.Job) []any {
	return []any{
		job.JobID, job.EndclCD, job.Title, job.CompanyName, job.PrefCD, job.CityCD,
		job.StationName, job.Latitude, job.Longitude, job.MinSalary, job.MaxSalary,
		job.SalaryType, job.Fee, job.Hours, job.WorkDays, job.Description, job.Benefits,
		job.OccupationCD1, job.OccupationCD2, job.EmploymentTypeCD, job.FeatureCodes,
		job.PostingDate, job.EndAt, job.IsActive, job.HasDailyPayment, job.HasWeeklyPayment,
		job.HasNoExperience, job.HasStudentWelcome, job.HasRemoteWork, job.HasTransportation,
		job.HasHighIncome, job.CreatedAt, job.UpdatedAt,
	}
}

// Upsert inserts or updates a job by job_id, preserving the prior
// posting_date when the row re-appears.
func (r *JobRepository) Upsert(ctx context.Context, job *model.Job) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := r.pool.Exec(ctx, upsertJobQuery, upsertArgs(job)...)
	return err
}

// UpsertBatch upserts a chunk of jobs in a single transaction.
func (r *JobRepository) UpsertBatch(ctx context.Context, jobs []*model.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, job := range jobs {
		job.CreatedAt = now
		job.UpdatedAt = now
		batch.Queue(upsertJobQuery, upsertArgs(job)...)
	}

	br := tx.SendBatch(ctx, batch)
	for range jobs {
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

var jobColumns = `job_id, endcl_cd, title, company_name, pref_cd, city_cd, station_name,
	latitude, longitude, min_salary, max_salary, salary_type, fee, hours,
	work_days, description, benefits, occupation_cd1, occupation_cd2,
	employment_type_cd, feature_codes, posting_date, end_at, is_active,
	has_daily_payment, has_weekly_payment, has_no_experience,
	has_student_welcome, has_remote_work, has_transportation,
	has_high_income, created_at, updated_at`

func scanJob(row pgx.Row) (*model.Job, error) {
	job := &model.Job{}
	err := row.Scan(
		&job.JobID, &job.EndclCD, &job.Title, &job.CompanyName, &job.PrefCD, &job.CityCD,
		&job.StationName, &job.Latitude, &job.Longitude, &job.MinSalary, &job.MaxSalary,
		&job.SalaryType, &job.Fee, &job.Hours, &job.WorkDays, &job.Description, &job.Benefits,
		&job.OccupationCD1, &job.OccupationCD2, &job.EmploymentTypeCD, &job.FeatureCodes,
		&job.PostingDate, &job.EndAt, &job.IsActive, &job.HasDailyPayment, &job.HasWeeklyPayment,
		&job.HasNoExperience, &job.HasStudentWelcome, &job.HasRemoteWork, &job.HasTransportation,
		&job.HasHighIncome, &job.CreatedAt, &job.UpdatedAt,
	)
	return job, err
}

// GetByID retrieves a job by job_id.
func (r *JobRepository) GetByID(ctx context.Context, jobID int64) (*model.Job, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE job_id = $1`, jobID)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// SeenJobIDs returns the set of job_ids already present, for diffing
// against the day's CSV during the deactivation sweep.
func (r *JobRepository) SeenJobIDs(ctx context.Context) (map[int64]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT job_id FROM jobs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seen[id] = true
	}
	return seen, rows.Err()
}

// DeactivateMissing marks jobs absent from presentIDs as inactive when
// their end_at is older than the grace period, or they have no end_at
// and were last seen before the grace cutoff.
func (r *JobRepository) DeactivateMissing(ctx context.Context, presentIDs map[int64]bool, graceCutoff time.Time) (int, error) {
	rows, err := r.pool.Query(ctx, `SELECT job_id, end_at, updated_at FROM jobs WHERE is_active = true`)
	if err != nil {
		return 0, err
	}

	var toDeactivate []int64
	for rows.Next() {
		var id int64
		var endAt *time.Time
		var updatedAt time.Time
		if err := rows.Scan(&id, &endAt, &updatedAt); err != nil {
			rows.Close()
			return 0, err
		}
		if presentIDs[id] {
			continue
		}
		if endAt != nil {
			if endAt.Before(graceCutoff) {
				toDeactivate = append(toDeactivate, id)
			}
			continue
		}
		if updatedAt.Before(graceCutoff) {
			toDeactivate = append(toDeactivate, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(toDeactivate) == 0 {
		return 0, nil
	}

	result, err := r.pool.Exec(ctx,
		`UPDATE jobs SET is_active = false, updated_at = $2 WHERE job_id = ANY($1)`,
		toDeactivate, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}

	return int(result.RowsAffected()), nil
}

// ListEligible returns every job satisfying the eligibility invariant:
// active, employment type in the valid set, fee above the floor, not
// ended.
func (r *JobRepository) ListEligible(ctx context.Context, validEmploymentTypes []int, feeMin int, now time.Time) ([]*model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE is_active = true
			AND employment_type_cd = ANY($1)
			AND fee > $2
			AND (end_at IS NULL OR end_at > $3)
	`

	rows, err := r.pool.Query(ctx, query, validEmploymentTypes, feeMin, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

const areaStatsSelect = `
	SELECT
		COALESCE(AVG((min_salary + max_salary) / 2.0), 0),
		COALESCE(MIN(min_salary), 0),
		COALESCE(MAX(max_salary), 0),
		COUNT(*)
	FROM jobs
	WHERE is_active = true AND min_salary IS NOT NULL AND max_salary IS NOT NULL
`

func scanAreaStats(row pgx.Row) (ports.AreaStats, error) {
	var stats ports.AreaStats
	err := row.Scan(&stats.Avg, &stats.Min, &stats.Max, &stats.Count)
	return stats, err
}

// AreaSalaryStats returns wage-midpoint stats for (pref_cd, city_cd).
func (r *JobRepository) AreaSalaryStats(ctx context.Context, prefCD, cityCD int) (ports.AreaStats, error) {
	row := r.pool.QueryRow(ctx, areaStatsSelect+` AND pref_cd = $1 AND city_cd = $2`, prefCD, cityCD)
	return scanAreaStats(row)
}

// PrefSalaryStats returns wage-midpoint stats for pref_cd, ignoring city.
func (r *JobRepository) PrefSalaryStats(ctx context.Context, prefCD int) (ports.AreaStats, error) {
	row := r.pool.QueryRow(ctx, areaStatsSelect+` AND pref_cd = $1`, prefCD)
	return scanAreaStats(row)
}

// NationalSalaryStats returns wage-midpoint stats across all active jobs.
func (r *JobRepository) NationalSalaryStats(ctx context.Context) (ports.AreaStats, error) {
	row := r.pool.QueryRow(ctx, areaStatsSelect)
	return scanAreaStats(row)
}
