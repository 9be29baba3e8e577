package repository

import (
	"context"
	"testing"
	"time"

	"github.com/andreypavlenko/matchday/modules/jobs/model"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minSalary(v int) *int { return &v }

func TestJobRepository_Upsert(t *testing.T) {
	t.Run("upserts job successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		job := &model.Job{
			JobID:            42,
			Title:            "Warehouse Sorter",
			CompanyName:      "Acme Logistics",
			PrefCD:           13,
			CityCD:           13101,
			MinSalary:        minSalary(1200),
			MaxSalary:        minSalary(1600),
			SalaryType:       model.SalaryHourly,
			Fee:              800,
			OccupationCD1:    1,
			EmploymentTypeCD: 1,
			FeatureCodes:     []string{model.FeatureDailyPayment},
			PostingDate:      time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			IsActive:         true,
		}

		mock.ExpectExec("INSERT INTO jobs").
			WithArgs(
				job.JobID, job.EndclCD, job.Title, job.CompanyName, job.PrefCD, job.CityCD,
				job.StationName, job.Latitude, job.Longitude, job.MinSalary, job.MaxSalary,
				job.SalaryType, job.Fee, job.Hours, job.WorkDays, job.Description, job.Benefits,
				job.OccupationCD1, job.OccupationCD2, job.EmploymentTypeCD, job.FeatureCodes,
				job.PostingDate, job.EndAt, job.IsActive, job.HasDailyPayment, job.HasWeeklyPayment,
				job.HasNoExperience, job.HasStudentWelcome, job.HasRemoteWork, job.HasTransportation,
				job.HasHighIncome, pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := &testJobRepo{mock: mock}
		err = repo.Upsert(context.Background(), job)

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestJobRepository_GetByID(t *testing.T) {
	t.Run("returns job successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		now := time.Now()
		rows := pgxmock.NewRows([]string{
			"job_id", "endcl_cd", "title", "company_name", "pref_cd", "city_cd", "station_name",
			"latitude", "longitude", "min_salary", "max_salary", "salary_type", "fee", "hours",
			"work_days", "description", "benefits", "occupation_cd1", "occupation_cd2",
			"employment_type_cd", "feature_codes", "posting_date", "end_at", "is_active",
			"has_daily_payment", "has_weekly_payment", "has_no_experience",
			"has_student_welcome", "has_remote_work", "has_transportation",
			"has_high_income", "created_at", "updated_at",
		}).AddRow(
			int64(42), "EC1", "Warehouse Sorter", "Acme Logistics", 13, 13101, nil,
			nil, nil, minSalary(1200), minSalary(1600), model.SalaryHourly, 800, nil,
			nil, nil, nil, 1, nil,
			1, []string{model.FeatureDailyPayment}, now, nil, true,
			true, false, false,
			false, false, false,
			false, now, now,
		)

		mock.ExpectQuery("SELECT job_id").WithArgs(int64(42)).WillReturnRows(rows)

		repo := &testJobRepo{mock: mock}
		job, err := repo.GetByID(context.Background(), 42)

		require.NoError(t, err)
		assert.Equal(t, int64(42), job.JobID)
		assert.Equal(t, "Warehouse Sorter", job.Title)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error when job not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT job_id").WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)

		repo := &testJobRepo{mock: mock}
		job, err := repo.GetByID(context.Background(), 99)

		assert.Nil(t, job)
		assert.Equal(t, model.ErrJobNotFound, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestJobRepository_SeenJobIDs(t *testing.T) {
	t.Run("returns the set of known job ids", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"job_id"}).AddRow(int64(1)).AddRow(int64(2))
		mock.ExpectQuery("SELECT job_id FROM jobs").WillReturnRows(rows)

		repo := &testJobRepo{mock: mock}
		seen, err := repo.SeenJobIDs(context.Background())

		require.NoError(t, err)
		assert.Equal(t, map[int64]bool{1: true, 2: true}, seen)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestJobRepository_DeactivateMissing(t *testing.T) {
	t.Run("deactivates jobs past the grace cutoff with no end_at", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		cutoff := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
		stale := cutoff.Add(-48 * time.Hour)

		rows := pgxmock.NewRows([]string{"job_id", "end_at", "updated_at"}).
			AddRow(int64(1), nil, stale).
			AddRow(int64(2), nil, time.Now())

		mock.ExpectQuery("SELECT job_id, end_at, updated_at FROM jobs").WillReturnRows(rows)
		mock.ExpectExec("UPDATE jobs SET is_active").
			WithArgs([]int64{1}, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := &testJobRepo{mock: mock}
		n, err := repo.DeactivateMissing(context.Background(), map[int64]bool{2: true}, cutoff)

		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-ops when nothing qualifies", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"job_id", "end_at", "updated_at"}).
			AddRow(int64(1), nil, time.Now())
		mock.ExpectQuery("SELECT job_id, end_at, updated_at FROM jobs").WillReturnRows(rows)

		repo := &testJobRepo{mock: mock}
		n, err := repo.DeactivateMissing(context.Background(), map[int64]bool{1: true}, time.Now().Add(-48*time.Hour))

		require.NoError(t, err)
		assert.Equal(t, 0, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// testJobRepo mirrors JobRepository's logic against pgxmock.PgxPoolIface,
// since pgxmock does not implement *pgxpool.Pool directly.
type testJobRepo struct {
	mock pgxmock.PgxPoolIface
}

func (r *testJobRepo) Upsert(ctx context.Context, job *model.Job) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	_, err := r.mock.Exec(ctx, upsertJobQuery, upsertArgs(job)...)
	return err
}

func (r *testJobRepo) GetByID(ctx context.Context, jobID int64) (*model.Job, error) {
	row := r.mock.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE job_id = $1`, jobID)
	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *testJobRepo) SeenJobIDs(ctx context.Context) (map[int64]bool, error) {
	rows, err := r.mock.Query(ctx, `SELECT job_id FROM jobs`)
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

func (r *testJobRepo) DeactivateMissing(ctx context.Context, presentIDs map[int64]bool, graceCutoff time.Time) (int, error) {
	rows, err := r.mock.Query(ctx, `SELECT job_id, end_at, updated_at FROM jobs WHERE is_active = true`)
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

	result, err := r.mock.Exec(ctx,
		`UPDATE jobs SET is_active = false, updated_at = $2 WHERE job_id = ANY($1)`,
		toDeactivate, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
