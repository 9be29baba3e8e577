//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/andreypavlenko/matchday/modules/jobs/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const jobsDDL = `
CREATE TABLE jobs (
	job_id              BIGINT PRIMARY KEY,
	endcl_cd            TEXT NOT NULL,
	title               TEXT NOT NULL,
	company_name        TEXT NOT NULL,
	pref_cd             INTEGER NOT NULL,
	city_cd             INTEGER NOT NULL,
	station_name        TEXT,
	latitude            DOUBLE PRECISION,
	longitude           DOUBLE PRECISION,
	min_salary          INTEGER,
	max_salary          INTEGER,
	salary_type         TEXT NOT NULL DEFAULT '',
	fee                 INTEGER NOT NULL,
	hours               TEXT,
	work_days           TEXT,
	description         TEXT,
	benefits            TEXT,
	occupation_cd1      INTEGER NOT NULL,
	occupation_cd2      INTEGER,
	employment_type_cd  INTEGER NOT NULL,
	feature_codes       TEXT[] NOT NULL DEFAULT '{}',
	posting_date        TIMESTAMPTZ NOT NULL,
	end_at              TIMESTAMPTZ,
	is_active           BOOLEAN NOT NULL DEFAULT true,
	has_daily_payment   BOOLEAN NOT NULL DEFAULT false,
	has_weekly_payment  BOOLEAN NOT NULL DEFAULT false,
	has_no_experience   BOOLEAN NOT NULL DEFAULT false,
	has_student_welcome BOOLEAN NOT NULL DEFAULT false,
	has_remote_work     BOOLEAN NOT NULL DEFAULT false,
	has_transportation  BOOLEAN NOT NULL DEFAULT false,
	has_high_income     BOOLEAN NOT NULL DEFAULT false,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// TestJobRepository_UpsertBatch_Idempotent exercises the real upsert-by-
// job_id conflict clause against a real Postgres instance: a second
// ingest run over the same job_id with a changed field must update the
// row in place, not duplicate it (§4.B, daily re-ingest of the same jobs).
func TestJobRepository_UpsertBatch_Idempotent(t *testing.T) {
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("matchday_test"),
		tcpostgres.WithUsername("matchday"),
		tcpostgres.WithPassword("matchday"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	require.NoError(t, err)
	defer func() { _ = ctr.Terminate(ctx) }()

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, jobsDDL)
	require.NoError(t, err)

	repo := NewJobRepository(pool)

	job := &model.Job{
		JobID:            9001,
		EndclCD:          "EC001",
		Title:            "Warehouse Sorter",
		CompanyName:      "Acme Logistics",
		PrefCD:           13,
		CityCD:           131016,
		SalaryType:       model.SalaryHourly,
		Fee:              800,
		OccupationCD1:    1003,
		EmploymentTypeCD: 1,
		FeatureCodes:     []string{model.FeatureDailyPayment},
		PostingDate:      time.Now().UTC().Truncate(24 * time.Hour),
		IsActive:         true,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}

	require.NoError(t, repo.UpsertBatch(ctx, []*model.Job{job}))

	job.Title = "Warehouse Sorter (Night Shift)"
	job.Fee = 1200
	job.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.UpsertBatch(ctx, []*model.Job{job}))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM jobs WHERE job_id = $1`, job.JobID).Scan(&count))
	require.Equal(t, 1, count)

	var title string
	var fee int
	require.NoError(t, pool.QueryRow(ctx, `SELECT title, fee FROM jobs WHERE job_id = $1`, job.JobID).Scan(&title, &fee))
	require.Equal(t, "Warehouse Sorter (Night Shift)", title)
	require.Equal(t, 1200, fee)
}
