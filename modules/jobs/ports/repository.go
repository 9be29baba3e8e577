package ports

import (
	"context"
	"time"

	"github.com/andreypavlenko/matchday/modules/jobs/model"
)

// JobRepository defines the interface for job data access. Ingest is the
// only writer; every later stage reads through it (§3 ownership rules).
type JobRepository interface {
	// Upsert inserts or updates a job by job_id, preserving the prior
	// posting_date when the row re-appears (§4.B.4).
	Upsert(ctx context.Context, job *model.Job) error

	// UpsertBatch upserts a chunk of jobs in a single transaction (§5:
	// "writes within a chunk are a single transaction").
	UpsertBatch(ctx context.Context, jobs []*model.Job) error

	GetByID(ctx context.Context, jobID int64) (*model.Job, error)

	// SeenJobIDs returns the set of job_ids already present for diffing
	// against the day's CSV during the deactivation sweep (§4.B.5).
	SeenJobIDs(ctx context.Context) (map[int64]bool, error)

	// DeactivateMissing marks jobs absent from presentIDs as inactive
	// when their end_at is older than the grace period, or they have no
	// end_at and were last seen before the grace cutoff.
	DeactivateMissing(ctx context.Context, presentIDs map[int64]bool, graceCutoff time.Time) (int, error)

	// ListEligible streams every job satisfying the §3 eligibility
	// invariant, for the Scorer to enrich.
	ListEligible(ctx context.Context, validEmploymentTypes []int, feeMin int, now time.Time) ([]*model.Job, error)

	// AreaSalaryStats returns {avg,min,max} wage midpoints, sample count,
	// for (pref_cd, city_cd), falling back per the wage-component rule in
	// §4.E when the city sample is small.
	AreaSalaryStats(ctx context.Context, prefCD, cityCD int) (AreaStats, error)
	PrefSalaryStats(ctx context.Context, prefCD int) (AreaStats, error)
	NationalSalaryStats(ctx context.Context) (AreaStats, error)
}

// AreaStats is the wage-component input of §4.E's basic score.
type AreaStats struct {
	Avg   float64
	Min   float64
	Max   float64
	Count int
}
