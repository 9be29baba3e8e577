package ports

import (
	"context"
	"time"

	"github.com/andreypavlenko/matchday/modules/actions/model"
)

// ActionRepository is a read-only view over the append-only
// user_actions log: engagement events are ingested by upstream
// instrumentation outside this pipeline, which only ever reads them
// (§3 Lifecycle: "Actions: append-only").
type ActionRepository interface {
	// EmployerCounts returns, for every endcl_cd with at least one action
	// since `since`, the raw view/click/application tallies the
	// Popularity Aggregator blends into a score (§4.C).
	EmployerCounts(ctx context.Context, since time.Time) (map[string]model.EmployerCounts, error)

	// UserActionsSince returns a user's actions since `since`, denormalized
	// with job attributes, for the Profile Builder's frequency maps (§4.D).
	UserActionsSince(ctx context.Context, userID int32, since time.Time) ([]model.ActionWithJob, error)

	// RecentEmployers returns the set of endcl_cd with an apply/application
	// action since `since` — the 14-day recent_employers(user_id) set
	// consulted at match time (§4.D).
	RecentEmployers(ctx context.Context, userID int32, since time.Time) (map[string]bool, error)

	// JobCounts returns, for every job_id with at least one action since
	// `since`, the raw view/click/application tallies behind the
	// Scorer's population-level personalized base (§4.E).
	JobCounts(ctx context.Context, since time.Time) (map[int64]model.EngagementCounts, error)
}
