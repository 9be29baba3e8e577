package model

import "time"

// Candidate is one user's scored view of a job, carried in memory from
// the Matcher to the Allocator within the same per-user shard (§4.F,
// §4.G — "each user is handled entirely by one worker").
type Candidate struct {
	JobID           int64
	EndclCD         string
	PrefCD          int
	CityCD          int
	Fee             int
	PostingDate     time.Time
	HasHighIncome   bool
	HasDailyPayment bool
	Applications30d int

	// SalaryMid is the job's (min+max)/2 midpoint, 0 when salary bounds
	// are absent — the Allocator's high-income relax step (§4.G) reads it.
	SalaryMid float64

	JobComposite float64
	Affinity     float64
	Score        float64
	Penalized    bool
}

// UserJobMapping is the persisted per-(user, job) scoring row of §3,
// keyed by batch_date. Section hints mirror the §4.G predicate
// table so the Allocator (or an external reader of this table) doesn't
// need to re-derive them from job/user state.
type UserJobMapping struct {
	UserID    int32
	JobID     int64
	BatchDate time.Time

	CompositeScore float64
	Rank           int

	EditorialEligible  bool
	RegionalEligible   bool
	NearbyEligible     bool
	HighIncomeEligible bool
	NewEligible        bool
}

// RankedUser is one user's Matcher output: the full sorted candidate
// list and the top-K subset persisted as mapping rows. The Allocator
// reads both — Top as its primary pool, All for the §4.G starvation
// widening step that looks past the top-K.
type RankedUser struct {
	Top []Candidate
	All []Candidate
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
