package model

import "time"

// Section is one of the six fixed allocation buckets, processed in this
// exact priority order (§4.G).
type Section string

const (
	SectionEditorialPicks Section = "editorial_picks"
	SectionTop5           Section = "top5"
	SectionRegional       Section = "regional"
	SectionNearby         Section = "nearby"
	SectionHighIncome     Section = "high_income"
	SectionNew            Section = "new"
)

// Order is the §4.G strict priority order sections are filled in.
var Order = []Section{
	SectionEditorialPicks, SectionTop5, SectionRegional,
	SectionNearby, SectionHighIncome, SectionNew,
}

// PickReasonFallback tags a pick borrowed by the §4.G starvation policy's
// last resort: highest-score unselected candidate regardless of predicate.
const PickReasonFallback = "fallback"

// DailyJobPick is one of a user's 40 daily picks (§3). Unique per
// (user_id, job_id, pick_date).
type DailyJobPick struct {
	UserID         int32
	JobID          int64
	PickDate       time.Time
	Section        Section
	SectionRank    int
	CompositeScore float64
	PickReason     string
}

// AllocationResult is one user's full 40-pick output.
type AllocationResult struct {
	UserID       int32
	Picks        []DailyJobPick
	LowInventory bool
}
