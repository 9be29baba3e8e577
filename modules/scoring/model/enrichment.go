package model

import "time"

// NeedsCategory mirrors the tag set modules/jobs derives at ingest
// time; re-declared here so scoring can attach it to JobEnrichment
// without a dependency on modules/jobs' full Job type.
type NeedsCategory string

// The seven needs-category tags a job may carry (§4.E).
const (
	NeedsDailyPayment   NeedsCategory = "daily_payment"
	NeedsWeeklyPayment  NeedsCategory = "weekly_payment"
	NeedsHighIncome     NeedsCategory = "high_income"
	NeedsNoExperience   NeedsCategory = "no_experience"
	NeedsStudentWelcome NeedsCategory = "student_welcome"
	NeedsRemote         NeedsCategory = "remote"
	NeedsTransport      NeedsCategory = "transport_supported"
)

// JobFlags is the subset of a job's derived flags the needs-category
// predicates read. Mirrors modules/jobs/model.DerivedFlags without a
// cross-module dependency on the full Job type.
type JobFlags struct {
	HasDailyPayment   bool
	HasWeeklyPayment  bool
	HasNoExperience   bool
	HasStudentWelcome bool
	HasRemoteWork     bool
	HasTransportation bool
	HasHighIncome     bool
}

// DeriveNeedsCategories returns the set of needs categories a job
// satisfies, one per true flag.
func DeriveNeedsCategories(f JobFlags) []NeedsCategory {
	var tags []NeedsCategory
	if f.HasDailyPayment {
		tags = append(tags, NeedsDailyPayment)
	}
	if f.HasWeeklyPayment {
		tags = append(tags, NeedsWeeklyPayment)
	}
	if f.HasHighIncome {
		tags = append(tags, NeedsHighIncome)
	}
	if f.HasNoExperience {
		tags = append(tags, NeedsNoExperience)
	}
	if f.HasStudentWelcome {
		tags = append(tags, NeedsStudentWelcome)
	}
	if f.HasRemoteWork {
		tags = append(tags, NeedsRemote)
	}
	if f.HasTransportation {
		tags = append(tags, NeedsTransport)
	}
	return tags
}

// JobEnrichment is the Scorer's per-job output (§3, §4.E). Scores are
// clamped to [0, 100]; Composite is the input to Matcher/Allocator
// ranking.
type JobEnrichment struct {
	JobID int64

	BasicScore            float64
	SEOScore              float64
	PersonalizedScoreBase float64
	Composite             float64

	NeedsCategories []NeedsCategory

	Applications30d int
	Clicks30d       int

	NeedsRecalculation bool

	ComputedAt time.Time
}

// Composite weights (§4.E): 0.3*basic + 0.2*seo + 0.5*personalized_base.
const (
	WeightBasic        = 0.3
	WeightSEO          = 0.2
	WeightPersonalized = 0.5
)

// CompositeScore blends the three §4.E scores into the stored ranking input.
func CompositeScore(basic, seo, personalized float64) float64 {
	return WeightBasic*basic + WeightSEO*seo + WeightPersonalized*personalized
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
