package model

import "time"

// SalaryType is the unit a job's salary bounds are quoted in.
type SalaryType string

const (
	SalaryHourly  SalaryType = "hourly"
	SalaryDaily   SalaryType = "daily"
	SalaryMonthly SalaryType = "monthly"
)

// Feature codes recognized from the CSV's feature_codes column. Semantics
// are master-defined (modules/masters); these are the codes Ingest looks
// for when materializing the derived boolean flags.
const (
	FeatureDailyPayment   = "D01"
	FeatureWeeklyPayment  = "W01"
	FeatureNoExperience   = "N01"
	FeatureStudentWelcome = "S01"
	FeatureRemoteWork     = "R01"
	FeatureTransportation = "T01"
)

// High-income salary thresholds, §3.
const (
	HighIncomeHourlyMin = 1500
	HighIncomeDailyMin  = 12000
)

// Job is a single posting in the day's corpus.
type Job struct {
	JobID            int64
	EndclCD          string
	Title            string
	CompanyName      string
	PrefCD           int
	CityCD           int
	StationName      *string
	Latitude         *float64
	Longitude        *float64
	MinSalary        *int
	MaxSalary        *int
	SalaryType       SalaryType
	Fee              int
	Hours            *string
	WorkDays         *string
	Description      *string
	Benefits         *string
	OccupationCD1    int
	OccupationCD2    *int
	EmploymentTypeCD int
	FeatureCodes     []string

	PostingDate time.Time
	EndAt       *time.Time
	IsActive    bool

	HasDailyPayment   bool
	HasWeeklyPayment  bool
	HasNoExperience   bool
	HasStudentWelcome bool
	HasRemoteWork     bool
	HasTransportation bool
	HasHighIncome     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DerivedFlags holds the six feature-code-derived booleans plus
// has_high_income, computed once at ingest time (§3, §4.B.2).
type DerivedFlags struct {
	HasDailyPayment   bool
	HasWeeklyPayment  bool
	HasNoExperience   bool
	HasStudentWelcome bool
	HasRemoteWork     bool
	HasTransportation bool
	HasHighIncome     bool
}

// DeriveFlags computes the derived flags from a job's feature codes and
// salary fields. It is pure so Ingest can call it once per row and the
// invariant "derived flags must be consistent with feature_codes and
// salary fields" (§3) holds by construction.
func DeriveFlags(featureCodes []string, salaryType SalaryType, minSalary *int) DerivedFlags {
	set := make(map[string]bool, len(featureCodes))
	for _, c := range featureCodes {
		set[c] = true
	}

	flags := DerivedFlags{
		HasDailyPayment:   set[FeatureDailyPayment],
		HasWeeklyPayment:  set[FeatureWeeklyPayment],
		HasNoExperience:   set[FeatureNoExperience],
		HasStudentWelcome: set[FeatureStudentWelcome],
		HasRemoteWork:     set[FeatureRemoteWork],
		HasTransportation: set[FeatureTransportation],
	}

	if minSalary != nil {
		switch salaryType {
		case SalaryHourly:
			flags.HasHighIncome = *minSalary >= HighIncomeHourlyMin
		case SalaryDaily:
			flags.HasHighIncome = *minSalary >= HighIncomeDailyMin
		}
	}

	return flags
}

// ApplyDerivedFlags copies computed flags onto the job.
func (j *Job) ApplyDerivedFlags(f DerivedFlags) {
	j.HasDailyPayment = f.HasDailyPayment
	j.HasWeeklyPayment = f.HasWeeklyPayment
	j.HasNoExperience = f.HasNoExperience
	j.HasStudentWelcome = f.HasStudentWelcome
	j.HasRemoteWork = f.HasRemoteWork
	j.HasTransportation = f.HasTransportation
	j.HasHighIncome = f.HasHighIncome
}

// EligibleEmploymentTypeCDs are the employment_type_cd values a job
// must carry to be matching-eligible (§3).
var EligibleEmploymentTypeCDs = []int{1, 3, 6, 8}

// EligibleEmploymentTypeCDSet is EligibleEmploymentTypeCDs as a lookup
// set, for Job.IsEligible callers outside the repository layer.
var EligibleEmploymentTypeCDSet = map[int]bool{1: true, 3: true, 6: true, 8: true}

// FeeEligibilityMin is the fee floor a job must exceed to be eligible (§3).
const FeeEligibilityMin = 500

// IsEligible implements the eligibility invariant of §3: active,
// employment type in the valid set, fee above the floor, not ended.
func (j *Job) IsEligible(validEmploymentTypes map[int]bool, feeMin int, now time.Time) bool {
	if !j.IsActive {
		return false
	}
	if !validEmploymentTypes[j.EmploymentTypeCD] {
		return false
	}
	if j.Fee <= feeMin {
		return false
	}
	if j.EndAt != nil && !j.EndAt.After(now) {
		return false
	}
	return true
}

// AvgSalary returns the midpoint of min/max salary, or false if either
// bound is absent.
func (j *Job) AvgSalary() (float64, bool) {
	if j.MinSalary == nil || j.MaxSalary == nil {
		return 0, false
	}
	return float64(*j.MinSalary+*j.MaxSalary) / 2, true
}

// NeedsCategory is a derived tag describing why a job is interesting for
// a class of users (§4.E "Needs categories").
type NeedsCategory string

const (
	NeedsDailyPayment       NeedsCategory = "daily_payment"
	NeedsWeeklyPayment      NeedsCategory = "weekly_payment"
	NeedsHighIncome         NeedsCategory = "high_income"
	NeedsNoExperience       NeedsCategory = "no_experience"
	NeedsStudentWelcome     NeedsCategory = "student_welcome"
	NeedsRemote             NeedsCategory = "remote"
	NeedsTransportSupported NeedsCategory = "transport_supported"
)

// NeedsCategories returns the set of tags this job satisfies.
func (j *Job) NeedsCategories() []NeedsCategory {
	var out []NeedsCategory
	if j.HasDailyPayment {
		out = append(out, NeedsDailyPayment)
	}
	if j.HasWeeklyPayment {
		out = append(out, NeedsWeeklyPayment)
	}
	if j.HasHighIncome {
		out = append(out, NeedsHighIncome)
	}
	if j.HasNoExperience {
		out = append(out, NeedsNoExperience)
	}
	if j.HasStudentWelcome {
		out = append(out, NeedsStudentWelcome)
	}
	if j.HasRemoteWork {
		out = append(out, NeedsRemote)
	}
	if j.HasTransportation {
		out = append(out, NeedsTransportSupported)
	}
	return out
}
