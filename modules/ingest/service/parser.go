package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ingestmodel "github.com/andreypavlenko/matchday/modules/ingest/model"
	jobmodel "github.com/andreypavlenko/matchday/modules/jobs/model"
	masterssvc "github.com/andreypavlenko/matchday/modules/masters/service"
)

// dateLayout is the posting_date/end_at wire format (§6.1).
const dateLayout = "2006-01-02"

// legacySalaryPattern matches the free-text yen range the §4.B.2
// collapsing rule describes, e.g. "¥1,200-1,500/時".
var legacySalaryPattern = regexp.MustCompile(`([0-9,]+)\s*[-–~〜]\s*([0-9,]+)\s*/?\s*(時|日|月)?`)

// parseRow turns one CSV record into a Job, trimming/normalizing
// whitespace, validating against masters, parsing salary and deriving
// flags (§4.B.2). The returned error is one of the jobmodel invariant
// sentinels or an ingest-model parse sentinel; row-level, never fatal.
func parseRow(fields map[string]string, now time.Time, masters *masterssvc.Cache) (*jobmodel.Job, error) {
	jobID, err := parseInt64(fields["job_id"])
	if err != nil {
		return nil, fmt.Errorf("job_id: %w", wrapMalformed(err))
	}

	prefCD, err := parseInt(fields["pref_cd"])
	if err != nil {
		return nil, fmt.Errorf("pref_cd: %w", wrapMalformed(err))
	}
	if _, err := masters.RequirePrefecture(prefCD); err != nil {
		return nil, err
	}

	cityCD, err := parseInt(fields["city_cd"])
	if err != nil {
		return nil, fmt.Errorf("city_cd: %w", wrapMalformed(err))
	}
	if _, err := masters.RequireCity(cityCD); err != nil {
		return nil, err
	}

	occCD1, err := parseInt(fields["occupation_cd1"])
	if err != nil {
		return nil, fmt.Errorf("occupation_cd1: %w", wrapMalformed(err))
	}

	employmentTypeCD, err := parseInt(fields["employment_type_cd"])
	if err != nil {
		return nil, fmt.Errorf("employment_type_cd: %w", wrapMalformed(err))
	}

	fee, err := parseInt(fields["fee"])
	if err != nil {
		return nil, fmt.Errorf("fee: %w", wrapMalformed(err))
	}

	postingDate, err := parseDate(fields["posting_date"])
	if err != nil {
		return nil, fmt.Errorf("posting_date: %w", wrapMalformed(err))
	}

	minSalary, maxSalary, salaryType, err := parseSalary(fields)
	if err != nil {
		return nil, err
	}

	var endAt *time.Time
	if raw := strings.TrimSpace(fields["end_at"]); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("end_at: %w", wrapMalformed(err))
		}
		endAt = &t
	}

	featureCodes := splitFeatureCodes(fields["feature_codes"])

	job := &jobmodel.Job{
		JobID:             jobID,
		EndclCD:           strings.TrimSpace(fields["endcl_cd"]),
		Title:             strings.TrimSpace(fields["application_name"]),
		CompanyName:       strings.TrimSpace(fields["company_name"]),
		PrefCD:            prefCD,
		CityCD:            cityCD,
		StationName:       optionalString(fields["station_name_eki"]),
		MinSalary:         minSalary,
		MaxSalary:         maxSalary,
		SalaryType:        salaryType,
		Fee:               fee,
		Hours:             optionalString(fields["hours"]),
		WorkDays:          optionalString(fields["work_days"]),
		Description:       optionalString(fields["description"]),
		Benefits:          optionalString(fields["benefits"]),
		OccupationCD1:     occCD1,
		OccupationCD2:     optionalInt(fields["occupation_cd2"]),
		EmploymentTypeCD:  employmentTypeCD,
		FeatureCodes:      featureCodes,
		PostingDate:       postingDate,
		EndAt:             endAt,
		IsActive:          true,
	}

	if lat, ok := optionalFloat(fields["latitude"]); ok {
		job.Latitude = &lat
	}
	if lng, ok := optionalFloat(fields["longitude"]); ok {
		job.Longitude = &lng
	}

	if err := validateRow(job, now); err != nil {
		return nil, err
	}

	job.ApplyDerivedFlags(jobmodel.DeriveFlags(job.FeatureCodes, job.SalaryType, job.MinSalary))
	return job, nil
}

// validateRow implements the §4.B.3 drop conditions.
func validateRow(job *jobmodel.Job, now time.Time) error {
	if job.MinSalary != nil && job.MaxSalary != nil && *job.MaxSalary < *job.MinSalary {
		return jobmodel.ErrInvalidSalaryRange
	}
	if job.Fee <= jobmodel.FeeEligibilityMin {
		return jobmodel.ErrFeeTooLow
	}
	if !jobmodel.EligibleEmploymentTypeCDSet[job.EmploymentTypeCD] {
		return jobmodel.ErrInvalidEmploymentType
	}
	if job.EndAt != nil && !job.EndAt.After(now) {
		return jobmodel.ErrAlreadyEnded
	}
	return nil
}

// parseSalary resolves the min/max/type triple either from the
// structured §6.1 columns or, when only a legacy free-text column is
// present, by collapsing it per §4.B.2.
func parseSalary(fields map[string]string) (*int, *int, jobmodel.SalaryType, error) {
	if raw := strings.TrimSpace(fields["salary_raw"]); raw != "" {
		return parseLegacySalary(raw)
	}

	minRaw := strings.TrimSpace(fields["min_salary"])
	maxRaw := strings.TrimSpace(fields["max_salary"])
	typeRaw := strings.TrimSpace(fields["salary_type"])

	if minRaw == "" && maxRaw == "" {
		return nil, nil, jobmodel.SalaryType(typeRaw), nil
	}
	if minRaw == "" || maxRaw == "" {
		return nil, nil, "", ingestmodel.ErrIncompleteSalary
	}

	min, err := parseInt(minRaw)
	if err != nil {
		return nil, nil, "", wrapMalformed(err)
	}
	max, err := parseInt(maxRaw)
	if err != nil {
		return nil, nil, "", wrapMalformed(err)
	}
	return &min, &max, jobmodel.SalaryType(typeRaw), nil
}

// parseLegacySalary collapses "¥1,200-1,500/時" into (1200, 1500, hourly).
func parseLegacySalary(raw string) (*int, *int, jobmodel.SalaryType, error) {
	m := legacySalaryPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, nil, "", ingestmodel.ErrMalformedField
	}
	min, err := parseInt(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return nil, nil, "", ingestmodel.ErrMalformedField
	}
	max, err := parseInt(strings.ReplaceAll(m[2], ",", ""))
	if err != nil {
		return nil, nil, "", ingestmodel.ErrMalformedField
	}

	var salaryType jobmodel.SalaryType
	switch m[3] {
	case "時":
		salaryType = jobmodel.SalaryHourly
	case "日":
		salaryType = jobmodel.SalaryDaily
	case "月":
		salaryType = jobmodel.SalaryMonthly
	default:
		salaryType = jobmodel.SalaryHourly
	}
	return &min, &max, salaryType, nil
}

func splitFeatureCodes(raw string) []string {
	parts := strings.Split(raw, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}

func optionalString(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	return &v
}

func optionalInt(raw string) *int {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func optionalFloat(raw string) (float64, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseInt(raw string) (int, error) {
	v := strings.TrimSpace(raw)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func parseInt64(raw string) (int64, error) {
	v := strings.TrimSpace(raw)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func parseDate(raw string) (time.Time, error) {
	v := strings.TrimSpace(raw)
	return time.Parse(dateLayout, v)
}

// wrapMalformed tags a strconv/time parse failure with the ingest
// model's rejection sentinel so GetErrorCode can classify it.
func wrapMalformed(err error) error {
	return fmt.Errorf("%w: %v", ingestmodel.ErrMalformedField, err)
}
