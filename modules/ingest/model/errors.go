package model

import "errors"

// Fatal errors abort the batch before or during ingest (§7 Configuration
// / Master cache missing row / Chunk-level I/O taxonomy).
var (
	// ErrEmptyFile is returned when the CSV has no rows at all.
	ErrEmptyFile = errors.New("csv has no rows")

	// ErrMissingRequiredColumn is returned when a required §6.1 column is
	// absent from the header row.
	ErrMissingRequiredColumn = errors.New("csv header is missing a required column")

	// ErrChunkFailed is returned when a chunk exhausts its retry budget
	// (§4.B Failure semantics, §7 "Chunk-level I/O").
	ErrChunkFailed = errors.New("chunk failed after retries")
)

// RequiredColumns are the §6.1 columns Ingest cannot proceed without.
var RequiredColumns = []string{
	"job_id", "endcl_cd", "company_name", "application_name", "pref_cd",
	"city_cd", "occupation_cd1", "employment_type_cd", "feature_codes",
	"posting_date",
}

// Row-level rejection reasons specific to parsing, not covered by
// modules/jobs/model's invariant sentinels (§4.B.2-3).
var (
	// ErrIncompleteSalary is returned when only one of min/max salary is
	// present (§6.1: "if any salary field present, both bounds must be
	// present").
	ErrIncompleteSalary = errors.New("salary fields partially present")

	// ErrMalformedField is returned when a required numeric/date field
	// cannot be parsed.
	ErrMalformedField = errors.New("field could not be parsed")
)

// ErrorCode mirrors modules/jobs/model.ErrorCode for rejection reasons
// Ingest can hit that aren't job-invariant violations.
type ErrorCode string

const (
	CodeIncompleteSalary ErrorCode = "INCOMPLETE_SALARY"
	CodeMalformedField   ErrorCode = "MALFORMED_FIELD"
	CodeUnknownError     ErrorCode = "UNKNOWN_ERROR"
)

// GetErrorCode maps the ingest-specific rejection errors above to their
// reason codes and returns "" for any other error; it does not consult
// modules/jobs/model's invariant sentinels.
func GetErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrIncompleteSalary):
		return string(CodeIncompleteSalary)
	case errors.Is(err, ErrMalformedField):
		return string(CodeMalformedField)
	default:
		return ""
	}
}
