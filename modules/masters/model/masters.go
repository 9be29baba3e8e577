package model

import "errors"

// Prefecture is a top-level administrative region.
type Prefecture struct {
	Code   int
	Name   string
	Region string
}

// City carries the geocoordinates and adjacency list the Matcher's
// nearby-city half-credit rule and the Allocator's distance tiers read
// (§4.A, §4.F).
type City struct {
	Code              int
	PrefCD            int
	Lat               float64
	Lng               float64
	AdjacentCityCodes []int
}

// Occupation is a major-code job category.
type Occupation struct {
	Code int
	Name string
}

// EmploymentType is one of the valid employment_type_cd values.
type EmploymentType struct {
	Code int
	Name string
}

// Feature describes a feature_codes tag (e.g. "D01" = daily payment).
type Feature struct {
	Code string
	Name string
}

// Keyword is a SEMrush keyword row consulted by the Scorer's SEO score.
type Keyword struct {
	Keyword      string
	SearchVolume int
	Difficulty   float64
	Category     string
}

// ErrMasterMissing is returned when a job references a master row that
// was not loaded into the cache — the §4.A fail-fast contract.
var ErrMasterMissing = errors.New("required master row not found")
