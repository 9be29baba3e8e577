package model

import "time"

// EmployerPopularity is the per-endcl_cd engagement aggregate the
// Scorer's basic score reads (§3, §4.C).
type EmployerPopularity struct {
	EndclCD string

	Views7d        int
	Clicks7d       int
	Applications7d int

	Views30d        int
	Clicks30d       int
	Applications30d int

	Views360d        int
	Clicks360d       int
	Applications360d int

	ApplicationRate float64
	PopularityScore float64

	UpdatedAt time.Time
}

// DefaultPopularityScore is substituted by the Scorer when an employer
// has no popularity row at all (§4.E: "defaulting to 30 if employer
// unknown").
const DefaultPopularityScore = 30.0
