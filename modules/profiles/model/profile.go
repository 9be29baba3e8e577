package model

import "time"

// SalaryStats is an {avg, min, max} aggregate over applied jobs'
// salary midpoints.
type SalaryStats struct {
	Avg   float64
	Min   float64
	Max   float64
	Count int
}

// HasStats reports whether any applied job contributed a salary point.
func (s SalaryStats) HasStats() bool {
	return s.Count > 0
}

// UserProfile is the per-user derived state the Matcher's affinity
// function reads (§3, §4.D).
type UserProfile struct {
	UserID int32

	PrefFreq       map[int]int
	CityFreq       map[int]int
	OccupationFreq map[int]int
	EmploymentFreq map[int]int
	EmployerFreq   map[string]int

	SalaryStats SalaryStats

	ApplicationCount int
	ClickCount       int
	ViewCount        int
	LastApplication  *time.Time

	// RecentEmployers is the 14-day applied-employer set consulted at
	// match time (§4.D).
	RecentEmployers map[string]bool

	BuiltAt time.Time
}

// IsNew reports whether this user has no action history at all — the
// Matcher substitutes a neutral default for these profiles (§4.D, §4.F).
func (p *UserProfile) IsNew() bool {
	return p.ApplicationCount == 0 && p.ClickCount == 0 && p.ViewCount == 0
}

// MaxFreq returns the highest count in a frequency map, or 0 if empty —
// the denominator for the Matcher's normalized frequency components.
func MaxFreq[K comparable](freq map[K]int) int {
	max := 0
	for _, c := range freq {
		if c > max {
			max = c
		}
	}
	return max
}

// NewProfile returns an empty profile for a user with no action
// history.
func NewProfile(userID int32, builtAt time.Time) *UserProfile {
	return &UserProfile{
		UserID:          userID,
		PrefFreq:        map[int]int{},
		CityFreq:        map[int]int{},
		OccupationFreq:  map[int]int{},
		EmploymentFreq:  map[int]int{},
		EmployerFreq:    map[string]int{},
		RecentEmployers: map[string]bool{},
		BuiltAt:         builtAt,
	}
}
