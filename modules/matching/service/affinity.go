package service

import (
	"math"

	jobmodel "github.com/andreypavlenko/matchday/modules/jobs/model"
	masterssvc "github.com/andreypavlenko/matchday/modules/masters/service"
	profilemodel "github.com/andreypavlenko/matchday/modules/profiles/model"
)

// Affinity weights, summing to 1.0 (§4.F).
const (
	WeightPref       = 0.20
	WeightCity       = 0.15
	WeightOccupation = 0.20
	WeightEmployment = 0.15
	WeightSalary     = 0.15
	WeightEmployer   = 0.15
)

// neutralComponent is substituted for any affinity component whose
// profile slot is empty, so a profile with no history at all collapses
// to A ≡ 50 by construction — the §4.F "new users" invariant.
const neutralComponent = 50.0

// computeAffinity returns A(user, job) ∈ [0, 100], the weighted blend
// of the six §4.F components.
func computeAffinity(profile *profilemodel.UserProfile, job *jobmodel.Job, masters *masterssvc.Cache) float64 {
	pref := freqComponent(profile.PrefFreq, job.PrefCD)
	city := cityComponent(profile.CityFreq, job.CityCD, masters)
	occupation := freqComponent(profile.OccupationFreq, job.OccupationCD1)
	employment := freqComponent(profile.EmploymentFreq, job.EmploymentTypeCD)
	salary := salaryFitComponent(profile.SalaryStats, job)
	employer := freqComponent(profile.EmployerFreq, job.EndclCD)

	a := WeightPref*pref + WeightCity*city + WeightOccupation*occupation +
		WeightEmployment*employment + WeightSalary*salary + WeightEmployer*employer
	return clamp(a, 0, 100)
}

// freqComponent is the normalized-frequency shape shared by pref,
// occupation, employment-type and employer familiarity: 100*freq[key]/
// max_freq, or the neutral default when the profile has no history for
// that dimension.
func freqComponent[K comparable](freq map[K]int, key K) float64 {
	if len(freq) == 0 {
		return neutralComponent
	}
	max := profilemodel.MaxFreq(freq)
	if max == 0 {
		return neutralComponent
	}
	return 100 * float64(freq[key]) / float64(max)
}

// cityComponent adds the §4.F half-credit: a city the user never
// applied to directly still scores if it is adjacent to one they did.
func cityComponent(freq map[int]int, cityCD int, masters *masterssvc.Cache) float64 {
	if len(freq) == 0 {
		return neutralComponent
	}
	max := profilemodel.MaxFreq(freq)
	if max == 0 {
		return neutralComponent
	}

	best := 100 * float64(freq[cityCD]) / float64(max)
	for appliedCity, count := range freq {
		if count == 0 || appliedCity == cityCD {
			continue
		}
		if masters.Adjacency(appliedCity)[cityCD] {
			halfCredit := 0.5 * 100 * float64(count) / float64(max)
			if halfCredit > best {
				best = halfCredit
			}
		}
	}
	return best
}

// salaryFitComponent scores how close a job's salary midpoint sits to
// the user's historical average, via a Gaussian falloff (§4.F).
func salaryFitComponent(stats profilemodel.SalaryStats, job *jobmodel.Job) float64 {
	if !stats.HasStats() {
		return neutralComponent
	}
	avg, ok := job.AvgSalary()
	if !ok {
		return neutralComponent
	}
	sigma := math.Max(200, stats.Avg*0.15)
	z := (avg - stats.Avg) / sigma
	return 100 * math.Exp(-(z * z))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
