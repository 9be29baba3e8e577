package service

import (
	"context"
	"fmt"
	"time"

	actionports "github.com/andreypavlenko/matchday/modules/actions/ports"
	jobmodel "github.com/andreypavlenko/matchday/modules/jobs/model"
	jobports "github.com/andreypavlenko/matchday/modules/jobs/ports"
	masterssvc "github.com/andreypavlenko/matchday/modules/masters/service"
	popmodel "github.com/andreypavlenko/matchday/modules/popularity/model"
	popports "github.com/andreypavlenko/matchday/modules/popularity/ports"
	"github.com/andreypavlenko/matchday/modules/scoring/model"
)

// AreaSampleMin is the minimum per-(pref,city) sample size before the
// wage component falls back to pref-then-national stats (§4.E).
const AreaSampleMin = 20

// RecentWindow is the lookback the personalized base's engagement
// counters are drawn over.
const RecentWindow = 30 * 24 * time.Hour

// personalizedBaseK is the applications+0.2*clicks divisor saturating
// the personalized base at 100 (§4.E).
const personalizedBaseK = 50.0

// Scorer computes JobEnrichment for every eligible job in a run.
type Scorer struct {
	jobs       jobports.JobRepository
	popularity popports.PopularityRepository
	actions    actionports.ActionRepository
	masters    *masterssvc.Cache
}

// NewScorer builds a Scorer over its dependencies.
func NewScorer(jobs jobports.JobRepository, popularity popports.PopularityRepository, actions actionports.ActionRepository, masters *masterssvc.Cache) *Scorer {
	return &Scorer{jobs: jobs, popularity: popularity, actions: actions, masters: masters}
}

// Run scores every eligible job as of now.
func (s *Scorer) Run(ctx context.Context, now time.Time) ([]model.JobEnrichment, error) {
	jobs, err := s.jobs.ListEligible(ctx, jobmodel.EligibleEmploymentTypeCDs, jobmodel.FeeEligibilityMin, now)
	if err != nil {
		return nil, fmt.Errorf("list eligible jobs: %w", err)
	}

	jobCounts, err := s.actions.JobCounts(ctx, now.Add(-RecentWindow))
	if err != nil {
		return nil, fmt.Errorf("job engagement counts: %w", err)
	}

	popularity, err := s.popularity.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load popularity: %w", err)
	}

	national, err := s.jobs.NationalSalaryStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("national salary stats: %w", err)
	}

	keywords := s.masters.Keywords()
	areaCache := make(map[[2]int]jobports.AreaStats)
	prefCache := make(map[int]jobports.AreaStats)

	rows := make([]model.JobEnrichment, 0, len(jobs))
	for _, job := range jobs {
		area, err := s.resolveAreaStats(ctx, job.PrefCD, job.CityCD, national, areaCache, prefCache)
		if err != nil {
			return nil, fmt.Errorf("area stats for job %d: %w", job.JobID, err)
		}

		basic := basicScore(job, area, popularity)
		seo := seoScore(job, keywords)
		counts := jobCounts[job.JobID]
		personalized := personalizedBase(counts.Applications, counts.Clicks)

		rows = append(rows, model.JobEnrichment{
			JobID:                 job.JobID,
			BasicScore:            basic,
			SEOScore:              seo,
			PersonalizedScoreBase: personalized,
			Composite:             model.CompositeScore(basic, seo, personalized),
			NeedsCategories:       model.DeriveNeedsCategories(needsFlags(job)),
			Applications30d:       counts.Applications,
			Clicks30d:             counts.Clicks,
			ComputedAt:            now,
		})
	}
	return rows, nil
}

func needsFlags(job *jobmodel.Job) model.JobFlags {
	return model.JobFlags{
		HasDailyPayment:   job.HasDailyPayment,
		HasWeeklyPayment:  job.HasWeeklyPayment,
		HasNoExperience:   job.HasNoExperience,
		HasStudentWelcome: job.HasStudentWelcome,
		HasRemoteWork:     job.HasRemoteWork,
		HasTransportation: job.HasTransportation,
		HasHighIncome:     job.HasHighIncome,
	}
}

// resolveAreaStats implements the area→pref→national wage fallback
// chain (§4.E), memoizing per (pref,city) and per pref within a run.
func (s *Scorer) resolveAreaStats(ctx context.Context, prefCD, cityCD int, national jobports.AreaStats, areaCache map[[2]int]jobports.AreaStats, prefCache map[int]jobports.AreaStats) (jobports.AreaStats, error) {
	key := [2]int{prefCD, cityCD}
	area, ok := areaCache[key]
	if !ok {
		var err error
		area, err = s.jobs.AreaSalaryStats(ctx, prefCD, cityCD)
		if err != nil {
			return jobports.AreaStats{}, err
		}
		areaCache[key] = area
	}
	if area.Count >= AreaSampleMin {
		return area, nil
	}

	pref, ok := prefCache[prefCD]
	if !ok {
		var err error
		pref, err = s.jobs.PrefSalaryStats(ctx, prefCD)
		if err != nil {
			return jobports.AreaStats{}, err
		}
		prefCache[prefCD] = pref
	}
	if pref.Count >= AreaSampleMin {
		return pref, nil
	}

	return national, nil
}

// basicScore blends wage, fee, and employer-popularity components per
// the §4.E weight table.
func basicScore(job *jobmodel.Job, area jobports.AreaStats, popularity map[string]popmodel.EmployerPopularity) float64 {
	wage := wageComponent(job, area)
	fee := feeComponent(job.Fee)
	pop, ok := popularity[job.EndclCD]
	popularityScore := popmodel.DefaultPopularityScore
	if ok {
		popularityScore = pop.PopularityScore
	}
	return model.Clamp(0.40*wage+0.30*fee+0.30*popularityScore, 0, 100)
}

func wageComponent(job *jobmodel.Job, area jobports.AreaStats) float64 {
	mid, ok := job.AvgSalary()
	if !ok || area.Max <= area.Min {
		return 0
	}
	return model.Clamp(100*(mid-area.Min)/(area.Max-area.Min), 0, 100)
}

// feeComponent is 0 at fee<=500, 100 at fee>=5000, linear between.
func feeComponent(fee int) float64 {
	const low, high = 500.0, 5000.0
	if float64(fee) <= low {
		return 0
	}
	if float64(fee) >= high {
		return 100
	}
	return 100 * (float64(fee) - low) / (high - low)
}

// personalizedBase is the population-level conversion signal (§4.E).
func personalizedBase(applications, clicks int) float64 {
	return model.Clamp(100*minFloat(1, (float64(applications)+0.2*float64(clicks))/personalizedBaseK), 0, 100)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
