package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andreypavlenko/matchday/internal/config"
	"github.com/andreypavlenko/matchday/modules/allocation/model"
	"github.com/andreypavlenko/matchday/modules/allocation/ports"
	matchmodel "github.com/andreypavlenko/matchday/modules/matching/model"
	masterssvc "github.com/andreypavlenko/matchday/modules/masters/service"
	usermodel "github.com/andreypavlenko/matchday/modules/users/model"
)

// relaxedNewWindowDays is the §4.G "new" section's widened window when
// the 7-day predicate starves.
const relaxedNewWindowDays = 14

// locWeight tiers for the editorial_picks sort key (§4.G).
const (
	locWeightSameCity = 1.0
	locWeightAdjacent = 0.7
	locWeightSamePref = 0.5
	locWeightElse     = 0.3
)

// Allocator fills the six fixed-quota sections for one user from their
// Matcher output, in strict priority order, deduplicating picks across
// sections and widening starved sections per the §4.G fallback chain.
type Allocator struct {
	masters       *masterssvc.Cache
	quotas        config.SectionQuotas
	newWindowDays int
}

// NewAllocator builds an Allocator over a fixed section-quota table.
func NewAllocator(masters *masterssvc.Cache, quotas config.SectionQuotas, newWindowDays int) *Allocator {
	if newWindowDays <= 0 {
		newWindowDays = 7
	}
	return &Allocator{masters: masters, quotas: quotas, newWindowDays: newWindowDays}
}

// sectionSpec is one section's predicate/sort-key/relax rule.
type sectionSpec struct {
	section          model.Section
	quota            int
	predicate        func(c matchmodel.Candidate) bool
	relaxedPredicate func(c matchmodel.Candidate) bool
	less             func(a, b matchmodel.Candidate) bool
}

// Allocate fills all six sections for one user (§4.G). top is the
// user's Matcher top-K (the primary pool); all is the full ranked
// candidate list, consulted by the starvation-widening steps.
func (al *Allocator) Allocate(user *usermodel.User, top, all []matchmodel.Candidate, pickDate, now time.Time) model.AllocationResult {
	byScoreDesc := func(a, b matchmodel.Candidate) bool { return a.Score > b.Score }
	newCutoff := now.AddDate(0, 0, -al.newWindowDays)
	relaxedNewCutoff := now.AddDate(0, 0, -relaxedNewWindowDays)
	highIncomeThreshold := percentile75(all)

	specs := []sectionSpec{
		{
			section: model.SectionEditorialPicks,
			quota:   al.quotas.EditorialPicks,
			predicate: func(c matchmodel.Candidate) bool {
				return c.Fee*c.Applications30d > 0 && !c.Penalized
			},
			less: func(a, b matchmodel.Candidate) bool {
				sa := float64(a.Fee*a.Applications30d) * al.locWeight(user, a)
				sb := float64(b.Fee*b.Applications30d) * al.locWeight(user, b)
				return sa > sb
			},
		},
		{
			section:   model.SectionTop5,
			quota:     al.quotas.Top5,
			predicate: nil,
			less:      byScoreDesc,
		},
		{
			section: model.SectionRegional,
			quota:   al.quotas.Regional,
			predicate: func(c matchmodel.Candidate) bool {
				return user.PrefCD != nil && *user.PrefCD == c.PrefCD
			},
			relaxedPredicate: func(c matchmodel.Candidate) bool {
				return al.sameRegion(user, c)
			},
			less: byScoreDesc,
		},
		{
			section: model.SectionNearby,
			quota:   al.quotas.Nearby,
			predicate: func(c matchmodel.Candidate) bool {
				return al.isNearby(user, c.CityCD)
			},
			relaxedPredicate: func(c matchmodel.Candidate) bool {
				return user.PrefCD != nil && *user.PrefCD == c.PrefCD
			},
			less: byScoreDesc,
		},
		{
			section: model.SectionHighIncome,
			quota:   al.quotas.HighIncome,
			predicate: func(c matchmodel.Candidate) bool {
				return c.HasHighIncome || c.HasDailyPayment
			},
			relaxedPredicate: func(c matchmodel.Candidate) bool {
				return c.SalaryMid > 0 && c.SalaryMid >= highIncomeThreshold
			},
			less: byScoreDesc,
		},
		{
			section: model.SectionNew,
			quota:   al.quotas.New,
			predicate: func(c matchmodel.Candidate) bool {
				return !c.PostingDate.Before(newCutoff)
			},
			relaxedPredicate: func(c matchmodel.Candidate) bool {
				return !c.PostingDate.Before(relaxedNewCutoff)
			},
			less: func(a, b matchmodel.Candidate) bool {
				if !a.PostingDate.Equal(b.PostingDate) {
					return a.PostingDate.After(b.PostingDate)
				}
				return a.Score > b.Score
			},
		},
	}

	selected := make(map[int64]bool, al.quotas.Total())
	var picks []model.DailyJobPick

	for _, spec := range specs {
		picks = append(picks, al.fillSection(spec, top, all, selected, user, pickDate)...)
	}

	return model.AllocationResult{
		UserID:       user.UserID,
		Picks:        picks,
		LowInventory: len(picks) < al.quotas.Total(),
	}
}

// fillSection implements the §4.G starvation policy: primary top-K
// pool, then (a) the full eligible pool under the same predicate, then
// (b) the relaxed predicate over the full pool, then (c) the
// highest-score unselected candidate regardless of predicate.
func (al *Allocator) fillSection(spec sectionSpec, top, all []matchmodel.Candidate, selected map[int64]bool, user *usermodel.User, pickDate time.Time) []model.DailyJobPick {
	var chosen []matchmodel.Candidate
	var reasons []string

	take := func(pool []matchmodel.Candidate, predicate func(matchmodel.Candidate) bool, less func(a, b matchmodel.Candidate) bool, reason string) {
		if len(chosen) >= spec.quota {
			return
		}
		chosenIDs := make(map[int64]bool, len(chosen))
		for _, c := range chosen {
			chosenIDs[c.JobID] = true
		}

		var pool2 []matchmodel.Candidate
		for _, c := range pool {
			if selected[c.JobID] || chosenIDs[c.JobID] {
				continue
			}
			if predicate != nil && !predicate(c) {
				continue
			}
			pool2 = append(pool2, c)
		}
		sort.Slice(pool2, func(i, j int) bool { return less(pool2[i], pool2[j]) })

		for _, c := range pool2 {
			if len(chosen) >= spec.quota {
				break
			}
			chosen = append(chosen, c)
			reasons = append(reasons, reason)
		}
	}

	take(top, spec.predicate, spec.less, "")
	if len(chosen) < spec.quota {
		take(all, spec.predicate, spec.less, "")
	}
	if len(chosen) < spec.quota && spec.relaxedPredicate != nil {
		take(all, spec.relaxedPredicate, spec.less, "")
	}
	if len(chosen) < spec.quota {
		take(all, nil, func(a, b matchmodel.Candidate) bool { return a.Score > b.Score }, model.PickReasonFallback)
	}

	picks := make([]model.DailyJobPick, 0, len(chosen))
	for i, c := range chosen {
		picks = append(picks, model.DailyJobPick{
			UserID:         user.UserID,
			JobID:          c.JobID,
			PickDate:       pickDate,
			Section:        spec.section,
			SectionRank:    i + 1,
			CompositeScore: c.Score,
			PickReason:     reasons[i],
		})
		selected[c.JobID] = true
	}
	return picks
}

func (al *Allocator) locWeight(user *usermodel.User, c matchmodel.Candidate) float64 {
	if user.CityCD != nil && *user.CityCD == c.CityCD {
		return locWeightSameCity
	}
	if user.CityCD != nil && al.masters.Adjacency(*user.CityCD)[c.CityCD] {
		return locWeightAdjacent
	}
	if user.PrefCD != nil && *user.PrefCD == c.PrefCD {
		return locWeightSamePref
	}
	return locWeightElse
}

func (al *Allocator) isNearby(user *usermodel.User, cityCD int) bool {
	if user.CityCD == nil {
		return false
	}
	if *user.CityCD == cityCD {
		return true
	}
	return al.masters.Adjacency(*user.CityCD)[cityCD]
}

func (al *Allocator) sameRegion(user *usermodel.User, c matchmodel.Candidate) bool {
	if user.PrefCD == nil {
		return false
	}
	userPref, ok := al.masters.Prefecture(*user.PrefCD)
	if !ok || userPref.Region == "" {
		return false
	}
	jobPref, ok := al.masters.Prefecture(c.PrefCD)
	if !ok {
		return false
	}
	return userPref.Region == jobPref.Region
}

// percentile75 approximates the area's top-quartile salary midpoint
// from the candidate pool itself (§4.G "top-quartile salary for area");
// candidates with no salary data are excluded from the distribution.
func percentile75(candidates []matchmodel.Candidate) float64 {
	var values []float64
	for _, c := range candidates {
		if c.SalaryMid > 0 {
			values = append(values, c.SalaryMid)
		}
	}
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	idx := int(float64(len(values)) * 0.75)
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}

// Run allocates picks for every user in the shard, persisting each
// user's result.
func Run(ctx context.Context, allocator *Allocator, repo ports.PickRepository, users []*usermodel.User, ranked map[int32]matchmodel.RankedUser, pickDate, now time.Time) ([]model.AllocationResult, error) {
	results := make([]model.AllocationResult, 0, len(users))

	for _, user := range users {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rankedUser := ranked[user.UserID]
		result := allocator.Allocate(user, rankedUser.Top, rankedUser.All, pickDate, now)
		results = append(results, result)

		if err := repo.UpsertBatch(ctx, result.Picks); err != nil {
			return nil, fmt.Errorf("upsert picks for user %d: %w", user.UserID, err)
		}
	}

	return results, nil
}
