package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	jobmodel "github.com/andreypavlenko/matchday/modules/jobs/model"
	"github.com/andreypavlenko/matchday/modules/matching/model"
	"github.com/andreypavlenko/matchday/modules/matching/ports"
	masterssvc "github.com/andreypavlenko/matchday/modules/masters/service"
	profilemodel "github.com/andreypavlenko/matchday/modules/profiles/model"
	scoringmodel "github.com/andreypavlenko/matchday/modules/scoring/model"
	usermodel "github.com/andreypavlenko/matchday/modules/users/model"
)

// Per-mapping composite weights (§4.F step 3).
const (
	WeightJobComposite = 0.55
	WeightAffinity     = 0.45
)

// EmployerPenaltyFactor is the §4.F two-week dedup penalty: a 90%
// reduction, not a hard filter.
const EmployerPenaltyFactor = 0.1

// TopK is the default candidate count handed to the Allocator (§4.F).
const TopK = 200

// Matcher ranks every eligible job against one user's profile and
// keeps the top-K by composite score.
type Matcher struct {
	masters       *masterssvc.Cache
	topK          int
	newWindowDays int
}

// NewMatcher builds a Matcher. topK defaults to 200, newWindowDays to 7.
func NewMatcher(masters *masterssvc.Cache, topK, newWindowDays int) *Matcher {
	if topK <= 0 {
		topK = TopK
	}
	if newWindowDays <= 0 {
		newWindowDays = 7
	}
	return &Matcher{masters: masters, topK: topK, newWindowDays: newWindowDays}
}

// RankAll scores every eligible job for one user and applies the
// two-week employer penalty, returning the full sorted candidate list
// (§4.F steps 2-4). jobs must already be filtered to the §3 eligibility
// invariant (the Scorer's input set); enrichment is keyed by job_id.
// The Allocator's starvation-widening step (a) needs this full list,
// not just the top-K — see RankTopK.
func (m *Matcher) RankAll(jobs []*jobmodel.Job, profile *profilemodel.UserProfile, enrichment map[int64]scoringmodel.JobEnrichment) []model.Candidate {
	candidates := make([]model.Candidate, 0, len(jobs))

	for _, job := range jobs {
		enr, ok := enrichment[job.JobID]
		if !ok {
			continue
		}

		affinity := computeAffinity(profile, job, m.masters)
		score := WeightJobComposite*enr.Composite + WeightAffinity*affinity

		penalized := profile.RecentEmployers[job.EndclCD]
		if penalized {
			score *= EmployerPenaltyFactor
		}

		salaryMid, _ := job.AvgSalary()

		candidates = append(candidates, model.Candidate{
			JobID:           job.JobID,
			EndclCD:         job.EndclCD,
			PrefCD:          job.PrefCD,
			CityCD:          job.CityCD,
			Fee:             job.Fee,
			PostingDate:     job.PostingDate,
			HasHighIncome:   job.HasHighIncome,
			HasDailyPayment: job.HasDailyPayment,
			Applications30d: enr.Applications30d,
			SalaryMid:       salaryMid,
			JobComposite:    enr.Composite,
			Affinity:        affinity,
			Score:           model.Clamp(score, 0, 100),
			Penalized:       penalized,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.JobComposite != b.JobComposite {
			return a.JobComposite > b.JobComposite
		}
		if !a.PostingDate.Equal(b.PostingDate) {
			return a.PostingDate.After(b.PostingDate)
		}
		return a.JobID < b.JobID
	})

	return candidates
}

// Rank returns the top-K slice of RankAll, the set handed to the
// Allocator as its primary pool and persisted as UserJobMapping rows
// (§4.F step 5).
func (m *Matcher) Rank(jobs []*jobmodel.Job, profile *profilemodel.UserProfile, enrichment map[int64]scoringmodel.JobEnrichment) []model.Candidate {
	candidates := m.RankAll(jobs, profile, enrichment)
	if len(candidates) > m.topK {
		candidates = candidates[:m.topK]
	}
	return candidates
}

// BuildMappings turns a user's ranked candidates into the persisted
// UserJobMapping rows, attaching the §4.G section-eligibility hints.
func (m *Matcher) BuildMappings(user *usermodel.User, candidates []model.Candidate, batchDate, now time.Time) []model.UserJobMapping {
	rows := make([]model.UserJobMapping, 0, len(candidates))
	newCutoff := now.AddDate(0, 0, -m.newWindowDays)

	for i, c := range candidates {
		rows = append(rows, model.UserJobMapping{
			UserID:         user.UserID,
			JobID:          c.JobID,
			BatchDate:      batchDate,
			CompositeScore: c.Score,
			Rank:           i + 1,

			EditorialEligible:  c.Fee*c.Applications30d > 0 && !c.Penalized,
			RegionalEligible:   user.PrefCD != nil && *user.PrefCD == c.PrefCD,
			NearbyEligible:     m.isNearby(user, c.CityCD),
			HighIncomeEligible: c.HasHighIncome || c.HasDailyPayment,
			NewEligible:        !c.PostingDate.Before(newCutoff),
		})
	}
	return rows
}

func (m *Matcher) isNearby(user *usermodel.User, cityCD int) bool {
	if user.CityCD == nil {
		return false
	}
	if *user.CityCD == cityCD {
		return true
	}
	return m.masters.Adjacency(*user.CityCD)[cityCD]
}

// Run ranks and persists mappings for every user in the shard assigned
// to this worker, returning each user's top-K candidates keyed by
// user_id so the Allocator can consume them without a second read
// (§5 "each user is handled entirely by one worker").
func Run(ctx context.Context, matcher *Matcher, repo ports.MappingRepository, users []*usermodel.User, profiles map[int32]*profilemodel.UserProfile, jobs []*jobmodel.Job, enrichment map[int64]scoringmodel.JobEnrichment, batchDate, now time.Time) (map[int32]model.RankedUser, error) {
	result := make(map[int32]model.RankedUser, len(users))

	for _, user := range users {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		profile := profiles[user.UserID]
		if profile == nil {
			profile = profilemodel.NewProfile(user.UserID, now)
		}

		all := matcher.RankAll(jobs, profile, enrichment)
		top := all
		if len(top) > matcher.topK {
			top = top[:matcher.topK]
		}
		result[user.UserID] = model.RankedUser{Top: top, All: all}

		rows := matcher.BuildMappings(user, top, batchDate, now)
		if err := repo.UpsertBatch(ctx, rows); err != nil {
			return nil, fmt.Errorf("upsert mappings for user %d: %w", user.UserID, err)
		}
	}

	return result, nil
}
