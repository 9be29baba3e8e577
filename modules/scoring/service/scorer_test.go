package service

import (
	"context"
	"testing"
	"time"

	actionmodel "github.com/andreypavlenko/matchday/modules/actions/model"
	jobmodel "github.com/andreypavlenko/matchday/modules/jobs/model"
	jobports "github.com/andreypavlenko/matchday/modules/jobs/ports"
	mastermodel "github.com/andreypavlenko/matchday/modules/masters/model"
	masterssvc "github.com/andreypavlenko/matchday/modules/masters/service"
	popmodel "github.com/andreypavlenko/matchday/modules/popularity/model"
	"github.com/andreypavlenko/matchday/modules/scoring/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobRepo struct {
	eligible []*jobmodel.Job
	area     jobports.AreaStats
	pref     jobports.AreaStats
	national jobports.AreaStats
}

func (f *fakeJobRepo) Upsert(ctx context.Context, job *jobmodel.Job) error { return nil }
func (f *fakeJobRepo) UpsertBatch(ctx context.Context, jobs []*jobmodel.Job) error {
	return nil
}
func (f *fakeJobRepo) GetByID(ctx context.Context, jobID int64) (*jobmodel.Job, error) {
	return nil, nil
}
func (f *fakeJobRepo) SeenJobIDs(ctx context.Context) (map[int64]bool, error) { return nil, nil }
func (f *fakeJobRepo) DeactivateMissing(ctx context.Context, presentIDs map[int64]bool, graceCutoff time.Time) (int, error) {
	return 0, nil
}
func (f *fakeJobRepo) ListEligible(ctx context.Context, validEmploymentTypes []int, feeMin int, now time.Time) ([]*jobmodel.Job, error) {
	return f.eligible, nil
}
func (f *fakeJobRepo) AreaSalaryStats(ctx context.Context, prefCD, cityCD int) (jobports.AreaStats, error) {
	return f.area, nil
}
func (f *fakeJobRepo) PrefSalaryStats(ctx context.Context, prefCD int) (jobports.AreaStats, error) {
	return f.pref, nil
}
func (f *fakeJobRepo) NationalSalaryStats(ctx context.Context) (jobports.AreaStats, error) {
	return f.national, nil
}

type fakePopularityRepo struct {
	rows map[string]popmodel.EmployerPopularity
}

func (f *fakePopularityRepo) UpsertBatch(ctx context.Context, rows []popmodel.EmployerPopularity) error {
	return nil
}
func (f *fakePopularityRepo) Get(ctx context.Context, endclCD string) (popmodel.EmployerPopularity, bool, error) {
	p, ok := f.rows[endclCD]
	return p, ok, nil
}
func (f *fakePopularityRepo) All(ctx context.Context) (map[string]popmodel.EmployerPopularity, error) {
	return f.rows, nil
}

type fakeScoringActionRepo struct {
	jobCounts map[int64]actionmodel.EngagementCounts
}

func (f *fakeScoringActionRepo) EmployerCounts(ctx context.Context, since time.Time) (map[string]actionmodel.EmployerCounts, error) {
	return nil, nil
}
func (f *fakeScoringActionRepo) UserActionsSince(ctx context.Context, userID int32, since time.Time) ([]actionmodel.ActionWithJob, error) {
	return nil, nil
}
func (f *fakeScoringActionRepo) RecentEmployers(ctx context.Context, userID int32, since time.Time) (map[string]bool, error) {
	return nil, nil
}
func (f *fakeScoringActionRepo) JobCounts(ctx context.Context, since time.Time) (map[int64]actionmodel.EngagementCounts, error) {
	return f.jobCounts, nil
}

type fakeMasterRepo struct {
	keywords []mastermodel.Keyword
}

func (f *fakeMasterRepo) ListPrefectures(ctx context.Context) ([]mastermodel.Prefecture, error) {
	return nil, nil
}
func (f *fakeMasterRepo) ListCities(ctx context.Context) ([]mastermodel.City, error) { return nil, nil }
func (f *fakeMasterRepo) ListOccupations(ctx context.Context) ([]mastermodel.Occupation, error) {
	return nil, nil
}
func (f *fakeMasterRepo) ListEmploymentTypes(ctx context.Context) ([]mastermodel.EmploymentType, error) {
	return nil, nil
}
func (f *fakeMasterRepo) ListFeatures(ctx context.Context) ([]mastermodel.Feature, error) {
	return nil, nil
}
func (f *fakeMasterRepo) ListKeywords(ctx context.Context) ([]mastermodel.Keyword, error) {
	return f.keywords, nil
}

func intPtrSc(v int) *int { return &v }

func TestScorer_Run(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	t.Run("blends basic, seo, and personalized scores into a composite", func(t *testing.T) {
		job := &jobmodel.Job{
			JobID:            1,
			EndclCD:          "EC1",
			Title:            "Warehouse Sorter",
			CompanyName:      "Acme Logistics",
			PrefCD:           13,
			CityCD:           13101,
			MinSalary:        intPtrSc(1200),
			MaxSalary:        intPtrSc(1600),
			Fee:              2750,
			EmploymentTypeCD: 1,
			IsActive:         true,
			HasDailyPayment:  true,
		}

		jobs := &fakeJobRepo{
			eligible: []*jobmodel.Job{job},
			area:     jobports.AreaStats{Avg: 1300, Min: 1000, Max: 2000, Count: 25},
			national: jobports.AreaStats{Avg: 1200, Min: 900, Max: 1900, Count: 500},
		}
		popularity := &fakePopularityRepo{rows: map[string]popmodel.EmployerPopularity{
			"EC1": {EndclCD: "EC1", PopularityScore: 60},
		}}
		actions := &fakeScoringActionRepo{jobCounts: map[int64]actionmodel.EngagementCounts{
			1: {Applications: 10, Clicks: 25},
		}}
		masters, err := masterssvc.Load(context.Background(), &fakeMasterRepo{
			keywords: []mastermodel.Keyword{{Keyword: "warehouse", SearchVolume: 12000}},
		})
		require.NoError(t, err)

		scorer := NewScorer(jobs, popularity, actions, masters)
		rows, err := scorer.Run(context.Background(), now)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		e := rows[0]
		assert.Equal(t, int64(1), e.JobID)
		// wage: (1400-1000)/(2000-1000)*100 = 40; fee: (2750-500)/4500*100 = 50; pop: 60
		assert.InDelta(t, 0.40*40+0.30*50+0.30*60, e.BasicScore, 1e-6)
		assert.Greater(t, e.SEOScore, 0.0)
		// personalized: 100*min(1,(10+0.2*25)/50) = 100*0.3 = 30
		assert.InDelta(t, 30, e.PersonalizedScoreBase, 1e-6)
		assert.InDelta(t, model.CompositeScore(e.BasicScore, e.SEOScore, e.PersonalizedScoreBase), e.Composite, 1e-9)
		assert.Contains(t, e.NeedsCategories, model.NeedsDailyPayment)
	})

	t.Run("falls back to national stats when the area sample is too small", func(t *testing.T) {
		job := &jobmodel.Job{
			JobID: 2, EndclCD: "EC2", MinSalary: intPtrSc(1000), MaxSalary: intPtrSc(1000),
			Fee: 500, EmploymentTypeCD: 1, IsActive: true,
		}
		jobs := &fakeJobRepo{
			eligible: []*jobmodel.Job{job},
			area:     jobports.AreaStats{Count: 3},
			pref:     jobports.AreaStats{Count: 5},
			national: jobports.AreaStats{Min: 900, Max: 1900, Count: 500},
		}
		popularity := &fakePopularityRepo{rows: map[string]popmodel.EmployerPopularity{}}
		actions := &fakeScoringActionRepo{jobCounts: map[int64]actionmodel.EngagementCounts{}}
		masters, err := masterssvc.Load(context.Background(), &fakeMasterRepo{})
		require.NoError(t, err)

		scorer := NewScorer(jobs, popularity, actions, masters)
		rows, err := scorer.Run(context.Background(), now)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		// wage against national 900..1900: (1000-900)/1000*100 = 10;
		// fee at floor is 0; unknown employer defaults popularity to 30
		assert.InDelta(t, 0.40*10+0.30*popmodel.DefaultPopularityScore, rows[0].BasicScore, 1e-6)
	})
}
