package service

import (
	"context"
	"testing"
	"time"

	"github.com/andreypavlenko/matchday/internal/config"
	"github.com/andreypavlenko/matchday/modules/allocation/model"
	matchmodel "github.com/andreypavlenko/matchday/modules/matching/model"
	mastermodel "github.com/andreypavlenko/matchday/modules/masters/model"
	masterssvc "github.com/andreypavlenko/matchday/modules/masters/service"
	usermodel "github.com/andreypavlenko/matchday/modules/users/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMasterRepo struct {
	prefectures []mastermodel.Prefecture
	cities      []mastermodel.City
}

func (f *fakeMasterRepo) ListPrefectures(ctx context.Context) ([]mastermodel.Prefecture, error) {
	return f.prefectures, nil
}
func (f *fakeMasterRepo) ListCities(ctx context.Context) ([]mastermodel.City, error) {
	return f.cities, nil
}
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
	return nil, nil
}

func newTestMasters(t *testing.T) *masterssvc.Cache {
	t.Helper()
	cache, err := masterssvc.Load(context.Background(), &fakeMasterRepo{
		prefectures: []mastermodel.Prefecture{
			{Code: 13, Name: "Tokyo", Region: "Kanto"},
			{Code: 14, Name: "Kanagawa", Region: "Kanto"},
			{Code: 27, Name: "Osaka", Region: "Kansai"},
		},
		cities: []mastermodel.City{
			{Code: 13101, PrefCD: 13, AdjacentCityCodes: []int{13102}},
			{Code: 13102, PrefCD: 13, AdjacentCityCodes: []int{13101}},
			{Code: 14101, PrefCD: 14},
			{Code: 27101, PrefCD: 27},
		},
	})
	require.NoError(t, err)
	return cache
}

func testQuotas() config.SectionQuotas {
	return config.SectionQuotas{EditorialPicks: 1, Top5: 1, Regional: 1, Nearby: 1, HighIncome: 1, New: 1}
}

func TestAllocator_FillsAllSectionsFromPrimaryPool(t *testing.T) {
	masters := newTestMasters(t)
	al := NewAllocator(masters, testQuotas(), 7)
	prefCD, cityCD := 13, 13101
	user := &usermodel.User{UserID: 1, PrefCD: &prefCD, CityCD: &cityCD}
	now := time.Now()

	top := []matchmodel.Candidate{
		{JobID: 1, PrefCD: 13, CityCD: 13101, Fee: 1000, Applications30d: 2, Score: 90, PostingDate: now},
		{JobID: 2, PrefCD: 13, CityCD: 13101, Score: 85, PostingDate: now},
		{JobID: 3, PrefCD: 13, CityCD: 13101, Score: 80, PostingDate: now},
		{JobID: 4, PrefCD: 13, CityCD: 13102, Score: 75, PostingDate: now},
		{JobID: 5, HasHighIncome: true, Score: 70, PostingDate: now},
		{JobID: 6, Score: 65, PostingDate: now},
	}

	result := al.Allocate(user, top, top, now, now)
	assert.False(t, result.LowInventory)
	assert.Len(t, result.Picks, 6)

	bySection := make(map[model.Section][]model.DailyJobPick)
	for _, p := range result.Picks {
		bySection[p.Section] = append(bySection[p.Section], p)
	}
	for _, s := range model.Order {
		assert.Len(t, bySection[s], 1, "section %s", s)
	}
}

func TestAllocator_DeduplicatesAcrossSections(t *testing.T) {
	masters := newTestMasters(t)
	al := NewAllocator(masters, testQuotas(), 7)
	prefCD, cityCD := 13, 13101
	user := &usermodel.User{UserID: 1, PrefCD: &prefCD, CityCD: &cityCD}
	now := time.Now()

	// Only one candidate overall, eligible for several sections at once —
	// it can only be placed in one.
	top := []matchmodel.Candidate{
		{JobID: 1, PrefCD: 13, CityCD: 13101, Fee: 1000, Applications30d: 1,
			HasHighIncome: true, Score: 90, PostingDate: now},
	}

	result := al.Allocate(user, top, top, now, now)
	seen := make(map[int64]bool)
	for _, p := range result.Picks {
		assert.False(t, seen[p.JobID], "job %d picked twice", p.JobID)
		seen[p.JobID] = true
	}
	assert.True(t, result.LowInventory)
}

func TestAllocator_StarvationFallbackTagsReason(t *testing.T) {
	masters := newTestMasters(t)
	al := NewAllocator(masters, testQuotas(), 7)
	prefCD, cityCD := 13, 13101
	user := &usermodel.User{UserID: 1, PrefCD: &prefCD, CityCD: &cityCD}
	now := time.Now()

	// A single candidate with no high-income flag and no salary data, so
	// neither the primary nor the relaxed high_income predicate matches —
	// it can only be picked through the fallback step.
	lone := matchmodel.Candidate{
		JobID: 1, PrefCD: 27, CityCD: 27101, Score: 50,
		PostingDate: now.AddDate(0, 0, -60),
	}
	top := []matchmodel.Candidate{lone}

	quotas := config.SectionQuotas{EditorialPicks: 0, Top5: 0, Regional: 0, Nearby: 0, HighIncome: 1, New: 0}
	al2 := NewAllocator(masters, quotas, 7)
	result := al2.Allocate(user, top, top, now, now)

	var highIncomePick *model.DailyJobPick
	for i := range result.Picks {
		if result.Picks[i].Section == model.SectionHighIncome {
			highIncomePick = &result.Picks[i]
		}
	}
	require.NotNil(t, highIncomePick)
	assert.Equal(t, model.PickReasonFallback, highIncomePick.PickReason)
}

func TestRun_AllocatesAndPersistsPerUser(t *testing.T) {
	masters := newTestMasters(t)
	al := NewAllocator(masters, testQuotas(), 7)
	prefCD, cityCD := 13, 13101
	users := []*usermodel.User{{UserID: 1, PrefCD: &prefCD, CityCD: &cityCD}}
	now := time.Now()

	candidates := []matchmodel.Candidate{
		{JobID: 1, PrefCD: 13, CityCD: 13101, Fee: 1000, Applications30d: 1, HasHighIncome: true, Score: 90, PostingDate: now},
		{JobID: 2, PrefCD: 13, CityCD: 13101, Score: 80, PostingDate: now},
	}
	ranked := map[int32]matchmodel.RankedUser{1: {Top: candidates, All: candidates}}
	repo := &fakePickRepo{}

	results, err := Run(context.Background(), al, repo, users, ranked, now, now)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, repo.batches, 1)
	assert.NotEmpty(t, repo.batches[0])
}

type fakePickRepo struct {
	batches [][]model.DailyJobPick
}

func (f *fakePickRepo) UpsertBatch(ctx context.Context, picks []model.DailyJobPick) error {
	f.batches = append(f.batches, picks)
	return nil
}
