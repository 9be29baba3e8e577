package service

import (
	"context"
	"testing"
	"time"

	jobmodel "github.com/andreypavlenko/matchday/modules/jobs/model"
	mastermodel "github.com/andreypavlenko/matchday/modules/masters/model"
	masterssvc "github.com/andreypavlenko/matchday/modules/masters/service"
	profilemodel "github.com/andreypavlenko/matchday/modules/profiles/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMasterRepo struct {
	cities []mastermodel.City
}

func (f *fakeMasterRepo) ListPrefectures(ctx context.Context) ([]mastermodel.Prefecture, error) {
	return nil, nil
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
		cities: []mastermodel.City{
			{Code: 13101, PrefCD: 13, AdjacentCityCodes: []int{13102}},
			{Code: 13102, PrefCD: 13, AdjacentCityCodes: []int{13101}},
			{Code: 13103, PrefCD: 13},
		},
	})
	require.NoError(t, err)
	return cache
}

func TestComputeAffinity_NewUserIsNeutral(t *testing.T) {
	masters := newTestMasters(t)
	profile := profilemodel.NewProfile(1, time.Now())
	job := &jobmodel.Job{PrefCD: 13, CityCD: 13101, OccupationCD1: 100, EmploymentTypeCD: 1, EndclCD: "E1"}

	a := computeAffinity(profile, job, masters)
	assert.InDelta(t, 50.0, a, 0.001)
}

func TestComputeAffinity_RewardsFamiliarDimensions(t *testing.T) {
	masters := newTestMasters(t)
	profile := profilemodel.NewProfile(1, time.Now())
	profile.PrefFreq[13] = 5
	profile.PrefFreq[27] = 1
	profile.CityFreq[13101] = 5
	profile.OccupationFreq[100] = 5
	profile.EmploymentFreq[1] = 5
	profile.EmployerFreq["E1"] = 5

	job := &jobmodel.Job{PrefCD: 13, CityCD: 13101, OccupationCD1: 100, EmploymentTypeCD: 1, EndclCD: "E1"}

	// Every frequency-based component maxes at 100; the job carries no
	// salary so salary-fit falls back to the neutral default (§4.F).
	a := computeAffinity(profile, job, masters)
	want := WeightPref*100 + WeightCity*100 + WeightOccupation*100 +
		WeightEmployment*100 + WeightSalary*neutralComponent + WeightEmployer*100
	assert.InDelta(t, want, a, 0.001)
}

func TestCityComponent_AdjacencyHalfCredit(t *testing.T) {
	masters := newTestMasters(t)
	freq := map[int]int{13101: 10}

	// 13102 was never applied to directly but is adjacent to 13101.
	got := cityComponent(freq, 13102, masters)
	assert.InDelta(t, 50.0, got, 0.001)

	// 13103 is neither applied nor adjacent to anything applied.
	got = cityComponent(freq, 13103, masters)
	assert.InDelta(t, 0.0, got, 0.001)
}

func TestSalaryFitComponent_NoStatsIsNeutral(t *testing.T) {
	job := &jobmodel.Job{}
	got := salaryFitComponent(profilemodel.SalaryStats{}, job)
	assert.InDelta(t, 50.0, got, 0.001)
}

func TestSalaryFitComponent_CloseMatchScoresHigh(t *testing.T) {
	min, max := 1400, 1400
	job := &jobmodel.Job{MinSalary: &min, MaxSalary: &max}
	stats := profilemodel.SalaryStats{Avg: 1400, Count: 3}

	got := salaryFitComponent(stats, job)
	assert.InDelta(t, 100.0, got, 0.001)
}

func TestSalaryFitComponent_FarMatchScoresLow(t *testing.T) {
	min, max := 3000, 3000
	job := &jobmodel.Job{MinSalary: &min, MaxSalary: &max}
	stats := profilemodel.SalaryStats{Avg: 1000, Count: 3}

	got := salaryFitComponent(stats, job)
	assert.Less(t, got, 10.0)
}
