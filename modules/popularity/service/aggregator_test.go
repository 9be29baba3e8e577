package service

import (
	"context"
	"testing"
	"time"

	actionmodel "github.com/andreypavlenko/matchday/modules/actions/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActionRepo struct {
	byWindow map[time.Duration]map[string]actionmodel.EmployerCounts
	now      time.Time
}

func (f *fakeActionRepo) EmployerCounts(ctx context.Context, since time.Time) (map[string]actionmodel.EmployerCounts, error) {
	window := f.now.Sub(since).Round(time.Hour)
	return f.byWindow[window], nil
}

func (f *fakeActionRepo) UserActionsSince(ctx context.Context, userID int32, since time.Time) ([]actionmodel.ActionWithJob, error) {
	return nil, nil
}

func (f *fakeActionRepo) RecentEmployers(ctx context.Context, userID int32, since time.Time) (map[string]bool, error) {
	return nil, nil
}

func (f *fakeActionRepo) JobCounts(ctx context.Context, since time.Time) (map[int64]actionmodel.EngagementCounts, error) {
	return nil, nil
}

func TestAggregator_Run(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	t.Run("blends rate and volume, defaulting missing windows to zero", func(t *testing.T) {
		repo := &fakeActionRepo{
			now: now,
			byWindow: map[time.Duration]map[string]actionmodel.EmployerCounts{
				popularityWindow.Round(time.Hour): {
					"EC1": {Views: 1000, Clicks: 200, Applications: 100},
				},
				recentWindow.Round(time.Hour): {},
				weeklyWindow.Round(time.Hour): {},
			},
		}

		agg := NewAggregator(repo)
		rows, err := agg.Run(context.Background(), now)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		p := rows[0]
		assert.Equal(t, "EC1", p.EndclCD)
		assert.InDelta(t, 0.5, p.ApplicationRate, 1e-9)
		// rate saturates at 0.5 -> full rate credit; volume 100/500=0.2
		assert.InDelta(t, 100*0.6*1.0+100*0.4*0.2, p.PopularityScore, 1e-9)
		assert.Equal(t, 0, p.Applications30d)
	})

	t.Run("zero clicks does not divide by zero", func(t *testing.T) {
		repo := &fakeActionRepo{
			now: now,
			byWindow: map[time.Duration]map[string]actionmodel.EmployerCounts{
				popularityWindow.Round(time.Hour): {"EC2": {Views: 10, Clicks: 0, Applications: 2}},
				recentWindow.Round(time.Hour):     {},
				weeklyWindow.Round(time.Hour):     {},
			},
		}

		agg := NewAggregator(repo)
		rows, err := agg.Run(context.Background(), now)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 2.0, rows[0].ApplicationRate)
	})
}
