package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	actionmodel "github.com/andreypavlenko/matchday/modules/actions/model"
	actionports "github.com/andreypavlenko/matchday/modules/actions/ports"
	"github.com/andreypavlenko/matchday/modules/profiles/model"
	"github.com/andreypavlenko/matchday/modules/profiles/ports"
	usermodel "github.com/andreypavlenko/matchday/modules/users/model"
	"golang.org/x/sync/errgroup"
)

const (
	// ActionWindow is the 180-day lookback for frequency maps and
	// salary stats (§4.D).
	ActionWindow = 180 * 24 * time.Hour

	// RecentEmployerWindow is the 14-day lookback for recent_employers
	// (§3, §4.D).
	RecentEmployerWindow = 14 * 24 * time.Hour
)

// Builder computes UserProfile from the action log (§4.D).
type Builder struct {
	actions actionports.ActionRepository
}

// NewBuilder creates a new Profile Builder.
func NewBuilder(actions actionports.ActionRepository) *Builder {
	return &Builder{actions: actions}
}

// Build returns the profile for a single user as of now. New users
// (no actions) get an empty profile.
func (b *Builder) Build(ctx context.Context, userID int32, now time.Time) (*model.UserProfile, error) {
	profile := model.NewProfile(userID, now)

	actions, err := b.actions.UserActionsSince(ctx, userID, now.Add(-ActionWindow))
	if err != nil {
		return nil, err
	}

	var salarySum, salaryMin, salaryMax float64
	var salaryCount int

	for _, a := range actions {
		switch a.ActionType {
		case actionmodel.ActionView:
			profile.ViewCount++
		case actionmodel.ActionClick:
			profile.ClickCount++
		case actionmodel.ActionApply, actionmodel.ActionApplication:
			profile.ApplicationCount++
			ts := a.ActionTimestamp
			if profile.LastApplication == nil || ts.After(*profile.LastApplication) {
				profile.LastApplication = &ts
			}
		}

		weight := a.Weight()
		if weight == 0 {
			continue
		}

		if a.PrefCD != nil {
			profile.PrefFreq[*a.PrefCD] += weight
		}
		if a.CityCD != nil {
			profile.CityFreq[*a.CityCD] += weight
		}
		if a.OccupationCD1 != nil {
			profile.OccupationFreq[*a.OccupationCD1] += weight
		}
		if a.EmploymentTypeCD != nil {
			profile.EmploymentFreq[*a.EmploymentTypeCD] += weight
		}
		if a.EndclCD != nil {
			profile.EmployerFreq[*a.EndclCD] += weight
		}

		if a.ActionType.IsApplication() && a.MinSalary != nil && a.MaxSalary != nil {
			mid := float64(*a.MinSalary+*a.MaxSalary) / 2
			salarySum += mid
			salaryCount++
			if salaryCount == 1 || mid < salaryMin {
				salaryMin = mid
			}
			if salaryCount == 1 || mid > salaryMax {
				salaryMax = mid
			}
		}
	}

	if salaryCount > 0 {
		profile.SalaryStats = model.SalaryStats{
			Avg:   salarySum / float64(salaryCount),
			Min:   salaryMin,
			Max:   salaryMax,
			Count: salaryCount,
		}
	}

	recentEmployers, err := b.actions.RecentEmployers(ctx, userID, now.Add(-RecentEmployerWindow))
	if err != nil {
		return nil, err
	}
	profile.RecentEmployers = recentEmployers

	return profile, nil
}

// Run builds and persists profiles for every eligible user, sharded by
// hash(user_id) mod workers (§5 "Profile shards by hash(user_id) mod
// W"). Each shard commits its own batch; a failed shard aborts the
// whole stage since there is no partial-profile state worth keeping.
// It also returns every built profile keyed by user_id so the Matcher
// stage can consume them directly instead of re-reading the table it
// just committed.
func Run(ctx context.Context, builder *Builder, repo ports.ProfileRepository, users []*usermodel.User, workers int, now time.Time) (map[int32]*model.UserProfile, error) {
	if workers <= 0 {
		workers = 8
	}

	shards := make([][]*usermodel.User, workers)
	for _, u := range users {
		shard := int(uint32(u.UserID)) % workers
		shards[shard] = append(shards[shard], u)
	}

	var mu sync.Mutex
	result := make(map[int32]*model.UserProfile, len(users))

	group, groupCtx := errgroup.WithContext(ctx)
	for _, shard := range shards {
		shard := shard
		if len(shard) == 0 {
			continue
		}
		group.Go(func() error {
			profiles := make([]*model.UserProfile, 0, len(shard))
			for _, user := range shard {
				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				default:
				}
				profile, err := builder.Build(groupCtx, user.UserID, now)
				if err != nil {
					return fmt.Errorf("build profile for user %d: %w", user.UserID, err)
				}
				profiles = append(profiles, profile)
			}
			if err := repo.UpsertBatch(groupCtx, profiles); err != nil {
				return err
			}
			mu.Lock()
			for _, p := range profiles {
				result[p.UserID] = p
			}
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
