package service

import (
	"context"
	"time"

	actionports "github.com/andreypavlenko/matchday/modules/actions/ports"
	"github.com/andreypavlenko/matchday/modules/popularity/model"
)

// Weights and tunables for the popularity-score blend (§4.C). The
// *shape* — a saturating blend of quality (rate) and volume — is the
// contract; these constants are the default tuning.
const (
	rateWeight       = 0.6
	rateSaturation   = 0.5
	volumeSaturation = 500
	popularityWindow = 360 * 24 * time.Hour
	recentWindow     = 30 * 24 * time.Hour
	weeklyWindow     = 7 * 24 * time.Hour
)

// Aggregator walks the action log and produces one EmployerPopularity
// row per endcl_cd seen in the 360-day window (§4.C).
type Aggregator struct {
	actions actionports.ActionRepository
}

// NewAggregator creates a new Popularity Aggregator.
func NewAggregator(actions actionports.ActionRepository) *Aggregator {
	return &Aggregator{actions: actions}
}

// Run computes EmployerPopularity for every endcl_cd with activity in
// the last 360 days, relative to now.
func (a *Aggregator) Run(ctx context.Context, now time.Time) ([]model.EmployerPopularity, error) {
	counts360, err := a.actions.EmployerCounts(ctx, now.Add(-popularityWindow))
	if err != nil {
		return nil, err
	}
	counts30, err := a.actions.EmployerCounts(ctx, now.Add(-recentWindow))
	if err != nil {
		return nil, err
	}
	counts7, err := a.actions.EmployerCounts(ctx, now.Add(-weeklyWindow))
	if err != nil {
		return nil, err
	}

	out := make([]model.EmployerPopularity, 0, len(counts360))
	for endclCD, c360 := range counts360 {
		p := model.EmployerPopularity{
			EndclCD:          endclCD,
			Views360d:        c360.Views,
			Clicks360d:       c360.Clicks,
			Applications360d: c360.Applications,
			UpdatedAt:        now,
		}
		if c30, ok := counts30[endclCD]; ok {
			p.Views30d, p.Clicks30d, p.Applications30d = c30.Views, c30.Clicks, c30.Applications
		}
		if c7, ok := counts7[endclCD]; ok {
			p.Views7d, p.Clicks7d, p.Applications7d = c7.Views, c7.Clicks, c7.Applications
		}

		p.ApplicationRate = applicationRate(p.Applications360d, p.Clicks360d)
		p.PopularityScore = popularityScore(p.ApplicationRate, p.Applications360d)

		out = append(out, p)
	}

	return out, nil
}

func applicationRate(applications, clicks int) float64 {
	denom := clicks
	if denom < 1 {
		denom = 1
	}
	return float64(applications) / float64(denom)
}

func popularityScore(rate float64, applications int) float64 {
	clippedRate := rate
	if clippedRate < 0 {
		clippedRate = 0
	}
	if clippedRate > rateSaturation {
		clippedRate = rateSaturation
	}

	volumeTerm := float64(applications) / volumeSaturation
	if volumeTerm > 1 {
		volumeTerm = 1
	}

	return 100*rateWeight*(clippedRate/rateSaturation) + 100*(1-rateWeight)*volumeTerm
}
