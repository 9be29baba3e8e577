package model

import "time"

// ActionType is the closed enumeration of user engagement events. Spec
// lists a fixed set; extending it is a code change, not a data change.
type ActionType string

const (
	ActionView        ActionType = "view"
	ActionClick       ActionType = "click"
	ActionApply       ActionType = "apply"
	ActionApplication ActionType = "application"
	ActionEmailOpen   ActionType = "email_open"
	ActionEmailClick  ActionType = "email_click"
	ActionFavorite    ActionType = "favorite"
	ActionSave        ActionType = "save"
	ActionShare       ActionType = "share"
)

// IsApplication reports whether this action counts as an application for
// the profile frequency maps and the recent-employer set (§4.D: "apply,
// application" weight 3).
func (t ActionType) IsApplication() bool {
	return t == ActionApply || t == ActionApplication
}

// Action is a single user engagement event, stored in one unpartitioned
// user_actions table and retained at least 365 days.
type Action struct {
	UserID          int32
	JobID           *int64
	EndclCD         *string
	ActionType      ActionType
	ActionTimestamp time.Time
}

// ActionWithJob denormalizes the job attributes the Profile Builder
// needs to bucket an action into its frequency maps, without requiring
// every caller to join against modules/jobs itself.
type ActionWithJob struct {
	Action
	PrefCD           *int
	CityCD           *int
	OccupationCD1    *int
	EmploymentTypeCD *int
	MinSalary        *int
	MaxSalary        *int
}

// Weight returns the profile-frequency weight for this action type
// (§4.D): apply/application 3, click 1, email_click 1, everything else
// unweighted (0, not counted).
func (a *Action) Weight() int {
	switch a.ActionType {
	case ActionApply, ActionApplication:
		return 3
	case ActionClick, ActionEmailClick:
		return 1
	default:
		return 0
	}
}

// EngagementCounts is the raw view/click/application tally behind both
// the per-employer EmployerPopularity window (§4.C) and the per-job
// rolling 30-day counters the Scorer's personalized base reads (§4.E).
type EngagementCounts struct {
	Views        int
	Clicks       int
	Applications int
}

// EmployerCounts is EngagementCounts keyed by endcl_cd.
type EmployerCounts = EngagementCounts
