package ports

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/users/model"
)

// UserRepository defines the interface for user data access. Users are
// master data to the pipeline: Profile, Matcher and Allocator read
// through it; nothing in the pipeline writes users.
type UserRepository interface {
	GetByID(ctx context.Context, userID int32) (*model.User, error)

	// ListEligibleActive streams every active, subscribed user (§3) for
	// Profile/Matcher to shard by hash(user_id) mod W.
	ListEligibleActive(ctx context.Context) ([]*model.User, error)

	CountEligibleActive(ctx context.Context) (int, error)
}
