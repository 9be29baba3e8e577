package model

import "time"

// User is a candidate for daily matching: an opaque contact identity
// with an optional estimated home location. Only active, subscribed
// users are matched (§3).
type User struct {
	UserID     int32
	Contact    string
	PrefCD     *int
	CityCD     *int
	IsActive   bool
	Subscribed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEligible reports whether this user is matched at all (§3: "Only
// active, subscribed users are matched").
func (u *User) IsEligible() bool {
	return u.IsActive && u.Subscribed
}

// HasHomeLocation reports whether an estimated home (pref_cd, city_cd)
// is on file, used by Matcher/Allocator for the regional/nearby
// sections.
func (u *User) HasHomeLocation() bool {
	return u.PrefCD != nil && u.CityCD != nil
}
