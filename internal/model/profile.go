package model

import "time"

// Profile is a user's public record in the shared profile database.
type Profile struct {
	// ID is the unique identifier for this profile.
	ID string `json:"id" db:"id"`

	// DisplayName is the name shown to friends and on leaderboards.
	DisplayName string `json:"displayName" db:"display_name"`

	// FriendCode is the short code other users enter to send a request.
	FriendCode string `json:"friendCode" db:"friend_code"`

	// TotalPoints is only ever changed by atomic increments.
	TotalPoints int `json:"totalPoints" db:"total_points"`

	// Streak is overwritten with the latest locally computed value.
	Streak int `json:"streak" db:"streak"`

	// CreatedAt is when the profile was first created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is when points or streak last changed.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FriendRequest is a pending, directed invitation between two profiles.
type FriendRequest struct {
	ID        string    `json:"id" db:"id"`
	FromID    string    `json:"fromId" db:"from_id"`
	ToID      string    `json:"toId" db:"to_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// FromName is populated by queries that join with profiles.
	FromName string `json:"fromName,omitempty" db:"from_name"`
}

// LeaderboardEntry is one ranked row of a leaderboard.
type LeaderboardEntry struct {
	Rank    int
	Profile Profile
	IsSelf  bool
}
