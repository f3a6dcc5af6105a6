package models

import (
	"strings"
	"time"
)

type User struct {
	ID               int64      `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	Username         *string    `json:"username,omitempty" db:"username"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	APIKey           string     `json:"-" db:"api_key"`
	APIKeyVerifiedAt *time.Time `json:"-" db:"api_key_verified_at"`
	UsageCount       int        `json:"usage_count" db:"usage_count"`
	LastUsageAt      *time.Time `json:"last_usage_at,omitempty" db:"last_usage_at"`
	Points           int        `json:"points" db:"points"`
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LastPracticeAt   *time.Time `json:"last_practice_at,omitempty" db:"last_practice_at"`
	Badges           []string   `json:"badges" db:"badges"`
}

// HasVerifiedAPIKey reports whether the user stored a credential that passed
// verification when it was saved. Such users bypass the daily quota.
func (u *User) HasVerifiedAPIKey() bool {
	return strings.TrimSpace(u.APIKey) != "" && u.APIKeyVerifiedAt != nil
}

// Progress is the gamification slice of a user row.
type Progress struct {
	Points         int
	CurrentStreak  int
	LastPracticeAt *time.Time
	Badges         []string
}

type LeaderboardEntry struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Points int      `json:"points"`
	Badges []string `json:"badges"`
}
