// Package gamification turns a finished practice session into points, a
// daily streak and badges.
package gamification

import (
	"slices"
	"time"

	"podium/internal/models"
	"podium/internal/quota"
)

const (
	BasePoints      = 10
	PaceBonus       = 5
	FewFillersBonus = 5

	speedsterWPM  = 180
	weekStreakLen = 7
)

// Metrics are the delivery numbers of one session that drive rewards.
type Metrics struct {
	WPM             int
	FillerWordCount int
}

// PointsFor scores one session: a base amount plus a bonus for a
// conversational pace and one for keeping filler words to two or fewer.
func PointsFor(m Metrics) int {
	points := BasePoints
	if m.WPM > 120 && m.WPM < 160 {
		points += PaceBonus
	}
	if m.FillerWordCount <= 2 {
		points += FewFillersBonus
	}
	return points
}

// NextStreak compares UTC calendar days between the last practice and now.
func NextStreak(current int, last *time.Time, now time.Time) int {
	if last == nil {
		return 1
	}
	days := int(quota.DayStart(now).Sub(quota.DayStart(*last)).Hours() / 24)
	switch days {
	case 0:
		if current < 1 {
			return 1
		}
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}

// EvaluateBadges returns only the badges earned now that are not already in
// current. Badges are never revoked.
func EvaluateBadges(current []string, m Metrics, points, streak int) []string {
	var earned []string
	award := func(badge string, ok bool) {
		if ok && !slices.Contains(current, badge) && !slices.Contains(earned, badge) {
			earned = append(earned, badge)
		}
	}

	award(models.BadgeFirstStep, points > 0)
	award(models.BadgeSpeedster, m.WPM > speedsterWPM)
	award(models.BadgeEloquent, m.FillerWordCount == 0)
	award(models.BadgeWeekStreak, streak >= weekStreakLen)

	return earned
}

// Reward describes what a single session added to a user's progress.
type Reward struct {
	PointsAwarded int      `json:"points_awarded" example:"20"`
	TotalPoints   int      `json:"total_points" example:"140"`
	Streak        int      `json:"streak" example:"3"`
	NewBadges     []string `json:"new_badges"`
}

// Advance applies one session to p in place and reports the delta.
func Advance(p *models.Progress, m Metrics, now time.Time) Reward {
	awarded := PointsFor(m)
	p.Points += awarded
	p.CurrentStreak = NextStreak(p.CurrentStreak, p.LastPracticeAt, now)
	today := now.UTC()
	p.LastPracticeAt = &today

	newBadges := EvaluateBadges(p.Badges, m, p.Points, p.CurrentStreak)
	p.Badges = append(p.Badges, newBadges...)
	if newBadges == nil {
		newBadges = []string{}
	}

	return Reward{
		PointsAwarded: awarded,
		TotalPoints:   p.Points,
		Streak:        p.CurrentStreak,
		NewBadges:     newBadges,
	}
}
