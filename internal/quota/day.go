package quota

import "time"

// DayStart truncates t to midnight of its UTC calendar day.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameUTCDay compares calendar dates, not a rolling 24h window:
// 23:59 and 00:01 UTC are different days.
func SameUTCDay(a, b time.Time) bool {
	return DayStart(a).Equal(DayStart(b))
}

// EffectiveUsage is the stored counter when it was last touched today and
// zero otherwise, whatever the stored value says.
func EffectiveUsage(count int, lastUsage *time.Time, now time.Time) int {
	if lastUsage == nil || !SameUTCDay(*lastUsage, now) {
		return 0
	}
	if count < 0 {
		return 0
	}
	return count
}
