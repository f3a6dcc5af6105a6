package models

const (
	BadgeFirstStep  = "FirstStep"
	BadgeSpeedster  = "Speedster"
	BadgeEloquent   = "Eloquent"
	BadgeWeekStreak = "WeekStreak"
)
