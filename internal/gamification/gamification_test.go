package gamification

import (
	"context"
	"errors"
	"testing"
	"time"

	"podium/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func TestPointsFor(t *testing.T) {
	tests := []struct {
		name string
		m    Metrics
		want int
	}{
		{"pace and few fillers", Metrics{WPM: 150, FillerWordCount: 1}, 20},
		{"pace lower bound is exclusive", Metrics{WPM: 120, FillerWordCount: 1}, 15},
		{"pace upper bound is exclusive", Metrics{WPM: 160, FillerWordCount: 5}, 10},
		{"two fillers still count", Metrics{WPM: 90, FillerWordCount: 2}, 15},
		{"base only", Metrics{WPM: 200, FillerWordCount: 3}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, PointsFor(tt.m))
		})
	}
}

func TestNextStreak(t *testing.T) {
	tests := []struct {
		name    string
		current int
		last    *time.Time
		want    int
	}{
		{"no prior practice", 0, nil, 1},
		{"yesterday extends", 4, at(now.AddDate(0, 0, -1)), 5},
		{"yesterday late evening extends", 4, at(time.Date(2026, 5, 19, 23, 59, 0, 0, time.UTC)), 5},
		{"same day unchanged", 4, at(now.Add(-9 * time.Hour)), 4},
		{"three days ago resets", 4, at(now.AddDate(0, 0, -3)), 1},
		{"two days ago resets", 6, at(now.AddDate(0, 0, -2)), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NextStreak(tt.current, tt.last, now))
		})
	}
}

func TestEvaluateBadges(t *testing.T) {
	got := EvaluateBadges(nil, Metrics{WPM: 140, FillerWordCount: 0}, 20, 1)
	require.Equal(t, []string{models.BadgeFirstStep, models.BadgeEloquent}, got)

	got = EvaluateBadges([]string{models.BadgeFirstStep}, Metrics{WPM: 190, FillerWordCount: 4}, 30, 7)
	require.Equal(t, []string{models.BadgeSpeedster, models.BadgeWeekStreak}, got)

	all := []string{models.BadgeFirstStep, models.BadgeSpeedster, models.BadgeEloquent, models.BadgeWeekStreak}
	require.Empty(t, EvaluateBadges(all, Metrics{WPM: 200, FillerWordCount: 0}, 500, 30))
}

func TestAdvance_FirstSession(t *testing.T) {
	var p models.Progress
	reward := Advance(&p, Metrics{WPM: 150, FillerWordCount: 0}, now)

	require.Equal(t, 20, reward.PointsAwarded)
	require.Equal(t, 20, p.Points)
	require.Equal(t, 1, p.CurrentStreak)
	require.Equal(t, now, *p.LastPracticeAt)
	require.ElementsMatch(t, []string{models.BadgeFirstStep, models.BadgeEloquent}, p.Badges)
	require.ElementsMatch(t, p.Badges, reward.NewBadges)
}

func TestAdvance_NeverDuplicatesBadges(t *testing.T) {
	var p models.Progress
	for i := 0; i < 3; i++ {
		Advance(&p, Metrics{WPM: 150, FillerWordCount: 0}, now.AddDate(0, 0, i))
	}

	require.Len(t, p.Badges, 2)
	require.Equal(t, 3, p.CurrentStreak)
	require.Equal(t, 60, p.Points)

	reward := Advance(&p, Metrics{WPM: 150, FillerWordCount: 0}, now.AddDate(0, 0, 3))
	require.NotNil(t, reward.NewBadges)
	require.Empty(t, reward.NewBadges)
}

func TestAdvance_WeekStreakBadge(t *testing.T) {
	p := models.Progress{
		Points:         120,
		CurrentStreak:  6,
		LastPracticeAt: at(now.AddDate(0, 0, -1)),
		Badges:         []string{models.BadgeFirstStep},
	}
	reward := Advance(&p, Metrics{WPM: 100, FillerWordCount: 5}, now)

	require.Equal(t, 7, reward.Streak)
	require.Equal(t, []string{models.BadgeWeekStreak}, reward.NewBadges)
	require.Equal(t, 130, reward.TotalPoints)
}

type progressStore struct {
	progress models.Progress
	err      error
}

func (s *progressStore) UpdateProgress(_ context.Context, _ int64, fn func(*models.Progress) error) error {
	if s.err != nil {
		return s.err
	}
	p := s.progress
	p.Badges = append([]string(nil), s.progress.Badges...)
	if err := fn(&p); err != nil {
		return err
	}
	s.progress = p
	return nil
}

type recordedEvent struct {
	userID    int64
	eventType string
	payload   interface{}
}

type eventRecorder struct {
	events []recordedEvent
	err    error
}

func (r *eventRecorder) LogEvent(_ context.Context, userID int64, eventType string, payload interface{}) error {
	r.events = append(r.events, recordedEvent{userID, eventType, payload})
	return r.err
}

func newTestUpdater(store Store, events EventLogger) *Updater {
	u := NewUpdater(store, events, zerolog.Nop())
	u.now = func() time.Time { return now }
	return u
}

func TestUpdater_ApplyPersistsAndEmits(t *testing.T) {
	store := &progressStore{}
	events := &eventRecorder{}

	reward, err := newTestUpdater(store, events).Apply(context.Background(), 7, Metrics{WPM: 150, FillerWordCount: 1})
	require.NoError(t, err)
	require.Equal(t, 20, reward.PointsAwarded)
	require.Equal(t, 20, store.progress.Points)
	require.Equal(t, 1, store.progress.CurrentStreak)

	require.Len(t, events.events, 1)
	require.Equal(t, int64(7), events.events[0].userID)
	require.Equal(t, EventRewardGranted, events.events[0].eventType)
	require.Equal(t, reward, events.events[0].payload)
}

func TestUpdater_ApplyPropagatesPersistError(t *testing.T) {
	dbErr := errors.New("connection reset")
	events := &eventRecorder{}

	_, err := newTestUpdater(&progressStore{err: dbErr}, events).Apply(context.Background(), 7, Metrics{WPM: 150})
	require.ErrorIs(t, err, dbErr)
	require.Empty(t, events.events)
}

func TestUpdater_EventFailureIsNotFatal(t *testing.T) {
	store := &progressStore{}
	events := &eventRecorder{err: errors.New("journal down")}

	reward, err := newTestUpdater(store, events).Apply(context.Background(), 7, Metrics{WPM: 150})
	require.NoError(t, err)
	require.Equal(t, reward.TotalPoints, store.progress.Points)
}
