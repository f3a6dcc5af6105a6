package gamification

import (
	"context"
	"fmt"
	"time"

	"podium/internal/models"

	"github.com/rs/zerolog"
)

const EventRewardGranted = "reward_granted"

// Store locks the user's progress row, hands it to fn, and writes the result
// back in one statement inside the same transaction. An error from fn rolls
// the transaction back.
type Store interface {
	UpdateProgress(ctx context.Context, userID int64, fn func(*models.Progress) error) error
}

// EventLogger records an event in the journal and pushes it to live clients.
type EventLogger interface {
	LogEvent(ctx context.Context, userID int64, eventType string, payload interface{}) error
}

type Updater struct {
	store  Store
	events EventLogger
	now    func() time.Time
	log    zerolog.Logger
}

func NewUpdater(store Store, events EventLogger, log zerolog.Logger) *Updater {
	return &Updater{
		store:  store,
		events: events,
		now:    time.Now,
		log:    log,
	}
}

// Apply records one completed session against the user's progress. The
// practice session itself is stored separately beforehand, so a failure
// here only loses the reward.
func (u *Updater) Apply(ctx context.Context, userID int64, m Metrics) (Reward, error) {
	now := u.now()

	var reward Reward
	err := u.store.UpdateProgress(ctx, userID, func(p *models.Progress) error {
		reward = Advance(p, m, now)
		return nil
	})
	if err != nil {
		return Reward{}, fmt.Errorf("update progress: %w", err)
	}

	if u.events != nil {
		if err := u.events.LogEvent(ctx, userID, EventRewardGranted, reward); err != nil {
			u.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to log reward event")
		}
	}

	u.log.Debug().
		Int64("user_id", userID).
		Int("points_awarded", reward.PointsAwarded).
		Int("streak", reward.Streak).
		Strs("new_badges", reward.NewBadges).
		Msg("reward granted")

	return reward, nil
}
