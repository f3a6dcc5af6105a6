package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const MaxEventPage = 100

type Event struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload" swaggertype:"object"`
}

func encodeEvent(eventType string, payload interface{}) ([]byte, error) {
	eventMsg := map[string]interface{}{
		"event_type": eventType,
		"payload":    payload,
	}
	eventBytes, err := json.Marshal(eventMsg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return eventBytes, nil
}

func (q *Queries) LogEvent(ctx context.Context, userID int64, eventType string, payload interface{}) error {
	eventBytes, err := encodeEvent(eventType, payload)
	if err != nil {
		return err
	}

	query := `INSERT INTO event_journal (user_id, event_type, payload) VALUES ($1, $2, $3)`
	_, err = q.db.Exec(ctx, query, userID, eventType, eventBytes)
	return err
}

// LogEvent journals the event and, once stored, pushes it to the user's
// open websocket connections.
func (s *Store) LogEvent(ctx context.Context, userID int64, eventType string, payload interface{}) error {
	eventBytes, err := encodeEvent(eventType, payload)
	if err != nil {
		return err
	}

	query := `INSERT INTO event_journal (user_id, event_type, payload) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, query, userID, eventType, eventBytes); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.PublishEvent(userID, eventBytes)
	}

	return nil
}

// GetEventsSince pages through the journal in id order. A non-positive limit
// falls back to MaxEventPage.
func (q *Queries) GetEventsSince(ctx context.Context, userID int64, sinceID int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > MaxEventPage {
		limit = MaxEventPage
	}
	query := `
		SELECT id, event_type, event_time, payload
		FROM event_journal
		WHERE user_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`
	rows, err := q.db.Query(ctx, query, userID, sinceID, limit)
	if err != nil {
		return nil, err
	}
	events, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Event])
	if err != nil {
		return nil, err
	}
	if events == nil {
		return []Event{}, nil
	}
	return events, nil
}
