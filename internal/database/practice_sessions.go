package database

import (
	"context"
	"errors"

	"podium/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const practiceSessionColumns = `
	id, user_id, question_text, transcript, wpm, filler_word_count,
	found_fillers, feedback, improvements, created_at
`

func scanPracticeSession(row pgx.Row) (*models.PracticeSession, error) {
	var ps models.PracticeSession
	err := row.Scan(
		&ps.ID,
		&ps.UserID,
		&ps.QuestionText,
		&ps.Transcript,
		&ps.WPM,
		&ps.FillerWordCount,
		&ps.FoundFillers,
		&ps.Feedback,
		&ps.Improvements,
		&ps.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if ps.FoundFillers == nil {
		ps.FoundFillers = []string{}
	}
	return &ps, nil
}

type CreatePracticeSessionParams struct {
	UserID          int64
	QuestionText    string
	Transcript      string
	WPM             int
	FillerWordCount int
	FoundFillers    []string
	Feedback        string
	Improvements    string
}

func (q *Queries) CreatePracticeSession(ctx context.Context, arg CreatePracticeSessionParams) (*models.PracticeSession, error) {
	fillers := arg.FoundFillers
	if fillers == nil {
		fillers = []string{}
	}
	query := `
		INSERT INTO practice_sessions (
			id, user_id, question_text, transcript, wpm, filler_word_count,
			found_fillers, feedback, improvements
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + practiceSessionColumns

	row := q.db.QueryRow(ctx, query,
		uuid.New(), arg.UserID, arg.QuestionText, arg.Transcript, arg.WPM,
		arg.FillerWordCount, fillers, arg.Feedback, arg.Improvements,
	)
	ps, err := scanPracticeSession(row)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return ps, nil
}

// ListPracticeSessions returns the user's history, newest first.
func (q *Queries) ListPracticeSessions(ctx context.Context, userID int64, limit int, offset int) ([]models.PracticeSession, error) {
	query := `
		SELECT ` + practiceSessionColumns + `
		FROM practice_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := q.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.PracticeSession
	for rows.Next() {
		ps, err := scanPracticeSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *ps)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if sessions == nil {
		return []models.PracticeSession{}, nil
	}

	return sessions, nil
}

func (q *Queries) GetPracticeSession(ctx context.Context, id uuid.UUID) (*models.PracticeSession, error) {
	query := `SELECT ` + practiceSessionColumns + ` FROM practice_sessions WHERE id = $1`
	ps, err := scanPracticeSession(q.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ps, nil
}

// DeletePracticeSession removes a session owned by userID. It reports
// ErrSessionNotFound when no such session exists and ErrNotSessionOwner when
// it belongs to someone else.
func (q *Queries) DeletePracticeSession(ctx context.Context, id uuid.UUID, userID int64) error {
	query := `
		WITH target AS (
			SELECT id, user_id FROM practice_sessions WHERE id = $1
		), deleted AS (
			DELETE FROM practice_sessions
			WHERE id = $1 AND user_id = $2
			RETURNING id
		)
		SELECT
			EXISTS (SELECT 1 FROM target),
			EXISTS (SELECT 1 FROM deleted)
	`
	var found, deleted bool
	if err := q.db.QueryRow(ctx, query, id, userID).Scan(&found, &deleted); err != nil {
		return err
	}
	switch {
	case !found:
		return ErrSessionNotFound
	case !deleted:
		return ErrNotSessionOwner
	}
	return nil
}
