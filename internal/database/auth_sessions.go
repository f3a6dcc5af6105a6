package database

import (
	"context"
	"time"

	"podium/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CreateAuthSessionParams struct {
	ID           uuid.UUID
	UserID       int64
	RefreshToken string
	UserAgent    string
	ClientIP     string
	ExpiresAt    time.Time
}

func (q *Queries) CreateAuthSession(ctx context.Context, arg CreateAuthSessionParams) error {
	query := `
		INSERT INTO auth_sessions (id, user_id, refresh_token, user_agent, client_ip, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.db.Exec(ctx, query, arg.ID, arg.UserID, arg.RefreshToken, arg.UserAgent, arg.ClientIP, arg.ExpiresAt)
	if err != nil && pgErrorCode(err) == pgForeignKeyViolation {
		return ErrUserNotFound
	}
	return err
}

// ConsumeRefreshToken deletes the session holding refreshToken and returns
// its user. It returns nil for unknown or expired tokens, so two concurrent
// refreshes with the same token cannot both succeed.
func (q *Queries) ConsumeRefreshToken(ctx context.Context, refreshToken string) (*models.User, error) {
	query := `
		WITH consumed AS (
			DELETE FROM auth_sessions
			WHERE refresh_token = $1
			RETURNING user_id, expires_at
		)
		SELECT ` + userColumns + `
		FROM users
		WHERE id = (SELECT user_id FROM consumed WHERE expires_at > NOW())
	`
	return scanUser(q.db.QueryRow(ctx, query, refreshToken))
}

func (q *Queries) ListAuthSessionsForUser(ctx context.Context, userID int64) ([]models.AuthSession, error) {
	query := `
		SELECT id, user_agent, client_ip, expires_at, created_at
		FROM auth_sessions
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY created_at DESC
	`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.AuthSession])
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		return []models.AuthSession{}, nil
	}
	return sessions, nil
}

func (q *Queries) DeleteAuthSessionByID(ctx context.Context, sessionID uuid.UUID, userID int64) error {
	query := `DELETE FROM auth_sessions WHERE id = $1 AND user_id = $2`
	_, err := q.db.Exec(ctx, query, sessionID, userID)
	return err
}

func (q *Queries) DeleteAllAuthSessionsForUser(ctx context.Context, userID int64) error {
	query := `DELETE FROM auth_sessions WHERE user_id = $1`
	_, err := q.db.Exec(ctx, query, userID)
	return err
}

func (q *Queries) DeleteAuthSessionByRefreshToken(ctx context.Context, refreshToken string) error {
	query := `DELETE FROM auth_sessions WHERE refresh_token = $1`
	_, err := q.db.Exec(ctx, query, refreshToken)
	return err
}

func (q *Queries) DeleteExpiredAuthSessions(ctx context.Context) (int64, error) {
	res, err := q.db.Exec(ctx, `DELETE FROM auth_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}
