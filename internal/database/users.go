package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podium/internal/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `
	id, name, username, email, password_hash, created_at,
	api_key, api_key_verified_at, usage_count, last_usage_at,
	points, current_streak, last_practice_at, badges
`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.APIKey,
		&user.APIKeyVerifiedAt,
		&user.UsageCount,
		&user.LastUsageAt,
		&user.Points,
		&user.CurrentStreak,
		&user.LastPracticeAt,
		&user.Badges,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if user.Badges == nil {
		user.Badges = []string{}
	}
	return &user, nil
}

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, lower($2), $3)
		RETURNING ` + userColumns

	user, err := scanUser(q.db.QueryRow(ctx, query, arg.Name, arg.Email, arg.PasswordHash))
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRow(ctx, query, id))
}

// GetUserByEmail matches case-insensitively; emails are stored lower-cased.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = lower($1)`
	return scanUser(q.db.QueryRow(ctx, query, email))
}

type UpdateProfileParams struct {
	UserID   int64
	Name     *string
	Username *string
}

// UpdateProfile changes only the fields that are set. An empty username
// clears it.
func (q *Queries) UpdateProfile(ctx context.Context, arg UpdateProfileParams) (*models.User, error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
		    username = CASE WHEN $3::text IS NULL THEN username ELSE NULLIF($3::text, '') END
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(q.db.QueryRow(ctx, query, arg.UserID, arg.Name, arg.Username))
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SetAPIKey stores a credential that has already passed verification.
func (q *Queries) SetAPIKey(ctx context.Context, userID int64, key string, verifiedAt time.Time) error {
	query := `UPDATE users SET api_key = $2, api_key_verified_at = $3 WHERE id = $1`
	res, err := q.db.Exec(ctx, query, userID, key, verifiedAt)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (q *Queries) ClearAPIKey(ctx context.Context, userID int64) error {
	query := `UPDATE users SET api_key = '', api_key_verified_at = NULL WHERE id = $1`
	res, err := q.db.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IncrementUsage consumes one unit of the daily allowance in a single
// conditional statement. A counter last touched before dayStart restarts at
// 1. ok is false when the user already used limit requests today.
func (q *Queries) IncrementUsage(ctx context.Context, userID int64, dayStart, now time.Time, limit int) (int, bool, error) {
	query := `
		UPDATE users
		SET usage_count = CASE
		        WHEN last_usage_at >= $2 AND last_usage_at < $3 THEN usage_count + 1
		        ELSE 1
		    END,
		    last_usage_at = $4
		WHERE id = $1
		  AND NOT (COALESCE(last_usage_at >= $2 AND last_usage_at < $3, FALSE) AND usage_count >= $5)
		RETURNING usage_count
	`
	var count int
	err := q.db.QueryRow(ctx, query, userID, dayStart, dayStart.Add(24*time.Hour), now, limit).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return count, true, nil
}

func (q *Queries) lockProgress(ctx context.Context, userID int64) (*models.Progress, error) {
	query := `
		SELECT points, current_streak, last_practice_at, badges
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	var p models.Progress
	err := q.db.QueryRow(ctx, query, userID).Scan(&p.Points, &p.CurrentStreak, &p.LastPracticeAt, &p.Badges)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (q *Queries) saveProgress(ctx context.Context, userID int64, p *models.Progress) error {
	badges := p.Badges
	if badges == nil {
		badges = []string{}
	}
	query := `
		UPDATE users
		SET points = $2, current_streak = $3, last_practice_at = $4, badges = $5
		WHERE id = $1
	`
	_, err := q.db.Exec(ctx, query, userID, p.Points, p.CurrentStreak, p.LastPracticeAt, badges)
	return err
}

// UpdateProgress locks the user's gamification state, lets fn modify it and
// writes all of it back in one statement before committing.
func (s *Store) UpdateProgress(ctx context.Context, userID int64, fn func(*models.Progress) error) error {
	return s.ExecTx(ctx, func(q *Queries) error {
		p, err := q.lockProgress(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if err := q.saveProgress(ctx, userID, p); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
		return nil
	})
}

// Leaderboard returns users ordered by points, ties broken by who joined
// first.
func (q *Queries) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT id, name, points, badges
		FROM users
		ORDER BY points DESC, id ASC
		LIMIT $1
	`
	rows, err := q.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Points, &e.Badges); err != nil {
			return nil, err
		}
		if e.Badges == nil {
			e.Badges = []string{}
		}
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if entries == nil {
		return []models.LeaderboardEntry{}, nil
	}

	return entries, nil
}
