package database

import (
	"context"
	"errors"

	"podium/internal/models"

	"github.com/jackc/pgx/v5"
)

// RandomQuestion picks one question at random. An empty role or category
// matches everything.
func (q *Queries) RandomQuestion(ctx context.Context, role, category string) (*models.Question, error) {
	query := `
		SELECT id, text, role, category, difficulty
		FROM questions
		WHERE ($1 = '' OR role = $1) AND ($2 = '' OR category = $2)
		ORDER BY random()
		LIMIT 1
	`
	var question models.Question
	err := q.db.QueryRow(ctx, query, role, category).Scan(
		&question.ID,
		&question.Text,
		&question.Role,
		&question.Category,
		&question.Difficulty,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoQuestions
		}
		return nil, err
	}
	return &question, nil
}

// InsertQuestions bulk loads questions with COPY.
func (q *Queries) InsertQuestions(ctx context.Context, questions []models.Question) (int64, error) {
	return q.db.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"text", "role", "category", "difficulty"},
		pgx.CopyFromSlice(len(questions), func(i int) ([]interface{}, error) {
			qu := questions[i]
			difficulty := qu.Difficulty
			if difficulty == "" {
				difficulty = models.DifficultyMedium
			}
			return []interface{}{qu.Text, qu.Role, qu.Category, difficulty}, nil
		}),
	)
}

func (q *Queries) CountQuestions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}

// ReplaceQuestions swaps the whole question bank in one transaction.
func (s *Store) ReplaceQuestions(ctx context.Context, questions []models.Question) (int64, error) {
	var inserted int64
	err := s.ExecTx(ctx, func(q *Queries) error {
		if _, err := q.db.Exec(ctx, `DELETE FROM questions`); err != nil {
			return err
		}
		n, err := q.InsertQuestions(ctx, questions)
		if err != nil {
			return err
		}
		inserted = n
		return nil
	})
	return inserted, err
}

// QuestionFilters lists the distinct roles and categories in the bank.
func (q *Queries) QuestionFilters(ctx context.Context) (models.QuestionFilters, error) {
	roles, err := q.distinctQuestionColumn(ctx, `SELECT DISTINCT role FROM questions ORDER BY role`)
	if err != nil {
		return models.QuestionFilters{}, err
	}
	categories, err := q.distinctQuestionColumn(ctx, `SELECT DISTINCT category FROM questions ORDER BY category`)
	if err != nil {
		return models.QuestionFilters{}, err
	}
	return models.QuestionFilters{Roles: roles, Categories: categories}, nil
}

func (q *Queries) distinctQuestionColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if values == nil {
		return []string{}, nil
	}
	return values, nil
}
