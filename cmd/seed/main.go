// Command seed replaces the question bank with the default set or with the
// questions listed in a YAML/JSON file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"podium/internal/config"
	"podium/internal/database"
	"podium/internal/logger"
	"podium/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

func main() {
	file := flag.String("file", "", "optional YAML or JSON file with a top-level 'questions' list")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("", "info")
		bootLog.Fatal().Err(err).Msg("could not load configuration")
	}
	log := logger.New(cfg.Server.Environment, cfg.Server.LogLevel)

	questions := defaultQuestions
	if *file != "" {
		if questions, err = loadQuestions(*file); err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("could not read questions")
		}
	}
	if err := validateQuestions(questions); err != nil {
		log.Fatal().Err(err).Msg("invalid question set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
	defer pool.Close()

	store := database.NewStore(pool, nil)
	n, err := store.ReplaceQuestions(ctx, questions)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}

	log.Info().Int64("questions", n).Msg("database seeded with questions")
}

func loadQuestions(path string) ([]models.Question, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var questions []models.Question
	if err := v.UnmarshalKey("questions", &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func validateQuestions(questions []models.Question) error {
	if len(questions) == 0 {
		return errors.New("no questions to seed")
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" || strings.TrimSpace(q.Role) == "" || strings.TrimSpace(q.Category) == "" {
			return fmt.Errorf("question %d: text, role and category are required", i+1)
		}
		switch q.Difficulty {
		case "", models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		default:
			return fmt.Errorf("question %d: unknown difficulty %q", i+1, q.Difficulty)
		}
	}
	return nil
}
