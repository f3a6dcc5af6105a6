// @title           Podium Interview Practice API
// @version         1.0
// @description     Record answers to interview questions and get delivery metrics and AI feedback.
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podium/internal/api"
	"podium/internal/config"
	"podium/internal/database"
	"podium/internal/feedback"
	"podium/internal/gamification"
	"podium/internal/logger"
	"podium/internal/mailer"
	"podium/internal/quota"
	"podium/internal/storage"
	"podium/internal/transcription"
	"podium/internal/websocket"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	_ "podium/docs"
)

const (
	janitorInterval = 30 * time.Minute
	staleUploadAge  = time.Hour
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("", "info")
		bootLog.Fatal().Err(err).Msg("could not load configuration")
	}
	log := logger.New(cfg.Server.Environment, cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
	defer dbpool.Close()

	if err := dbpool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("could not ping database")
	}
	log.Info().Msg("connected to database")

	localStorage, err := storage.NewLocalStorage(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialise upload storage")
	}
	log.Info().Str("path", cfg.Storage.Path).Msg("temporary uploads directory ready")

	wsHub := websocket.NewHub(log.With().Str("component", "ws").Logger())
	go wsHub.Run(ctx)

	store := database.NewStore(dbpool, wsHub)

	gemini := feedback.NewClient(feedback.Options{
		Model:      cfg.Gemini.Model,
		BaseURL:    cfg.Gemini.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Gemini.Timeout},
	})
	verifier := quota.NewCachedVerifier(gemini, cfg.Quota.VerifyCacheTTL)

	if !cfg.Gemini.HasDefaultKey() {
		log.Warn().Msg("no default Gemini key configured, users must supply their own")
	}
	gate := quota.NewGate(store, verifier, quota.Options{
		DefaultKey: cfg.Gemini.APIKey,
		DailyLimit: cfg.Quota.DailyLimit,
		Logger:     log.With().Str("component", "quota").Logger(),
	})

	assembly := transcription.NewClient(transcription.Options{
		APIKey:       cfg.AssemblyAI.APIKey,
		BaseURL:      cfg.AssemblyAI.BaseURL,
		PollInterval: cfg.AssemblyAI.PollInterval,
		Timeout:      cfg.AssemblyAI.Timeout,
	})

	sendgrid := mailer.NewSendGridMailer(mailer.Options{
		APIKey: cfg.SendGrid.APIKey,
		From:   cfg.SendGrid.From,
		To:     cfg.SendGrid.To,
	})
	if !sendgrid.Configured() {
		log.Warn().Msg("SendGrid is not configured, contact form is disabled")
	}

	server := api.NewServer(api.Dependencies{
		Config:      cfg,
		Store:       store,
		Storage:     localStorage,
		Hub:         wsHub,
		Gate:        gate,
		Updater:     gamification.NewUpdater(store, store, log.With().Str("component", "gamification").Logger()),
		Transcriber: assembly,
		Feedback:    gemini,
		Verifier:    verifier,
		Mailer:      sendgrid,
		Metrics:     api.NewMetrics(prometheus.DefaultRegisterer),
		Logger:      log,
	})

	go runJanitor(ctx, store, localStorage, log)

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.Routes(promhttp.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// runJanitor removes uploads orphaned by a crash and expired refresh
// sessions.
func runJanitor(ctx context.Context, store *database.Store, uploads *storage.LocalStorage, log zerolog.Logger) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		if n, err := uploads.Sweep(staleUploadAge); err != nil {
			log.Warn().Err(err).Msg("upload sweep failed")
		} else if n > 0 {
			log.Info().Int("removed", n).Msg("removed stale uploads")
		}

		if n, err := store.DeleteExpiredAuthSessions(ctx); err != nil {
			log.Warn().Err(err).Msg("expired session cleanup failed")
		} else if n > 0 {
			log.Info().Int64("removed", n).Msg("removed expired auth sessions")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
