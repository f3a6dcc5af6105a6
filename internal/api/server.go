package api

import (
	"context"
	"io"

	"podium/internal/config"
	"podium/internal/database"
	"podium/internal/feedback"
	"podium/internal/gamification"
	"podium/internal/mailer"
	"podium/internal/quota"
	"podium/internal/storage"
	"podium/internal/transcription"
	"podium/internal/websocket"

	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (*transcription.Transcript, error)
}

type FeedbackGenerator interface {
	Generate(ctx context.Context, key, question, transcript string) (feedback.Result, error)
}

type ContactMailer interface {
	SendContact(ctx context.Context, msg mailer.ContactMessage) error
}

type Dependencies struct {
	Config      *config.Config
	Store       *database.Store
	Storage     *storage.LocalStorage
	Hub         *websocket.Hub
	Gate        *quota.Gate
	Updater     *gamification.Updater
	Transcriber Transcriber
	Feedback    FeedbackGenerator
	Verifier    quota.Verifier
	Mailer      ContactMailer
	Metrics     *Metrics
	Logger      zerolog.Logger
}

type Server struct {
	config      *config.Config
	store       *database.Store
	storage     *storage.LocalStorage
	wsHub       *websocket.Hub
	upgrader    *gorillaws.Upgrader
	gate        *quota.Gate
	updater     *gamification.Updater
	transcriber Transcriber
	feedback    FeedbackGenerator
	verifier    quota.Verifier
	mailer      ContactMailer
	metrics     *Metrics
	log         zerolog.Logger
}

func NewServer(d Dependencies) *Server {
	return &Server{
		config:      d.Config,
		store:       d.Store,
		storage:     d.Storage,
		wsHub:       d.Hub,
		upgrader:    websocket.NewUpgrader(d.Config.Server.AllowedOrigins),
		gate:        d.Gate,
		updater:     d.Updater,
		transcriber: d.Transcriber,
		feedback:    d.Feedback,
		verifier:    d.Verifier,
		mailer:      d.Mailer,
		metrics:     d.Metrics,
		log:         d.Logger,
	}
}
