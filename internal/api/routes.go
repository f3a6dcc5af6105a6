package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Routes builds the HTTP router. metricsHandler serves /metrics and may be
// nil.
func (s *Server) Routes(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.AccessLog)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", apiKeyHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Get("/ws", s.ServeWsHandler)
	r.Get("/health", s.HealthCheckHandler)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Podium API is running. Docs at /swagger/index.html"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.RegisterHandler)
		r.Post("/auth/login", s.LoginHandler)
		r.Post("/auth/refresh", s.RefreshTokenHandler)
		r.Post("/auth/logout", s.LogoutHandler)
		r.Post("/contact", s.ContactHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)

			r.Get("/auth/sessions", s.ListAuthSessionsHandler)
			r.Delete("/auth/sessions/{sessionId}", s.DeleteAuthSessionHandler)
			r.Post("/auth/sessions/terminate_all", s.TerminateAllAuthSessionsHandler)

			r.Post("/interview/submit", s.SubmitAnswerHandler)
			r.Get("/interview/check-quota", s.CheckQuotaHandler)

			r.Get("/sessions", s.ListPracticeSessionsHandler)
			r.Get("/sessions/{sessionId}", s.GetPracticeSessionHandler)
			r.Delete("/sessions/{sessionId}", s.DeletePracticeSessionHandler)

			r.Get("/user/me", s.GetCurrentUserHandler)
			r.Patch("/user/me", s.UpdateProfileHandler)
			r.Put("/user/api-key", s.SetAPIKeyHandler)
			r.Delete("/user/api-key", s.ClearAPIKeyHandler)

			r.Get("/leaderboard", s.LeaderboardHandler)
			r.Get("/questions/random", s.RandomQuestionHandler)
			r.Get("/questions/filters", s.QuestionFiltersHandler)

			r.Get("/events", s.GetEventsHandler)
		})
	})

	return r
}
