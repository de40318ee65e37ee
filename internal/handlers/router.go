package handlers

import (
	"net/http"

	"syncdeck/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Tasks     TaskHandler
	Users     UserHandler
	Teams     TeamHandler
	Analytics AnalyticsHandler
	Auth      AuthHandler

	Authenticator middleware.Authenticator
	// Uploads раздаёт сохранённые файлы подтверждений по префиксу UploadsPrefix
	Uploads       http.Handler
	UploadsPrefix string

	Environment string
	CORSOrigins []string
	RateLimit   int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(cfg.RateLimit))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		responseWithJSON(w, http.StatusOK,
			toPayload("status", "healthy"),
			toPayload("environment", cfg.Environment))
	})
	r.Get("/health/db", cfg.Tasks.HealthCheck)

	r.Post("/token", cfg.Auth.Login)
	if cfg.Uploads != nil {
		prefix := cfg.UploadsPrefix
		if prefix == "" {
			prefix = "/uploads"
		}
		r.Handle(prefix+"/*", cfg.Uploads)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Authenticator))

		r.Post("/auth/mfa/setup", cfg.Auth.SetupMFA)
		r.Post("/auth/mfa/enable", cfg.Auth.EnableMFA)

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", cfg.Users.Me)
			r.Get("/", cfg.Users.ListUsers)
			r.Post("/", cfg.Users.PostUser)

			r.Route("/deletion-requests", func(r chi.Router) {
				r.Post("/", cfg.Users.PostDeletionRequest)
				r.Get("/", cfg.Users.ListDeletionRequests)
				r.Post("/{id}/review", cfg.Users.ReviewDeletionRequest)
			})

			r.Put("/{id}", cfg.Users.UpdateUser)
			r.Delete("/{id}", cfg.Users.DeleteUser)
			r.Get("/{id}/achievement-stats", cfg.Analytics.AchievementStats)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", cfg.Teams.ListTeams)
			r.Post("/", cfg.Teams.PostTeam)
			r.Delete("/{id}", cfg.Teams.DeleteTeam)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", cfg.Tasks.ListTasks)
			r.Post("/", cfg.Tasks.PostTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Tasks.GetTaskByID)
				r.Put("/", cfg.Tasks.UpdateTaskByID)
				r.Delete("/", cfg.Tasks.DeleteTaskByID)

				r.Post("/update", cfg.Tasks.UpdateProgress)
				r.Post("/approve", cfg.Tasks.Approve)
				r.Post("/help-request", cfg.Tasks.RequestHelp)
				r.Post("/mark-viewed", cfg.Tasks.MarkViewed)
				r.Post("/evidence", cfg.Tasks.UploadEvidence)
				r.Get("/timeline", cfg.Tasks.Timeline)

				r.Get("/comments", cfg.Tasks.ListComments)
				r.Get("/comments/", cfg.Tasks.ListComments)
				r.Post("/comments", cfg.Tasks.PostComment)
				r.Post("/comments/", cfg.Tasks.PostComment)
				r.Put("/comments/{commentID}", cfg.Tasks.EditComment)
				r.Delete("/comments/{commentID}", cfg.Tasks.DeleteComment)
			})
		})

		r.Get("/analytics", cfg.Analytics.Overview)
		r.Get("/analytics/", cfg.Analytics.Overview)
		r.Get("/achievements/{id}", cfg.Analytics.Achievements)
		r.Get("/achievements/{id}/export", cfg.Analytics.ExportAchievements)
	})

	return otelhttp.NewHandler(r, "syncdeck")
}
