package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/boxforum/boxforum/backend/internal/setup"
	"github.com/boxforum/boxforum/shared/domain"
	"github.com/boxforum/boxforum/shared/logger"
	mw "github.com/boxforum/boxforum/shared/middleware"
	"github.com/boxforum/boxforum/shared/middleware/metrics"
	rl "github.com/boxforum/boxforum/shared/middleware/ratelimiter"
)

// Limits are the write-rate buckets, keyed per user (or IP for anonymous
// callers that reach a limited route).
type Limits struct {
	Threads  *rl.Limiter
	Comments *rl.Limiter
	Votes    *rl.Limiter
}

func DefaultLimits() Limits {
	return Limits{
		Threads:  rl.PerMinute(5),
		Comments: rl.PerSecond(1),
		Votes:    rl.PerSecond(10),
	}
}

func (l Limits) Stop() {
	l.Threads.Stop()
	l.Comments.Stop()
	l.Votes.Stop()
}

// New creates the chi router with all the routes.
func New(deps *setup.Dependencies, limits Limits) *chi.Mux {
	r := chi.NewRouter()
	cfg := deps.Config.Public

	r.Use(metrics.Middleware)
	r.Use(mw.RequestLogger(logger.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeadersWithCSP(cfg.SecureCookies, mw.APIContentSecurityPolicy))

	h := deps.Handler
	auth := deps.Auth

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	if deps.MediaRoot != "" {
		prefix := cfg.MediaBaseURL
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(deps.MediaRoot))))
	}

	r.Route("/v1", func(r chi.Router) {
		// Reads are open to anonymous viewers; a valid token only changes
		// the per-viewer fields.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth())
			r.Get("/boxes", h.ListBoxes)
			r.Get("/boxes/{box}", h.GetBox)
			r.Get("/threads/{thread}", h.GetThread)
			r.Get("/threads/{thread}/permissions", h.ThreadPermissions)
			r.Get("/users/{user}/posts", h.GetUserPosts)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.AdminOnly())
			r.Post("/boxes", h.CreateBox)
			r.Delete("/boxes/{box}", h.DeleteBox)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.NeedAuth())

			r.Patch("/boxes/{box}/name", h.RenameBox)
			r.Patch("/boxes/{box}/description", h.UpdateBoxDescription)
			r.Post("/boxes/{box}/moderators", h.AddBoxMember(domain.BoxModerators))
			r.Delete("/boxes/{box}/moderators/{user}", h.RemoveBoxMember(domain.BoxModerators))
			r.Post("/boxes/{box}/banned", h.AddBoxMember(domain.BoxBanned))
			r.Delete("/boxes/{box}/banned/{user}", h.RemoveBoxMember(domain.BoxBanned))

			r.With(mw.RateLimit(limits.Threads, mw.UserOrIP)).Post("/boxes/{box}/threads", h.CreateThread)
			r.Put("/threads/{thread}", h.UpdateThread)
			r.Delete("/threads/{thread}", h.DeleteThread)

			r.With(mw.RateLimit(limits.Comments, mw.UserOrIP)).Post("/threads/{thread}/comments", h.CreateComment)
			r.Put("/comments/{comment}", h.UpdateComment)
			r.Delete("/comments/{comment}", h.DeleteComment)

			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimit(limits.Votes, mw.UserOrIP))
				r.Post("/threads/{thread}/upvote", h.Vote(domain.TargetThread, "thread", domain.IntentUp))
				r.Post("/threads/{thread}/downvote", h.Vote(domain.TargetThread, "thread", domain.IntentDown))
				r.Post("/comments/{comment}/upvote", h.Vote(domain.TargetComment, "comment", domain.IntentUp))
				r.Post("/comments/{comment}/downvote", h.Vote(domain.TargetComment, "comment", domain.IntentDown))
			})
		})
	})

	return r
}
