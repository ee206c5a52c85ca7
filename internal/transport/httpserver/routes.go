package httpserver

import (
	"net/http"
	"time"

	"timebank-go/internal/config"
	"timebank-go/internal/transport/httpserver/feed"
	"timebank-go/internal/transport/httpserver/handler"
	authmw "timebank-go/internal/transport/httpserver/middleware"
	"timebank-go/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, hub *feed.Hub, profiles authmw.ProfileSaver, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSAllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Common.AuthMe)

			r.Get("/profile", handlers.Profiles.Get)
			r.Patch("/profile", handlers.Profiles.Update)

			r.Get("/offers", handlers.Offers.Explore)
			r.Get("/offers/mine", handlers.Offers.Mine)
			r.Post("/offers", handlers.Offers.Create)
			r.Get("/offers/{id}", handlers.Offers.Get)
			r.Patch("/offers/{id}", handlers.Offers.Update)
			r.Delete("/offers/{id}", handlers.Offers.Delete)

			r.Post("/offers/{id}/applications", handlers.Offers.Apply)
			r.Get("/offers/{id}/applications", handlers.Offers.ListApplications)
			r.Get("/offers/{id}/applications/me", handlers.Offers.MyApplication)
			r.Get("/applications/mine", handlers.Offers.ListMyApplications)
			r.Patch("/applications/{id}", handlers.Offers.UpdateApplicationStatus)

			r.Post("/offers/{id}/complete", handlers.Settlement.Complete)
			r.Get("/balance", handlers.Settlement.GetBalance)
			r.Get("/transactions", handlers.Settlement.ListTransactions)
			r.Get("/stats", handlers.Settlement.Stats)

			if cfg.Feed.Enabled && hub != nil {
				r.Get("/events", hub.ServeHTTP)
			}
		})
	})

	return r
}
