package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/askadoc/askadoc/internal/api"
	"github.com/askadoc/askadoc/internal/api/handlers"
	"github.com/askadoc/askadoc/internal/api/middleware"
)

type RouterConfig struct {
	AuthValidator   middleware.AuthValidator
	ChatHandler     *handlers.ChatHandler
	DocumentHandler *handlers.DocumentHandler
	SessionHandler  *handlers.SessionHandler
	AuthHandler     *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// uploads carry whole documents, so the body cap is generous
	const maxBodyBytes int64 = 32 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Post("/chat", cfg.ChatHandler.Ask)
		r.Get("/history", cfg.ChatHandler.History)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Upload)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{filename}/download", cfg.DocumentHandler.Download)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/new", cfg.SessionHandler.StartNew)
			r.Get("/archives", cfg.SessionHandler.ListArchives)
			r.Get("/archives/{index}", cfg.SessionHandler.GetArchive)
		})
	})

	r.Post("/users", cfg.AuthHandler.CreateUser)
	r.Post("/apikeys", cfg.AuthHandler.CreateAPIKey)

	return r
}
