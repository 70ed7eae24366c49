// Package server assembles the HTTP router: middleware, CORS and the
// mounted feature handlers.
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"go_todo/internal/config"
	"go_todo/internal/httpjson"
	"go_todo/internal/logging"
)

// Registrar is implemented by feature handlers that add their own routes.
type Registrar interface {
	Register(r chi.Router)
}

func NewRouter(cfg config.Config, logger *log.Logger, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logging.Std(logger),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(CORSOptions(cfg.AllowedOrigins)))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpjson.Write(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func CORSOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           int((24 * time.Hour).Seconds()),
	}
}

func New(cfg config.Config, handler http.Handler, logger *log.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     logging.Std(logger),
	}
}
