// Package api - REST-интерфейс форума поверх chi.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/UkralStul/forum-service/internal/dataloader"
	"github.com/UkralStul/forum-service/internal/service"
	"github.com/UkralStul/forum-service/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

type Deps struct {
	Service *service.Service
	// Authors - источник для лоадеров запроса (обычно кэш поверх хранилища).
	Authors storage.AuthorSource
	Feed    Feed
	Logger  *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return dataloader.Middleware(d.Authors, next)
	})

	var stream *StreamHandler
	if d.Feed != nil {
		stream = NewStreamHandler(d.Service, d.Feed, log)
	}

	r.Get("/", banner)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Mount("/users", NewUserHandler(d.Service).Routes())
		r.Mount("/topics", NewTopicHandler(d.Service, stream).Routes())
		r.Mount("/posts", NewPostHandler(d.Service).Routes())
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, envelope{Success: false, Message: "Route not found"})
	})
	return r
}

func banner(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"message": "Forum API",
		"version": version,
		"endpoints": map[string]string{
			"users":  "/api/users",
			"topics": "/api/topics",
			"posts":  "/api/posts",
		},
	})
}

// requestLogger пишет одну строку на запрос.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.InfoContext(r.Context(), "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
