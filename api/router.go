package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kilianp07/raildispatch/infra/logger"
)

// NewRouter builds the API routes. metricsHandler is mounted on /metrics
// when not nil.
func NewRouter(cfg Config, h *Handler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	r.Route("/api", func(r chi.Router) {
		r.Use(bearerAuth(cfg.Token))
		r.Get("/status", h.GetStatus)
		r.Post("/requests", h.PostRequest)
		r.Get("/journal", h.GetJournal)
	})
	return r
}

// bearerAuth requires "Authorization: Bearer <token>" when token is non-empty.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Serve runs an HTTP server for handler until ctx is canceled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	log := logger.New("api")
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("API server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
