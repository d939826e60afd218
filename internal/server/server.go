// Package server exposes the query service over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

// Querier answers a single question.
type Querier interface {
	Query(ctx context.Context, query string) (*models.QueryResponse, error)
}

type Server struct {
	rag    Querier
	config *config.ServerConfig
	server *http.Server
}

func NewServer(rag Querier, cfg *config.ServerConfig) *Server {
	s := &Server{rag: rag, config: cfg}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the router. Every response carries
// Access-Control-Allow-Origin: *.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(allowAnyOrigin)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	r.Post("/", s.handleQuery)
	r.Options("/", s.handlePreflight)
	r.Get("/healthz", s.handleHealth)

	return otelhttp.NewHandler(r, "query-service")
}

// Start starts the HTTP server and blocks until it stops. After Stop it
// returns http.ErrServerClosed, even if Stop ran first.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("Starting query service")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func allowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}
