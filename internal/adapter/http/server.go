package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/couchcryptid/asset-rating-service/internal/domain"
	"github.com/couchcryptid/asset-rating-service/internal/observability"
	"github.com/couchcryptid/asset-rating-service/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Rater validates and rates a single asset record.
type Rater interface {
	Rate(rec domain.AssetRecord) (domain.Condition, error)
}

// BatchRater rates an uploaded CSV file.
type BatchRater interface {
	Run(ctx context.Context, upload io.Reader) (pipeline.Result, error)
}

// OutputFiles opens generated output files for download.
type OutputFiles interface {
	OpenOutput(name string) (*os.File, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AllowedOrigin  string
	MaxUploadBytes int64
}

// Services are the collaborators the handlers call.
type Services struct {
	Rater   Rater
	Batch   BatchRater
	Files   OutputFiles
	Ready   ReadinessChecker
	Metrics *observability.Metrics
}

// Server exposes the rating API plus health, readiness and metrics endpoints.
type Server struct {
	httpServer     *http.Server
	svc            Services
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(opts Options, svc Services, logger *slog.Logger) *Server {
	s := &Server{
		svc:            svc,
		maxUploadBytes: opts.MaxUploadBytes,
		logger:         logger,
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(opts.AllowedOrigin),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(allowedOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/health", s.handleHealth)
	r.Get("/readyz", handleReady(s.svc.Ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/assets", func(api chi.Router) {
		api.Route("/rate", func(rr chi.Router) {
			for _, route := range assetRoutes {
				rr.Post("/"+route.slug, s.handleRate(route.assetType))
			}
			rr.Post("/csv", s.handleRateCSV)
		})
		api.Get("/download/{filename}", s.handleDownload)
	})

	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// requestLogger logs one line per request once the response is written.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
