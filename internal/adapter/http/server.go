package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/ride-height-service/internal/domain"
	"github.com/couchcryptid/ride-height-service/internal/snapshot"
)

// SnapshotReader serves the current snapshot and height queries.
type SnapshotReader interface {
	Snapshot() (domain.Snapshot, error)
	Height(heightCM int) (domain.HeightCategoryBucket, error)
}

// RefreshTrigger schedules refresh cycles without waiting for them.
type RefreshTrigger interface {
	TriggerScrape() bool
	TriggerLive() bool
}

// Server exposes the snapshot API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotReader
	refresh    RefreshTrigger
	logger     *slog.Logger
}

// NewServer creates the HTTP server. When refresh is nil the refresh
// endpoints are not registered.
func NewServer(addr string, ready sharedobs.ReadinessChecker, snapshots SnapshotReader, refresh RefreshTrigger, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      securityHeaders(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		refresh:   refresh,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/data", s.handleData)
	mux.HandleFunc("GET /api/height/{height}", s.handleHeight)
	if refresh != nil {
		mux.HandleFunc("POST /api/refresh/scrape", s.handleRefresh("scrape", refresh.TriggerScrape))
		mux.HandleFunc("POST /api/refresh/live", s.handleRefresh("live", refresh.TriggerLive))
	}

	return s
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

func (s *Server) handleData(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type heightResponse struct {
	HeightCM int `json:"height_cm"`
	domain.HeightCategoryBucket
}

func (s *Server) handleHeight(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.Atoi(r.PathValue("height"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "height must be an integer number of centimeters"})
		return
	}
	bucket, err := s.snapshots.Height(height)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, heightResponse{HeightCM: height, HeightCategoryBucket: bucket})
}

func (s *Server) handleRefresh(cycle string, trigger func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		status := "queued"
		if !trigger() {
			status = "already queued"
		}
		s.logger.Info("refresh requested", "cycle", cycle, "status", status)
		writeJSON(w, http.StatusAccepted, map[string]string{"cycle": cycle, "status": status})
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrHeightOutOfRange):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, snapshot.ErrNoSnapshot):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// securityHeaders sets the response headers every API reply carries.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
