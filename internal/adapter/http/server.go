package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Sarks0/deepsix-ephemeris-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EphemerisProvider fetches a composed ephemeris record for a token.
type EphemerisProvider interface {
	GetEphemeris(ctx context.Context, token string, w domain.QueryWindow) (domain.EphemerisRecord, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the ephemeris API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	provider   EphemerisProvider
	ready      ReadinessChecker
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/ephemeris/{token}, /healthz,
// /readyz, and /metrics routes. ready may be nil when no background publisher
// runs; the service is then always ready.
func NewServer(addr string, provider EphemerisProvider, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		provider: provider,
		ready:    ready,
		logger:   logger,
	}

	mux.HandleFunc("GET /api/ephemeris/{token}", s.handleEphemeris)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

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

func (s *Server) handleEphemeris(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	window, err := parseWindowParams(r.URL.Query().Get("start"), r.URL.Query().Get("stop"), r.URL.Query().Get("step"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	record, err := s.provider.GetEphemeris(r.Context(), token, window)
	var upstreamErr *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrUnknownObject):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "unknown object: " + token,
			"hint":  "known short codes: " + strings.Join(domain.KnownShortCodes(), ", "),
		})
	case errors.Is(err, domain.ErrNoData):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no ephemeris data for the requested window",
			"hint":  "try a different time window",
		})
	case errors.As(err, &upstreamErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":           "upstream query error",
			"upstream_status": upstreamErr.StatusCode,
			"message":         upstreamErr.Message,
		})
	case err != nil:
		s.logger.Error("ephemeris request failed", "token", token, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	default:
		writeJSON(w, http.StatusOK, record)
	}
}

// parseWindowParams builds a QueryWindow from optional query parameters.
// Times accept RFC 3339 or a bare date; zero fields fall back to the
// service defaults.
func parseWindowParams(start, stop, step string) (domain.QueryWindow, error) {
	var w domain.QueryWindow
	var err error

	if start != "" {
		if w.Start, err = parseTimeParam(start); err != nil {
			return domain.QueryWindow{}, errors.New("invalid start: want RFC 3339 or YYYY-MM-DD")
		}
	}
	if stop != "" {
		if w.Stop, err = parseTimeParam(stop); err != nil {
			return domain.QueryWindow{}, errors.New("invalid stop: want RFC 3339 or YYYY-MM-DD")
		}
	}
	if !w.Start.IsZero() && !w.Stop.IsZero() && !w.Stop.After(w.Start) {
		return domain.QueryWindow{}, errors.New("stop must be after start")
	}
	w.Step = step
	return w, nil
}

func parseTimeParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ready.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
