// Package api serves the caregiver graph and remote commands over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jwulff/caregiver-go/internal/logger"
	"github.com/jwulff/caregiver-go/internal/metrics"
	"github.com/jwulff/caregiver-go/internal/monitor"
	"github.com/jwulff/caregiver-go/internal/nightscout"
	"github.com/jwulff/caregiver-go/internal/storage"
)

// DefaultCommandLimit is the number of audit entries returned by default.
const DefaultCommandLimit = 20

// Refresher publishes graph snapshots.
type Refresher interface {
	Snapshot() *monitor.Snapshot
	Refresh(ctx context.Context) (*monitor.Snapshot, error)
}

// Commander sends remote commands to Loop.
type Commander interface {
	DeliverBolus(ctx context.Context, amount float64, otp int) error
	DeliverCarbs(ctx context.Context, amount int, durationHours float64, otp int) error
	StartOverride(ctx context.Context, name string, durationMinutes int) error
	FetchOverrides(ctx context.Context) (*nightscout.Overrides, error)
}

// Deps are the collaborators of a Server.
type Deps struct {
	Refresher Refresher
	Commander Commander
	Store     storage.Store // optional command audit log
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
	NewID     func() string
}

// Server is the caregiver HTTP server.
type Server struct {
	server    *http.Server
	refresher Refresher
	commander Commander
	store     storage.Store
	metrics   *metrics.Metrics
	logger    *zap.Logger
	newID     func() string
}

// NewServer creates a server listening on addr.
func NewServer(addr string, deps Deps) *Server {
	router := mux.NewRouter()

	s := &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		refresher: deps.Refresher,
		commander: deps.Commander,
		store:     deps.Store,
		metrics:   deps.Metrics,
		logger:    logger.OrNop(deps.Logger),
		newID:     deps.NewID,
	}
	if s.metrics == nil {
		s.metrics = metrics.NewUnregistered()
	}
	if s.newID == nil {
		s.newID = newCommandID
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router.Use(s.metricsMiddleware)
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/health", s.healthCheck).Methods("GET")
	router.HandleFunc("/api/v1/graph", s.getGraph).Methods("GET")
	router.HandleFunc("/api/v1/current", s.getCurrent).Methods("GET")
	router.HandleFunc("/api/v1/overrides", s.getOverrides).Methods("GET")
	router.HandleFunc("/api/v1/commands", s.getCommands).Methods("GET")
	router.HandleFunc("/api/v1/refresh", s.postRefresh).Methods("POST")
	router.HandleFunc("/api/v1/bolus", s.postBolus).Methods("POST")
	router.HandleFunc("/api/v1/carbs", s.postCarbs).Methods("POST")
	router.HandleFunc("/api/v1/override", s.postOverride).Methods("POST")

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// responseWriter records the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		s.metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("ip", r.RemoteAddr),
			zap.Int("status", rw.statusCode),
			zap.Int("response_size", rw.size),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy"}
	if snap := s.refresher.Snapshot(); snap != nil {
		t := snap.RefreshedAt
		resp.LastRefresh = &t
		resp.FromCache = snap.FromCache
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	snap := s.refresher.Snapshot()
	if snap == nil {
		s.writeError(w, http.StatusServiceUnavailable, "graph not loaded yet")
		return
	}
	s.writeJSON(w, http.StatusOK, newGraphResponse(snap))
}

func (s *Server) getCurrent(w http.ResponseWriter, r *http.Request) {
	snap := s.refresher.Snapshot()
	if snap == nil {
		s.writeError(w, http.StatusServiceUnavailable, "graph not loaded yet")
		return
	}
	if snap.Latest == nil {
		s.writeError(w, http.StatusNotFound, "no recent glucose reading")
		return
	}
	s.writeJSON(w, http.StatusOK, newReadingResponse(snap.Latest))
}

func (s *Server) postRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.refresher.Refresh(r.Context())
	if err != nil {
		s.logger.Error("Manual refresh failed", zap.Error(err))
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, newGraphResponse(snap))
}

func (s *Server) getOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := s.commander.FetchOverrides(r.Context())
	if err != nil {
		s.logger.Error("Failed to fetch overrides", zap.Error(err))
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, newOverridesResponse(overrides))
}

func (s *Server) getCommands(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusOK, []commandResponse{})
		return
	}

	limit := DefaultCommandLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.store.RecentCommands(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list commands", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list commands")
		return
	}

	resp := make([]commandResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, newCommandResponse(rec))
	}
	s.writeJSON(w, http.StatusOK, resp)
}
