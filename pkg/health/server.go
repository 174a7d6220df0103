package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/speedrun-hq/liberator/pkg/circuitbreaker"
	"github.com/speedrun-hq/liberator/pkg/clusters"
	"github.com/speedrun-hq/liberator/pkg/logger"
	"github.com/speedrun-hq/liberator/pkg/models"
	"github.com/speedrun-hq/liberator/pkg/report"
)

// Migrator is the part of the migrator the server drives
type Migrator interface {
	Start(ctx context.Context) (models.Snapshot, error)
	Current() models.Snapshot
	Running() bool
}

// Server represents the health, status and control HTTP server
type Server struct {
	port        string
	apiKey      string
	migrator    Migrator
	breaker     *circuitbreaker.CircuitBreaker
	cluster     clusters.Cluster
	destination string
	logger      logger.Logger

	// runCtx is the parent of runs started over HTTP, so they outlive the request
	runCtx context.Context
	busy   atomic.Bool
}

// NewServer creates a new server
func NewServer(port, apiKey string, migrator Migrator, breaker *circuitbreaker.CircuitBreaker, cluster clusters.Cluster, destination string, log logger.Logger) *Server {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Server{
		port:        port,
		apiKey:      apiKey,
		migrator:    migrator,
		breaker:     breaker,
		cluster:     cluster,
		destination: destination,
		logger:      log,
		runCtx:      context.Background(),
	}
}

// authMiddleware checks for a valid API key
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if no API key is configured
		if s.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		if parts[1] != s.apiKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Not ready while the RPC circuit is open
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if s.breaker != nil && s.breaker.IsOpen() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("RPC circuit breaker is open"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ready"))
	})

	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/migrate", s.authMiddleware(http.HandlerFunc(s.handleMigrate)))

	mux.Handle("/circuit/reset", s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if s.breaker == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("No circuit breaker configured"))
			return
		}
		s.breaker.Reset()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("RPC circuit breaker reset"))
	})))

	// Expose Prometheus metrics with API key authentication
	mux.Handle("/metrics", s.authMiddleware(promhttp.Handler()))

	return mux
}

// statusResponse is the body of /status
type statusResponse struct {
	Running bool                  `json:"running"`
	Run     report.Report         `json:"run"`
	Circuit *circuitbreaker.State `json:"circuit,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	response := statusResponse{
		Running: s.migrator.Running(),
		Run:     report.Build(s.migrator.Current(), s.cluster, "", s.destination),
	}
	if s.breaker != nil {
		state := s.breaker.State()
		response.Circuit = &state
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Error encoding status JSON: %v", err)
	}
}

// handleMigrate starts a run in the background and answers immediately
func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.migrator.Running() || !s.busy.CompareAndSwap(false, true) {
		http.Error(w, "A migration is already in progress.", http.StatusConflict)
		return
	}

	go func() {
		defer s.busy.Store(false)
		snapshot, err := s.migrator.Start(s.runCtx)
		if err != nil {
			s.logger.Error("Migration %s ended: %v", snapshot.ID, err)
			return
		}
		s.logger.Notice("Migration %s finished: %s", snapshot.ID, snapshot.Message)
	}()

	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("Migration started"))
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.runCtx = ctx
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Health server shutdown error: %v", err)
		}
	}()

	s.logger.Notice("Starting health and metrics server on port %s", s.port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
