package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/patrickwarner/adreward/internal/db"
	"github.com/patrickwarner/adreward/internal/ledger"
	"github.com/patrickwarner/adreward/internal/logic/ratelimit"
	"github.com/patrickwarner/adreward/internal/middleware"
	"github.com/patrickwarner/adreward/internal/models"
	"github.com/patrickwarner/adreward/internal/observability"
	"github.com/patrickwarner/adreward/internal/session"
)

var tracer = otel.Tracer("adreward")

// HealthChecker reports whether a collaborator is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger   *zap.Logger
	Sessions *session.Manager
	Ledger   ledger.Ledger
	Admin    ledger.CampaignAdmin // nil disables the campaign admin routes
	Catalog  db.CatalogSource
	Content  models.ContentStore
	Limiter  *ratelimit.StartLimiter
	Health   HealthChecker
	Metrics  observability.MetricsRegistry
	reloadMu sync.Mutex
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, sessions *session.Manager, l ledger.Ledger, admin ledger.CampaignAdmin, catalog db.CatalogSource, content models.ContentStore, limiter *ratelimit.StartLimiter, metrics observability.MetricsRegistry) *Server {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Server{
		Logger:   logger,
		Sessions: sessions,
		Ledger:   l,
		Admin:    admin,
		Catalog:  catalog,
		Content:  content,
		Limiter:  limiter,
		Metrics:  metrics,
	}
}

// Router registers every route on a new gorilla/mux router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(s.Logger))

	r.HandleFunc("/sessions", s.StartSessionHandler).Methods("POST")
	r.HandleFunc("/sessions/{id}", s.GetSessionHandler).Methods("GET")
	r.HandleFunc("/sessions/{id}", s.CancelSessionHandler).Methods("DELETE")
	r.HandleFunc("/sessions/{id}/next", s.NextVideoHandler).Methods("POST")

	r.HandleFunc("/users/{id}/wallet", s.WalletHandler).Methods("GET")

	r.HandleFunc("/campaigns/{id}/budget", s.AddBudgetHandler).Methods("POST")
	r.HandleFunc("/campaigns/{id}/approve", s.ApproveCampaignHandler).Methods("POST")
	r.HandleFunc("/campaigns/{id}/reject", s.RejectCampaignHandler).Methods("POST")

	r.HandleFunc("/health", s.HealthHandler).Methods("GET")
	r.HandleFunc("/reload", s.ReloadHandler).Methods("POST")
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Reload replaces the content catalog snapshot from the catalog source.
func (s *Server) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.Catalog == nil || s.Content == nil {
		return fmt.Errorf("catalog unavailable")
	}
	loaded, skipped, err := db.ReloadCatalog(ctx, s.Catalog, s.Content)
	if err != nil {
		return err
	}
	s.Logger.Info("catalog reloaded", zap.Int("loaded", loaded), zap.Int("skipped", skipped))
	return nil
}

// helper function to write JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// observe records the request counter and latency for one response.
func (s *Server) observe(endpoint, method string, status int, start time.Time) {
	s.Metrics.IncrementRequests(endpoint, method, fmt.Sprint(status))
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
