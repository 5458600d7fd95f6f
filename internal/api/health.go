package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/adreward/internal/middleware"
)

// HealthHandler responds with a simple status check. When a ledger health
// checker is configured an unreachable ledger reports 503.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "health"
	const method = "GET"

	if s.Health != nil {
		if err := s.Health.HealthCheck(r.Context()); err != nil {
			middleware.LoggerFromRequest(r, s.Logger).Warn("ledger unhealthy", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "ledger": err.Error()})
			s.observe(endpoint, method, http.StatusServiceUnavailable, start)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
	s.observe(endpoint, method, http.StatusOK, start)
}
