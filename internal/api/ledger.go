package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/adreward/internal/ledger"
	"github.com/patrickwarner/adreward/internal/middleware"
)

type addBudgetRequest struct {
	Amount int64 `json:"amount"`
}

// ledgerStatus maps a ledger error onto an HTTP status.
func ledgerStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAdminUnavailable):
		return http.StatusNotImplemented
	default:
		return http.StatusBadGateway
	}
}

// WalletHandler handles GET /users/{id}/wallet.
func (s *Server) WalletHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "wallet"
	const method = "GET"

	userID := mux.Vars(r)["id"]
	wallet, err := s.Ledger.GetWallet(r.Context(), userID)
	if err != nil {
		status := ledgerStatus(err)
		middleware.LoggerFromRequest(r, s.Logger).Error("get wallet", zap.String("user_id", userID), zap.Error(err))
		s.observe(endpoint, method, status, start)
		http.Error(w, "wallet unavailable", status)
		return
	}
	s.observe(endpoint, method, http.StatusOK, start)
	writeJSON(w, http.StatusOK, wallet)
}

// AddBudgetHandler handles POST /campaigns/{id}/budget.
func (s *Server) AddBudgetHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "campaign_budget"
	const method = "POST"

	var req addBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		s.observe(endpoint, method, http.StatusBadRequest, start)
		http.Error(w, "positive amount required", http.StatusBadRequest)
		return
	}
	s.campaignMutation(w, r, endpoint, start, func(id string) error {
		return s.Admin.AddBudgetToCampaign(r.Context(), id, req.Amount)
	})
}

// ApproveCampaignHandler handles POST /campaigns/{id}/approve.
func (s *Server) ApproveCampaignHandler(w http.ResponseWriter, r *http.Request) {
	s.campaignMutation(w, r, "campaign_approve", time.Now(), func(id string) error {
		return s.Admin.ApproveCampaign(r.Context(), id)
	})
}

// RejectCampaignHandler handles POST /campaigns/{id}/reject.
func (s *Server) RejectCampaignHandler(w http.ResponseWriter, r *http.Request) {
	s.campaignMutation(w, r, "campaign_reject", time.Now(), func(id string) error {
		return s.Admin.RejectCampaign(r.Context(), id)
	})
}

func (s *Server) campaignMutation(w http.ResponseWriter, r *http.Request, endpoint string, start time.Time, apply func(id string) error) {
	const method = "POST"
	id := mux.Vars(r)["id"]
	var err error
	if s.Admin == nil {
		err = ledger.ErrAdminUnavailable
	} else {
		err = apply(id)
	}
	if err != nil {
		status := ledgerStatus(err)
		middleware.LoggerFromRequest(r, s.Logger).Error("campaign mutation failed",
			zap.String("endpoint", endpoint),
			zap.String("campaign_id", id),
			zap.Error(err))
		s.observe(endpoint, method, status, start)
		http.Error(w, err.Error(), status)
		return
	}
	s.observe(endpoint, method, http.StatusNoContent, start)
	w.WriteHeader(http.StatusNoContent)
}
