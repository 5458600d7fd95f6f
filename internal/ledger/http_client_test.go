package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/patrickwarner/adreward/internal/models"
	"github.com/patrickwarner/adreward/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL, time.Second, zap.NewNop(), observability.NewNoOpRegistry())
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("Failed to encode response: %v", err)
	}
}

func TestHTTPClient_WatchAdFromCampaign(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaigns/camp-1/watch" {
			t.Errorf("Expected path /campaigns/camp-1/watch, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "claim-1" {
			t.Errorf("Expected idempotency key claim-1, got %q", got)
		}
		var req WatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if req.UserID != "u1" || req.ContentID != "youtube_abc" {
			t.Errorf("unexpected request body %+v", req)
		}
		writeJSON(t, w, http.StatusOK, map[string]int64{"reward": 25_000_000})
	})

	reward, err := client.WatchAdFromCampaign(context.Background(), WatchRequest{
		UserID: "u1", CampaignID: "camp-1", ContentID: "youtube_abc", ClaimKey: "claim-1",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 25_000_000, reward)
}

func TestHTTPClient_WatchErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		want    Outcome
		wantErr error
	}{
		{"limit message", http.StatusBadRequest, map[string]string{"error": "Daily limit exceeded"}, OutcomeRateLimited, ErrRateLimitExceeded},
		{"429", http.StatusTooManyRequests, map[string]string{}, OutcomeRateLimited, ErrRateLimitExceeded},
		{"budget message", http.StatusConflict, map[string]string{"error": "insufficient budget"}, OutcomeInsufficientBudget, ErrInsufficientBudget},
		{"402", http.StatusPaymentRequired, map[string]string{}, OutcomeInsufficientBudget, ErrInsufficientBudget},
		{"server error", http.StatusInternalServerError, map[string]string{"error": "db down"}, OutcomeFailed, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tt.status, tt.body)
			})
			reward, err := client.WatchAdFromCampaign(context.Background(), WatchRequest{CampaignID: "c"})
			require.Error(t, err)
			assert.Zero(t, reward)
			assert.Equal(t, tt.want, Classify(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var ce *CallError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tt.status, ce.Status)
				assert.Contains(t, err.Error(), "db down")
			}
		})
	}
}

func TestHTTPClient_TransportFailure(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1", time.Second, zap.NewNop(), nil)
	_, err := client.WatchAdFromCampaign(context.Background(), WatchRequest{CampaignID: "c"})
	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Zero(t, ce.Status)
	assert.Equal(t, OutcomeFailed, Classify(err))
}

func TestHTTPClient_Reads(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET method, got %s", r.Method)
		}
		switch r.URL.Path {
		case "/campaigns/active":
			writeJSON(t, w, http.StatusOK, []models.AdCampaign{{ID: "c1", Status: models.StatusActive, Budget: 10, PayoutPerView: 1}})
		case "/campaigns/c1":
			writeJSON(t, w, http.StatusOK, map[string]any{"id": "c1", "budget": 9, "status": "paused"})
		case "/users/u1/ad-views":
			writeJSON(t, w, http.StatusOK, models.AdViewCounters{DailyViews: 4, TotalViews: 40})
		case "/config/max-ad-views-per-day":
			writeJSON(t, w, http.StatusOK, map[string]int{"value": 25})
		case "/config/max-ads-per-youtube-session":
			writeJSON(t, w, http.StatusOK, map[string]int{"value": 2})
		case "/users/u1/wallet":
			writeJSON(t, w, http.StatusOK, models.Wallet{Balance: 7, AdEarnings: 5})
		default:
			writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "no route"})
		}
	})
	ctx := context.Background()

	campaigns, err := client.GetActiveCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, models.StatusActive, campaigns[0].Status)

	c, err := client.GetCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 9, c.Budget)
	assert.Equal(t, models.StatusDraft, c.Status, "unknown status is never servable")

	counters, err := client.GetAdViewHistory(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, counters.DailyViews)

	maxDaily, err := client.GetMaxAdViewsPerDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, maxDaily)

	maxSession, err := client.GetMaxAdsPerYoutubeSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, maxSession)

	wallet, err := client.GetWallet(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 7, wallet.Balance)

	_, err = client.GetCampaign(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClient_ReadTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewHTTPClient(server.URL, 20*time.Millisecond, zap.NewNop(), nil)
	_, err := client.GetMaxAdViewsPerDay(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPClient_Mutations(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/users/u1/watches" {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["content_id"] != "v1" {
				t.Errorf("unexpected record body %v", body)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()
	require.NoError(t, client.RecordWatch(ctx, "u1", "v1"))
	require.NoError(t, client.AddBudgetToCampaign(ctx, "c1", 100))
	require.NoError(t, client.ApproveCampaign(ctx, "c1"))
	require.NoError(t, client.RejectCampaign(ctx, "c2"))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"POST /users/u1/watches",
		"POST /campaigns/c1/budget",
		"POST /campaigns/c1/approve",
		"POST /campaigns/c2/reject",
	}, paths)
}
