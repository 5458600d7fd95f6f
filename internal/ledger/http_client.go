package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickwarner/adreward/internal/models"
	"github.com/patrickwarner/adreward/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// HTTPClient talks to the ledger's JSON API.
//
// Reads are bounded by readTimeout. The reward call and other mutations
// carry no client-side deadline; they end when the caller's context does.
type HTTPClient struct {
	baseURL     string
	httpClient  *http.Client
	readTimeout time.Duration
	logger      *zap.Logger
	metrics     observability.MetricsRegistry
}

// errorResponse is the ledger's error body.
type errorResponse struct {
	Error string `json:"error"`
}

type watchResponse struct {
	Reward int64 `json:"reward"`
}

type valueResponse struct {
	Value int `json:"value"`
}

// NewHTTPClient creates a ledger client rooted at baseURL.
func NewHTTPClient(baseURL string, readTimeout time.Duration, logger *zap.Logger, metrics observability.MetricsRegistry) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		readTimeout: readTimeout,
		logger:      logger,
		metrics:     metrics,
	}
}

// GetActiveCampaigns lists campaigns currently marked active.
func (c *HTTPClient) GetActiveCampaigns(ctx context.Context) ([]models.AdCampaign, error) {
	var out []models.AdCampaign
	if err := c.read(ctx, "get_active_campaigns", "/campaigns/active", &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Status = models.ParseCampaignStatus(string(out[i].Status))
	}
	return out, nil
}

// GetCampaign fetches one campaign.
func (c *HTTPClient) GetCampaign(ctx context.Context, campaignID string) (*models.AdCampaign, error) {
	var out models.AdCampaign
	if err := c.read(ctx, "get_campaign", "/campaigns/"+url.PathEscape(campaignID), &out); err != nil {
		return nil, err
	}
	out.Status = models.ParseCampaignStatus(string(out.Status))
	return &out, nil
}

// WatchAdFromCampaign issues the reward for a completed ad view.
func (c *HTTPClient) WatchAdFromCampaign(ctx context.Context, req WatchRequest) (int64, error) {
	var out watchResponse
	path := "/campaigns/" + url.PathEscape(req.CampaignID) + "/watch"
	if err := c.do(ctx, "watch_ad", http.MethodPost, path, req.ClaimKey, req, &out); err != nil {
		return 0, err
	}
	return out.Reward, nil
}

// GetAdViewHistory returns the viewer's daily and total ad view counters.
func (c *HTTPClient) GetAdViewHistory(ctx context.Context, userID string) (models.AdViewCounters, error) {
	var out models.AdViewCounters
	err := c.read(ctx, "get_ad_view_history", "/users/"+url.PathEscape(userID)+"/ad-views", &out)
	return out, err
}

// GetMaxAdViewsPerDay returns the configured daily cap.
func (c *HTTPClient) GetMaxAdViewsPerDay(ctx context.Context) (int, error) {
	var out valueResponse
	err := c.read(ctx, "get_max_ad_views_per_day", "/config/max-ad-views-per-day", &out)
	return out.Value, err
}

// GetMaxAdsPerYoutubeSession returns the configured per-session cap.
func (c *HTTPClient) GetMaxAdsPerYoutubeSession(ctx context.Context) (int, error) {
	var out valueResponse
	err := c.read(ctx, "get_max_ads_per_youtube_session", "/config/max-ads-per-youtube-session", &out)
	return out.Value, err
}

// RecordWatch counts a completed content view.
func (c *HTTPClient) RecordWatch(ctx context.Context, userID, contentID string) error {
	body := map[string]string{"content_id": contentID}
	return c.do(ctx, "record_watch", http.MethodPost, "/users/"+url.PathEscape(userID)+"/watches", "", body, nil)
}

// GetWallet returns the viewer's wallet.
func (c *HTTPClient) GetWallet(ctx context.Context, userID string) (models.Wallet, error) {
	var out models.Wallet
	err := c.read(ctx, "get_wallet", "/users/"+url.PathEscape(userID)+"/wallet", &out)
	return out, err
}

// AddBudgetToCampaign tops up a campaign's budget by amount.
func (c *HTTPClient) AddBudgetToCampaign(ctx context.Context, campaignID string, amount int64) error {
	body := map[string]int64{"amount": amount}
	return c.do(ctx, "add_budget", http.MethodPost, "/campaigns/"+url.PathEscape(campaignID)+"/budget", "", body, nil)
}

// ApproveCampaign moves a pending campaign to active.
func (c *HTTPClient) ApproveCampaign(ctx context.Context, campaignID string) error {
	return c.do(ctx, "approve_campaign", http.MethodPost, "/campaigns/"+url.PathEscape(campaignID)+"/approve", "", nil, nil)
}

// RejectCampaign moves a pending campaign to rejected.
func (c *HTTPClient) RejectCampaign(ctx context.Context, campaignID string) error {
	return c.do(ctx, "reject_campaign", http.MethodPost, "/campaigns/"+url.PathEscape(campaignID)+"/reject", "", nil, nil)
}

// HealthCheck checks if the ledger is reachable.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	return c.read(ctx, "health", "/health", nil)
}

func (c *HTTPClient) read(ctx context.Context, op, path string, out any) error {
	if c.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.readTimeout)
		defer cancel()
	}
	return c.do(ctx, op, http.MethodGet, path, "", nil, out)
}

// do performs one request, decoding a 2xx body into out (if non-nil) and
// mapping any other response onto the error taxonomy.
func (c *HTTPClient) do(ctx context.Context, op, method, path, idempotencyKey string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordLedgerLatency(op, time.Since(start))
		c.metrics.IncrementLedgerRequests(op, requestOutcome(err))
	}()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return &CallError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &CallError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &CallError{Op: op, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &CallError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := string(raw)
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error != "" {
		msg = er.Error
	}

	if sentinel := errorFromMessage(msg); sentinel != nil {
		return sentinel
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimitExceeded
	case http.StatusPaymentRequired:
		return ErrInsufficientBudget
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &CallError{Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
}

func requestOutcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(Classify(err))
}
