// Package ledger is the client side of the remote Reward Ledger: the
// service that owns campaign budgets, wallets and ad view counters. Only
// WatchAdFromCampaign issues rewards.
package ledger

import (
	"context"

	"github.com/patrickwarner/adreward/internal/models"
)

// WatchRequest identifies one completed ad view. ClaimKey is sent as the
// idempotency key so that a retried request cannot credit the slot twice.
type WatchRequest struct {
	UserID     string `json:"user_id"`
	CampaignID string `json:"campaign_id"`
	ContentID  string `json:"content_id"`
	ClaimKey   string `json:"-"`
}

// Ledger is the set of operations the session controller consumes.
type Ledger interface {
	GetActiveCampaigns(ctx context.Context) ([]models.AdCampaign, error)
	GetCampaign(ctx context.Context, campaignID string) (*models.AdCampaign, error)
	// WatchAdFromCampaign returns the reward amount credited to the viewer.
	WatchAdFromCampaign(ctx context.Context, req WatchRequest) (int64, error)
	GetAdViewHistory(ctx context.Context, userID string) (models.AdViewCounters, error)
	GetMaxAdViewsPerDay(ctx context.Context) (int, error)
	GetMaxAdsPerYoutubeSession(ctx context.Context) (int, error)
	RecordWatch(ctx context.Context, userID, contentID string) error
	GetWallet(ctx context.Context, userID string) (models.Wallet, error)
}

// CampaignAdmin holds the budget and review mutations used by advertiser
// and admin views.
type CampaignAdmin interface {
	AddBudgetToCampaign(ctx context.Context, campaignID string, amount int64) error
	ApproveCampaign(ctx context.Context, campaignID string) error
	RejectCampaign(ctx context.Context, campaignID string) error
}
