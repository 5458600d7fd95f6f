package ledger

import (
	"context"

	"github.com/patrickwarner/adreward/internal/cache"
	"github.com/patrickwarner/adreward/internal/models"
	"go.uber.org/zap"
)

// Cached is a read-through cache in front of a Ledger. Reads are served
// from the store until the owning key is invalidated or expires. The reward
// call is passed through untouched: the caller invalidates
// cache.RewardInvalidation for the viewer once it succeeds. Budget and
// review mutations invalidate their own keys.
//
// The active campaign list is cached by membership only. Each campaign's
// budget, spend and views are read through its campaign key so a reward
// against one campaign refreshes that campaign alone.
type Cached struct {
	inner  Ledger
	admin  CampaignAdmin
	store  cache.Store
	logger *zap.Logger
}

// NewCached wraps inner. admin may be nil when budget mutations are not
// offered.
func NewCached(inner Ledger, admin CampaignAdmin, store cache.Store, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{inner: inner, admin: admin, store: store, logger: logger}
}

// readThrough loads key into dst, calling fetch and storing its result on a
// miss. Store failures degrade to a direct fetch.
func readThrough[T any](ctx context.Context, c *Cached, key cache.Key, fetch func(context.Context) (T, error)) (T, error) {
	var v T
	found, err := c.store.Get(ctx, key, &v)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", string(key)), zap.Error(err))
	}
	if found {
		return v, nil
	}
	v, err = fetch(ctx)
	if err != nil {
		return v, err
	}
	if err := c.store.Set(ctx, key, v); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", string(key)), zap.Error(err))
	}
	return v, nil
}

// GetActiveCampaigns returns the active campaigns with fresh aggregates.
func (c *Cached) GetActiveCampaigns(ctx context.Context) ([]models.AdCampaign, error) {
	var list []models.AdCampaign
	found, err := c.store.Get(ctx, cache.KeyActiveCampaigns, &list)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", string(cache.KeyActiveCampaigns)), zap.Error(err))
	}
	if !found {
		list, err = c.inner.GetActiveCampaigns(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(ctx, cache.KeyActiveCampaigns, list); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", string(cache.KeyActiveCampaigns)), zap.Error(err))
		}
		for i := range list {
			if err := c.store.Set(ctx, cache.CampaignKey(list[i].ID), list[i]); err != nil {
				c.logger.Warn("cache write failed", zap.String("campaign_id", list[i].ID), zap.Error(err))
			}
		}
		return list, nil
	}

	out := make([]models.AdCampaign, 0, len(list))
	for _, entry := range list {
		fresh, err := c.GetCampaign(ctx, entry.ID)
		if err != nil {
			// a campaign that cannot be refreshed is left out of this round
			c.logger.Warn("refresh campaign", zap.String("campaign_id", entry.ID), zap.Error(err))
			continue
		}
		out = append(out, *fresh)
	}
	return out, nil
}

// GetCampaign returns one campaign through its campaign key.
func (c *Cached) GetCampaign(ctx context.Context, campaignID string) (*models.AdCampaign, error) {
	camp, err := readThrough(ctx, c, cache.CampaignKey(campaignID), func(ctx context.Context) (models.AdCampaign, error) {
		p, err := c.inner.GetCampaign(ctx, campaignID)
		if err != nil {
			return models.AdCampaign{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	return &camp, nil
}

// WatchAdFromCampaign is not cached.
func (c *Cached) WatchAdFromCampaign(ctx context.Context, req WatchRequest) (int64, error) {
	return c.inner.WatchAdFromCampaign(ctx, req)
}

// GetAdViewHistory reads the viewer's counters through adViewHistory:<user>.
func (c *Cached) GetAdViewHistory(ctx context.Context, userID string) (models.AdViewCounters, error) {
	return readThrough(ctx, c, cache.AdViewHistoryKey(userID), func(ctx context.Context) (models.AdViewCounters, error) {
		return c.inner.GetAdViewHistory(ctx, userID)
	})
}

// GetMaxAdViewsPerDay reads the daily cap through caps:maxAdViewsPerDay.
func (c *Cached) GetMaxAdViewsPerDay(ctx context.Context) (int, error) {
	return readThrough(ctx, c, cache.CapsKey("maxAdViewsPerDay"), c.inner.GetMaxAdViewsPerDay)
}

// GetMaxAdsPerYoutubeSession reads the session cap through
// caps:maxAdsPerYoutubeSession.
func (c *Cached) GetMaxAdsPerYoutubeSession(ctx context.Context) (int, error) {
	return readThrough(ctx, c, cache.CapsKey("maxAdsPerYoutubeSession"), c.inner.GetMaxAdsPerYoutubeSession)
}

// RecordWatch is not cached.
func (c *Cached) RecordWatch(ctx context.Context, userID, contentID string) error {
	return c.inner.RecordWatch(ctx, userID, contentID)
}

// GetWallet reads the wallet through wallet:<user>.
func (c *Cached) GetWallet(ctx context.Context, userID string) (models.Wallet, error) {
	return readThrough(ctx, c, cache.WalletKey(userID), func(ctx context.Context) (models.Wallet, error) {
		return c.inner.GetWallet(ctx, userID)
	})
}

// AddBudgetToCampaign tops up a campaign and invalidates its keys.
func (c *Cached) AddBudgetToCampaign(ctx context.Context, campaignID string, amount int64) error {
	if c.admin == nil {
		return ErrAdminUnavailable
	}
	if err := c.admin.AddBudgetToCampaign(ctx, campaignID, amount); err != nil {
		return err
	}
	return c.store.Invalidate(ctx, cache.AddBudgetInvalidation(campaignID)...)
}

// ApproveCampaign approves a campaign and invalidates its keys.
func (c *Cached) ApproveCampaign(ctx context.Context, campaignID string) error {
	if c.admin == nil {
		return ErrAdminUnavailable
	}
	if err := c.admin.ApproveCampaign(ctx, campaignID); err != nil {
		return err
	}
	return c.store.Invalidate(ctx, cache.ApproveInvalidation(campaignID)...)
}

// RejectCampaign rejects a campaign and invalidates its keys.
func (c *Cached) RejectCampaign(ctx context.Context, campaignID string) error {
	if c.admin == nil {
		return ErrAdminUnavailable
	}
	if err := c.admin.RejectCampaign(ctx, campaignID); err != nil {
		return err
	}
	return c.store.Invalidate(ctx, cache.RejectInvalidation(campaignID)...)
}

// Invalidate drops keys from the underlying store.
func (c *Cached) Invalidate(ctx context.Context, keys ...cache.Key) error {
	return c.store.Invalidate(ctx, keys...)
}
