package session

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/patrickwarner/adreward/internal/logic/ratelimit"
	"github.com/patrickwarner/adreward/internal/models"
)

// snapshot is the ledger state an ad slot decision is made against.
type snapshot struct {
	counters  models.AdViewCounters
	caps      models.Caps
	campaigns []models.AdCampaign
}

// fetchSnapshot reads counters, caps and candidate campaigns in parallel.
// Each read falls back independently: zero daily views, the configured
// default caps, no campaigns. A fetch never fails as a whole.
func (m *Manager) fetchSnapshot(ctx context.Context, userID string) snapshot {
	var (
		snap          snapshot
		maxDaily      *int
		maxPerSession *int
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counters, err := m.ledger.GetAdViewHistory(gctx, userID)
		if err != nil {
			m.logger.Warn("ad view history unavailable, assuming zero", zap.String("user_id", userID), zap.Error(err))
			return nil
		}
		snap.counters = counters
		return nil
	})
	g.Go(func() error {
		v, err := m.ledger.GetMaxAdViewsPerDay(gctx)
		if err != nil {
			m.logger.Warn("daily cap unavailable, using default", zap.Error(err))
			return nil
		}
		maxDaily = &v
		return nil
	})
	g.Go(func() error {
		v, err := m.ledger.GetMaxAdsPerYoutubeSession(gctx)
		if err != nil {
			m.logger.Warn("session cap unavailable, using default", zap.Error(err))
			return nil
		}
		maxPerSession = &v
		return nil
	})
	g.Go(func() error {
		campaigns, err := m.ledger.GetActiveCampaigns(gctx)
		if err != nil {
			m.logger.Warn("active campaigns unavailable, skipping ad", zap.Error(err))
			return nil
		}
		snap.campaigns = campaigns
		return nil
	})
	_ = g.Wait()

	snap.caps = ratelimit.ResolveCapsWithFallback(maxDaily, maxPerSession, m.cfg.DefaultCaps)
	return snap
}
