package ratelimit

import (
	"testing"

	"github.com/patrickwarner/adreward/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCanShowAd(t *testing.T) {
	tests := []struct {
		name          string
		dailyViews    int64
		maxDaily      int
		sessionAds    int
		maxPerSession int
		want          bool
		reason        string
	}{
		{"fresh user", 0, 20, 0, 3, true, ReasonAllowed},
		{"one below daily cap", 19, 20, 0, 3, true, ReasonAllowed},
		{"daily cap reached", 20, 20, 0, 3, false, ReasonDailyCapped},
		{"daily cap exceeded", 25, 20, 0, 3, false, ReasonDailyCapped},
		{"session cap reached", 5, 20, 3, 3, false, ReasonSessionCapped},
		{"both caps reached reports daily", 20, 20, 3, 3, false, ReasonDailyCapped},
		{"no session cap", 5, 20, 99, NoSessionCap, true, ReasonAllowed},
		{"zero session cap", 0, 20, 0, 0, false, ReasonSessionCapped},
		{"zero daily cap", 0, 0, 0, 3, false, ReasonDailyCapped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanShowAd(tt.dailyViews, tt.maxDaily, tt.sessionAds, tt.maxPerSession))
			ok, reason := Decide(tt.dailyViews, tt.maxDaily, tt.sessionAds, tt.maxPerSession)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestCanShowAd_DailyCapDominates(t *testing.T) {
	for maxDaily := 0; maxDaily <= 25; maxDaily++ {
		for extra := int64(0); extra < 3; extra++ {
			for session := 0; session <= 5; session++ {
				daily := int64(maxDaily) + extra
				assert.False(t, CanShowAd(daily, maxDaily, session, 3),
					"daily=%d max=%d session=%d", daily, maxDaily, session)
			}
		}
	}
}

func TestCanShowAd_SessionCapDominates(t *testing.T) {
	for maxPerSession := 0; maxPerSession <= 5; maxPerSession++ {
		for session := maxPerSession; session <= maxPerSession+3; session++ {
			for daily := int64(0); daily <= 30; daily++ {
				assert.False(t, CanShowAd(daily, 20, session, maxPerSession),
					"daily=%d session=%d max=%d", daily, session, maxPerSession)
			}
		}
	}
}

func TestResolveCaps(t *testing.T) {
	caps := ResolveCaps(nil, nil)
	assert.Equal(t, 20, caps.MaxAdViewsPerDay)
	assert.Equal(t, 3, caps.MaxAdsPerYoutubeSession)

	daily, perSession := 50, 1
	caps = ResolveCaps(&daily, &perSession)
	assert.Equal(t, 50, caps.MaxAdViewsPerDay)
	assert.Equal(t, 1, caps.MaxAdsPerYoutubeSession)

	caps = ResolveCapsWithFallback(nil, &perSession, models.Caps{MaxAdViewsPerDay: 10, MaxAdsPerYoutubeSession: 5})
	assert.Equal(t, 10, caps.MaxAdViewsPerDay)
	assert.Equal(t, 1, caps.MaxAdsPerYoutubeSession)
}
