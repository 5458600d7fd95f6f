package models

// Fallback caps used when the ledger's configuration cannot be read. They
// only avoid needless reward calls; the ledger still enforces its own limits.
const (
	DefaultMaxAdViewsPerDay        = 20
	DefaultMaxAdsPerYoutubeSession = 3
)

// AdViewCounters are the per-user view counters held by the ledger. The
// client never increments them itself.
type AdViewCounters struct {
	DailyViews int64 `json:"daily_views"` // Resets at the ledger's day boundary.
	TotalViews int64 `json:"total_views"`
}

// Caps groups the two independently configured view limits.
type Caps struct {
	MaxAdViewsPerDay        int `json:"max_ad_views_per_day"`
	MaxAdsPerYoutubeSession int `json:"max_ads_per_youtube_session"`
}

// DefaultCaps returns the fallback caps.
func DefaultCaps() Caps {
	return Caps{
		MaxAdViewsPerDay:        DefaultMaxAdViewsPerDay,
		MaxAdsPerYoutubeSession: DefaultMaxAdsPerYoutubeSession,
	}
}

// RemainingDailyViews returns max(0, maxDaily - dailyViews).
func RemainingDailyViews(counters AdViewCounters, caps Caps) int64 {
	rem := int64(caps.MaxAdViewsPerDay) - counters.DailyViews
	if rem < 0 {
		return 0
	}
	return rem
}

// Wallet is the viewer's balance as reported by the ledger.
type Wallet struct {
	Balance    int64 `json:"balance"`
	AdEarnings int64 `json:"ad_earnings"`
}
