// Package ratelimit decides whether another ad may be shown and throttles
// session starts per user.
//
// The ad-slot policy is a pure function of the viewer's daily counter, the
// session-scoped counter and the configured caps. It performs no I/O and
// never mutates counters: the daily counter is advanced only by the Reward
// Ledger after a successful reward call, and the session counter only by the
// session controller after the same event.
package ratelimit

import "github.com/patrickwarner/adreward/internal/models"

// NoSessionCap disables the per-session check. Internal playback is not
// session capped; only the embedded external player is.
const NoSessionCap = -1

// Reasons returned by Decide when a slot is refused.
const (
	ReasonAllowed       = ""
	ReasonDailyCapped   = "daily_cap_reached"
	ReasonSessionCapped = "session_cap_reached"
)

// CanShowAd reports whether another ad view is permitted. It returns false
// when dailyViews >= maxDaily, or when maxPerSession is not NoSessionCap and
// sessionAdsShown >= maxPerSession.
func CanShowAd(dailyViews int64, maxDaily int, sessionAdsShown, maxPerSession int) bool {
	ok, _ := Decide(dailyViews, maxDaily, sessionAdsShown, maxPerSession)
	return ok
}

// Decide performs the same check as CanShowAd and also returns a short
// reason when the slot is refused. The daily cap is checked first.
func Decide(dailyViews int64, maxDaily int, sessionAdsShown, maxPerSession int) (bool, string) {
	if dailyViews >= int64(maxDaily) {
		return false, ReasonDailyCapped
	}
	if maxPerSession != NoSessionCap && sessionAdsShown >= maxPerSession {
		return false, ReasonSessionCapped
	}
	return true, ReasonAllowed
}

// ResolveCaps substitutes the fallback defaults for any cap that could not
// be read from the ledger. A nil pointer means "unavailable".
func ResolveCaps(maxDaily, maxPerSession *int) models.Caps {
	return ResolveCapsWithFallback(maxDaily, maxPerSession, models.DefaultCaps())
}

// ResolveCapsWithFallback is ResolveCaps with operator-configured fallbacks.
func ResolveCapsWithFallback(maxDaily, maxPerSession *int, fallback models.Caps) models.Caps {
	caps := fallback
	if maxDaily != nil {
		caps.MaxAdViewsPerDay = *maxDaily
	}
	if maxPerSession != nil {
		caps.MaxAdsPerYoutubeSession = *maxPerSession
	}
	return caps
}
