package session

import (
	"time"

	"github.com/patrickwarner/adreward/internal/logic/ratelimit"
	"github.com/patrickwarner/adreward/internal/models"
)

// View is a point-in-time copy of a session for presentation.
type View struct {
	ID                  string             `json:"id"`
	UserID              string             `json:"user_id"`
	Kind                Kind               `json:"kind"`
	State               State              `json:"state"`
	Content             models.Content     `json:"content"`
	EmbedURL            string             `json:"embed_url,omitempty"` // set once the external player is revealed
	Progress            int                `json:"progress"`
	Campaign            *models.AdCampaign `json:"campaign,omitempty"`
	AdPosition          AdPosition         `json:"ad_position,omitempty"`
	AdsShown            int                `json:"ads_shown"`
	MaxSessionAds       int                `json:"max_session_ads,omitempty"`
	RemainingDailyViews int64              `json:"remaining_daily_views"`
	CanShowAd           bool               `json:"can_show_ad"`
	Earned              int64              `json:"earned"`
	LastOutcome         string             `json:"last_outcome,omitempty"`
	LastReward          int64              `json:"last_reward,omitempty"`
	Notice              string             `json:"notice,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// View returns a copy of the session's current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:                  s.id,
		UserID:              s.userID,
		Kind:                s.kind,
		State:               s.state,
		Content:             s.content,
		Progress:            s.progress,
		AdPosition:          s.position,
		AdsShown:            s.adsShown,
		RemainingDailyViews: models.RemainingDailyViews(s.counters, s.caps),
		Earned:              s.earned,
		LastOutcome:         string(s.outcome),
		LastReward:          s.reward,
		Notice:              s.notice,
		CreatedAt:           s.created,
		UpdatedAt:           s.lastActive,
	}
	maxPerSession := ratelimit.NoSessionCap
	if s.kind == KindExternal {
		v.MaxSessionAds = s.caps.MaxAdsPerYoutubeSession
		maxPerSession = s.caps.MaxAdsPerYoutubeSession
		if s.state == StateContentPlaying {
			v.EmbedURL = s.content.EmbedURL()
		}
	}
	v.CanShowAd = ratelimit.CanShowAd(s.counters.DailyViews, s.caps.MaxAdViewsPerDay, s.adsShown, maxPerSession)
	if s.campaign != nil {
		c := *s.campaign
		v.Campaign = &c
	}
	return v
}
