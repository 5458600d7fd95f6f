package session

import (
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/patrickwarner/adreward/internal/analytics"
	"github.com/patrickwarner/adreward/internal/cache"
	"github.com/patrickwarner/adreward/internal/claim"
	"github.com/patrickwarner/adreward/internal/ledger"
	"github.com/patrickwarner/adreward/internal/logic/progress"
	"github.com/patrickwarner/adreward/internal/logic/ratelimit"
	"github.com/patrickwarner/adreward/internal/models"
)

// Session is one watch instance. All transitions happen under mu; ledger
// I/O is dispatched through the manager's executor after mu is released and
// its result is applied only if the session has not moved on meanwhile.
type Session struct {
	m *Manager

	mu       sync.Mutex
	id       string
	userID   string
	kind     Kind
	audience cache.Audience
	content  models.Content

	state    State
	gen      uint64 // bumped whenever pending async results become stale
	playback *progress.Playback
	playSeq  uint64 // identifies the armed playback to its callbacks
	progress int

	campaign   *models.AdCampaign
	position   AdPosition
	claimKey   string
	slotSeq    int
	adsShown   int
	caps       models.Caps
	counters   models.AdViewCounters
	notice     string
	outcome    ledger.Outcome
	reward     int64
	earned     int64
	created    time.Time
	lastActive time.Time
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// setState records a transition. Caller holds mu.
func (s *Session) setState(to State) {
	from := s.state
	s.state = to
	s.lastActive = s.m.now()
	s.m.logger.Debug("session transition",
		zap.String("session_id", s.id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
}

// event builds an analytics event from the current state. Caller holds mu.
func (s *Session) event(eventType, reason string) analytics.Event {
	ev := analytics.Event{
		Timestamp: s.m.now(),
		EventType: eventType,
		SessionID: s.id,
		UserID:    s.userID,
		ContentID: s.content.ID,
		Kind:      string(s.kind),
		State:     string(s.state),
		Reason:    reason,
		AdsShown:  s.adsShown,
	}
	if s.campaign != nil {
		ev.CampaignID = s.campaign.ID
	}
	return ev
}

// playContentLocked starts the simulated internal player.
func (s *Session) playContentLocked() {
	s.setState(StateContentPlaying)
	s.startPlaybackLocked(s.onContentComplete)
}

// startPlaybackLocked arms a fresh simulator. Callbacks carry the playback
// sequence number so that ticks from a stopped playback are dropped.
func (s *Session) startPlaybackLocked(onComplete func(seq uint64)) {
	s.progress = 0
	s.playSeq++
	seq := s.playSeq
	s.playback = progress.Start(s.m.scheduler, s.m.cfg.TickInterval, s.m.cfg.Step,
		func(p int) { s.onProgress(seq, p) },
		func() { onComplete(seq) })
}

// currentLocked reports whether seq is the armed playback.
func (s *Session) currentLocked(seq uint64) bool {
	return s.playback != nil && s.playSeq == seq
}

// revealContentLocked shows the external player. Its media clock is the
// embedded player's own, so nothing is simulated.
func (s *Session) revealContentLocked() {
	s.setState(StateContentPlaying)
	s.progress = 0
	s.playback = nil
}

func (s *Session) onProgress(seq uint64, p int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(seq) {
		return
	}
	s.progress = p
}

// onContentComplete fires once when internal content reaches 100.
func (s *Session) onContentComplete(seq uint64) {
	s.mu.Lock()
	if !s.currentLocked(seq) || s.state != StateContentPlaying {
		s.mu.Unlock()
		return
	}
	s.playback = nil
	s.progress = progress.Complete
	userID, contentID := s.userID, s.content.ID
	s.m.emit(s.event(analytics.EventContentCompleted, ""))

	var gate func()
	if s.content.IsAdSupported() {
		s.setState(StateAdPending)
		gate = s.gateTaskLocked()
	} else {
		s.setState(StateIdle)
	}
	s.mu.Unlock()

	// recorded for every completed playback; a failure never blocks the ad
	s.m.exec(func() {
		if err := s.m.ledger.RecordWatch(s.m.ctx, userID, contentID); err != nil {
			s.m.logger.Error("record watch failed",
				zap.String("session_id", s.id),
				zap.String("content_id", contentID),
				zap.Error(err))
		}
	})
	if gate != nil {
		s.m.exec(gate)
	}
}

// beginGateLocked enters AdGate for the external player and returns the
// snapshot fetch to dispatch.
func (s *Session) beginGateLocked() func() {
	s.setState(StateAdGate)
	return s.gateTaskLocked()
}

// gateTaskLocked captures the current generation and returns the task that
// fetches the ledger snapshot and decides the ad slot.
func (s *Session) gateTaskLocked() func() {
	gen := s.gen
	userID := s.userID
	return func() {
		ctx, span := s.m.tracer.Start(s.m.ctx, "session.ad_gate")
		span.SetAttributes(attribute.String("session_id", s.id))
		snap := s.m.fetchSnapshot(ctx, userID)
		span.End()
		s.decide(gen, snap)
	}
}

// decide applies the rate limit and campaign selection to a snapshot.
func (s *Session) decide(gen uint64, snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || (s.state != StateAdPending && s.state != StateAdGate) {
		return
	}
	position := PostRoll
	maxPerSession := ratelimit.NoSessionCap
	if s.state == StateAdGate {
		position = PreRoll
		maxPerSession = snap.caps.MaxAdsPerYoutubeSession
	}
	s.caps = snap.caps
	s.counters = snap.counters

	allowed, reason := ratelimit.Decide(snap.counters.DailyViews, snap.caps.MaxAdViewsPerDay, s.adsShown, maxPerSession)
	var campaign *models.AdCampaign
	if allowed {
		campaign = s.m.selector.SelectCampaign(snap.campaigns)
		if campaign == nil {
			reason = ReasonNoCampaign
		}
	}

	decision := "granted"
	if campaign == nil {
		decision = reason
	}
	s.m.metrics.IncrementAdSlots(decision)

	if campaign == nil {
		s.m.logger.Debug("ad slot refused",
			zap.String("session_id", s.id),
			zap.String("reason", reason))
		s.m.emit(s.event(analytics.EventAdSlot, reason))
		s.continueLocked(position)
		return
	}

	s.slotSeq++
	key := claim.Generate(s.id, s.userID, campaign.ID, s.content.ID, s.slotSeq, s.m.cfg.ClaimSecret)
	s.campaign = campaign
	s.position = position
	s.claimKey = key
	s.setState(StateAdPlaying)
	s.m.emit(s.event(analytics.EventAdSlot, "granted"))
	s.startPlaybackLocked(s.onAdComplete)
}

// continueLocked moves past an ad slot: the external player is revealed
// after a pre-roll, internal playback returns to Idle after a post-roll.
func (s *Session) continueLocked(position AdPosition) {
	s.campaign = nil
	s.claimKey = ""
	s.position = ""
	if position == PreRoll {
		s.revealContentLocked()
		return
	}
	s.progress = 0
	s.setState(StateIdle)
}

// onAdComplete fires once when the ad reaches 100 and dispatches the single
// reward call for it.
func (s *Session) onAdComplete(seq uint64) {
	s.mu.Lock()
	if !s.currentLocked(seq) || s.state != StateAdPlaying || s.campaign == nil {
		s.mu.Unlock()
		return
	}
	s.playback = nil
	s.progress = progress.Complete
	s.setState(StateAdSettling)
	s.m.emit(s.event(analytics.EventAdCompleted, ""))
	req := ledger.WatchRequest{
		UserID:     s.userID,
		CampaignID: s.campaign.ID,
		ContentID:  s.content.ID,
		ClaimKey:   s.claimKey,
	}
	audience := s.audience
	gen := s.gen
	s.mu.Unlock()

	s.m.exec(func() {
		ctx, span := s.m.tracer.Start(s.m.ctx, "session.reward")
		span.SetAttributes(
			attribute.String("session_id", s.id),
			attribute.String("campaign_id", req.CampaignID))
		reward, err := s.m.ledger.WatchAdFromCampaign(ctx, req)
		outcome := ledger.Classify(err)
		span.SetAttributes(attribute.String("outcome", string(outcome)))
		span.End()

		s.m.metrics.IncrementRewardCalls(string(outcome))
		var counters *models.AdViewCounters
		if outcome == ledger.OutcomeGranted {
			s.m.metrics.AddRewardAmount(reward)
			// ledger aggregates are stale whether or not the session is still open
			keys := cache.RewardInvalidation(req.UserID, req.CampaignID, audience)
			if err := s.m.invalidator.Invalidate(s.m.ctx, keys...); err != nil {
				s.m.logger.Error("cache invalidation failed",
					zap.String("session_id", s.id),
					zap.Strings("keys", cache.Strings(keys)),
					zap.Error(err))
			}
			// remaining views come from the ledger, never from a local increment
			if c, herr := s.m.ledger.GetAdViewHistory(s.m.ctx, req.UserID); herr != nil {
				s.m.logger.Warn("ad view history refresh failed",
					zap.String("session_id", s.id),
					zap.Error(herr))
			} else {
				counters = &c
			}
		}
		s.settle(gen, req, reward, err, counters)
	})
}

// settle applies a reward outcome. A closed session ignores it. counters,
// when non-nil, is the viewer's history re-read after a granted reward.
func (s *Session) settle(gen uint64, req ledger.WatchRequest, reward int64, err error, counters *models.AdViewCounters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome := ledger.Classify(err)
	fields := []zap.Field{
		zap.String("session_id", s.id),
		zap.String("user_id", req.UserID),
		zap.String("campaign_id", req.CampaignID),
		zap.String("content_id", req.ContentID),
		zap.String("outcome", string(outcome)),
		zap.Int64("reward", reward),
	}
	if s.gen != gen || s.state != StateAdSettling {
		s.m.logger.Info("reward outcome for closed session ignored", fields...)
		return
	}
	switch outcome {
	case ledger.OutcomeGranted:
		s.adsShown++
		s.earned += reward
		s.m.logger.Info("ad reward granted", fields...)
	case ledger.OutcomeFailed:
		s.m.logger.Error("reward call failed", append(fields, zap.Error(err))...)
	default:
		s.m.logger.Warn("reward refused", fields...)
	}
	if counters != nil {
		s.counters = *counters
	}
	s.outcome = outcome
	s.reward = reward
	s.notice = ledger.Notice(reward, err)
	ev := s.event(analytics.EventReward, string(outcome))
	ev.Reward = reward
	s.m.emit(ev)
	s.continueLocked(s.position)
}

// next switches the external player to another video and re-runs the gate.
func (s *Session) next(videoURL string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateClosed:
		return nil, ErrClosed
	case s.kind != KindExternal:
		return nil, ErrNotExternal
	case s.state != StateContentPlaying:
		return nil, ErrBusy
	}
	content, err := models.ExternalContent(videoURL)
	if err != nil {
		return nil, err
	}
	s.content = content
	s.notice = ""
	s.gen++
	return s.beginGateLocked(), nil
}

// close stops all timers and discards any selected campaign. A reward call
// already dispatched still completes; its outcome is ignored.
func (s *Session) close(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	from := s.state
	if s.playback != nil {
		s.playback.Stop()
		s.playback = nil
	}
	s.gen++
	s.m.metrics.IncrementCancellations(string(from))
	ev := s.event(analytics.EventSessionClosed, reason)
	s.campaign = nil
	s.claimKey = ""
	s.setState(StateClosed)
	ev.State = string(StateClosed)
	s.m.emit(ev)
	return true
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.m.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() (time.Time, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, s.state
}
