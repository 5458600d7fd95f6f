package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/patrickwarner/adreward/internal/analytics"
	"github.com/patrickwarner/adreward/internal/cache"
	"github.com/patrickwarner/adreward/internal/ledger"
	"github.com/patrickwarner/adreward/internal/logic/progress"
	"github.com/patrickwarner/adreward/internal/logic/selectors"
	"github.com/patrickwarner/adreward/internal/models"
	"github.com/patrickwarner/adreward/internal/observability"
)

// Config holds session timing and policy settings.
type Config struct {
	TickInterval time.Duration
	Step         int
	DefaultCaps  models.Caps
	ClaimSecret  []byte
	IdleTTL      time.Duration
}

// DefaultConfig returns 2-point ticks every 100ms and the fallback caps.
func DefaultConfig() Config {
	return Config{
		TickInterval: 100 * time.Millisecond,
		Step:         progress.DefaultStep,
		DefaultCaps:  models.DefaultCaps(),
		IdleTTL:      30 * time.Minute,
	}
}

// Deps are the collaborators a Manager drives. Ledger, Selector and
// Content are required; the rest default to no-op or real-time
// implementations.
type Deps struct {
	Ledger      ledger.Ledger
	Selector    selectors.Selector
	Content     models.ContentStore
	Invalidator cache.Invalidator
	Scheduler   progress.Scheduler
	Executor    Executor
	Analytics   analytics.AnalyticsService
	Metrics     observability.MetricsRegistry
	Logger      *zap.Logger
	Tracer      trace.Tracer
	Now         func() time.Time
}

// Manager owns the live sessions.
type Manager struct {
	cfg         Config
	ledger      ledger.Ledger
	selector    selectors.Selector
	content     models.ContentStore
	invalidator cache.Invalidator
	scheduler   progress.Scheduler
	exec        Executor
	analytics   analytics.AnalyticsService
	metrics     observability.MetricsRegistry
	logger      *zap.Logger
	tracer      trace.Tracer
	now         func() time.Time
	ctx         context.Context

	mu       sync.RWMutex
	sessions map[string]*Session
}

// StartRequest describes a new session. Exactly one of ContentID and
// VideoURL is used; VideoURL selects the external player.
type StartRequest struct {
	UserID    string
	ContentID string
	VideoURL  string
	Audience  cache.Audience
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, ...cache.Key) error { return nil }

// NewManager creates a session manager.
func NewManager(cfg Config, deps Deps) *Manager {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}
	if cfg.Step <= 0 {
		cfg.Step = progress.DefaultStep
	}
	if cfg.DefaultCaps == (models.Caps{}) {
		cfg.DefaultCaps = models.DefaultCaps()
	}
	m := &Manager{
		cfg:         cfg,
		ledger:      deps.Ledger,
		selector:    deps.Selector,
		content:     deps.Content,
		invalidator: deps.Invalidator,
		scheduler:   deps.Scheduler,
		exec:        deps.Executor,
		analytics:   deps.Analytics,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		tracer:      deps.Tracer,
		now:         deps.Now,
		ctx:         context.Background(),
		sessions:    make(map[string]*Session),
	}
	if m.selector == nil {
		m.selector = selectors.NewRandomSelector(nil)
	}
	if m.content == nil {
		m.content = models.NewInMemoryContentStore()
	}
	if m.invalidator == nil {
		m.invalidator = noopInvalidator{}
	}
	if m.scheduler == nil {
		m.scheduler = progress.NewTickerScheduler()
	}
	if m.exec == nil {
		m.exec = GoExecutor
	}
	if m.metrics == nil {
		m.metrics = observability.NewNoOpRegistry()
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.tracer == nil {
		m.tracer = noop.NewTracerProvider().Tracer("session")
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func (m *Manager) emit(ev analytics.Event) {
	if m.analytics == nil {
		return
	}
	m.exec(func() {
		if err := m.analytics.RecordEvent(m.ctx, ev); err != nil && !errors.Is(err, analytics.ErrUnavailable) {
			m.logger.Warn("record session event", zap.String("event_type", ev.EventType), zap.Error(err))
		}
	})
}

// Start creates a session and begins playback. Internal content starts
// playing at once; external content passes through the ad gate first.
func (m *Manager) Start(ctx context.Context, req StartRequest) (View, error) {
	if req.UserID == "" {
		return View{}, ErrMissingUser
	}
	var (
		content models.Content
		kind    Kind
	)
	if req.VideoURL != "" {
		c, err := models.ExternalContent(req.VideoURL)
		if err != nil {
			return View{}, err
		}
		content, kind = c, KindExternal
	} else {
		c := m.content.GetContent(req.ContentID)
		if c == nil {
			return View{}, ErrContentNotFound
		}
		content, kind = *c, KindInternal
		if c.IsExternal() {
			// catalog YouTube items report the same content id as pasted URLs
			ext, err := models.ExternalContent(c.ExternalURL)
			if err != nil {
				return View{}, err
			}
			ext.Title = c.Title
			ext.Description = c.Description
			ext.Monetization = c.Monetization
			content, kind = ext, KindExternal
		}
	}

	now := m.now()
	s := &Session{
		m:          m,
		id:         uuid.NewString(),
		userID:     req.UserID,
		kind:       kind,
		audience:   req.Audience,
		content:    content,
		state:      StateIdle,
		caps:       m.cfg.DefaultCaps,
		created:    now,
		lastActive: now,
	}
	if s.audience == "" {
		s.audience = cache.AudienceViewer
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	active := len(m.sessions)
	m.mu.Unlock()
	m.metrics.IncrementSessions(string(kind))
	m.metrics.SetActiveSessions(active)

	m.logger.Info("session started",
		zap.String("session_id", s.id),
		zap.String("user_id", s.userID),
		zap.String("content_id", content.ID),
		zap.String("kind", string(kind)))

	s.mu.Lock()
	m.emit(s.event(analytics.EventSessionStarted, ""))
	var gate func()
	if kind == KindExternal {
		gate = s.beginGateLocked()
	} else {
		s.playContentLocked()
	}
	s.mu.Unlock()
	if gate != nil {
		m.exec(gate)
	}
	return s.View(), nil
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Get returns the current view of a session and marks it active.
func (m *Manager) Get(id string) (View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	s.touch()
	return s.View(), nil
}

// Next moves an external session to another video, keeping its session ad
// counter.
func (m *Manager) Next(ctx context.Context, id, videoURL string) (View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	gate, err := s.next(videoURL)
	if err != nil {
		return View{}, err
	}
	m.exec(gate)
	return s.View(), nil
}

// Cancel closes a session and forgets it.
func (m *Manager) Cancel(id string) error {
	return m.remove(id, "cancelled")
}

func (m *Manager) remove(id, reason string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	active := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.metrics.SetActiveSessions(active)
	if s.close(reason) {
		m.logger.Info("session closed", zap.String("session_id", id), zap.String("reason", reason))
	}
	return nil
}

// Reap closes sessions idle for longer than the configured TTL and returns
// how many were closed.
func (m *Manager) Reap() int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.IdleTTL)
	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		last, state := s.idleSince()
		// an ad awaiting its reward outcome is never reaped
		if state == StateAdSettling {
			continue
		}
		if last.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, id := range stale {
		if m.remove(id, "idle") == nil {
			n++
		}
	}
	return n
}

// RunReaper calls Reap every interval until ctx is done.
func (m *Manager) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Reap(); n > 0 {
				m.logger.Info("reaped idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Active returns the number of live sessions.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every live session.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		_ = m.remove(id, "shutdown")
	}
}
