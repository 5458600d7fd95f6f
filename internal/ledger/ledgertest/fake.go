// Package ledgertest provides an in-memory Reward Ledger for tests. It
// applies a successful reward atomically: the campaign's budget, spend and
// views, the viewer's wallet and the viewer's counters change together
// under one lock.
package ledgertest

import (
	"context"
	"sort"
	"sync"

	"github.com/patrickwarner/adreward/internal/ledger"
	"github.com/patrickwarner/adreward/internal/models"
)

// Fake implements ledger.Ledger and ledger.CampaignAdmin.
type Fake struct {
	mu        sync.Mutex
	campaigns map[string]*models.AdCampaign
	counters  map[string]*models.AdViewCounters
	wallets   map[string]*models.Wallet
	claims    map[string]int64
	caps      models.Caps

	watchCalls []ledger.WatchRequest
	recorded   []Watch
	readCalls  map[string]int
	failures   map[string]error
	watchHook  func(ledger.WatchRequest)
}

// Watch is one RecordWatch call.
type Watch struct {
	UserID    string
	ContentID string
}

// Operation names accepted by Fail.
const (
	OpGetActiveCampaigns         = "GetActiveCampaigns"
	OpGetCampaign                = "GetCampaign"
	OpWatchAdFromCampaign        = "WatchAdFromCampaign"
	OpGetAdViewHistory           = "GetAdViewHistory"
	OpGetMaxAdViewsPerDay        = "GetMaxAdViewsPerDay"
	OpGetMaxAdsPerYoutubeSession = "GetMaxAdsPerYoutubeSession"
	OpRecordWatch                = "RecordWatch"
	OpGetWallet                  = "GetWallet"
)

// New returns an empty ledger using the default caps.
func New() *Fake {
	return &Fake{
		campaigns: make(map[string]*models.AdCampaign),
		counters:  make(map[string]*models.AdViewCounters),
		wallets:   make(map[string]*models.Wallet),
		claims:    make(map[string]int64),
		caps:      models.DefaultCaps(),
		readCalls: make(map[string]int),
		failures:  make(map[string]error),
	}
}

// AddCampaign stores a copy of c, replacing any campaign with the same id.
func (f *Fake) AddCampaign(c models.AdCampaign) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.TargetTags = append([]string(nil), c.TargetTags...)
	f.campaigns[c.ID] = &c
	return f
}

// SetCaps sets both caps.
func (f *Fake) SetCaps(maxDaily, maxPerSession int) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.caps = models.Caps{MaxAdViewsPerDay: maxDaily, MaxAdsPerYoutubeSession: maxPerSession}
	return f
}

// SetDailyViews sets a viewer's daily counter.
func (f *Fake) SetDailyViews(userID string, n int64) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countersLocked(userID).DailyViews = n
	return f
}

// Fail makes op return err until cleared with a nil err.
func (f *Fake) Fail(op string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
	} else {
		f.failures[op] = err
	}
	return f
}

// OnWatch registers a hook run before each reward call is applied, outside
// the lock. Tests use it to interleave a competing viewer.
func (f *Fake) OnWatch(hook func(ledger.WatchRequest)) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchHook = hook
	return f
}

// Campaign returns a copy of the stored campaign.
func (f *Fake) Campaign(id string) (models.AdCampaign, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return models.AdCampaign{}, false
	}
	return *c, true
}

// WatchCalls returns every reward call received, in order.
func (f *Fake) WatchCalls() []ledger.WatchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ledger.WatchRequest(nil), f.watchCalls...)
}

// RecordedWatches returns every RecordWatch call received, in order.
func (f *Fake) RecordedWatches() []Watch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Watch(nil), f.recorded...)
}

// ReadCalls returns how many times op was called.
func (f *Fake) ReadCalls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readCalls[op]
}

func (f *Fake) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls[op]++
	return f.failures[op]
}

func (f *Fake) countersLocked(userID string) *models.AdViewCounters {
	c, ok := f.counters[userID]
	if !ok {
		c = &models.AdViewCounters{}
		f.counters[userID] = c
	}
	return c
}

func (f *Fake) walletLocked(userID string) *models.Wallet {
	w, ok := f.wallets[userID]
	if !ok {
		w = &models.Wallet{}
		f.wallets[userID] = w
	}
	return w
}

// GetActiveCampaigns returns campaigns with status active, ordered by id.
func (f *Fake) GetActiveCampaigns(context.Context) ([]models.AdCampaign, error) {
	if err := f.enter(OpGetActiveCampaigns); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AdCampaign
	for _, c := range f.campaigns {
		if c.Status == models.StatusActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetCampaign returns one campaign.
func (f *Fake) GetCampaign(_ context.Context, id string) (*models.AdCampaign, error) {
	if err := f.enter(OpGetCampaign); err != nil {
		return nil, err
	}
	c, ok := f.Campaign(id)
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &c, nil
}

// WatchAdFromCampaign applies the reward. A repeated claim key returns the
// first result without charging again.
func (f *Fake) WatchAdFromCampaign(_ context.Context, req ledger.WatchRequest) (int64, error) {
	if err := f.enter(OpWatchAdFromCampaign); err != nil {
		f.mu.Lock()
		f.watchCalls = append(f.watchCalls, req)
		f.mu.Unlock()
		return 0, err
	}
	f.mu.Lock()
	f.watchCalls = append(f.watchCalls, req)
	hook := f.watchHook
	f.mu.Unlock()
	if hook != nil {
		hook(req)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if req.ClaimKey != "" {
		if reward, ok := f.claims[req.ClaimKey]; ok {
			return reward, nil
		}
	}
	counters := f.countersLocked(req.UserID)
	if counters.DailyViews >= int64(f.caps.MaxAdViewsPerDay) {
		return 0, ledger.ErrRateLimitExceeded
	}
	c, ok := f.campaigns[req.CampaignID]
	if !ok {
		return 0, ledger.ErrNotFound
	}
	if c.Status != models.StatusActive || c.Budget < c.PayoutPerView || c.Budget <= 0 {
		return 0, ledger.ErrInsufficientBudget
	}

	reward := c.PayoutPerView
	c.Budget -= reward
	c.Spend += reward
	c.Views++
	if c.Budget == 0 {
		c.Status = models.StatusCompleted
	}
	w := f.walletLocked(req.UserID)
	w.Balance += reward
	w.AdEarnings += reward
	counters.DailyViews++
	counters.TotalViews++
	if req.ClaimKey != "" {
		f.claims[req.ClaimKey] = reward
	}
	return reward, nil
}

// GetAdViewHistory returns the viewer's counters.
func (f *Fake) GetAdViewHistory(_ context.Context, userID string) (models.AdViewCounters, error) {
	if err := f.enter(OpGetAdViewHistory); err != nil {
		return models.AdViewCounters{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.countersLocked(userID), nil
}

// GetMaxAdViewsPerDay returns the daily cap.
func (f *Fake) GetMaxAdViewsPerDay(context.Context) (int, error) {
	if err := f.enter(OpGetMaxAdViewsPerDay); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caps.MaxAdViewsPerDay, nil
}

// GetMaxAdsPerYoutubeSession returns the session cap.
func (f *Fake) GetMaxAdsPerYoutubeSession(context.Context) (int, error) {
	if err := f.enter(OpGetMaxAdsPerYoutubeSession); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caps.MaxAdsPerYoutubeSession, nil
}

// RecordWatch logs a completed content view.
func (f *Fake) RecordWatch(_ context.Context, userID, contentID string) error {
	if err := f.enter(OpRecordWatch); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, Watch{UserID: userID, ContentID: contentID})
	return nil
}

// GetWallet returns the viewer's wallet.
func (f *Fake) GetWallet(_ context.Context, userID string) (models.Wallet, error) {
	if err := f.enter(OpGetWallet); err != nil {
		return models.Wallet{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.walletLocked(userID), nil
}

// AddBudgetToCampaign tops up a campaign; a completed campaign becomes active.
func (f *Fake) AddBudgetToCampaign(_ context.Context, id string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return ledger.ErrNotFound
	}
	c.Budget += amount
	if c.Status == models.StatusCompleted && c.Budget > 0 {
		c.Status = models.StatusActive
	}
	return nil
}

// ApproveCampaign marks a campaign active.
func (f *Fake) ApproveCampaign(_ context.Context, id string) error {
	return f.setStatus(id, models.StatusActive)
}

// RejectCampaign marks a campaign rejected.
func (f *Fake) RejectCampaign(_ context.Context, id string) error {
	return f.setStatus(id, models.StatusRejected)
}

func (f *Fake) setStatus(id string, status models.CampaignStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return ledger.ErrNotFound
	}
	c.Status = status
	return nil
}

var (
	_ ledger.Ledger        = (*Fake)(nil)
	_ ledger.CampaignAdmin = (*Fake)(nil)
)
