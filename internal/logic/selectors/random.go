// Package selectors picks the advertiser campaign charged for an ad slot.
package selectors

import (
	"math/rand"
	"sync"
	"time"

	filters "github.com/patrickwarner/adreward/internal/logic/filters"
	"github.com/patrickwarner/adreward/internal/models"
)

// RandomSelector picks uniformly among eligible campaigns. Budget, payout
// and target tags carry no weight.
type RandomSelector struct {
	mu  sync.Mutex // guards src
	src Source
}

// NewRandomSelector returns a RandomSelector drawing from src. A nil src
// uses a time-seeded generator.
func NewRandomSelector(src Source) *RandomSelector {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomSelector{src: src}
}

// SelectCampaign returns a copy of one eligible campaign, or nil.
func (s *RandomSelector) SelectCampaign(candidates []models.AdCampaign) *models.AdCampaign {
	eligible := filters.FilterEligible(candidates)
	if len(eligible) == 0 {
		return nil
	}
	s.mu.Lock()
	i := s.src.Intn(len(eligible))
	s.mu.Unlock()
	c := eligible[i]
	return &c
}
