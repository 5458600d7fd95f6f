package selectors

import (
	"math"
	"math/rand"
	"sync"
	"time"

	filters "github.com/patrickwarner/adreward/internal/logic/filters"
	"github.com/patrickwarner/adreward/internal/models"
)

// BudgetWeightedSelector picks an eligible campaign with probability
// proportional to its remaining budget, so campaigns close to exhaustion are
// drawn less often and lose fewer budget races.
type BudgetWeightedSelector struct {
	mu  sync.Mutex // guards src
	src Source
}

// NewBudgetWeightedSelector returns a BudgetWeightedSelector drawing from
// src. A nil src uses a time-seeded generator.
func NewBudgetWeightedSelector(src Source) *BudgetWeightedSelector {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &BudgetWeightedSelector{src: src}
}

// SelectCampaign returns a copy of one eligible campaign, or nil.
func (s *BudgetWeightedSelector) SelectCampaign(candidates []models.AdCampaign) *models.AdCampaign {
	eligible := filters.FilterEligible(candidates)
	if len(eligible) == 0 {
		return nil
	}
	var total int64
	for _, c := range eligible {
		// saturate; Int63n panics on a non-positive bound
		if c.Budget > math.MaxInt64-total {
			total = math.MaxInt64
			break
		}
		total += c.Budget
	}
	s.mu.Lock()
	pick := s.src.Int63n(total)
	s.mu.Unlock()
	for i := range eligible {
		if pick < eligible[i].Budget {
			c := eligible[i]
			return &c
		}
		pick -= eligible[i].Budget
	}
	// reached only when the total saturated
	c := eligible[len(eligible)-1]
	return &c
}
