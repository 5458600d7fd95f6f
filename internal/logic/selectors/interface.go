package selectors

import (
	"fmt"

	"github.com/patrickwarner/adreward/internal/models"
)

// Selector chooses the campaign that fills an ad slot. Implementations must
// return nil when no candidate is eligible, in which case the content plays
// without an ad.
type Selector interface {
	SelectCampaign(candidates []models.AdCampaign) *models.AdCampaign
}

// Source is the pseudo-random source a selector draws from. *rand.Rand
// satisfies it; tests supply a deterministic one.
type Source interface {
	Intn(n int) int
	Int63n(n int64) int64
}

// Selector names accepted by New.
const (
	KindRandom         = "random"
	KindBudgetWeighted = "budget_weighted"
)

// New builds the selector named by kind.
func New(kind string, src Source) (Selector, error) {
	switch kind {
	case "", KindRandom:
		return NewRandomSelector(src), nil
	case KindBudgetWeighted:
		return NewBudgetWeightedSelector(src), nil
	default:
		return nil, fmt.Errorf("unknown campaign selector %q", kind)
	}
}
