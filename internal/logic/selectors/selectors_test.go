package selectors

import (
	"math"
	"math/rand"
	"testing"

	"github.com/patrickwarner/adreward/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource always returns the configured index, clamped to n-1.
type fixedSource struct{ i int64 }

func (f fixedSource) Intn(n int) int {
	if int(f.i) >= n {
		return n - 1
	}
	return int(f.i)
}

func (f fixedSource) Int63n(n int64) int64 {
	if f.i >= n {
		return n - 1
	}
	return f.i
}

func mixedCandidates() []models.AdCampaign {
	return []models.AdCampaign{
		{ID: "draft", Status: models.StatusDraft, Budget: 100},
		{ID: "a", Status: models.StatusActive, Budget: 10},
		{ID: "empty", Status: models.StatusActive, Budget: 0},
		{ID: "b", Status: models.StatusActive, Budget: 30},
		{ID: "rejected", Status: models.StatusRejected, Budget: 100},
	}
}

func TestRandomSelector_NoEligible(t *testing.T) {
	sel := NewRandomSelector(rand.New(rand.NewSource(1)))
	assert.Nil(t, sel.SelectCampaign(nil))
	assert.Nil(t, sel.SelectCampaign([]models.AdCampaign{
		{ID: "x", Status: models.StatusActive, Budget: 0},
		{ID: "y", Status: models.StatusPendingReview, Budget: 5},
		{ID: "z", Status: models.StatusCompleted, Budget: 5},
	}))
}

func TestRandomSelector_DeterministicSource(t *testing.T) {
	candidates := mixedCandidates()

	got := NewRandomSelector(fixedSource{i: 0}).SelectCampaign(candidates)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)

	got = NewRandomSelector(fixedSource{i: 1}).SelectCampaign(candidates)
	require.NotNil(t, got)
	assert.Equal(t, "b", got.ID)
}

func TestRandomSelector_AlwaysReturnsEligibleMember(t *testing.T) {
	sel := NewRandomSelector(rand.New(rand.NewSource(42)))
	candidates := mixedCandidates()
	seen := map[string]int{}
	for i := 0; i < 2000; i++ {
		c := sel.SelectCampaign(candidates)
		require.NotNil(t, c)
		require.True(t, c.IsEligible(), "selected ineligible campaign %s", c.ID)
		seen[c.ID]++
	}
	assert.Len(t, seen, 2)
	// uniform: each of the two eligible campaigns lands near half
	assert.InDelta(t, 1000, seen["a"], 150)
	assert.InDelta(t, 1000, seen["b"], 150)
}

func TestRandomSelector_ReturnsCopy(t *testing.T) {
	candidates := []models.AdCampaign{{ID: "a", Status: models.StatusActive, Budget: 10}}
	c := NewRandomSelector(fixedSource{}).SelectCampaign(candidates)
	require.NotNil(t, c)
	c.Budget = 0
	assert.EqualValues(t, 10, candidates[0].Budget)
}

func TestBudgetWeightedSelector(t *testing.T) {
	candidates := mixedCandidates() // eligible: a (10), b (30)

	// picks in [0,10) land on a, [10,40) on b
	got := NewBudgetWeightedSelector(fixedSource{i: 9}).SelectCampaign(candidates)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)

	got = NewBudgetWeightedSelector(fixedSource{i: 10}).SelectCampaign(candidates)
	require.NotNil(t, got)
	assert.Equal(t, "b", got.ID)

	assert.Nil(t, NewBudgetWeightedSelector(fixedSource{}).SelectCampaign(nil))
}

func TestBudgetWeightedSelector_HugeBudgetsDoNotOverflow(t *testing.T) {
	candidates := []models.AdCampaign{
		{ID: "a", Status: models.StatusActive, Budget: math.MaxInt64},
		{ID: "b", Status: models.StatusActive, Budget: math.MaxInt64},
	}
	for _, src := range []Source{fixedSource{i: 0}, fixedSource{i: math.MaxInt64}, rand.New(rand.NewSource(3))} {
		var got *models.AdCampaign
		require.NotPanics(t, func() { got = NewBudgetWeightedSelector(src).SelectCampaign(candidates) })
		require.NotNil(t, got)
		assert.Contains(t, []string{"a", "b"}, got.ID)
	}
}

func TestBudgetWeightedSelector_Distribution(t *testing.T) {
	sel := NewBudgetWeightedSelector(rand.New(rand.NewSource(7)))
	candidates := mixedCandidates()
	seen := map[string]int{}
	for i := 0; i < 4000; i++ {
		c := sel.SelectCampaign(candidates)
		require.NotNil(t, c)
		seen[c.ID]++
	}
	assert.InDelta(t, 1000, seen["a"], 150)
	assert.InDelta(t, 3000, seen["b"], 150)
}

func TestNew(t *testing.T) {
	s, err := New("", nil)
	require.NoError(t, err)
	assert.IsType(t, &RandomSelector{}, s)

	s, err = New(KindBudgetWeighted, nil)
	require.NoError(t, err)
	assert.IsType(t, &BudgetWeightedSelector{}, s)

	_, err = New("ctr", nil)
	assert.Error(t, err)
}
