package filters

import (
	"testing"

	"github.com/patrickwarner/adreward/internal/models"
)

func TestFilterEligible(t *testing.T) {
	candidates := []models.AdCampaign{
		{ID: "a", Status: models.StatusActive, Budget: 10},
		{ID: "b", Status: models.StatusActive, Budget: 0},
		{ID: "c", Status: models.StatusPendingReview, Budget: 10},
		{ID: "d", Status: models.StatusActive, Budget: 1, TargetTags: []string{"sports"}},
		{ID: "e", Status: models.StatusRejected, Budget: 10},
	}

	got := FilterEligible(candidates)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "d" {
		t.Fatalf("expected campaigns a and d, got %+v", got)
	}
	if len(candidates) != 5 {
		t.Fatalf("input slice modified")
	}
}

func TestFilterEligible_NoneEligible(t *testing.T) {
	candidates := []models.AdCampaign{
		{ID: "a", Status: models.StatusActive, Budget: 0},
		{ID: "b", Status: models.StatusCompleted, Budget: 50},
		{ID: "c", Status: models.StatusDraft, Budget: 50},
	}
	if got := FilterEligible(candidates); len(got) != 0 {
		t.Fatalf("expected no eligible campaigns, got %+v", got)
	}
	if got := FilterEligible(nil); len(got) != 0 {
		t.Fatalf("expected empty result for nil input, got %+v", got)
	}
}
