// Package filters narrows a campaign candidate set down to the campaigns
// that may fill an ad slot.
package filters

import "github.com/patrickwarner/adreward/internal/models"

// FilterEligible keeps campaigns that are active with strictly positive
// remaining budget. Target tags are descriptive metadata and play no part.
// The input slice is not modified.
func FilterEligible(candidates []models.AdCampaign) []models.AdCampaign {
	out := make([]models.AdCampaign, 0, len(candidates))
	for i := range candidates {
		if candidates[i].IsEligible() {
			out = append(out, candidates[i])
		}
	}
	return out
}
