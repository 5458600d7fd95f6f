package models

import (
	"fmt"
	"strings"
)

// CampaignStatus is the review/lifecycle state of an advertiser campaign.
type CampaignStatus string

// Campaign lifecycle states. Only StatusActive campaigns are considered when
// filling an ad slot.
const (
	StatusDraft         CampaignStatus = "draft"
	StatusPendingReview CampaignStatus = "pendingReview"
	StatusActive        CampaignStatus = "active"
	StatusRejected      CampaignStatus = "rejected"
	StatusCompleted     CampaignStatus = "completed"
)

// AmountScale is the number of ledger units in one US dollar. Budgets, spend
// and payouts are integers in these units.
const AmountScale = 100_000_000

// AdCampaign is an advertiser campaign as observed through the Reward Ledger.
// The client only ever holds a snapshot: Budget, Spend and Views are owned by
// the ledger and change exclusively as a side effect of a successful reward
// call, so a cached copy may be stale until it is refreshed.
type AdCampaign struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	TargetTags    []string       `json:"target_tags,omitempty"` // Descriptive only; never used to filter.
	Budget        int64          `json:"budget"`                // Remaining fundable amount. Non-increasing.
	Spend         int64          `json:"spend"`                 // Amount paid out so far. Non-decreasing.
	Views         int64          `json:"views"`                 // Completed ad views credited against this campaign.
	PayoutPerView int64          `json:"payout_per_view"`       // Credited to the viewer per completed view.
	Status        CampaignStatus `json:"status"`
}

// IsEligible reports whether the campaign may fill an ad slot: it must be
// active and have strictly positive remaining budget.
func (c *AdCampaign) IsEligible() bool {
	return c != nil && c.Status == StatusActive && c.Budget > 0
}

// FormatAmount renders a ledger amount as dollars, e.g. "$0.05".
func FormatAmount(amount int64) string {
	return fmt.Sprintf("$%.2f", float64(amount)/AmountScale)
}

// ParseCampaignStatus converts a stored status string into a CampaignStatus.
// Unknown values map to StatusDraft so they are never treated as servable.
func ParseCampaignStatus(s string) CampaignStatus {
	switch CampaignStatus(strings.TrimSpace(s)) {
	case StatusPendingReview:
		return StatusPendingReview
	case StatusActive:
		return StatusActive
	case StatusRejected:
		return StatusRejected
	case StatusCompleted:
		return StatusCompleted
	default:
		return StatusDraft
	}
}
