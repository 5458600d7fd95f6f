// Package cache keeps ledger aggregates (wallet, view counters, campaign
// budgets) in a read-through cache and defines which keys every mutating
// ledger operation makes stale.
package cache

import (
	"sort"
	"strings"
)

// Key names one cached aggregate.
type Key string

// Aggregate keys not scoped to a user or campaign.
const (
	KeyActiveCampaigns     Key = "activeCampaigns"
	KeyAdvertiserCampaigns Key = "advertiserCampaigns"
	KeyAllCampaigns        Key = "allCampaigns"
)

// WalletKey is the viewer's wallet balance.
func WalletKey(userID string) Key { return Key("wallet:" + userID) }

// AdViewHistoryKey is the viewer's daily/total ad view counters.
func AdViewHistoryKey(userID string) Key { return Key("adViewHistory:" + userID) }

// CapsKey is one of the ledger's cap settings.
func CapsKey(name string) Key { return Key("caps:" + name) }

// CampaignKey is one campaign's budget, spend and views.
func CampaignKey(campaignID string) Key { return Key("campaign:" + campaignID) }

// Kind returns the aggregate name without its scope, e.g. "wallet".
func (k Key) Kind() string {
	s := string(k)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}

// Audience is the kind of view that triggered a mutation. Advertiser and
// admin views also hold the campaign lists.
type Audience string

const (
	AudienceViewer     Audience = "viewer"
	AudienceAdvertiser Audience = "advertiser"
	AudienceAdmin      Audience = "admin"
)

// ParseAudience maps a request value to an Audience, defaulting to viewer.
func ParseAudience(s string) Audience {
	switch Audience(s) {
	case AudienceAdvertiser:
		return AudienceAdvertiser
	case AudienceAdmin:
		return AudienceAdmin
	default:
		return AudienceViewer
	}
}

// RewardInvalidation returns the keys made stale by a successful reward
// call: the viewer's wallet and view counters and the charged campaign's
// aggregates. Advertiser views add their campaign list, admin views the full
// list. The active campaign list is not included; its budgets are read
// through the per-campaign keys.
func RewardInvalidation(userID, campaignID string, audience Audience) []Key {
	keys := []Key{WalletKey(userID), AdViewHistoryKey(userID), CampaignKey(campaignID)}
	switch audience {
	case AudienceAdvertiser:
		keys = append(keys, KeyAdvertiserCampaigns)
	case AudienceAdmin:
		keys = append(keys, KeyAllCampaigns)
	}
	return keys
}

// AddBudgetInvalidation returns the keys made stale by topping up a
// campaign's budget.
func AddBudgetInvalidation(campaignID string) []Key {
	return []Key{KeyAdvertiserCampaigns, CampaignKey(campaignID)}
}

// ApproveInvalidation returns the keys made stale by approving a campaign;
// it becomes a selection candidate.
func ApproveInvalidation(campaignID string) []Key {
	return []Key{KeyAllCampaigns, KeyActiveCampaigns, CampaignKey(campaignID)}
}

// RejectInvalidation returns the keys made stale by rejecting a campaign.
func RejectInvalidation(campaignID string) []Key {
	return []Key{KeyAllCampaigns, CampaignKey(campaignID)}
}

// Strings returns the keys as sorted strings.
func Strings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	sort.Strings(out)
	return out
}
