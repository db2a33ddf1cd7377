// Package quota maps subscription tiers to numeric limits. Pure lookups,
// no state and no side effects.
package quota

import "synapsesync/pkg/domain"

// UnlimitedEdits marks a tier without a manual-edit ceiling.
const UnlimitedEdits = -1

// DefaultIntervalDays is the auto-update cadence every tier starts on.
const DefaultIntervalDays = 14

// Limits holds the resolved policy for one tier.
type Limits struct {
	MaxDocuments  int
	MaxEdits      int // per 7-day window, UnlimitedEdits for no cap
	IntervalsDays []int
}

var limitsByTier = map[domain.Tier]Limits{
	domain.TierBase: {MaxDocuments: 5, MaxEdits: 5, IntervalsDays: []int{14}},
	domain.TierMid:  {MaxDocuments: 25, MaxEdits: 15, IntervalsDays: []int{14, 30}},
	domain.TierTop:  {MaxDocuments: 50, MaxEdits: UnlimitedEdits, IntervalsDays: []int{7, 14, 30}},
}

// ForTier resolves limits for a tier. Unknown tiers fall back to BASE so a
// corrupted account record degrades to the most restrictive policy.
func ForTier(tier domain.Tier) Limits {
	if l, ok := limitsByTier[tier]; ok {
		return l
	}
	return limitsByTier[domain.TierBase]
}

// CanCreateDocument reports whether the account may add one more document.
func CanCreateDocument(acct domain.Account, currentCount int) bool {
	return currentCount < ForTier(acct.Tier).MaxDocuments
}

// CanEdit reports whether the account has manual edits left in its window.
func CanEdit(acct domain.Account) bool {
	max := ForTier(acct.Tier).MaxEdits
	if max == UnlimitedEdits {
		return true
	}
	return acct.EditsUsed < max
}

// AllowedIntervals returns the permitted auto-update cadences in days.
func AllowedIntervals(tier domain.Tier) []int {
	return ForTier(tier).IntervalsDays
}

// IntervalAllowed reports whether days is a permitted cadence for the tier.
func IntervalAllowed(tier domain.Tier, days int) bool {
	for _, d := range AllowedIntervals(tier) {
		if d == days {
			return true
		}
	}
	return false
}

// ApplyTierChange switches the account to a new tier. The auto-update
// interval resets to the default; EditsUsed is deliberately untouched so an
// upgrade never refunds spent edits.
func ApplyTierChange(acct domain.Account, tier domain.Tier) domain.Account {
	acct.Tier = tier
	acct.AutoUpdateIntervalDays = DefaultIntervalDays
	return acct
}

// ValidTier reports whether the tier is one of BASE/MID/TOP.
func ValidTier(tier domain.Tier) bool {
	_, ok := limitsByTier[tier]
	return ok
}
