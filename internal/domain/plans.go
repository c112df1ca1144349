package domain

import "strings"

// Tier classifies a plan by how it interacts with the dual-subscription
// invariant: at most one ACTIVE coaching and one ACTIVE non-coaching
// subscription per user, the latter paused remotely while both exist.
type Tier string

const (
	TierMonthly  Tier = "monthly"
	TierYearly   Tier = "yearly"
	TierCoaching Tier = "coaching"
)

// Coaching reports whether the tier carries trainer assignment.
func (t Tier) Coaching() bool {
	return t == TierCoaching
}

// Plan represents a subscription plan offered to clients.
type Plan struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Tier       Tier   `json:"tier"`
	LookupKey  string `json:"lookupKey"`
	PriceCents int64  `json:"priceCents"` // monthly price in USD cents
	Popular    bool   `json:"popular"`
}

// AvailablePlans returns all base plans.
func AvailablePlans() []Plan {
	return []Plan{
		{
			ID:         "premium-monthly",
			Name:       "Premium Monthly",
			Tier:       TierMonthly,
			LookupKey:  "premium_monthly",
			PriceCents: 1900,
			Popular:    false,
		},
		{
			ID:         "premium-yearly",
			Name:       "Premium Yearly",
			Tier:       TierYearly,
			LookupKey:  "premium_yearly",
			PriceCents: 1500,
			Popular:    true,
		},
		{
			ID:         "coaching",
			Name:       "Coaching",
			Tier:       TierCoaching,
			LookupKey:  "coaching",
			PriceCents: 9900,
			Popular:    false,
		},
	}
}

// TierForLookupKey maps a provider lookup key to its plan tier.
// Trainer-specific coaching packages use keys prefixed "coaching"; other
// unknown keys default to monthly so foreign prices never trip the
// coaching logic.
func TierForLookupKey(key string) Tier {
	for _, p := range AvailablePlans() {
		if p.LookupKey == key {
			return p.Tier
		}
	}
	if strings.HasPrefix(key, "coaching") {
		return TierCoaching
	}
	return TierMonthly
}
