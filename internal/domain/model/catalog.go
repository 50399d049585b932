package model

import "time"

// PointPackage is a purchasable top-up: Points base plus Bonus are granted
// together on completion.
type PointPackage struct {
	ID         string
	Points     int64
	Bonus      int64
	PriceMinor int64
	Currency   string
	Active     bool
}

// BoostPricing is one boost tier: how long the boost runs, how hard it pushes
// the ranking score, and whether it also marks the post featured.
type BoostPricing struct {
	ID         string
	Duration   time.Duration
	Multiplier float64
	Featured   bool
	PriceMinor int64
	Currency   string
	Active     bool
}

// VerificationPricing prices agency-paid escort verification. A nil Duration
// sells a permanent badge.
type VerificationPricing struct {
	ID         string
	Duration   *time.Duration
	PriceMinor int64
	Currency   string
	Active     bool
}

// PremiumPricing is keyed by (tier, duration days) — the two parameters the
// intent request carries.
type PremiumPricing struct {
	ID           string
	Tier         PremiumTier
	DurationDays int
	PriceMinor   int64
	Currency     string
	Active       bool
}

// ExtraListingPricing is a flat price for materializing one extra post beyond
// the free allowance (but never beyond the absolute ceiling).
type ExtraListingPricing struct {
	ID         string
	PriceMinor int64
	Currency   string
	Active     bool
}
