package model

import "time"

// Boost raises a post's ranking for a paid window. Baseline counters are
// captured at activation so the boost's effect can be reported afterwards.
type Boost struct {
	ID             string
	PostID         string
	PricingID      string
	Multiplier     float64
	ScoreDelta     float64
	BaselineViews  int64
	BaselineClicks int64
	Featured       bool
	ActivatedAt    time.Time
	ExpiresAt      time.Time
}

func (b *Boost) ActiveAt(now time.Time) bool {
	return now.Before(b.ExpiresAt)
}

// Verification marks an escort verified under a paying agency. A nil
// ExpiresAt means permanent.
type Verification struct {
	ID         string
	EscortID   string
	AgencyID   string
	PricingID  string
	PaymentID  string
	VerifiedAt time.Time
	ExpiresAt  *time.Time
}

type PremiumTier string

const (
	PremiumTierSilver PremiumTier = "silver"
	PremiumTierGold   PremiumTier = "gold"
)

// PremiumBenefits are the cached flags a tier unlocks; rewritten wholesale on
// every renewal so a tier change never leaves stale benefits behind.
type PremiumBenefits struct {
	HighlightedProfile bool `json:"highlighted_profile"`
	PriorityRanking    bool `json:"priority_ranking"`
	ExtendedGallery    bool `json:"extended_gallery"`
}

// PremiumState is one row per subject; renewals extend ExpiresAt rather than
// creating duplicates.
type PremiumState struct {
	SubjectType PayerType
	SubjectID   string
	Tier        PremiumTier
	Benefits    PremiumBenefits
	ExpiresAt   time.Time
	UpdatedAt   time.Time
}

// ExtendedExpiry implements the renewal rule: remaining paid time is never
// lost, expired states restart from now.
func ExtendedExpiry(current time.Time, now time.Time, d time.Duration) time.Time {
	base := now
	if current.After(now) {
		base = current
	}
	return base.Add(d)
}

func BenefitsForTier(tier PremiumTier) PremiumBenefits {
	switch tier {
	case PremiumTierGold:
		return PremiumBenefits{HighlightedProfile: true, PriorityRanking: true, ExtendedGallery: true}
	case PremiumTierSilver:
		return PremiumBenefits{HighlightedProfile: true, ExtendedGallery: true}
	default:
		return PremiumBenefits{}
	}
}
