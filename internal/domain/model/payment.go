package model

import (
	"time"

	"marketplace-payments/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"    // intent opened at the processor; awaiting outcome
	PaymentStatusProcessing PaymentStatus = "processing" // finalize winner is applying the entitlement
	PaymentStatusCompleted  PaymentStatus = "completed"  // entitlement applied exactly once
	PaymentStatusFailed     PaymentStatus = "failed"     // processor declined or verification failed
	PaymentStatusCancelled  PaymentStatus = "cancelled"  // abandoned and swept, never applied
	PaymentStatusRefunded   PaymentStatus = "refunded"   // follow-on after completed
	PaymentStatusDisputed   PaymentStatus = "disputed"   // follow-on after completed
)

// Terminal reports whether the status accepts no forward transition from the
// finalize guard. Refunded/disputed are reached only out-of-band from completed.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled,
		PaymentStatusRefunded, PaymentStatusDisputed:
		return true
	}
	return false
}

type PaymentKind string

const (
	PaymentKindPoints       PaymentKind = "points"
	PaymentKindBoost        PaymentKind = "boost"
	PaymentKindVerification PaymentKind = "verification"
	PaymentKindPremium      PaymentKind = "premium"
	PaymentKindExtraListing PaymentKind = "extra_listing"
)

func ParsePaymentKind(s string) (PaymentKind, error) {
	k := PaymentKind(s)
	switch k {
	case PaymentKindPoints, PaymentKindBoost, PaymentKindVerification,
		PaymentKindPremium, PaymentKindExtraListing:
		return k, nil
	}
	return "", domain.ErrInvalidArgument
}

// PaymentContext is the kind-tagged payload stored alongside a pending
// payment: everything the applier needs when the processor later reports
// success. Exactly one field is set, matching Payment.Kind.
type PaymentContext struct {
	Points       *PointsContext       `json:"points,omitempty"`
	Boost        *BoostContext        `json:"boost,omitempty"`
	Verification *VerificationContext `json:"verification,omitempty"`
	Premium      *PremiumContext      `json:"premium,omitempty"`
	ExtraListing *ExtraListingContext `json:"extra_listing,omitempty"`
}

type PointsContext struct {
	AccountID string `json:"account_id"`
	PackageID string `json:"package_id"`
}

type BoostContext struct {
	PostID    string `json:"post_id"`
	PricingID string `json:"pricing_id"`
}

type VerificationContext struct {
	EscortID  string `json:"escort_id"`
	AgencyID  string `json:"agency_id"`
	PricingID string `json:"pricing_id"`
}

type PremiumContext struct {
	Tier         string `json:"tier"`
	DurationDays int    `json:"duration_days"`
}

type ExtraListingContext struct {
	DraftID string `json:"draft_id"`
}

// ApplicationResult summarizes the entitlement applied by the finalize
// winner. It is stored on the payment row so losing callers and replayed
// confirms can return the identical outcome.
type ApplicationResult struct {
	Kind          PaymentKind `json:"kind"`
	EntitlementID string      `json:"entitlement_id,omitempty"`
	PostID        string      `json:"post_id,omitempty"`
	PointsGranted int64       `json:"points_granted,omitempty"`
	BalanceAfter  int64       `json:"balance_after,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
	Permanent     bool        `json:"permanent,omitempty"`
}

// Payment records one purchase attempt. ExternalIntentID is the processor's
// correlation key and the idempotency key for the whole finalize flow: at
// most one successful application may ever be attributed to it.
type Payment struct {
	ID               string
	Payer            PayerRef
	Kind             PaymentKind
	Amount           int64 // minor units
	Currency         string
	ExternalIntentID string
	Status           PaymentStatus
	Context          PaymentContext
	Result           *ApplicationResult
	FailureReason    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

func (p *Payment) Validate() error {
	if err := p.Payer.Validate(); err != nil {
		return err
	}
	if p.Amount <= 0 || p.Currency == "" || p.ExternalIntentID == "" {
		return domain.ErrInvalidArgument
	}
	if _, err := ParsePaymentKind(string(p.Kind)); err != nil {
		return err
	}
	return nil
}
