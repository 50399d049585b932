package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrNotOwner           = errors.New("caller does not own this resource")
	ErrRateLimited        = errors.New("too many requests")

	// Ledger
	ErrInsufficientBalance = errors.New("insufficient point balance")

	// Payments
	ErrPaymentNotCompleted = errors.New("payment not completed by processor")
	ErrPaymentTerminal     = errors.New("payment already in a terminal state")

	// Entitlement eligibility
	ErrAlreadyVerified = errors.New("escort is already verified")
	ErrNotAgencyMember = errors.New("escort is not an active member of the agency")
	ErrAlreadyBoosted  = errors.New("post already has an active boost")
	ErrListingCeiling  = errors.New("listing ceiling reached")
	ErrPricingNotFound = errors.New("pricing entry not found")
)

// Code maps a domain error to a stable machine-readable code, kept distinct
// from the human message so clients can branch on it.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrPaymentNotCompleted):
		return "payment_not_completed"
	case errors.Is(err, ErrPaymentTerminal):
		return "payment_terminal"
	case errors.Is(err, ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrNotAgencyMember):
		return "not_agency_member"
	case errors.Is(err, ErrAlreadyBoosted):
		return "already_boosted"
	case errors.Is(err, ErrListingCeiling):
		return "listing_ceiling"
	case errors.Is(err, ErrPricingNotFound):
		return "pricing_not_found"
	default:
		return "internal"
	}
}
