package model

import "time"

type PointTxKind string

const (
	PointTxKindPurchase   PointTxKind = "purchase"    // paid top-up, linked to a payment
	PointTxKindChatAction PointTxKind = "chat_action" // spend on a chat feature
	PointTxKindAdjustment PointTxKind = "adjustment"  // manual support correction
	PointTxKindRefund     PointTxKind = "refund"      // reversal after a processor refund
)

// PointTransaction is an immutable ledger entry. Amount is signed: positive
// grants, negative spends. BalanceAfter must equal BalanceBefore + Amount, and
// replaying all entries for an account in creation order reproduces the
// account's cached balance exactly.
type PointTransaction struct {
	ID               string // ULID, lexically ordered by creation
	AccountID        string
	Amount           int64
	Kind             PointTxKind
	BalanceBefore    int64
	BalanceAfter     int64
	RelatedPaymentID *string
	CreatedAt        time.Time
}

// PointAccount caches the ledger projection for one client account, plus the
// per-day free-action counter used by free-tier rate limits. Balance is never
// an independent source of truth; it is mutated only in the same transaction
// that appends the corresponding ledger entry.
type PointAccount struct {
	AccountID       string
	Balance         int64
	FreeActionsUsed int
	LastReset       time.Time // date of the last daily counter reset
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SameResetDay reports whether the counter was already reset on the caller's
// calendar day.
func (a *PointAccount) SameResetDay(day time.Time) bool {
	y1, m1, d1 := a.LastReset.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
