package adapter

import "context"

type IntentStatus string

const (
	IntentStatusRequiresPayment IntentStatus = "requires_payment"
	IntentStatusProcessing      IntentStatus = "processing"
	IntentStatusSucceeded       IntentStatus = "succeeded"
	IntentStatusCanceled        IntentStatus = "canceled"
)

// Intent is the processor-side payment intent as the core sees it.
type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
}

// PaymentProcessor is the outbound contract to the external processor.
// Both calls are blocking network operations and must be issued outside any
// open database transaction.
type PaymentProcessor interface {
	Name() string
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}

type EventType string

const (
	EventIntentSucceeded EventType = "intent_succeeded"
	EventIntentFailed    EventType = "intent_failed"
	EventChargeRefunded  EventType = "charge_refunded"
	EventDisputeCreated  EventType = "dispute_created"
	EventIgnored         EventType = "ignored"
)

// ProcessorEvent is a verified, normalized webhook delivery.
type ProcessorEvent struct {
	ID            string
	Type          EventType
	IntentID      string
	FailureReason string
}

// WebhookParser verifies an inbound notification's authenticity and decodes
// it. A non-nil error means the signature check failed and the delivery must
// be rejected.
type WebhookParser interface {
	ParseEvent(payload []byte, signatureHeader string) (*ProcessorEvent, error)
}
