// File: internal/infra/payment/stripe_gateway.go
package payment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"

	"marketplace-payments/internal/domain/ports/adapter"
)

// Compile-time checks
var (
	_ adapter.PaymentProcessor = (*StripeGateway)(nil)
	_ adapter.WebhookParser    = (*StripeGateway)(nil)
)

// StripeGateway implements the processor port on Stripe PaymentIntents:
// server-side intent creation, client-side confirmation with the client
// secret, and signed webhook events.
type StripeGateway struct {
	webhookSecret string
	log           *zerolog.Logger
}

func NewStripeGateway(secretKey, webhookSecret string, logger *zerolog.Logger) *StripeGateway {
	// stripe-go keys the client globally
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret, log: logger}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*adapter.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if len(metadata) > 0 {
		params.Metadata = metadata
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create intent: %w", err)
	}
	g.log.Debug().Str("intent_id", pi.ID).Int64("amount", amountMinor).Msg("created payment intent")
	return &adapter.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       mapIntentStatus(pi.Status),
	}, nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (*adapter.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe retrieve intent: %w", err)
	}
	return &adapter.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       mapIntentStatus(pi.Status),
	}, nil
}

func mapIntentStatus(s stripe.PaymentIntentStatus) adapter.IntentStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return adapter.IntentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return adapter.IntentStatusCanceled
	case stripe.PaymentIntentStatusProcessing:
		return adapter.IntentStatusProcessing
	default:
		return adapter.IntentStatusRequiresPayment
	}
}

// ParseEvent verifies the signature and normalizes the event envelope. An
// error here means the delivery is not authentic and must be rejected.
func (g *StripeGateway) ParseEvent(payload []byte, signatureHeader string) (*adapter.ProcessorEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	out := &adapter.ProcessorEvent{ID: event.ID, Type: adapter.EventIgnored}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := pi.UnmarshalJSON(event.Data.Raw); err != nil {
			return nil, fmt.Errorf("unmarshal payment intent: %w", err)
		}
		out.IntentID = pi.ID
		if event.Type == "payment_intent.succeeded" {
			out.Type = adapter.EventIntentSucceeded
		} else {
			out.Type = adapter.EventIntentFailed
			if pi.LastPaymentError != nil {
				out.FailureReason = pi.LastPaymentError.Msg
			}
		}
	case "charge.refunded":
		var ch stripe.Charge
		if err := ch.UnmarshalJSON(event.Data.Raw); err != nil {
			return nil, fmt.Errorf("unmarshal charge: %w", err)
		}
		if ch.PaymentIntent != nil {
			out.IntentID = ch.PaymentIntent.ID
			out.Type = adapter.EventChargeRefunded
		}
	case "charge.dispute.created":
		var d stripe.Dispute
		if err := d.UnmarshalJSON(event.Data.Raw); err != nil {
			return nil, fmt.Errorf("unmarshal dispute: %w", err)
		}
		if d.PaymentIntent != nil {
			out.IntentID = d.PaymentIntent.ID
			out.Type = adapter.EventDisputeCreated
		}
	default:
		g.log.Debug().Str("type", string(event.Type)).Msg("ignoring webhook event type")
	}

	return out, nil
}
