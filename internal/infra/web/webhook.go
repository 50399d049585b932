package web

import (
	"io"
	"net/http"
	"time"

	"marketplace-payments/internal/domain/ports/adapter"
	"marketplace-payments/internal/infra/logging"
	"marketplace-payments/internal/infra/metrics"
)

const maxWebhookBody = 1 << 16

// handleWebhook receives processor events. A bad signature is the only
// client error; everything past verification answers 200 so the
// processor does not retry events we consciously ignored, and 500 only
// when our own handling failed and a retry can help.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logging.With(r.Context(), s.log)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		metrics.IncWebhookEvent("unknown", "read_error")
		writeError(w, http.StatusBadRequest, "invalid_argument", "unreadable payload")
		return
	}

	event, err := s.parser.ParseEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		metrics.IncWebhookEvent("unknown", "signature_failed")
		log.Warn().Err(err).Msg("webhook signature verification failed")
		writeError(w, http.StatusBadRequest, "invalid_argument", "signature verification failed")
		return
	}

	outcome := "handled"
	switch {
	case event.Type == adapter.EventIgnored:
		outcome = "ignored"
	case s.deduper != nil && s.deduper.Seen(r.Context(), event.ID):
		log.Debug().Str("event_id", event.ID).Msg("duplicate webhook delivery skipped")
		outcome = "duplicate"
	default:
		if _, err := s.payments.HandleProcessorEvent(r.Context(), event); err != nil {
			// Not marked as seen: a transient failure must not eat the
			// processor's redeliveries for the rest of the cache TTL.
			log.Error().Err(err).
				Str("event_id", event.ID).
				Str("intent_id", event.IntentID).
				Msg("webhook event handling failed")
			outcome = "error"
		} else if s.deduper != nil {
			s.deduper.Mark(r.Context(), event.ID)
		}
	}

	metrics.IncWebhookEvent(string(event.Type), outcome)
	metrics.ObserveWebhookDuration(outcome, time.Since(start).Seconds())

	if outcome == "error" {
		writeError(w, http.StatusInternalServerError, "internal", "event handling failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}
