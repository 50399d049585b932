package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"marketplace-payments/internal/domain"
	"marketplace-payments/internal/domain/model"
	"marketplace-payments/internal/infra/logging"
	"marketplace-payments/internal/usecase"

	"github.com/go-chi/chi/v5"
)

// Limiter throttles intent creation per payer. Satisfied by the redis
// rate limiter; a nil limiter disables throttling.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), domain.Code(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrPricingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrNotAgencyMember):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyVerified),
		errors.Is(err, domain.ErrAlreadyBoosted),
		errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrPaymentNotCompleted),
		errors.Is(err, domain.ErrPaymentTerminal),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrListingCeiling):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	payer, ok := PayerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no payer identity")
		return
	}
	kind, err := model.ParsePaymentKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.limiter != nil {
		allowed, lerr := s.limiter.Allow(r.Context(), s.rateKey(payer), s.rateLimit, s.rateWindow)
		if lerr != nil {
			logging.With(r.Context(), s.log).Warn().Err(lerr).Msg("rate limiter unavailable, allowing request")
		} else if !allowed {
			writeDomainError(w, domain.ErrRateLimited)
			return
		}
	}

	var req usecase.IntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "malformed request body")
		return
	}

	resp, err := s.payments.CreateIntent(r.Context(), payer, kind, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	payer, ok := PayerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no payer identity")
		return
	}
	if _, err := model.ParsePaymentKind(chi.URLParam(r, "kind")); err != nil {
		writeDomainError(w, err)
		return
	}
	paymentID := chi.URLParam(r, "paymentID")
	ctx := logging.WithPaymentID(r.Context(), paymentID)

	result, err := s.payments.Confirm(ctx, paymentID, payer)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	payer, ok := PayerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no payer identity")
		return
	}
	if payer.Type != model.PayerClient {
		writeError(w, http.StatusForbidden, "not_owner", "point accounts belong to clients")
		return
	}
	balance, err := s.points.Balance(r.Context(), payer.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	payer, ok := PayerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no payer identity")
		return
	}
	if payer.Type != model.PayerClient {
		writeError(w, http.StatusForbidden, "not_owner", "point accounts belong to clients")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_argument", "limit must be an integer")
			return
		}
		limit = n
	}
	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_argument", "before must be RFC 3339")
			return
		}
		before = &t
	}

	entries, err := s.points.History(r.Context(), payer.ID, limit, before)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
