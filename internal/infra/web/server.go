package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"marketplace-payments/internal/config"
	"marketplace-payments/internal/domain/model"
	"marketplace-payments/internal/domain/ports/adapter"
	"marketplace-payments/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deduper short-circuits processor event redeliveries. Satisfied by the
// redis event cache; a nil deduper disables the fast path (finalization
// is idempotent regardless). Mark runs only after the event was handled
// without error so a failed delivery stays retryable.
type Deduper interface {
	Seen(ctx context.Context, eventID string) bool
	Mark(ctx context.Context, eventID string)
}

type Server struct {
	payments usecase.PaymentUseCase
	points   usecase.PointsUseCase
	parser   adapter.WebhookParser
	limiter  Limiter
	deduper  Deduper

	jwtSecret  string
	metricsOn  bool
	rateLimit  int
	rateWindow time.Duration

	log *zerolog.Logger
}

func NewServer(
	payments usecase.PaymentUseCase,
	points usecase.PointsUseCase,
	parser adapter.WebhookParser,
	limiter Limiter,
	deduper Deduper,
	cfg config.HTTPConfig,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		payments:   payments,
		points:     points,
		parser:     parser,
		limiter:    limiter,
		deduper:    deduper,
		jwtSecret:  cfg.JWTSecret,
		metricsOn:  cfg.MetricsOn,
		rateLimit:  cfg.RateLimit,
		rateWindow: cfg.RateWindow,
		log:        logger,
	}
}

// Router assembles the HTTP surface. The webhook endpoint is signed by
// the processor instead of carrying a bearer token, so it sits outside
// the authenticated group.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))

	r.Get("/healthz", s.handleHealth)
	if s.metricsOn {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Post("/api/v1/payments/webhook", s.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(s.jwtSecret))
		r.Post("/api/v1/payments/{kind}/intent", s.handleCreateIntent)
		r.Post("/api/v1/payments/{kind}/confirm/{paymentID}", s.handleConfirm)
		r.Get("/api/v1/points/balance", s.handleBalance)
		r.Get("/api/v1/points/history", s.handleHistory)
	})

	return r
}

func (s *Server) rateKey(payer model.PayerRef) string {
	return fmt.Sprintf("rate_limit:intent:%s:%s", payer.Type, payer.ID)
}
