// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-payments/internal/config"
	pg "marketplace-payments/internal/infra/db/postgres"
	"marketplace-payments/internal/infra/logging"
	"marketplace-payments/internal/infra/metrics"
	stripegw "marketplace-payments/internal/infra/payment"
	red "marketplace-payments/internal/infra/redis"
	"marketplace-payments/internal/infra/sched"
	"marketplace-payments/internal/infra/web"
	"marketplace-payments/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	if cfg.HTTP.MetricsOn {
		metrics.MustRegister()
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	eventCache := red.NewEventCache(redisClient, cfg.Redis.EventTTL)

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	ledgerRepo := pg.NewPointLedgerRepo(pool)
	catalogRepo := pg.NewCatalogRepo(pool)
	boostRepo := pg.NewBoostRepo(pool)
	verificationRepo := pg.NewVerificationRepo(pool)
	premiumRepo := pg.NewPremiumRepo(pool)
	postRepo := pg.NewPostRepo(pool)
	escortRepo := pg.NewEscortRepo(pool)
	agencyRepo := pg.NewAgencyRepo(pool)
	draftRepo := pg.NewListingDraftRepo(pool)

	// ---- Processor ----
	gateway := stripegw.NewStripeGateway(cfg.Payment.Stripe.SecretKey, cfg.Payment.Stripe.WebhookSecret, logger)

	// ---- Use cases ----
	pointsUC := usecase.NewPointsUseCase(ledgerRepo, txManager, cfg.Marketplace.FreeDailyActions, logger)
	paymentUC := usecase.NewPaymentUseCase(usecase.PaymentUseCaseDeps{
		Payments:  paymentRepo,
		Points:    pointsUC,
		Catalog:   catalogRepo,
		Posts:     postRepo,
		Escorts:   escortRepo,
		Agencies:  agencyRepo,
		Boosts:    boostRepo,
		Verifs:    verificationRepo,
		Premium:   premiumRepo,
		Drafts:    draftRepo,
		Processor: gateway,
		TxManager: txManager,
		Currency:  cfg.Payment.Currency,
		Ceiling:   cfg.Marketplace.ListingCeiling,
		Logger:    logger,
	})

	// ---- HTTP ----
	srv := web.NewServer(paymentUC, pointsUC, gateway, rateLimiter, eventCache, cfg.HTTP, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Reconciler ----
	reconciler := sched.NewPaymentReconciler(
		paymentUC, paymentRepo,
		cfg.Payment.ReconcileInterval, cfg.Payment.ReconcileStaleAfter, cfg.Payment.PendingTTL,
		logger,
	)
	go reconciler.Start(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
