package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/config"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/service"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/infrastructure/events/kafka"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/infrastructure/persistence"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/infrastructure/provider"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/interfaces/rest"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting ledger service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := persistence.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	transactionRepo := postgres.NewTransactionRepository(db)
	refundRepo := postgres.NewRefundRepository(db)
	paymentMethodRepo := postgres.NewPaymentMethodRepository(db)
	userMethodRepo := postgres.NewUserPaymentMethodRepository(db)
	coordinator := postgres.NewTransactionCoordinator(db)

	providerClient := provider.NewProviderClient(cfg.Provider)
	retryProvider := provider.NewRetryProviderClient(providerClient, cfg.Retry)

	publisher := kafka.NewPublisher(cfg.Kafka.Brokers, logger)
	defer publisher.Close()

	createService := service.NewCreateTransactionService(transactionRepo, paymentMethodRepo, publisher, logger)
	processService := service.NewProcessTransactionService(transactionRepo, paymentMethodRepo, retryProvider, publisher, logger)
	refundService := service.NewRefundTransactionService(transactionRepo, refundRepo, paymentMethodRepo, coordinator, retryProvider, publisher, logger)
	queryService := service.NewQueryService(transactionRepo, refundRepo)
	methodService := service.NewPaymentMethodService(paymentMethodRepo, userMethodRepo, retryProvider, logger)

	reconciler := worker.NewReconciler(
		transactionRepo,
		refundRepo,
		coordinator,
		retryProvider,
		publisher,
		cfg.Worker.Interval,
		cfg.Worker.StuckAfter,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go reconciler.Start(workerCtx)

	if cfg.Kafka.ConsumeEnabled {
		consumer := kafka.NewOrderEventConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.ConsumerGroup,
			cfg.Kafka.OrderTopic,
			createService,
			processService,
			refundService,
			queryService,
			logger,
		)
		defer consumer.Close()

		go func() {
			if err := consumer.Start(workerCtx); err != nil {
				logger.Error("order event consumer stopped", "error", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Pool.Ping(r.Context()); err != nil {
			http.Error(w, `{"status":"degraded"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	handlers := rest.NewHandlers(refundService, queryService, methodService, logger)
	handlers.Register(mux)

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
