package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/DiogoMatos10/myfinance/internal/backend"
	"github.com/DiogoMatos10/myfinance/internal/config"
	"github.com/DiogoMatos10/myfinance/internal/events"
	apphttp "github.com/DiogoMatos10/myfinance/internal/http"
	"github.com/DiogoMatos10/myfinance/internal/log"
	"github.com/DiogoMatos10/myfinance/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel)})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	// Ledger event stream is optional; the API works without it.
	var eventClient *events.Client
	if cfg.AMQPURL != "" {
		eventClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
			eventClient = nil
		} else {
			defer eventClient.Close()
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	stores := result.Stores
	registry := services.NewCategoryRegistry(stores.Categories, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions:  services.NewTransactionService(stores.Transactions, registry, stores.Receipts, eventClient, logger),
		Categories:    registry,
		Balance:       services.NewBalanceService(stores.Profiles, logger),
		Profile:       services.NewProfileService(stores.Profiles, logger),
		Verifier:      stores.Verifier,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.Production(),
		ReceiptsDir:   stores.ReceiptsDir,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting myfinance server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
