package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DiogoMatos10/myfinance/internal/config"
	"github.com/DiogoMatos10/myfinance/internal/events"
	"github.com/DiogoMatos10/myfinance/internal/log"
	"github.com/DiogoMatos10/myfinance/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentWorker})
	log.SetDefault(logger)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := worker.NewNotifier(logger)

	logger.Info("Starting notify-worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- client.ConsumeLedgerEvents(ctx, notifier.HandleLedgerEvent)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}

	stop()

	// Give the in-flight handler a moment to finish before closing.
	time.Sleep(2 * time.Second)

	stats, total := notifier.Stats()
	logger.Info("Worker stopped", "processed", total, "by_action", stats)
}
