package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/recurrence"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting detect-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, cleanup, err := backend.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	strategy, err := recurrence.StrategyByName(cfg.RecurrenceStrategy)
	if err != nil {
		logger.Error("Invalid recurrence strategy", "error", err, "strategy", cfg.RecurrenceStrategy)
		os.Exit(1)
	}
	detectionService := services.NewDetectionService(store, recurrence.NewDetector(strategy))
	detectWorker := worker.NewDetectWorker(detectionService)

	// AMQP consumption is optional; without it the worker only runs its
	// periodic full passes.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, running periodic-only", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Detection worker configured",
		"interval", cfg.DetectInterval,
		"strategy", cfg.RecurrenceStrategy,
		"backend", cfg.DataBackend)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return detectWorker.RunPeriodic(gctx, cfg.DetectInterval)
	})

	if amqpClient != nil {
		g.Go(func() error {
			return amqpClient.ConsumeDetectRequests(gctx, detectWorker.HandleDetectRequest)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
