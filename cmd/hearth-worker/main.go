package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hearth/internal/config"
	"hearth/internal/events"
	"hearth/internal/log"
	"hearth/internal/services"
	"hearth/internal/storage"
)

func main() {
	log.Setup()
	logger := log.With(log.ComponentWorker)

	logger.Info("starting hearth-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" && !cfg.AutoInitMonth {
		logger.Error("nothing to do: set AMQP_URL to consume events or AUTO_INIT_MONTH to roll months over")
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to initialize storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		go func() {
			err := client.Consume(ctx, func(event *events.LedgerEvent) error {
				logger.Info("ledger event",
					"kind", event.Kind,
					log.FieldHousehold, event.HouseholdID,
					log.FieldMonth, event.Month,
					log.FieldCount, event.Count)
				return nil
			})
			if err != nil && err != context.Canceled {
				logger.Error("message consumption failed", log.FieldError, err)
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP consumption disabled - no AMQP_URL provided")
	}

	if cfg.AutoInitMonth {
		reports := services.NewReports(repo)
		lifecycle := services.NewLifecycle(repo, reports, nil)

		rollover := services.NewRolloverProcessor(repo, lifecycle, cfg.RolloverInterval)
		rollover.Start(ctx)
		defer rollover.Stop()
		logger.Info("month rollover enabled", "interval", cfg.RolloverInterval)
	} else {
		logger.Info("month rollover disabled - AUTO_INIT_MONTH not set")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	cancel()
	time.Sleep(time.Second)
	logger.Info("worker shutdown complete")
}
