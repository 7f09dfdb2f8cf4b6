package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/order-backend/internal/bootstrap"
	"github.com/example/order-backend/internal/infrastructure/kafka"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, *configPath)
	if err != nil {
		log.Fatalf("[Dispatcher] Failed to start: %v", err)
	}
	defer app.Close()
	logger := app.Logger.Named("dispatcher")
	cfg := app.Config.Kafka

	consumer := kafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.Group, logger)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("starting event consumer",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic),
			zap.String("group", cfg.Group))
		if err := consumer.Consume(ctx, app.Registry.DispatchEnvelope); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-done:
	}

	logger.Info("shutting down")
	cancel()
	<-done
}
