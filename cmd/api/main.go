package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/order-backend/internal/api"
	"github.com/example/order-backend/internal/bootstrap"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, *configPath)
	if err != nil {
		log.Fatalf("[API] Failed to start: %v", err)
	}
	defer app.Close()
	logger := app.Logger.Named("server")
	cfg := app.Config.Server

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(app.Routes, app.Logger.Named("router")),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("server started",
			zap.String("addr", server.Addr),
			zap.String("store", app.Config.Store.Backend),
			zap.String("bus", app.Config.Bus.Backend))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
