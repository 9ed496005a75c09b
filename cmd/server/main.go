package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"perfeval/internal/app/server"
	"perfeval/internal/platform/config"
	"perfeval/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg)
	if err != nil {
		slog.Error("server init failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		slog.Error("server failed", "err", err)
		app.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}
