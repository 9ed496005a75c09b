package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"perfeval/internal/platform/config"
	"perfeval/internal/platform/email"
	"perfeval/internal/platform/logger"
	"perfeval/internal/platform/queue"
)

const prefetch = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger.Setup(cfg.LogLevel)

	if cfg.RabbitMQURL == "" {
		slog.Error("RABBITMQ_URL is required")
		os.Exit(1)
	}

	mailer, err := email.New(cfg)
	if err != nil {
		slog.Error("mailer init failed", "err", err)
		os.Exit(1)
	}

	client, err := queue.Open(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.PublishTimeout)
	if err != nil {
		slog.Error("queue open failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Warn("queue close failed", "err", err)
		}
	}()

	deliveries, err := client.Consume("perfeval-mailer", prefetch)
	if err != nil {
		slog.Error("queue consume failed", "err", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := worker{mailer: mailer, from: cfg.EmailFrom}
	slog.Info("mailer waiting for messages", "queue", client.Queue())
	w.run(ctx, deliveries)
	slog.Info("mailer stopped")
}
