package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/ebook-store/internal/app/expirer"
	"github.com/magabrotheeeer/ebook-store/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting order-expirer", slog.String("env", cfg.Env),
		slog.String("schedule", cfg.Schedule), slog.Duration("pending_ttl", cfg.PendingTTL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := expirer.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize expirer app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("expirer app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("order-expirer stopped gracefully")
}
