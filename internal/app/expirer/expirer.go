// Package expirer по расписанию переводит зависшие pending-заказы в expired.
package expirer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/ebook-store/internal/config"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	expirerservice "github.com/magabrotheeeer/ebook-store/internal/services/expirer"
	"github.com/magabrotheeeer/ebook-store/internal/storage/repository"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
	// Один проход не должен пересекаться со следующим запуском.
	runTimeout = 5 * time.Minute
)

// Expirer - то, что выполняется по расписанию.
type Expirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// App - планировщик истечения заказов.
type App struct {
	db       *repository.Storage
	expirer  Expirer
	schedule string
	logger   *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range dbReadyAttempts {
		if err := repository.CheckDatabaseReady(db); err == nil {
			return nil
		}
		time.Sleep(dbReadyDelay)
	}
	return fmt.Errorf("database not ready after retries")
}

// New подключается к базе и ждёт, пока магазин применит миграции.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		db:       db,
		expirer:  expirerservice.New(db, cfg.PendingTTL, logger),
		schedule: cfg.Schedule,
		logger:   logger,
	}, nil
}

// Run выполняет один проход сразу и дальше по расписанию до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := Schedule(ctx, c, a.schedule, a.expirer, a.logger); err != nil {
		return err
	}

	runOnce(ctx, a.expirer, a.logger)
	c.Start()
	a.logger.Info("order expirer started", slog.String("schedule", a.schedule))

	<-ctx.Done()
	a.logger.Info("shutting down order expirer")
	<-c.Stop().Done()

	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}

// Schedule регистрирует проход истечения в cron по выражению expr.
func Schedule(ctx context.Context, c *cron.Cron, expr string, e Expirer, logger *slog.Logger) (cron.EntryID, error) {
	id, err := c.AddFunc(expr, func() { runOnce(ctx, e, logger) })
	if err != nil {
		return 0, fmt.Errorf("invalid expirer schedule %q: %w", expr, err)
	}
	return id, nil
}

func runOnce(ctx context.Context, e Expirer, logger *slog.Logger) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	if _, err := e.ExpireStale(runCtx); err != nil {
		logger.Error("expire pass failed", sl.Err(err))
	}
}
