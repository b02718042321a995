package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/streadway/amqp"

	// Регистрация сгенерированной swagger-документации для /docs.
	_ "github.com/magabrotheeeer/ebook-store/docs"
	"github.com/magabrotheeeer/ebook-store/internal/cache"
	"github.com/magabrotheeeer/ebook-store/internal/config"
	"github.com/magabrotheeeer/ebook-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebook-store/internal/lib/jwt"
	"github.com/magabrotheeeer/ebook-store/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/migrations"
	"github.com/magabrotheeeer/ebook-store/internal/objectstore"
	"github.com/magabrotheeeer/ebook-store/internal/services/auth"
	"github.com/magabrotheeeer/ebook-store/internal/services/catalog"
	checkoutservice "github.com/magabrotheeeer/ebook-store/internal/services/checkout"
	dashboardservice "github.com/magabrotheeeer/ebook-store/internal/services/dashboard"
	"github.com/magabrotheeeer/ebook-store/internal/services/events"
	"github.com/magabrotheeeer/ebook-store/internal/services/library"
	"github.com/magabrotheeeer/ebook-store/internal/services/review"
	"github.com/magabrotheeeer/ebook-store/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App - HTTP-сервер магазина со всеми зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключается к Postgres, Redis, S3 и RabbitMQ и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = auth.BootstrapAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	files, err := objectstore.New(cfg.ObjectStorage)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.PaymentQueues(cfg.PaymentQueue))
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	emitter := events.NewEmitter(rabbitmq.NewPublisher(ch, cfg.Exchange), logger)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	svc := Services{
		Auth: auth.New(db, jwtMaker, cacheRedis, cfg.TokenTTL, logger),
		Catalog: catalog.New(db, db, cacheRedis, files, catalog.Buckets{
			Ebooks: cfg.EbooksBucket,
			Covers: cfg.CoversBucket,
		}, logger),
		Checkout:  checkoutservice.New(db, files, cfg.SlipsBucket, emitter, logger),
		Review:    review.New(db, files, cfg.SlipsBucket, cacheRedis, emitter, logger),
		Library:   library.New(db, files, cfg.EbooksBucket, logger),
		Dashboard: dashboardservice.New(db),
		DB:        db,
	}

	cookie := middlewarectx.CookieConfig{
		Name:   cfg.CookieName,
		Secure: cfg.CookieSecure,
	}

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      NewRouter(logger, svc, cookie),
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
