package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/license-portal/internal/cache"
	"github.com/magabrotheeeer/license-portal/internal/config"
	"github.com/magabrotheeeer/license-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/metrics"
	"github.com/magabrotheeeer/license-portal/internal/migrations"
	"github.com/magabrotheeeer/license-portal/internal/services/account"
	"github.com/magabrotheeeer/license-portal/internal/services/botsession"
	"github.com/magabrotheeeer/license-portal/internal/services/payment"
	"github.com/magabrotheeeer/license-portal/internal/services/stats"
	"github.com/magabrotheeeer/license-portal/internal/services/subscription"
	"github.com/magabrotheeeer/license-portal/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-сервер портала со всеми зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New подключает PostgreSQL и Redis, накатывает миграции и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "portal.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.InitMetrics()

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	subscriptionService := subscription.New(db, cacheRedis, logger, cfg.SubscriptionTTL)
	accountService := account.New(db, jwtMaker, cacheRedis, subscriptionService, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, Deps{
		Accounts:      accountService,
		Subscriptions: subscriptionService,
		Payments:      payment.New(db, subscriptionService, logger),
		Sessions:      botsession.New(db, subscriptionService, logger),
		Stats:         stats.New(db),
		Tokens:        jwtMaker,
		Revocations:   cacheRedis,
		DB:            db.DB,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
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

	if cerr := a.cache.Close(); cerr != nil {
		a.logger.Error("failed to close redis", sl.Err(cerr))
	}
	if cerr := a.db.Close(); cerr != nil {
		a.logger.Error("failed to close database", sl.Err(cerr))
	}
	return err
}
