// Command server runs the studio back office API.
//
//go:generate swag init -g cmd/server/main.go -o docs --dir ../..
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenstudio/backoffice/internal/api"
	"github.com/lumenstudio/backoffice/internal/api/handler"
	"github.com/lumenstudio/backoffice/internal/core/service"
	"github.com/lumenstudio/backoffice/internal/infrastructure/db/mongo"
	"github.com/lumenstudio/backoffice/internal/infrastructure/db/redis"
	"github.com/lumenstudio/backoffice/internal/infrastructure/http/handlers"
	"github.com/lumenstudio/backoffice/internal/infrastructure/queue"
	"github.com/lumenstudio/backoffice/internal/infrastructure/storage/gridfs"
	"github.com/lumenstudio/backoffice/internal/pkg/config"
	"github.com/lumenstudio/backoffice/pkg/logger"
)

const (
	shutdownTimeout = 15 * time.Second
	reconcileBatch  = 500
)

// @title                       Studio Back Office API
// @version                     1.0
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "backoffice",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Adapters ---
	credentials := mongo.NewCredentialRepository(db)
	tenantRepo := mongo.NewTenantRepository(db)
	sink := redis.NewFailureSink(rdb, cfg.Redis.FailureKey, log)
	store, err := gridfs.NewStore(db, gridfs.Config{
		BaseURL:      cfg.Storage.BaseURL,
		Bucket:       cfg.Storage.Bucket,
		UploadSecret: cfg.Storage.UploadSecret,
	})
	if err != nil {
		return err
	}

	// --- Core services ---
	tokens := service.NewTokenService(cfg.JWTSecret)
	authService := service.NewAuthService(credentials, tokens, cfg.TokenTTL, logger.Component("auth"))
	resolver := service.NewSessionResolver(tokens, credentials, logger.Component("session"))
	cleanupService := service.NewCleanupService(store, sink, service.CleanupOptions{
		MaxAttempts:    cfg.Cleanup.MaxAttempts,
		BaseBackoff:    cfg.Cleanup.BaseBackoff,
		MaxBackoff:     cfg.Cleanup.MaxBackoff,
		AttemptTimeout: cfg.Cleanup.AttemptTimeout,
		RatePerSecond:  cfg.Cleanup.Rate,
	}, logger.Component("cleanup"))
	dispatcher := queue.NewDispatcher(cfg.Cleanup.Workers, cleanupService, sink, logger.Component("dispatcher"))
	lifecycle := service.NewLifecycleService(tenantRepo, dispatcher, cfg.Mongo.TxTimeout, logger.Component("lifecycle"))
	tenantService := service.NewTenantService(tenantRepo, authService, store, dispatcher, logger.Component("tenant"))
	mediaService := service.NewMediaService(store, tenantRepo, cfg.Storage.UploadTTL, logger.Component("media"))

	if cfg.Bootstrap.MasterAdminLogin != "" {
		if err := authService.EnsureMasterAdmin(ctx, cfg.Bootstrap.MasterAdminLogin, cfg.Bootstrap.MasterAdminPassword); err != nil {
			return fmt.Errorf("seed master admin: %w", err)
		}
	}

	// Workers outlive the signal context so queued jobs drain on shutdown.
	workerCtx, cancelWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWorkers()
	dispatcher.Start(workerCtx)

	reconcileCtx, cancelReconcile := context.WithCancel(ctx)
	defer cancelReconcile()
	go reconcileLoop(reconcileCtx, cleanupService, cfg.Cleanup.ReconcileInterval, logger.Component("reconcile"))

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Log:        log,
		Cookie:     handler.CookieConfig{Name: cfg.SessionCookie, Secure: cfg.Production()},
		Resolver:   resolver,
		Guard:      service.NewGuard(),
		Auth:       authService,
		Tenants:    tenantService,
		Lifecycle:  lifecycle,
		Reconciler: cleanupService,
		Media:      mediaService,
		Readiness: handlers.NewHealthDependenciesHandler(map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		}, sink.Len),
	})

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-srvErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	cancelReconcile()
	dispatcher.Stop()
	return nil
}

// reconcileLoop periodically re-runs parked cleanup failures. A zero
// interval disables it.
func reconcileLoop(ctx context.Context, r *service.CleanupService, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := r.Reconcile(ctx, reconcileBatch); err != nil {
				log.Error().Err(err).Msg("reconcile failed")
			}
		}
	}
}
