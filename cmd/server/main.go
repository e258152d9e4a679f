// Command server runs the pass batch HTTP API.
//
// @title          Pass Batch API
// @version        1.0
// @description    Batch creation of parking passes with validation, retries and a ledger of created passes.
// @BasePath       /api/v1
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/config"
	httpapi "github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/http"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/observability"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/passapi"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/repo"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/services"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	shutdownTimeout = 15 * time.Second
	purgeEvery      = time.Hour
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		sysutil.SetupLogger(os.Stderr, "info", false)
		log.Fatal().Err(err).Msg("load config")
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.FirstNonEmpty(os.Getenv("SERVICE_VERSION"), version))
	if err != nil {
		log.Fatal().Err(err).Msg("setup otel")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := observability.InstrumentDB(db); err != nil {
		log.Warn().Err(err).Msg("gorm tracing disabled")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	client := passapi.New(passapi.Options{
		BaseURL: cfg.PassAPI.BaseURL,
		Token:   cfg.PassAPI.Token,
		Timeout: cfg.PassAPI.Timeout,
		RPS:     cfg.PassAPI.RPS,
		Burst:   cfg.PassAPI.Burst,
	})

	r := gin.New()
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	batches := httpapi.RegisterRoutes(r, db, client, cfg)
	go purgeKeys(ctx, batches)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// purgeKeys removes expired idempotency keys until ctx is done.
func purgeKeys(ctx context.Context, batches *services.BatchService) {
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := batches.PurgeExpiredKeys(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("purge idempotency keys")
			}
		}
	}
}
