// Command server runs the landing-page form backend: the anti-forgery token
// endpoint and the form submission endpoint behind the edge gate.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/CoolAssPuppy/landing-pages/internal/config"
	httpapi "github.com/CoolAssPuppy/landing-pages/internal/http"
	"github.com/CoolAssPuppy/landing-pages/internal/observability"
	"github.com/CoolAssPuppy/landing-pages/internal/ratelimit"
	"github.com/CoolAssPuppy/landing-pages/internal/repo"
	"github.com/CoolAssPuppy/landing-pages/internal/sysutil"
)

var version = "dev"

// @title          Landing Pages Forms API
// @version        1.0
// @description    Anti-forgery tokens and form submissions for marketing landing pages.
// @BasePath       /api
func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(nil, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName, cfg.Env)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db := openLedger(cfg)

	store, closeStore := rateLimitStore(ctx, cfg)
	defer closeStore()

	r := gin.New()
	if err := httpapi.RegisterRoutes(r, db, store, cfg); err != nil {
		log.Fatal().Err(err).Msg("route setup failed")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().
		Str("addr", srv.Addr).
		Str("version", version).
		Bool("production", cfg.IsProduction()).
		Str("rate_limit_backend", cfg.RateLimit.Backend).
		Bool("ledger", db != nil).
		Msg("server starting")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

// openLedger opens the submission ledger. The ledger is optional: a failure
// is logged and the server runs without it.
func openLedger(cfg config.Config) *gorm.DB {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err == nil {
		err = repo.AutoMigrate(db)
	}
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.DBPath).Msg("submission ledger disabled")
		return nil
	}
	return db
}

// rateLimitStore builds the configured backend and returns its cleanup.
func rateLimitStore(ctx context.Context, cfg config.Config) (ratelimit.Store, func()) {
	if cfg.RateLimit.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping failed")
		}
		return ratelimit.NewRedisStore(rdb), func() { _ = rdb.Close() }
	}

	mem := ratelimit.NewMemoryStore()
	mem.StartJanitor(ctx, cfg.RateLimit.SweepEvery)
	return mem, func() {}
}
