// Command server runs the shard-aware sales API.
//
// Startup sequence:
//  1. Load .env (optional) and environment configuration
//  2. Configure logging and OpenTelemetry tracing
//  3. Open primary/replica connection pools for every region
//  4. Wire services and HTTP routes
//  5. Serve until SIGINT/SIGTERM, then drain and close every pool
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dmarkou/go-sales-backend/internal/config"
	httpapi "github.com/dmarkou/go-sales-backend/internal/http"
	"github.com/dmarkou/go-sales-backend/internal/observability"
	"github.com/dmarkou/go-sales-backend/internal/repo"
	"github.com/dmarkou/go-sales-backend/internal/shard"
	"github.com/dmarkou/go-sales-backend/internal/shardmap"
	"github.com/dmarkou/go-sales-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	registry, err := shard.NewRegistry(cfg.Shards, repo.Open)
	if err != nil {
		log.Fatal().Err(err).Msg("opening shard pools failed")
	}
	exec := shard.NewExecutor(registry, cfg.Shards.AcquireTimeout)

	smap := shardmap.New(cfg.Shards)

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, exec, smap, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("base_path", cfg.APIBasePath).
			Int("regions", len(cfg.Shards.Regions)).
			Str("version", version).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	registry.Shutdown()
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}

	log.Info().Msg("stopped")
}
