// Worker runs the ownership transfer reaper: it marks overdue pending transfer requests
// expired every REAPER_INTERVAL. Requires DATABASE_URL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/config"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/db"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/logger"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	pgstore "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/store/postgres"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/telemetry"
	otelsetup "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/telemetry/otel"
	transferservice "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger.Setup(cfg.LogDev)
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("worker: DATABASE_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("worker: shutting down...")
		cancel()
	}()

	providers, err := otelsetup.NewProviders(ctx, otelsetup.Config{
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName + "-worker",
		Environment: cfg.Env,
		Insecure:    cfg.OTelInsecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("otel")
	}
	defer func() { _ = providers.Shutdown(context.Background()) }()
	metrics, err := telemetry.NewMetrics(providers.MeterProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("metrics")
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{ConnString: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns})
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer pool.Close()
	set := pgstore.New(pool)

	resolver := access.NewResolver(set.Memberships, set.Roles, rbac.DefaultHierarchy())
	transfers := transferservice.NewService(set.Transfers, set.Users, resolver, nil,
		audit.NewLogger(set.AuditLogs, nil), metrics, transferservice.Options{TTL: cfg.TransferDuration()})

	every := cfg.ReaperEvery()
	log.Info().Dur("interval", every).Msg("worker: reaper started")
	transfers.RunReaper(ctx, every)
	log.Info().Msg("worker: stopped")
}
