package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/config"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/db"
	joincodeservice "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/service"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/logger"
	membershipservice "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/service"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/notification"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	roleservice "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/service"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/security"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/server"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/server/interceptors"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/store"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/store/memory"
	pgstore "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/store/postgres"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/telemetry"
	otelsetup "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/telemetry/otel"
	transferservice "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	lg := logger.Setup(cfg.LogDev)
	ctx := context.Background()

	providers, err := otelsetup.NewProviders(ctx, otelsetup.Config{
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTelInsecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("otel")
	}
	providers.SetGlobal()
	metrics, err := telemetry.NewMetrics(providers.MeterProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("metrics")
	}

	_, publicKey, err := security.ParseKeyPair("", cfg.JWTPublicKey)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT_PUBLIC_KEY")
	}
	tokens := security.NewTokenProvider(nil, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	var set store.Set
	var pool *pgxpool.Pool
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL is not set; using the in-memory store")
		set = store.Memory(memory.New())
	} else {
		pool, err = db.NewPool(ctx, db.PoolConfig{ConnString: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns})
		if err != nil {
			log.Fatal().Err(err).Msg("db")
		}
		set = pgstore.New(pool)
	}

	rank, err := cfg.CustomRank()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	hierarchy, err := rbac.NewHierarchy(rank)
	if err != nil {
		log.Fatal().Err(err).Msg("hierarchy")
	}
	resolver := access.NewResolver(set.Memberships, set.Roles, hierarchy)

	kafkaSink := notification.NewKafkaSink(cfg.KafkaBrokersList(), cfg.NotificationKafkaTopic)
	notifier := notification.NewAsync(notification.NewMulti(
		kafkaSink,
		notification.NewOTelSink(providers.LoggerProvider),
		notification.LogSink{},
	))
	auditLogger := audit.NewLogger(set.AuditLogs, interceptors.ClientIP)

	grpcServer := server.NewGRPCServer(server.Options{
		Logger:      lg,
		Tokens:      tokens,
		Audit:       auditLogger,
		Memberships: set.Memberships,
	})
	health := server.RegisterServices(grpcServer, server.Deps{
		Memberships: membershipservice.NewService(set.Memberships, set.Roles, set.Users, resolver, notifier, auditLogger, metrics),
		Roles:       roleservice.NewService(set.Roles, resolver, auditLogger, metrics),
		Transfers: transferservice.NewService(set.Transfers, set.Users, resolver, notifier, auditLogger, metrics, transferservice.Options{
			TTL:             cfg.TransferDuration(),
			MaxCodeAttempts: cfg.TransferMaxCodeAttempts,
			ReturnCode:      cfg.TransferCodeReturnToClient,
		}),
		JoinCodes:    joincodeservice.NewService(set.JoinCodes, set.Memberships, set.Organizations, resolver, notifier, auditLogger, metrics, cfg.RegenInterval()),
		AuditRepo:    set.AuditLogs,
		Access:       resolver,
		HealthPinger: set.Health,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
	defer lis.Close()

	go func() {
		log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down gRPC server...")
	health.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("notifications: pending sends dropped")
	}
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka sink close")
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	if pool != nil {
		pool.Close()
	}
	log.Info().Msg("gRPC server stopped")
}
