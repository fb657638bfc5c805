package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	// Drivers
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	// Instrumentation
	"github.com/exaring/otelpgx"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"

	// Interne
	"github.com/jupiterclapton/gamefeed/pkg/logger"
	"github.com/jupiterclapton/gamefeed/pkg/ratelimit"
	"github.com/jupiterclapton/gamefeed/pkg/telemetry"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/config"
	grpc_adapter "github.com/jupiterclapton/gamefeed/services/interaction-service/internal/adapters/primary/grpc"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/core/ports"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/core/services"
)

func main() {
	// 1. Config & Logger
	cfg := config.Load()
	logger.Init(cfg.Env)
	slog.Info("🚀 Starting Interaction Service", "env", cfg.Env, "port", cfg.GRPCPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Télémétrie (Tracing)
	tp, err := telemetry.InitTracer(ctx, "interaction-service", cfg.Env, cfg.OtelEndpoint)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Infrastructure: Postgres
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to parse DB config", "error", err)
		os.Exit(1)
	}
	dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	slog.Info("✅ Connected to Postgres")

	// 4. Infrastructure: Rate limiter
	clock := clockwork.NewRealClock()
	budgets := ratelimit.Budgets{
		PerAction: map[string]ratelimit.Budget{
			services.ActionToggleReaction: {Limit: cfg.ReactionLimit, Window: cfg.ReactionWindow},
			services.ActionAddComment:     {Limit: cfg.CommentLimit, Window: cfg.CommentWindow},
		},
	}
	var limiter ports.RateLimiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			slog.Error("Failed to instrument Redis", "error", err)
		}
		defer rdb.Close()
		limiter = ratelimit.NewRedisLimiter(rdb, budgets)
		slog.Info("✅ Rate limiter backed by Redis")
	} else {
		limiter = ratelimit.NewMemoryLimiter(clock, budgets)
		slog.Warn("REDIS_ADDR not set, rate limits are process-local")
	}

	// 5. Infrastructure: Event Broker (NATS)
	nc, err := nats.Connect(cfg.NatsUrl)
	if err != nil {
		slog.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()
	slog.Info("✅ Connected to NATS")

	// 6. Core
	interactionService := services.NewInteractionService(
		repository.NewPostgresRepo(dbPool),
		eventbroker.NewNatsPublisher(nc),
		limiter,
		clock,
	)

	// 7. Serveur gRPC
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	grpc_adapter.NewServer(interactionService).Register(grpcServer)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		slog.Error("Failed to listen", "error", err)
		os.Exit(1)
	}
	slog.Info("📡 Interaction Service listening", "port", cfg.GRPCPort)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()
	slog.Info("👋 Server exited")
}
