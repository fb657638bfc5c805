package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	// Drivers
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	// Instrumentation
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"

	// Interne
	"github.com/jupiterclapton/gamefeed/pkg/logger"
	"github.com/jupiterclapton/gamefeed/pkg/telemetry"
	"github.com/jupiterclapton/gamefeed/services/feed-service/config"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/adapters/primary/events"
	grpc_adapter "github.com/jupiterclapton/gamefeed/services/feed-service/internal/adapters/primary/grpc"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/adapters/secondary/cache"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/adapters/secondary/clients"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/adapters/secondary/sources"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/services"
)

func main() {
	// 1. Config & Logger
	cfg := config.Load()
	logger.Init(cfg.Env)
	slog.Info("🚀 Starting Feed Service", "env", cfg.Env, "port", cfg.GRPCPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Télémétrie (Tracing)
	tp, err := telemetry.InitTracer(ctx, "feed-service", cfg.Env, cfg.OtelEndpoint)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Infrastructure: Postgres (sources de contenu + signaux viewer, lecture seule)
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Invalid database URL", "error", err)
		os.Exit(1)
	}
	dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		slog.Error("Unable to create pg pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		slog.Error("Unable to connect to Postgres", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to Postgres")

	// 4. Infrastructure: cache de visibilité (Redis partagé, sinon mémoire)
	clock := clockwork.NewRealClock()
	var visibilityCache ports.VisibilityCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			slog.Error("Failed to instrument Redis", "error", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("Unable to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		visibilityCache = cache.NewRedisVisibilityCache(rdb)
		slog.Info("✅ Connected to Redis")
	} else {
		visibilityCache = cache.NewMemoryVisibilityCache(clock)
		slog.Warn("REDIS_ADDR not set, visibility cache is process-local")
	}

	// 5. Infrastructure: Graph Client
	graphClient, err := clients.NewGraphClient(cfg.GraphUrl)
	if err != nil {
		slog.Error("Unable to connect to Graph Service", "error", err)
		os.Exit(1)
	}
	defer graphClient.Close()
	slog.Info("✅ Connected to Graph Service")

	// 6. Initialisation du Core
	visibility := services.NewVisibilityFilter(graphClient, visibilityCache, cfg.VisibilityTTL)
	feedService := services.NewFeedService(
		[]ports.ContentSource{sources.NewPostsSource(pool), sources.NewReviewsSource(pool)},
		graphClient,
		visibility,
		sources.NewSignalsRepo(pool),
		clock,
		cfg.Feed,
	)

	// 7. Consumer NATS : invalidation du cache sur graph.blocks.* / graph.mutes.*
	nc, err := nats.Connect(cfg.NatsUrl)
	if err != nil {
		slog.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()
	if _, err := events.NewEventHandler(visibility).Subscribe(nc); err != nil {
		slog.Error("Failed to subscribe to NATS", "error", err)
		os.Exit(1)
	}
	slog.Info("👂 Listening for graph events (NATS)")

	// 8. Serveur gRPC
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		slog.Error("Failed to listen", "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	grpc_adapter.NewServer(feedService).Register(grpcServer)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	slog.Info("📡 Feed Service gRPC listening", "port", cfg.GRPCPort)
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
