package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jupiterclapton/gamefeed/pkg/logger"
	"github.com/jupiterclapton/gamefeed/pkg/telemetry"
	"github.com/jupiterclapton/gamefeed/services/graph-service/config"
	grpc_adapter "github.com/jupiterclapton/gamefeed/services/graph-service/internal/adapters/primary/grpc"
	"github.com/jupiterclapton/gamefeed/services/graph-service/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/gamefeed/services/graph-service/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/gamefeed/services/graph-service/internal/core/services"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Env)

	tp, err := telemetry.InitTracer(context.Background(), "graph-service", cfg.Env, cfg.OtelEndpoint)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 1. Connexion Neo4j
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		slog.Error("Failed to create neo4j driver", "error", err)
		os.Exit(1)
	}
	defer driver.Close(context.Background())

	// Vérification connectivité
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		slog.Error("Failed to connect to Neo4j", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to Neo4j")

	// 2. NATS (événements graph.*)
	nc, err := nats.Connect(cfg.NatsUrl)
	if err != nil {
		slog.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()
	slog.Info("✅ Connected to NATS")

	// 3. Wiring
	repo := repository.NewNeo4jRepo(driver)

	// Init Schema (Indexes)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		slog.Warn("Schema init failed (might be fine if already exists)", "error", err)
	}

	svc := services.NewGraphService(repo, eventbroker.NewNatsPublisher(nc))
	handler := grpc_adapter.NewServer(svc)

	// 4. gRPC Server
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		slog.Error("Failed to listen", "error", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	handler.Register(grpcServer)

	// Health Check
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	slog.Info("🚀 Graph Service (Neo4j) listening", "port", cfg.GRPCPort)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")
	grpcServer.GracefulStop()
	slog.Info("👋 Server exited")
}
