package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	feedv1 "github.com/jupiterclapton/gamefeed/api/feed/v1"
	graphv1 "github.com/jupiterclapton/gamefeed/api/graph/v1"
	interactionv1 "github.com/jupiterclapton/gamefeed/api/interaction/v1"
	postv1 "github.com/jupiterclapton/gamefeed/api/post/v1"
	"github.com/jupiterclapton/gamefeed/pkg/logger"
	"github.com/jupiterclapton/gamefeed/pkg/telemetry"
	"github.com/jupiterclapton/gamefeed/services/api-gateway/config"
	"github.com/jupiterclapton/gamefeed/services/api-gateway/internal/auth"
	"github.com/jupiterclapton/gamefeed/services/api-gateway/internal/handlers"
)

func main() {
	// 1. Configuration
	cfg := config.Load()

	// 2. Logger
	logger.Init(cfg.Env)
	slog.Info("🚀 Starting API Gateway", "env", cfg.Env, "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Télémétrie (Tracing)
	tp, err := telemetry.InitTracer(ctx, "api-gateway", cfg.Env, cfg.OtelEndpoint)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 4. Vérification des tokens (clé publique du fournisseur d'identité)
	pem, err := os.ReadFile(cfg.JWTPublicKey)
	if err != nil {
		slog.Error("Unable to read JWT public key", "path", cfg.JWTPublicKey, "error", err)
		os.Exit(1)
	}
	verifier, err := auth.NewVerifier(pem, cfg.JWTIssuer)
	if err != nil {
		slog.Error("Invalid JWT public key", "error", err)
		os.Exit(1)
	}

	// 5. Clients gRPC (Feed, Post, Interaction, Graph)
	// On utilise une fonction helper pour éviter de dupliquer le code de connexion
	feedConn := mustConnectGrpc(cfg.FeedURL, "Feed Service")
	defer feedConn.Close()
	postConn := mustConnectGrpc(cfg.PostURL, "Post Service")
	defer postConn.Close()
	interactionConn := mustConnectGrpc(cfg.InteractionURL, "Interaction Service")
	defer interactionConn.Close()
	graphConn := mustConnectGrpc(cfg.GraphURL, "Graph Service")
	defer graphConn.Close()

	api := &handlers.Handler{
		FeedClient:        feedv1.NewFeedServiceClient(feedConn),
		PostClient:        postv1.NewPostServiceClient(postConn),
		InteractionClient: interactionv1.NewInteractionServiceClient(interactionConn),
		GraphClient:       graphv1.NewGraphServiceClient(graphConn),
	}

	// 6. Chaîne de Middlewares HTTP
	apiMux := http.NewServeMux()
	api.Routes(apiMux)
	var h http.Handler = apiMux

	// A. Auth (Injecte UserID)
	h = auth.Middleware(verifier)(h)

	// B. CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "baggage", "traceparent"},
		AllowCredentials: true,
	})
	h = c.Handler(h)

	// C. OTEL HTTP (Racine)
	h = otelhttp.NewHandler(h, "HTTP-Gateway", otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
		return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
	}))

	// 7. Routage
	mux := http.NewServeMux()
	mux.Handle("/v1/", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	// 8. Démarrage Graceful
	srvHTTP := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("📡 Gateway listening", "port", cfg.Port)
		if err := srvHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("👋 Server exited")
}

// --- HELPERS ---

// Helper pour initier les connexions gRPC avec Tracing activé
func mustConnectGrpc(url string, serviceName string) *grpc.ClientConn {
	conn, err := grpc.NewClient(
		url,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()), // Injection Trace Context
	)
	if err != nil {
		slog.Error("Failed to connect to microservice", "service", serviceName, "url", url, "error", err)
		os.Exit(1)
	}
	return conn
}
