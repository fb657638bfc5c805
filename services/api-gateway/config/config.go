package config

import (
	"os"
	"strings"

	"github.com/jupiterclapton/gamefeed/pkg/envconfig"
)

type Config struct {
	Port           string
	PostURL        string
	FeedURL        string
	InteractionURL string
	GraphURL       string
	JWTPublicKey   string // chemin du PEM de la clé publique du fournisseur d'identité
	JWTIssuer      string
	AllowedOrigins []string
	OtelEndpoint   string
	Env            string // "local" ou "prod"
}

func Load() Config {
	envconfig.LoadDotEnv()
	return Config{
		Port:           getEnv("PORT", "8080"),
		PostURL:        getEnv("POST_SERVICE_URL", "post-service:50053"),
		FeedURL:        getEnv("FEED_SERVICE_URL", "feed-service:50054"),
		InteractionURL: getEnv("INTERACTION_SERVICE_URL", "interaction-service:50055"),
		GraphURL:       getEnv("GRAPH_SERVICE_URL", "graph-service:50052"),
		JWTPublicKey:   getEnv("JWT_PUBLIC_KEY_PATH", "/etc/gamefeed/jwt.pub"),
		JWTIssuer:      os.Getenv("JWT_ISSUER"),
		AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:19006"), ","),
		OtelEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317"),
		Env:            getEnv("APP_ENV", "local"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
