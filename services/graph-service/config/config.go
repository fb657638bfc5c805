package config

import (
	"os"

	"github.com/jupiterclapton/gamefeed/pkg/envconfig"
)

type Config struct {
	GRPCPort     string
	Neo4jURI     string // ex: bolt://localhost:7687
	Neo4jUser    string
	Neo4jPass    string
	NatsUrl      string
	OtelEndpoint string
	Env          string
}

func Load() Config {
	envconfig.LoadDotEnv()
	return Config{
		GRPCPort:     getEnv("GRPC_PORT", "50052"),
		Neo4jURI:     getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:    getEnv("NEO4J_USER", "neo4j"),
		Neo4jPass:    getEnv("NEO4J_PASSWORD", "password"),
		NatsUrl:      getEnv("NATS_URL", "nats://nats:4222"),
		OtelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317"),
		Env:          getEnv("APP_ENV", "local"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
