package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Citation CitationConfig
	Otel     OtelConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CitationLogPath    string
	CorsAllowedOrigins string
	JwtSecret          string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type CitationConfig struct {
	RegistryURL    string
	DOIURL         string
	Mailto         string
	HTTPTimeout    time.Duration
	RegistryRPS    float64
	AssetDir       string
	AssetBaseURL   string // empty: read styles from AssetDir
	PrefetchStyles []string
	SessionStore   string // "memory" or "redis"
	SessionTTL     time.Duration
	WarmupTopic    string
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CitationLogPath:    getEnv("CITATION_LOG_FILE_PATH", "logs/citation.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Citation: CitationConfig{
			RegistryURL:    getEnv("CITATION_REGISTRY_URL", "https://api.crossref.org"),
			DOIURL:         getEnv("CITATION_DOI_URL", "https://doi.org"),
			Mailto:         getEnv("CITATION_MAILTO", ""),
			HTTPTimeout:    time.Duration(getEnvAsInt("CITATION_HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
			RegistryRPS:    getEnvAsFloat("CITATION_REGISTRY_RPS", 10),
			AssetDir:       getEnv("CSL_ASSET_DIR", "./web/csl"),
			AssetBaseURL:   getEnv("CSL_ASSET_BASE_URL", ""),
			PrefetchStyles: getEnvAsList("CSL_PREFETCH_STYLES", "apa,mla"),
			SessionStore:   getEnv("CITATION_SESSION_STORE", "memory"),
			SessionTTL:     time.Duration(getEnvAsInt("CITATION_SESSION_TTL_HOURS", 24)) * time.Hour,
			WarmupTopic:    getEnv("CITATION_EVENTS_TOPIC", "CITATION_STYLE_WARMUP"),
		},
		Otel: OtelConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-writing-backend"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
