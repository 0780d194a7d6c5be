package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Download DownloadConfig
	API      APIConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port string
	Host string
}

// ProviderConfig selects the metadata/fetch strategy and carries the
// credentials the hosted-API strategy needs. The RapidAPI key is checked
// per request, not at boot.
type ProviderConfig struct {
	Strategy     string
	RapidAPIKey  string
	RapidAPIHost string
}

type DownloadConfig struct {
	TempDir         string
	DownloadTimeout time.Duration
	YtdlpPath       string
	FfmpegPath      string
	MinHeight       int
}

type APIConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type CORSConfig struct {
	Enabled        bool
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

const (
	StrategyYtdlp    = "ytdlp"
	StrategyNative   = "native"
	StrategyRapidAPI = "rapidapi"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	// Provider configuration
	cfg.Provider.Strategy = getEnv("PROVIDER_STRATEGY", StrategyYtdlp)
	switch cfg.Provider.Strategy {
	case StrategyYtdlp, StrategyNative, StrategyRapidAPI:
	default:
		return nil, fmt.Errorf("invalid PROVIDER_STRATEGY: %s", cfg.Provider.Strategy)
	}
	cfg.Provider.RapidAPIKey = getEnv("RAPIDAPI_KEY", "")
	cfg.Provider.RapidAPIHost = getEnv("RAPIDAPI_HOST", "yt-api.p.rapidapi.com")

	// Download configuration
	cfg.Download.TempDir = getEnv("DOWNLOAD_TEMP_DIR", os.TempDir())
	downloadTimeout, err := time.ParseDuration(getEnv("DOWNLOAD_TIMEOUT", "300s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DOWNLOAD_TIMEOUT: %w", err)
	}
	cfg.Download.DownloadTimeout = downloadTimeout
	cfg.Download.YtdlpPath = getEnv("YTDLP_PATH", "yt-dlp")
	cfg.Download.FfmpegPath = getEnv("FFMPEG_PATH", "ffmpeg")
	cfg.Download.MinHeight = getEnvInt("MIN_FORMAT_HEIGHT", 144)

	// API configuration
	cfg.API.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", 100)
	rateLimitWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}
	cfg.API.RateLimitWindow = rateLimitWindow

	// CORS configuration
	cfg.CORS.Enabled = getEnvBool("CORS_ENABLED", true)
	cfg.CORS.AllowedOrigins = getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"})
	cfg.CORS.AllowedMethods = getEnvStringSlice("CORS_ALLOWED_METHODS", []string{
		"GET", "POST", "OPTIONS",
	})
	cfg.CORS.AllowedHeaders = getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{
		"Origin", "Content-Type", "Accept",
	})

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(strings.TrimSpace(value), ",")
	}
	return defaultValue
}
