package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
// Provider credentials are optional: a missing key switches the affected stage
// to its documented fallback instead of failing startup.
type Config struct {
	AppEnv string
	Port   string

	DatabaseURL string

	StorageBaseURL string
	StorageBucket  string
	StorageAPIKey  string
	StoragePath    string

	GeoIPDBPath   string
	DefaultLocale string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	VisionModel       string
	TextModel         string

	GetimgAPIKey  string
	GetimgBaseURL string
	GetimgModel   string

	NovitaAPIKey  string
	NovitaBaseURL string
	NovitaModel   string

	FaceSwapAPIKey  string
	FaceSwapBaseURL string

	TokenCostImage  int
	PollInterval    time.Duration
	PollMaxAttempts int
	ProviderTimeout time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		StorageBaseURL: os.Getenv("STORAGE_BASE_URL"),
		StorageBucket:  getEnv("STORAGE_BUCKET", "generated-images"),
		StorageAPIKey:  os.Getenv("STORAGE_API_KEY"),
		StoragePath:    getEnv("STORAGE_PATH", "./data/images"),

		GeoIPDBPath:   os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "sv"),

		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		VisionModel:       getEnv("VISION_MODEL", "openai/gpt-4o-mini"),
		TextModel:         getEnv("TEXT_MODEL", "openai/gpt-4o-mini"),

		GetimgAPIKey:  os.Getenv("GETIMG_API_KEY"),
		GetimgBaseURL: getEnv("GETIMG_BASE_URL", "https://api.getimg.ai/v1"),
		GetimgModel:   getEnv("GETIMG_MODEL", "stable-diffusion-xl-v1-0"),

		NovitaAPIKey:  os.Getenv("NOVITA_API_KEY"),
		NovitaBaseURL: getEnv("NOVITA_BASE_URL", "https://api.novita.ai"),
		NovitaModel:   getEnv("NOVITA_MODEL", "sd_xl_base_1.0.safetensors"),

		FaceSwapAPIKey:  os.Getenv("FACESWAP_API_KEY"),
		FaceSwapBaseURL: getEnv("FACESWAP_BASE_URL", "https://api.segmind.com/v1/faceswap-v2"),

		TokenCostImage:  getEnvInt("TOKEN_COST_IMAGE", 5),
		PollInterval:    time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 2)),
		PollMaxAttempts: getEnvInt("POLL_MAX_ATTEMPTS", 30),
		ProviderTimeout: time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 45)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("POLL_MAX_ATTEMPTS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
