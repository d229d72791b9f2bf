package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port      string
	AuthToken string
	DBURL     string

	GeminiAPIKey      string
	GeminiTextModel   string
	GeminiImageModel  string
	GeminiTimeoutSecs int
	GeminiRPS         float64

	CatalogURL         string
	CatalogAPIKey      string
	CatalogTimeoutSecs int
	CatalogDataPath    string
	ImageBaseURL       string

	RedisAddr        string
	RedisPassword    string
	LookupCacheSecs  int
	AssetTimeoutSecs int

	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int

	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		AuthToken: os.Getenv("AUTH_TOKEN"),
		DBURL:     os.Getenv("DB_URL"),

		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiTextModel:   getEnv("GEMINI_TEXT_MODEL", "gemini-2.0-flash"),
		GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-exp"),
		GeminiTimeoutSecs: getEnvInt("GEMINI_TIMEOUT_SECS", 30),
		GeminiRPS:         getEnvFloat("GEMINI_RPS", 1),

		CatalogURL:         os.Getenv("CATALOG_URL"),
		CatalogAPIKey:      os.Getenv("CATALOG_API_KEY"),
		CatalogTimeoutSecs: getEnvInt("CATALOG_TIMEOUT_SECS", 5),
		CatalogDataPath:    getEnv("CATALOG_DATA_PATH", "data/movies.json"),
		ImageBaseURL:       getEnv("IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		LookupCacheSecs:  getEnvInt("LOOKUP_CACHE_SECS", 86400),
		AssetTimeoutSecs: getEnvInt("ASSET_TIMEOUT_SECS", 60),

		ReadTimeoutSecs:  getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs: getEnvInt("SERVER_WRITE_TIMEOUT", 120),
		IdleTimeoutSecs:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),

		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:     getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:     getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs: getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
	}

	if cfg.AuthToken == "" {
		return Config{}, fmt.Errorf("AUTH_TOKEN is required")
	}
	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.GeminiTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("GEMINI_TIMEOUT_SECS must be positive")
	}
	if cfg.GeminiRPS <= 0 {
		return Config{}, fmt.Errorf("GEMINI_RPS must be positive")
	}
	if cfg.CatalogTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("CATALOG_TIMEOUT_SECS must be positive")
	}
	if cfg.AssetTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("ASSET_TIMEOUT_SECS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.LookupCacheSecs < 0 {
		return Config{}, fmt.Errorf("LOOKUP_CACHE_SECS must be non-negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
