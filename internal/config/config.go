package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// LayoutGrouped splits the snapshot list into pending and previous sections.
	LayoutGrouped = "grouped"
	// LayoutFlat renders every snapshot in a single list.
	LayoutFlat = "flat"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Port           int
	APIURL         string // Base of the snapshots REST API, e.g. http://localhost:3001/api
	AssetBaseURL   string // Base that stored photo references are resolved against
	HTTPTimeout    time.Duration
	CameraDevice   int
	PreviewFPS     int
	ListLayout     string
	ReviewEnabled  bool
	CacheBackend   string
	CacheTTL       time.Duration // 0 means entries only go stale on invalidation
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	LogDirectory   string
	LogConsoleOnly bool
}

// Load reads .env (when present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnvAsInt("PORT", 8080),
		APIURL:         strings.TrimRight(getEnv("API_URL", "http://localhost:3001/api"), "/"),
		AssetBaseURL:   strings.TrimRight(getEnv("ASSET_BASE_URL", "http://localhost:3001"), "/"),
		HTTPTimeout:    time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 0)) * time.Second,
		CameraDevice:   getEnvAsInt("CAMERA_DEVICE", 0),
		PreviewFPS:     getEnvAsInt("PREVIEW_FPS", 5),
		ListLayout:     getEnvOneOf("LIST_LAYOUT", LayoutGrouped, LayoutGrouped, LayoutFlat),
		ReviewEnabled:  getEnvAsBool("REVIEW_ENABLED", false),
		CacheBackend:   getEnvOneOf("CACHE_BACKEND", CacheMemory, CacheMemory, CacheRedis),
		CacheTTL:       time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 0)) * time.Second,
		RedisAddress:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		LogDirectory:   getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogConsoleOnly: getEnvAsBool("LOG_CONSOLE_ONLY", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvOneOf falls back to defaultValue when the variable holds anything outside allowed.
func getEnvOneOf(key, defaultValue string, allowed ...string) string {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return defaultValue
}
