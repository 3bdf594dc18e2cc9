package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StorageBackend は永続ストレージの種類。
type StorageBackend string

const (
	StorageFile     StorageBackend = "file"
	StorageMemory   StorageBackend = "memory"
	StoragePostgres StorageBackend = "postgres"
	StorageRedis    StorageBackend = "redis"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Backend API
	APIBaseURL   string
	APITimeout   time.Duration
	APIRateLimit float64 // req/sec
	APIRateBurst int

	// Storage
	StorageBackend   StorageBackend
	StoragePath      string
	StorageNamespace string
	DatabaseURL      string
	RedisURL         string
	RetentionDays    int // postgresで使われなくなったnamespaceを削除するまでの日数

	// Bridge
	BridgePort        string
	CORSAllowedOrigin string

	// Sync
	SyncInterval time.Duration

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 選択したストレージに必要な環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		APIBaseURL:        getEnvString("API_BASE_URL", "http://localhost:8080/api"),
		APITimeout:        getEnvDuration("API_TIMEOUT", 10*time.Second),
		APIRateLimit:      getEnvFloat("API_RATE_LIMIT", 10),
		APIRateBurst:      getEnvInt("API_RATE_BURST", 20),
		StorageBackend:    StorageBackend(getEnvString("STORAGE_BACKEND", string(StorageFile))),
		StoragePath:       getEnvString("STORAGE_PATH", defaultStoragePath()),
		StorageNamespace:  getEnvString("STORAGE_NAMESPACE", "default"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RetentionDays:     getEnvInt("STORAGE_RETENTION_DAYS", 90),
		BridgePort:        getEnvString("BRIDGE_PORT", "3001"),
		CORSAllowedOrigin: getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
		SyncInterval:      getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
		LogLevel:          getEnvString("LOG_LEVEL", "info"),
	}

	var missing []string
	switch cfg.StorageBackend {
	case StorageFile, StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StorageRedis:
		if cfg.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND: %q", cfg.StorageBackend)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	return cfg, nil
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".storefront", "storage.json")
	}
	return filepath.Join(home, ".storefront", "storage.json")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
