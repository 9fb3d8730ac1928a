package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIBaseURL  = "http://localhost:3000"
	defaultRealtimeURL = "ws://localhost:3000/ws"
	defaultRedisAddr   = "localhost:6379"
	defaultSessionFile = ".dinesync/session.json"
	defaultAppPort     = "8080"
	defaultAppEnv      = "local"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"API_BASE_URL":       defaultAPIBaseURL,
		"REALTIME_URL":       defaultRealtimeURL,
		"REDIS_ADDR":         defaultRedisAddr,
		"REDIS_PASSWORD":     "",
		"SESSION_FILE":       defaultSessionFile,
		"APP_PORT":           defaultAppPort,
		"APP_ENV":            defaultAppEnv,
		"MONGO_LOG_URI":      "",
		"MONGO_LOG_DB":       "dinesync",
		"MONGO_LOG_COLL":     "logs",
		"CATALOG_CACHE_TTL":  "30s",
		"SESSION_CHECK_TICK": "60s",
	}
}

// APIBaseURL is the base URL of the remote restaurant REST backend.
func APIBaseURL() string {
	_ = Load()
	return strings.TrimRight(get("API_BASE_URL", defaultAPIBaseURL), "/")
}

// RealtimeURL is the websocket endpoint for order lifecycle events.
func RealtimeURL() string {
	_ = Load()
	return get("REALTIME_URL", defaultRealtimeURL)
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// SessionFile is where the auth token and role are persisted between runs.
func SessionFile() string {
	_ = Load()
	return get("SESSION_FILE", defaultSessionFile)
}

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

func MongoLogURI() string  { _ = Load(); return get("MONGO_LOG_URI", "") }
func MongoLogDB() string   { _ = Load(); return get("MONGO_LOG_DB", "dinesync") }
func MongoLogColl() string { _ = Load(); return get("MONGO_LOG_COLL", "logs") }

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", "storage")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }

// CatalogCacheTTL is how long catalog reads stay cached in Redis.
func CatalogCacheTTL() time.Duration {
	_ = Load()
	return duration("CATALOG_CACHE_TTL", 30*time.Second)
}

// SessionCheckTick is the interval of the background session-expiry check.
func SessionCheckTick() time.Duration {
	_ = Load()
	return duration("SESSION_CHECK_TICK", time.Minute)
}

func duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(get(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	// Process environment wins over files.
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			loaded[key] = v
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	for key, value := range env {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(value)
	}

	return nil
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
// Keys from .env and app.json are available after config.Load().
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}
