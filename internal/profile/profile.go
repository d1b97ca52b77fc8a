package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where prefcache stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// Cache Configuration
	CacheMaxItems  int           // PREFCACHE_CACHE_MAX_ITEMS (default: 1000)
	CacheTTL       time.Duration // PREFCACHE_CACHE_TTL (default: 30m)
	RedisURL       string        // PREFCACHE_REDIS_URL (default: "", Redis disabled)
	RedisPassword  string        // PREFCACHE_REDIS_PASSWORD
	RedisKeyPrefix string        // PREFCACHE_REDIS_PREFIX (default: prefcache:)

	// RateLimit is the per-client request rate of the HTTP API, in requests per second.
	RateLimit float64 // PREFCACHE_RATE_LIMIT (default: 10)
	// RateBurst is the per-client burst of the HTTP API.
	RateBurst int // PREFCACHE_RATE_BURST (default: 20)

	// Secret signs the bearer tokens of the HTTP API. Empty leaves the API open.
	Secret string // PREFCACHE_SECRET
}

// IsAuthEnabled returns true if API requests must carry a bearer token.
func (p *Profile) IsAuthEnabled() bool {
	return p.Secret != ""
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsRedisEnabled returns true if a Redis L2 cache is configured.
func (p *Profile) IsRedisEnabled() bool {
	return p.RedisURL != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv fills the cache and rate limit settings from environment variables.
// Values that fail to parse fall back to their defaults.
func (p *Profile) FromEnv() {
	getIntEnv := func(key string, defaultValue int) int {
		if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
			return v
		}
		return defaultValue
	}
	getDurationEnv := func(key string, defaultValue time.Duration) time.Duration {
		if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
			return v
		}
		return defaultValue
	}
	getFloatEnv := func(key string, defaultValue float64) float64 {
		if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
			return v
		}
		return defaultValue
	}

	p.CacheMaxItems = getIntEnv("PREFCACHE_CACHE_MAX_ITEMS", 1000)
	p.CacheTTL = getDurationEnv("PREFCACHE_CACHE_TTL", 30*time.Minute)
	p.RedisURL = os.Getenv("PREFCACHE_REDIS_URL")
	p.RedisPassword = os.Getenv("PREFCACHE_REDIS_PASSWORD")
	p.RedisKeyPrefix = getEnvOrDefault("PREFCACHE_REDIS_PREFIX", "prefcache:")
	p.RateLimit = getFloatEnv("PREFCACHE_RATE_LIMIT", 10)
	p.RateBurst = getIntEnv("PREFCACHE_RATE_BURST", 20)
	p.Secret = os.Getenv("PREFCACHE_SECRET")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "prefcache")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/prefcache"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("prefcache_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	// An empty prefix would make key enumeration match the whole keyspace.
	if p.IsRedisEnabled() && p.RedisKeyPrefix == "" {
		return errors.New("redis key prefix must not be empty when redis is enabled")
	}

	if p.CacheMaxItems <= 0 {
		p.CacheMaxItems = 1000
	}
	if p.RateLimit <= 0 {
		p.RateLimit = 10
	}
	if p.RateBurst <= 0 {
		p.RateBurst = 20
	}

	return nil
}
