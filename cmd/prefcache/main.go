package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/prefcache/internal/profile"
	"github.com/hrygo/prefcache/server"
	"github.com/hrygo/prefcache/server/middleware"
	"github.com/hrygo/prefcache/store"
	"github.com/hrygo/prefcache/store/cache"
	"github.com/hrygo/prefcache/store/db"
)

var version = "0.1.0"

var (
	rootCmd = &cobra.Command{
		Use:   "prefcache",
		Short: `A user preference service with a per-user scoped cache.`,
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile := &profile.Profile{
				Mode:           viper.GetString("mode"),
				Addr:           viper.GetString("addr"),
				Port:           viper.GetInt("port"),
				Data:           viper.GetString("data"),
				Driver:         viper.GetString("driver"),
				DSN:            viper.GetString("dsn"),
				Version:        version,
				CacheMaxItems:  viper.GetInt("cache-max-items"),
				CacheTTL:       viper.GetDuration("cache-ttl"),
				RedisURL:       viper.GetString("redis-url"),
				RedisPassword:  viper.GetString("redis-password"),
				RedisKeyPrefix: viper.GetString("redis-prefix"),
				RateLimit:      viper.GetFloat64("rate-limit"),
				RateBurst:      viper.GetInt("rate-burst"),
				Secret:         viper.GetString("secret"),
			}
			if err := instanceProfile.Validate(); err != nil {
				panic(err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s, engine, err := run(ctx, instanceProfile)
			if err != nil {
				slog.Error("failed to start prefcache", slog.String("error", err.Error()))
				os.Exit(1)
			}

			printGreetings(instanceProfile)
			if !instanceProfile.IsAuthEnabled() {
				slog.Warn("no secret configured, the API accepts unauthenticated requests")
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			<-c
			s.Shutdown(ctx)
			if err := engine.Close(); err != nil {
				slog.Warn("failed to close cache engine", slog.String("error", err.Error()))
			}
		},
	}
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token signed with the configured secret.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, _ := cmd.Flags().GetString("user")
		admin, _ := cmd.Flags().GetBool("admin")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		token, err := issueToken(viper.GetString("secret"), userID, admin, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

// issueToken signs an access token for userID with secret.
func issueToken(secret, userID string, admin bool, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("a secret is required to issue tokens")
	}
	if userID == "" {
		return "", errors.New("a user id is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}
	return middleware.NewAuthenticator(secret).GenerateAccessToken(userID, admin, ttl)
}

// run wires the store, the cache engine and the HTTP server, in that order.
// The returned engine is owned by the caller.
func run(ctx context.Context, instanceProfile *profile.Profile) (*server.Server, cache.Engine, error) {
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create db driver")
	}

	engine, err := newCacheEngine(ctx, instanceProfile)
	if err != nil {
		_ = dbDriver.Close()
		return nil, nil, err
	}

	registry := cache.NewRegistry()
	prefCache, err := store.NewUserPreferencesCache(engine, registry)
	if err != nil {
		_ = engine.Close()
		_ = dbDriver.Close()
		return nil, nil, errors.Wrap(err, "failed to create preferences cache")
	}

	storeInstance := store.New(dbDriver, instanceProfile, prefCache)
	if err := storeInstance.Migrate(ctx); err != nil {
		_ = engine.Close()
		_ = storeInstance.Close()
		return nil, nil, errors.Wrap(err, "failed to migrate")
	}

	s, err := server.NewServer(ctx, instanceProfile, storeInstance, registry)
	if err != nil {
		_ = engine.Close()
		_ = storeInstance.Close()
		return nil, nil, errors.Wrap(err, "failed to create server")
	}
	if err := s.Start(ctx); err != nil {
		_ = engine.Close()
		_ = storeInstance.Close()
		return nil, nil, errors.Wrap(err, "failed to start server")
	}
	return s, engine, nil
}

// newCacheEngine builds the memory tier and, when a Redis URL is configured,
// puts Redis behind it as the shared tier.
func newCacheEngine(ctx context.Context, instanceProfile *profile.Profile) (*cache.TieredCache, error) {
	tieredConfig := &cache.TieredConfig{
		L1MaxItems: instanceProfile.CacheMaxItems,
		L1TTL:      instanceProfile.CacheTTL,
	}
	if !instanceProfile.IsRedisEnabled() {
		return cache.NewTieredCache(tieredConfig, nil), nil
	}

	redisConfig := cache.DefaultRedisConfig()
	redisConfig.URL = instanceProfile.RedisURL
	redisConfig.Password = instanceProfile.RedisPassword
	redisConfig.KeyPrefix = instanceProfile.RedisKeyPrefix
	redisConfig.DefaultTTL = instanceProfile.CacheTTL
	redisCache, err := cache.NewRedisCache(ctx, redisConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis")
	}
	return cache.NewTieredCache(tieredConfig, redisCache), nil
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("cache-max-items", 1000)
	viper.SetDefault("cache-ttl", 30*time.Minute)
	viper.SetDefault("redis-prefix", "prefcache:")
	viper.SetDefault("rate-limit", 10.0)
	viper.SetDefault("rate-burst", 20)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().Int("cache-max-items", 1000, "maximum entries in the memory cache")
	rootCmd.PersistentFlags().Duration("cache-ttl", 30*time.Minute, "time to live of cached preferences")
	rootCmd.PersistentFlags().String("redis-url", "", "redis address or URL; enables the shared cache tier")
	rootCmd.PersistentFlags().String("redis-password", "", "redis password")
	rootCmd.PersistentFlags().String("redis-prefix", "prefcache:", "prefix of every redis key")
	rootCmd.PersistentFlags().Float64("rate-limit", 10, "requests per second allowed per client")
	rootCmd.PersistentFlags().Int("rate-burst", 20, "request burst allowed per client")
	rootCmd.PersistentFlags().String("secret", "", "secret that signs API bearer tokens; empty disables auth")

	for _, name := range []string{
		"mode", "addr", "port", "data", "driver", "dsn",
		"cache-max-items", "cache-ttl",
		"redis-url", "redis-password", "redis-prefix",
		"rate-limit", "rate-burst", "secret",
	} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	tokenCmd.Flags().String("user", "", "user id the token acts for")
	tokenCmd.Flags().Bool("admin", false, "grant access to every user and the cache administration routes")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "lifetime of the token")
	rootCmd.AddCommand(tokenCmd)

	viper.SetEnvPrefix("prefcache")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("prefcache %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("Cache: %d items, ttl %s, redis %t\n", profile.CacheMaxItems, profile.CacheTTL, profile.IsRedisEnabled())

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Access your instance at: http://localhost:%d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
