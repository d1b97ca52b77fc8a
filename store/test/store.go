package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hrygo/prefcache/internal/profile"
	"github.com/hrygo/prefcache/store"
	"github.com/hrygo/prefcache/store/cache"
	"github.com/hrygo/prefcache/store/db"
)

// TestingStore bundles a migrated store with the pieces tests inspect.
type TestingStore struct {
	*store.Store
	Engine   *cache.Cache
	Registry *cache.Registry
}

// NewTestingStore returns a migrated store on the given driver.
// "sqlite" uses a file in t.TempDir; "postgres" uses GetPostgresDSN.
func NewTestingStore(ctx context.Context, t *testing.T, driver string) *TestingStore {
	t.Helper()

	p := &profile.Profile{
		Mode:   "dev",
		Driver: driver,
	}
	p.FromEnv()
	switch driver {
	case "sqlite":
		p.Data = t.TempDir()
		p.DSN = filepath.Join(p.Data, "prefcache_test.db")
	case "postgres":
		p.Data = t.TempDir()
		p.DSN = GetPostgresDSN(t)
	default:
		t.Fatalf("unknown driver %q", driver)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("failed to validate profile: %v", err)
	}

	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	engine := cache.New(cache.Config{MaxItems: 100})
	registry := cache.NewRegistry()
	prefCache, err := store.NewUserPreferencesCache(engine, registry)
	if err != nil {
		t.Fatalf("failed to create preferences cache: %v", err)
	}

	s := store.New(dbDriver, p, prefCache)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	if driver == "postgres" {
		// Containers may be shared through POSTGRES_TEST_DSN.
		if _, err := dbDriver.GetDB().ExecContext(ctx, "TRUNCATE user_preference"); err != nil {
			t.Fatalf("failed to truncate user_preference: %v", err)
		}
	}

	t.Cleanup(func() {
		_ = engine.Close()
		_ = s.Close()
	})

	return &TestingStore{Store: s, Engine: engine, Registry: registry}
}
