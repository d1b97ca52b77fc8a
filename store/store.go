package store

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/hrygo/prefcache/internal/errors"
	"github.com/hrygo/prefcache/internal/profile"
)

// Store provides preference access backed by the database and the user-scoped cache.
type Store struct {
	profile *profile.Profile
	driver  Driver

	prefCache *UserPreferencesCache
	loads     singleflight.Group
	fills     fillGuard
}

// New creates a new instance of Store.
// prefCache is shared with every other consumer of the process.
func New(driver Driver, profile *profile.Profile, prefCache *UserPreferencesCache) *Store {
	return &Store{
		driver:    driver,
		profile:   profile,
		prefCache: prefCache,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// PreferencesCache returns the cache the store reads through.
func (s *Store) PreferencesCache() *UserPreferencesCache {
	return s.prefCache
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// GetPreference returns the value of a user's preference, or defaultValue
// when the user never set it. Only stored values are cached.
func (s *Store) GetPreference(ctx context.Context, userID, key, defaultValue string) (string, error) {
	if err := validatePreferenceKey(userID, key); err != nil {
		return "", err
	}

	value, found, err := s.prefCache.Get(ctx, userID, key)
	if err != nil {
		// A broken cache degrades to database reads.
		slog.Warn("preference cache read failed", slog.String("user_id", userID), slog.String("key", key), slog.String("error", err.Error()))
	} else if found {
		return value, nil
	}

	cacheKey := s.prefCache.CacheKey(userID, key)
	result, err, _ := s.loads.Do(cacheKey, func() (any, error) {
		generation := s.fills.generation(userID)
		pref, err := s.driver.GetUserPreference(ctx, &FindUserPreference{UserID: userID, Key: key})
		if err != nil {
			return nil, apperrors.StorageFailed("failed to load preference", err)
		}
		if pref == nil {
			return nil, nil
		}
		filled := s.fills.fillIfCurrent(userID, generation, func() {
			if err := s.prefCache.Put(ctx, userID, key, pref.Value); err != nil {
				slog.Warn("preference cache write failed", slog.String("user_id", userID), slog.String("key", key), slog.String("error", err.Error()))
			}
		})
		if !filled {
			slog.Debug("preference changed while loading, not caching", slog.String("user_id", userID), slog.String("key", key))
		}
		return pref.Value, nil
	})
	if err != nil {
		return "", err
	}
	if result == nil {
		return defaultValue, nil
	}
	return result.(string), nil
}

// GetPreferenceInt returns an integer preference. Values that do not parse
// as an integer yield defaultValue.
func (s *Store) GetPreferenceInt(ctx context.Context, userID, key string, defaultValue int) (int, error) {
	raw, err := s.GetPreference(ctx, userID, key, strconv.Itoa(defaultValue))
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue, nil
	}
	return value, nil
}

// GetPreferenceBool returns a boolean preference. Values that do not parse
// as a boolean yield defaultValue.
func (s *Store) GetPreferenceBool(ctx context.Context, userID, key string, defaultValue bool) (bool, error) {
	raw, err := s.GetPreference(ctx, userID, key, strconv.FormatBool(defaultValue))
	if err != nil {
		return false, err
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue, nil
	}
	return value, nil
}

// PutPreference stores a user's preference. The database is written first;
// the cache only ever holds values that were persisted.
func (s *Store) PutPreference(ctx context.Context, userID, key, value string) error {
	if err := validatePreferenceKey(userID, key); err != nil {
		return err
	}

	if _, err := s.driver.UpsertUserPreference(ctx, &UpsertUserPreference{UserID: userID, Key: key, Value: value}); err != nil {
		return apperrors.StorageFailed("failed to store preference", err)
	}
	s.invalidateLoads(userID, key)

	// The value is persisted at this point, so a cache failure is not the caller's error.
	if err := s.prefCache.Put(ctx, userID, key, value); err != nil {
		slog.Warn("preference cache write failed", slog.String("user_id", userID), slog.String("key", key), slog.String("error", err.Error()))
		// Drop whatever the cache holds so the next read reloads the stored value.
		if err := s.prefCache.Remove(ctx, userID, key); err != nil {
			slog.Error("stale preference may remain cached", slog.String("user_id", userID), slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return nil
}

// invalidateLoads stops in-flight loads of userID from caching what they
// read. With a key, later reads of that key also stop joining those loads.
func (s *Store) invalidateLoads(userID, key string) {
	s.fills.invalidate(userID)
	if key != "" {
		s.loads.Forget(s.prefCache.CacheKey(userID, key))
	}
}

func (s *Store) PutPreferenceInt(ctx context.Context, userID, key string, value int) error {
	return s.PutPreference(ctx, userID, key, strconv.Itoa(value))
}

func (s *Store) PutPreferenceBool(ctx context.Context, userID, key string, value bool) error {
	return s.PutPreference(ctx, userID, key, strconv.FormatBool(value))
}

// ListPreferenceKeys returns the keys a user has set, sorted.
func (s *Store) ListPreferenceKeys(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, apperrors.InvalidArgument("user id is required")
	}
	keys, err := s.driver.ListUserPreferenceKeys(ctx, userID)
	if err != nil {
		return nil, apperrors.StorageFailed("failed to list preference keys", err)
	}
	return keys, nil
}

// ClearPreferences deletes every preference of a user and evicts them from the cache.
func (s *Store) ClearPreferences(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidArgument("user id is required")
	}
	if err := s.driver.DeleteUserPreference(ctx, &DeleteUserPreference{UserID: userID}); err != nil {
		return apperrors.StorageFailed("failed to delete preferences", err)
	}
	s.invalidateLoads(userID, "")
	if err := s.prefCache.RemoveUserValues(ctx, userID); err != nil {
		return apperrors.CacheUnavailable("failed to evict preferences", err)
	}
	slog.Debug("preferences cleared", slog.String("user_id", userID))
	return nil
}

// ClearPreference deletes one preference of a user.
func (s *Store) ClearPreference(ctx context.Context, userID, key string) error {
	if err := validatePreferenceKey(userID, key); err != nil {
		return err
	}
	if err := s.driver.DeleteUserPreference(ctx, &DeleteUserPreference{UserID: userID, Key: key}); err != nil {
		return apperrors.StorageFailed("failed to delete preference", err)
	}
	s.invalidateLoads(userID, key)
	if err := s.prefCache.Remove(ctx, userID, key); err != nil {
		return apperrors.CacheUnavailable("failed to evict preference", err)
	}
	return nil
}

// ListUsersWithPreference returns the ids of users holding value under key.
func (s *Store) ListUsersWithPreference(ctx context.Context, key, value string) ([]string, error) {
	if key == "" {
		return nil, apperrors.InvalidArgument("preference key is required")
	}
	userIDs, err := s.driver.ListUserIDsByPreference(ctx, &FindUserPreferenceValue{Key: key, Value: value})
	if err != nil {
		return nil, apperrors.StorageFailed("failed to list users", err)
	}
	return userIDs, nil
}

// ExistsPreferenceValue reports whether any user holds value under key,
// e.g. to keep nicknames unique.
func (s *Store) ExistsPreferenceValue(ctx context.Context, key, value string) (bool, error) {
	if key == "" {
		return false, apperrors.InvalidArgument("preference key is required")
	}
	exists, err := s.driver.ExistsPreferenceValue(ctx, &FindUserPreferenceValue{Key: key, Value: value})
	if err != nil {
		return false, apperrors.StorageFailed("failed to check preference value", err)
	}
	return exists, nil
}

func validatePreferenceKey(userID, key string) error {
	if userID == "" {
		return apperrors.InvalidArgument("user id is required")
	}
	if key == "" {
		return apperrors.InvalidArgument("preference key is required").WithContext("user_id", userID)
	}
	return nil
}
