package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	// Type returns the driver name used to select migration files.
	Type() string
	Close() error

	// UserPreference model related methods.
	UpsertUserPreference(ctx context.Context, upsert *UpsertUserPreference) (*UserPreference, error)
	// GetUserPreference returns nil without error when no row matches.
	GetUserPreference(ctx context.Context, find *FindUserPreference) (*UserPreference, error)
	ListUserPreferenceKeys(ctx context.Context, userID string) ([]string, error)
	DeleteUserPreference(ctx context.Context, delete *DeleteUserPreference) error
	ListUserIDsByPreference(ctx context.Context, find *FindUserPreferenceValue) ([]string, error)
	ExistsPreferenceValue(ctx context.Context, find *FindUserPreferenceValue) (bool, error)
}
