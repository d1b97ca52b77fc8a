package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/prefcache/store"
)

func (d *DB) UpsertUserPreference(ctx context.Context, upsert *store.UpsertUserPreference) (*store.UserPreference, error) {
	now := time.Now().Unix()

	stmt := `INSERT INTO user_preference (user_id, pref_key, pref_value, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, pref_key) DO UPDATE SET
			pref_value = EXCLUDED.pref_value,
			updated_ts = EXCLUDED.updated_ts
		RETURNING user_id, pref_key, pref_value, created_ts, updated_ts`

	result := &store.UserPreference{}
	err := d.db.QueryRowContext(ctx, stmt, upsert.UserID, upsert.Key, upsert.Value, now, now).Scan(
		&result.UserID,
		&result.Key,
		&result.Value,
		&result.CreatedTs,
		&result.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert user_preference")
	}

	return result, nil
}

func (d *DB) GetUserPreference(ctx context.Context, find *store.FindUserPreference) (*store.UserPreference, error) {
	query := `SELECT user_id, pref_key, pref_value, created_ts, updated_ts FROM user_preference WHERE user_id = $1 AND pref_key = $2`

	result := &store.UserPreference{}
	err := d.db.QueryRowContext(ctx, query, find.UserID, find.Key).Scan(
		&result.UserID,
		&result.Key,
		&result.Value,
		&result.CreatedTs,
		&result.UpdatedTs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user_preference")
	}

	return result, nil
}

func (d *DB) ListUserPreferenceKeys(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT pref_key FROM user_preference WHERE user_id = $1 ORDER BY pref_key`
	return d.queryStrings(ctx, query, userID)
}

func (d *DB) DeleteUserPreference(ctx context.Context, delete *store.DeleteUserPreference) error {
	var err error
	if delete.Key == "" {
		_, err = d.db.ExecContext(ctx, `DELETE FROM user_preference WHERE user_id = $1`, delete.UserID)
	} else {
		_, err = d.db.ExecContext(ctx, `DELETE FROM user_preference WHERE user_id = $1 AND pref_key = $2`, delete.UserID, delete.Key)
	}
	if err != nil {
		return errors.Wrap(err, "failed to delete user_preference")
	}
	return nil
}

func (d *DB) ListUserIDsByPreference(ctx context.Context, find *store.FindUserPreferenceValue) ([]string, error) {
	query := `SELECT user_id FROM user_preference WHERE pref_key = $1 AND pref_value = $2 ORDER BY user_id`
	return d.queryStrings(ctx, query, find.Key, find.Value)
}

func (d *DB) ExistsPreferenceValue(ctx context.Context, find *store.FindUserPreferenceValue) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_preference WHERE pref_key = $1 AND pref_value = $2)`

	var exists bool
	if err := d.db.QueryRowContext(ctx, query, find.Key, find.Value).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check user_preference value")
	}
	return exists, nil
}

func (d *DB) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query user_preference")
	}
	defer rows.Close()

	list := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
