package store

// UserPreference is a single preference value of a user.
type UserPreference struct {
	UserID    string
	Key       string
	Value     string
	CreatedTs int64
	UpdatedTs int64
}

// FindUserPreference specifies the conditions for finding a user preference.
type FindUserPreference struct {
	UserID string
	Key    string
}

// UpsertUserPreference specifies the data for upserting a user preference.
type UpsertUserPreference struct {
	UserID string
	Key    string
	Value  string
}

// DeleteUserPreference specifies the preferences to delete.
// An empty Key deletes every preference of the user.
type DeleteUserPreference struct {
	UserID string
	Key    string
}

// FindUserPreferenceValue matches preferences holding Value under Key,
// across all users.
type FindUserPreferenceValue struct {
	Key   string
	Value string
}
