package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PreferenceStore = (*PreferenceRepo)(nil)

// PreferenceRepo is the SQLite implementation of the PreferenceStore port.
type PreferenceRepo struct {
	db *DB
}

// NewPreferenceRepo creates a new PreferenceRepo backed by the given DB.
func NewPreferenceRepo(db *DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// Get returns the preference value, or ("", nil) when it was never set.
func (r *PreferenceRepo) Get(ctx context.Context, scope, key string) (string, error) {
	const query = `SELECT value FROM preferences WHERE scope = ? AND pref_key = ?`

	var value string
	err := r.db.Reader.QueryRowContext(ctx, query, scope, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get preference %s/%s: %w", scope, key, err)
	}
	return value, nil
}

// Set inserts or updates a preference. On conflict the value is replaced.
func (r *PreferenceRepo) Set(ctx context.Context, pref model.Preference) error {
	const query = `
		INSERT INTO preferences (scope, pref_key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(scope, pref_key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Writer.ExecContext(ctx, query, pref.Scope, pref.Key, pref.Value); err != nil {
		return fmt.Errorf("set preference %s/%s: %w", pref.Scope, pref.Key, err)
	}
	return nil
}
