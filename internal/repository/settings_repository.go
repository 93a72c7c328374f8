package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
)

// SettingsRepo reads and writes the admin-settings key-value table
// holding runtime-tunable thresholds: party-size maxima, refund
// policy text, feature toggles.  Missing keys fall back to defaults
// supplied by the caller, so an empty table never blocks the bot.
type SettingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo constructs a SettingsRepo given a DB handle.
func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get returns the value for key, or def when the key is absent.
func (r *SettingsRepo) Get(ctx context.Context, key, def string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM admin_settings WHERE `+"`key`"+` = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return v, nil
}

// GetInt returns the integer value for key, or def when the key is
// absent or not a number.
func (r *SettingsRepo) GetInt(ctx context.Context, key string, def int) (int, error) {
	s, err := r.Get(ctx, key, "")
	if err != nil {
		return def, err
	}
	if s == "" {
		return def, nil
	}
	n, convErr := strconv.Atoi(s)
	if convErr != nil {
		return def, nil
	}
	return n, nil
}

// Set stores a value, replacing any prior value for the key.
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_settings (`+"`key`"+`, value) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE value = VALUES(value)`, key, value)
	return err
}
