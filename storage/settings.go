package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// SettingStore persists generic key/value admin settings.
type SettingStore struct {
	db *sqlx.DB
}

// NewSettingStore returns a store bound to the given connection pool.
func NewSettingStore(db *sqlx.DB) *SettingStore {
	return &SettingStore{db: db}
}

// Get returns the setting value and whether the key exists.
func (s *SettingStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT setting_value FROM admin_settings WHERE setting_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr("get setting", err)
	}
	return value, true, nil
}

// Set stores the setting, overwriting any existing value.
func (s *SettingStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_settings (setting_key, setting_value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE
		SET setting_value = EXCLUDED.setting_value`,
		key, value,
	)
	if err != nil {
		return wrapErr("set setting", err)
	}
	return nil
}
