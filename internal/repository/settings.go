package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Setting keys consumed by the domino service.
const (
	SettingEntryFee = "domino_entry_fee"
	SettingWinFee   = "domino_win_fee"
)

type SettingsRepository interface {
	Get(ctx context.Context, key, fallback string) (string, error)
	GetInt64(ctx context.Context, key string, fallback int64) (int64, error)
	EnsureDefaults(ctx context.Context, defaults map[string]string) error
}

type settingsRepository struct {
	conn Querier
}

func NewSettingsRepository(conn Querier) SettingsRepository {
	return &settingsRepository{
		conn: conn,
	}
}

func (that *settingsRepository) Get(ctx context.Context, key, fallback string) (string, error) {
	query := `SELECT value FROM settings WHERE key = ? AND is_active = 1`

	var value string

	err := that.conn.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("can't read setting %s: %w", key, err)
	}

	return value, nil
}

func (that *settingsRepository) GetInt64(ctx context.Context, key string, fallback int64) (int64, error) {
	raw, err := that.Get(ctx, key, strconv.FormatInt(fallback, 10))
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %s is not a number: %w", key, err)
	}

	return value, nil
}

// EnsureDefaults - seeds missing settings rows; existing values win.
func (that *settingsRepository) EnsureDefaults(ctx context.Context, defaults map[string]string) error {
	query := `INSERT INTO settings (key, value, is_active) VALUES (?, ?, 1)
		ON CONFLICT(key) DO NOTHING`

	for key, value := range defaults {
		if _, err := that.conn.ExecContext(ctx, query, key, value); err != nil {
			return fmt.Errorf("can't seed setting %s: %w", key, err)
		}
	}

	return nil
}
