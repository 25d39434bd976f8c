package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/leech-actions/internal/common"
)

// GetAddonConfig returns the raw document stored under name.
func (s *SQLiteStorage) GetAddonConfig(ctx context.Context, name string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM addon_config WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("addon config %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to read addon config %q: %w", name, err))
	}
	return []byte(value), nil
}

// SaveAddonConfig replaces the raw document stored under name.
func (s *SQLiteStorage) SaveAddonConfig(ctx context.Context, name string, raw []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO addon_config (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, string(raw))
	if err != nil {
		return mapError(fmt.Errorf("failed to save addon config %q: %w", name, err))
	}
	return nil
}
