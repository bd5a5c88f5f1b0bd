package settings

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PGStore implements Store using Postgres.
type PGStore struct {
	DB *sql.DB
}

// GetParam returns the value for key or ErrNotFound.
func (s *PGStore) GetParam(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM app_settings WHERE key = $1`
	var value string
	err := s.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// SetParam upserts the value for key.
func (s *PGStore) SetParam(ctx context.Context, key, value string) error {
	const query = `
INSERT INTO app_settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	_, err := s.DB.ExecContext(ctx, query, key, value)
	return err
}

var _ Store = (*PGStore)(nil)
