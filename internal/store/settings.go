package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Stardust/internal/model"
)

const catalogsKey = "catalogs"

// Name identifies the store as a catalog source.
func (s *SQLiteStore) Name() string { return "sqlite" }

// FetchCatalogs reads the remote catalogs from the settings table.
// A missing row yields an empty payload, which resolves to the built-in defaults.
func (s *SQLiteStore) FetchCatalogs(ctx context.Context) (model.RemoteCatalogs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, catalogsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RemoteCatalogs{}, nil
	}
	if err != nil {
		return model.RemoteCatalogs{}, fmt.Errorf("fetch settings: %w", err)
	}
	var out model.RemoteCatalogs
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return model.RemoteCatalogs{}, fmt.Errorf("decode settings: %w", err)
	}
	return out, nil
}

// SaveCatalogs replaces the stored catalogs.
func (s *SQLiteStore) SaveCatalogs(ctx context.Context, c model.RemoteCatalogs) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?,?,?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		catalogsKey, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
