package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"Stardust/internal/model"
)

// SQLiteStore keeps one row per player with the nested state as a JSON column,
// plus a settings table holding the remote catalogs.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id             TEXT PRIMARY KEY,
			display_name   TEXT NOT NULL DEFAULT '',
			avatar_ref     TEXT NOT NULL DEFAULT '',
			balance        REAL NOT NULL DEFAULT 0,
			level          INTEGER NOT NULL DEFAULT 1,
			stars          INTEGER NOT NULL DEFAULT 0,
			referral_count INTEGER NOT NULL DEFAULT 0,
			is_banned      INTEGER NOT NULL DEFAULT 0,
			state          TEXT,
			updated_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_balance ON players(balance DESC)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) FetchPlayer(ctx context.Context, id string) (*model.PlayerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		snap    model.PlayerSnapshot
		state   sql.NullString
		updated int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, display_name, avatar_ref, balance, level, stars,
		referral_count, is_banned, state, updated_at FROM players WHERE id = ?`, id).
		Scan(&snap.ID, &snap.DisplayName, &snap.AvatarRef, &snap.Balance, &snap.Level, &snap.Stars,
			&snap.ReferralCount, &snap.IsBanned, &state, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch player %s: %w", id, err)
	}
	if state.Valid {
		snap.State = json.RawMessage(state.String)
	}
	snap.UpdatedAt = time.UnixMilli(updated).UTC()
	return &snap, nil
}

func (s *SQLiteStore) PersistPlayer(ctx context.Context, snap model.PlayerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := snap.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO players
		(id, display_name, avatar_ref, balance, level, stars, referral_count, is_banned, state, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			avatar_ref = excluded.avatar_ref,
			balance = excluded.balance,
			level = excluded.level,
			stars = excluded.stars,
			referral_count = excluded.referral_count,
			is_banned = excluded.is_banned,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		snap.ID, snap.DisplayName, snap.AvatarRef, snap.Balance, snap.Level, snap.Stars,
		snap.ReferralCount, snap.IsBanned, string(snap.State), updated.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("persist player %s: %w", snap.ID, err)
	}
	return nil
}

func (s *SQLiteStore) DeletePlayer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete player %s: %w", id, err)
	}
	return nil
}

// ApplyDelta writes the admin-editable columns. Columns without a value in d are left alone.
func (s *SQLiteStore) ApplyDelta(ctx context.Context, d model.PlayerDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE players SET
			referral_count = COALESCE(?, referral_count),
			stars = COALESCE(?, stars),
			level = COALESCE(?, level),
			is_banned = COALESCE(?, is_banned)
		WHERE id = ?`,
		nullInt(d.ReferralCount), nullInt(d.Stars), nullInt(d.Level), nullBool(d.IsBanned), d.PlayerID)
	if err != nil {
		return fmt.Errorf("apply delta to %s: %w", d.PlayerID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, display_name, balance, level FROM players
		WHERE is_banned = 0 ORDER BY balance DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var out []model.LeaderboardEntry
	for rows.Next() {
		e := model.LeaderboardEntry{Rank: len(out) + 1}
		if err := rows.Scan(&e.PlayerID, &e.DisplayName, &e.Balance, &e.Level); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RankFor returns 1 + the number of unbanned players with a strictly higher balance.
func (s *SQLiteStore) RankFor(ctx context.Context, balance float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var higher int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players WHERE is_banned = 0 AND balance > ?`,
		balance).Scan(&higher); err != nil {
		return 0, fmt.Errorf("rank: %w", err)
	}
	return higher + 1, nil
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
