package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder writes the journal to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the journal database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the game writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite journal opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS action_events (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			player_id      TEXT NOT NULL,
			action         TEXT NOT NULL,
			balance_before REAL,
			balance_after  REAL,
			stars_before   INTEGER,
			stars_after    INTEGER,
			level          INTEGER,
			note           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_action_player_ts ON action_events(player_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS claim_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			player_id TEXT NOT NULL,
			source    TEXT,
			amount    REAL,
			confirmed INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claim_player_ts ON claim_events(player_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS withdrawal_events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			player_id     TEXT NOT NULL,
			withdrawal_id TEXT NOT NULL,
			amount        REAL,
			payout        TEXT,
			address       TEXT,
			status        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawal_id ON withdrawal_events(withdrawal_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}

func (r *SQLiteRecorder) RecordAction(evt *ActionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO action_events
		(timestamp, player_id, action, balance_before, balance_after, stars_before, stars_after, level, note)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		stamp(evt.At), evt.PlayerID, evt.Action,
		evt.BalanceBefore, evt.BalanceAfter,
		evt.StarsBefore, evt.StarsAfter,
		evt.Level, evt.Note,
	)
	return err
}

func (r *SQLiteRecorder) RecordClaim(evt *ClaimEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO claim_events
		(timestamp, player_id, source, amount, confirmed)
		VALUES (?,?,?,?,?)`,
		stamp(evt.At), evt.PlayerID, evt.Source, evt.Amount, evt.Confirmed,
	)
	return err
}

func (r *SQLiteRecorder) RecordWithdrawal(evt *WithdrawalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO withdrawal_events
		(timestamp, player_id, withdrawal_id, amount, payout, address, status)
		VALUES (?,?,?,?,?,?,?)`,
		stamp(evt.At), evt.PlayerID, evt.WithdrawalID,
		evt.Amount, evt.Payout, evt.Address, evt.Status,
	)
	return err
}

// RecentActions returns the newest actions for a player, newest first.
func (r *SQLiteRecorder) RecentActions(playerID string, limit int) ([]ActionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, action, balance_before, balance_after,
		stars_before, stars_after, level, note
		FROM action_events WHERE player_id = ?
		ORDER BY timestamp DESC, id DESC LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActionEvent
	for rows.Next() {
		var (
			ts  int64
			evt = ActionEvent{PlayerID: playerID}
		)
		if err := rows.Scan(&ts, &evt.Action, &evt.BalanceBefore, &evt.BalanceAfter,
			&evt.StarsBefore, &evt.StarsAfter, &evt.Level, &evt.Note); err != nil {
			return nil, err
		}
		evt.At = time.UnixMilli(ts).UTC()
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite journal")
	return r.db.Close()
}
