package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PilotRow represents a pilot account
type PilotRow struct {
	ID        int64
	Username  string
	PassHash  string
	ShipClass ShipClass // last class flown
	LastLogin sql.NullTime
	CreatedAt time.Time
}

// RunRow is one finished level or lost run
type RunRow struct {
	PilotID   int64
	LevelID   string
	Level     int
	Score     int
	Elapsed   float64
	Outcome   string // "victory" or "gameOver"
	CreatedAt time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS pilots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		ship_class INTEGER NOT NULL DEFAULT 0,
		last_login DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pilot_id INTEGER REFERENCES pilots(id),
		level_id TEXT NOT NULL,
		level INTEGER NOT NULL DEFAULT 1,
		score INTEGER NOT NULL DEFAULT 0,
		elapsed REAL NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS flight_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		pilot_id INTEGER,
		session_id TEXT,
		level INTEGER NOT NULL DEFAULT 0,
		score INTEGER NOT NULL DEFAULT 0,
		detail TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_level ON runs(level_id, score);
	CREATE INDEX IF NOT EXISTS idx_flight_events_type ON flight_events(event_type);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("db: migration error: %v", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// GetKV returns the raw value stored under key, or ErrNotFound
func (db *DB) GetKV(key string) ([]byte, error) {
	var v []byte
	err := db.conn.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return v, nil
}

// PutKV stores value under key, replacing any previous value
func (db *DB) PutKV(key string, value []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// GetSetting returns a server setting string, "" if unset
func (db *DB) GetSetting(key string) string {
	v, err := db.GetKV("server:" + key)
	if err != nil {
		return ""
	}
	return string(v)
}

// SetSetting stores a server setting string
func (db *DB) SetSetting(key, value string) error {
	return db.PutKV("server:"+key, []byte(value))
}

// CreatePilot creates a new pilot account (returns pilot ID)
func (db *DB) CreatePilot(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO pilots (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const pilotColumns = "id, username, pass_hash, ship_class, last_login, created_at"

func scanPilot(row *sql.Row) (*PilotRow, error) {
	p := &PilotRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.ShipClass, &p.LastLogin, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// GetPilotByUsername returns a pilot by username, nil if absent
func (db *DB) GetPilotByUsername(username string) (*PilotRow, error) {
	return scanPilot(db.conn.QueryRow("SELECT "+pilotColumns+" FROM pilots WHERE username = ?", username))
}

// GetPilot returns a pilot by id, nil if absent
func (db *DB) GetPilot(id int64) (*PilotRow, error) {
	return scanPilot(db.conn.QueryRow("SELECT "+pilotColumns+" FROM pilots WHERE id = ?", id))
}

// RecordLogin stamps a pilot's login time
func (db *DB) RecordLogin(id int64, at time.Time) error {
	_, err := db.conn.Exec("UPDATE pilots SET last_login = ? WHERE id = ?", at.UTC(), id)
	return err
}

// SetPilotClass remembers the class a pilot last launched with
func (db *DB) SetPilotClass(id int64, class ShipClass) error {
	_, err := db.conn.Exec("UPDATE pilots SET ship_class = ? WHERE id = ?", int(class), id)
	return err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM pilots WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// RecordRun stores a finished level. pilotID 0 records a guest run.
func (db *DB) RecordRun(r RunRow) error {
	pid := sql.NullInt64{Int64: r.PilotID, Valid: r.PilotID > 0}
	_, err := db.conn.Exec(
		"INSERT INTO runs (pilot_id, level_id, level, score, elapsed, outcome) VALUES (?, ?, ?, ?, ?, ?)",
		pid, r.LevelID, r.Level, r.Score, r.Elapsed, r.Outcome,
	)
	return err
}

// LeaderboardEntry represents one row in a level leaderboard
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Score    int     `json:"score"`
	Elapsed  float64 `json:"elapsed"`
}

// GetLeaderboard returns the best victories on a level
func (db *DB) GetLeaderboard(levelID string, limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(`
		SELECT COALESCE(p.username, 'guest'), r.score, r.elapsed
		FROM runs r LEFT JOIN pilots p ON p.id = r.pilot_id
		WHERE r.level_id = ? AND r.outcome = ?
		ORDER BY r.score DESC, r.elapsed ASC LIMIT ?`,
		levelID, PhaseVictory.String(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Score, &e.Elapsed); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}
