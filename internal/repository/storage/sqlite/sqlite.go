package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	Connection *sql.DB
}

// New - opens the durable store. Transactions begin IMMEDIATE so that a
// matchmaking transaction takes the writer lock up front; SQLite has no
// SKIP LOCKED, serializing at BEGIN stands in for per-row queue locks.
func New(path string) (*Storage, error) {
	conn, err := sql.Open("sqlite3", path+"?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT,
			sawa INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS domino_queue (
			user_id TEXT PRIMARY KEY,
			entry_fee INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'searching',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS domino_matches (
			id TEXT PRIMARY KEY,
			player1_id TEXT NOT NULL,
			player2_id TEXT NOT NULL,
			entry_fee INTEGER NOT NULL DEFAULT 0,
			win_fee INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'playing',
			winner_id TEXT,
			state_json TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := that.Connection.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *Storage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}
