package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// NewInMemory creates an in-memory database, used in tests.
func NewInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// A single connection keeps every query on the same in-memory DB.
	conn.SetMaxOpenConns(1)

	return &DB{conn: conn, path: ":memory:"}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Migrate creates the schema if it does not exist yet.
func (db *DB) Migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL DEFAULT '',
			cash_balance REAL NOT NULL DEFAULT 0,
			currency     TEXT NOT NULL DEFAULT 'USD',
			updated_at   TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id    TEXT NOT NULL REFERENCES accounts(id),
			symbol        TEXT NOT NULL,
			quantity      REAL NOT NULL,
			entry_price   REAL NOT NULL,
			current_price REAL NOT NULL DEFAULT 0,
			opened_at     TEXT NOT NULL,
			last_updated  TEXT NOT NULL,
			UNIQUE(account_id, symbol)
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			execution_id TEXT NOT NULL,
			account_id  TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			action      TEXT NOT NULL,
			quantity    REAL NOT NULL,
			price       REAL NOT NULL,
			total_value REAL NOT NULL,
			reason      TEXT NOT NULL DEFAULT '',
			alert_type  TEXT,
			success     INTEGER NOT NULL DEFAULT 1,
			error       TEXT,
			executed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_account ON positions(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_id, executed_at)`,
	}

	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
