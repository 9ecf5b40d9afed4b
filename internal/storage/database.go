// Package storage persists cards, review logs, scheduling parameters, and
// card sources in SQLite. It is the only package that touches the database;
// everything above it works with domain values.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // registers the sqlite driver
)

// ErrStale is returned by UpdateCardState when the card row changed since
// it was loaded. Callers re-read and recompute; the scheduler engine is
// pure, so replaying the sequence is safe.
var ErrStale = errors.New("storage: card state changed since read")

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
