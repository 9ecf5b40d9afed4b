package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Source types.
const (
	SourceTypeLocal = "local"
	SourceTypeGit   = "git"
)

// Source is one card source: a local directory or git repository of deck
// files, feeding a single bag for its owning user.
type Source struct {
	ID          int64
	UserID      string
	Path        string
	Type        string
	Bag         string
	LastScanned sql.NullTime
}

// InsertSource inserts a new source and returns its ID.
func (db *DB) InsertSource(ctx context.Context, s Source) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sources (user_id, path, type, bag)
		VALUES (?, ?, ?, ?)
	`, s.UserID, s.Path, s.Type, s.Bag)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", s.Path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID for source %s: %w", s.Path, err)
	}
	return id, nil
}

// GetAllSources retrieves every configured source.
func (db *DB) GetAllSources(ctx context.Context) ([]Source, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, path, type, bag, last_scanned FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.UserID, &s.Path, &s.Type, &s.Bag, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source rows: %w", err)
	}
	return sources, nil
}

// SourcesByUser retrieves a user's sources.
func (db *DB) SourcesByUser(ctx context.Context, userID string) ([]Source, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, path, type, bag, last_scanned FROM sources
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources for user %s: %w", userID, err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.UserID, &s.Path, &s.Type, &s.Bag, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source rows: %w", err)
	}
	return sources, nil
}

// DeleteSource removes a source row. Cards from the source survive until
// the next sync reconciliation decides their fate.
func (db *DB) DeleteSource(ctx context.Context, id int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned stamps the source's last successful scan time.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source %d: %w", id, err)
	}
	return nil
}
