// Package store persists the channel roster the CLI auto-joins at startup.
// The connection core itself keeps no on-disk state; the roster only feeds
// the initial join list and records explicit joins and parts.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS channels (
	name     TEXT PRIMARY KEY,
	added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Roster is a SQLite-backed channel list.
type Roster struct {
	db *sql.DB
}

// Open opens (and if necessary creates) the roster database at path.
func Open(path string) (*Roster, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Roster{db: db}, nil
}

// Close closes the database connection.
func (r *Roster) Close() error {
	return r.db.Close()
}

// Channels returns the roster in the order channels were added.
func (r *Roster) Channels(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM channels ORDER BY added_at, name`)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}
	return names, nil
}

// Add records a channel. Adding an existing channel is a no-op.
func (r *Roster) Add(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO channels (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

// Remove drops a channel from the roster. Removing an absent channel is a
// no-op.
func (r *Roster) Remove(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM channels WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}
