package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps a persistent journal of dispatched watch events using SQLite
type Store struct {
	db *sql.DB
}

// Entry is one recorded watch event
type Entry struct {
	ID         int64
	PlexUser   string
	Kind       string
	Title      string
	ExternalID int
	Outcome    string
	WatchedAt  time.Time
}

// Outcomes recorded in the journal.
const (
	OutcomeWatched    = "watched"
	OutcomeUnresolved = "unresolved"
	OutcomeFailed     = "failed"
)

// Open opens (creating if needed) a history journal at the given path
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection keeps in-memory databases consistent and is
	// plenty for a webhook-rate write load
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS watches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			plex_user TEXT NOT NULL,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			external_id INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			watched_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_watched_at ON watches(watched_at);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record appends one watch event to the journal
func (s *Store) Record(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO watches (plex_user, kind, title, external_id, outcome, watched_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	watchedAt := entry.WatchedAt
	if watchedAt.IsZero() {
		watchedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		entry.PlexUser,
		entry.Kind,
		entry.Title,
		entry.ExternalID,
		entry.Outcome,
		watchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record watch: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, plex_user, kind, title, external_id, outcome, watched_at
		FROM watches
		ORDER BY watched_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var watchedAt int64
		if err := rows.Scan(&entry.ID, &entry.PlexUser, &entry.Kind, &entry.Title, &entry.ExternalID, &entry.Outcome, &watchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry.WatchedAt = time.Unix(watchedAt, 0)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
