package vocabulary

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const vocabularySchema = `
CREATE TABLE IF NOT EXISTS retention_events (
	id       TEXT PRIMARY KEY,
	label    TEXT NOT NULL DEFAULT '',
	obsolete INTEGER NOT NULL DEFAULT 0
);
`

// SQLite is a Directory backed by a SQLite table, sharing the database file
// with the document repository.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the directory table on the given database file, creating
// it when absent.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary db: %w", err)
	}
	if _, err := db.Exec(vocabularySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create vocabulary schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Add inserts or replaces an entry.
func (s *SQLite) Add(ctx context.Context, e Entry) error {
	obsolete := 0
	if e.Obsolete {
		obsolete = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO retention_events (id, label, obsolete) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET label = excluded.label, obsolete = excluded.obsolete`,
		e.ID, e.Label, obsolete)
	if err != nil {
		return fmt.Errorf("add vocabulary entry: %w", err)
	}
	return nil
}

// MarkObsolete flags an entry as obsolete.
func (s *SQLite) MarkObsolete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE retention_events SET obsolete = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark vocabulary entry obsolete: %w", err)
	}
	return nil
}

// AcceptedEvents returns the ids of all non-obsolete entries, sorted.
func (s *SQLite) AcceptedEvents(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM retention_events WHERE obsolete = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query accepted events: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan accepted event: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
