package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id          TEXT PRIMARY KEY,
	event_id    TEXT NOT NULL,
	event_date  INTEGER NOT NULL,
	category    TEXT NOT NULL,
	principal   TEXT NOT NULL,
	document_id TEXT NOT NULL DEFAULT '',
	comment     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_event_date ON audit_entries(event_date);
`

// SQLite is an append-only audit logger backed by a SQLite table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the audit table on the given database file, creating it
// when absent.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Append stores the entry.
func (s *SQLite) Append(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, event_id, event_date, category, principal, document_id, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.EventID, entry.EventDate.UnixMilli(), entry.Category,
		entry.Principal, entry.DocumentID, entry.Comment)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Since returns entries recorded at or after the given instant, oldest
// first.
func (s *SQLite) Since(ctx context.Context, t time.Time) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, event_date, category, principal, document_id, comment
		FROM audit_entries WHERE event_date >= ? ORDER BY event_date`,
		t.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.ID, &e.EventID, &ms, &e.Category, &e.Principal, &e.DocumentID, &e.Comment); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.EventDate = time.UnixMilli(ms).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
