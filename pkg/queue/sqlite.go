package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLite is a durable Queue backed by a SQLite database. Tasks survive
// process restarts; a claimed task whose lease expires is handed out again.
type SQLite struct {
	db    *sql.DB
	lease time.Duration
	now   func() time.Time
}

// SQLiteConfig configures the SQLite queue backend.
type SQLiteConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// Lease is how long a claim stays exclusive. Default: DefaultLease.
	Lease time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLite opens (creating if needed) a SQLite-backed queue at dbPath with
// default settings.
func NewSQLite(dbPath string) (*SQLite, error) {
	return NewSQLiteWithConfig(SQLiteConfig{DBPath: dbPath})
}

// NewSQLiteWithConfig opens a SQLite-backed queue with custom configuration.
func NewSQLiteWithConfig(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.Lease == 0 {
		cfg.Lease = DefaultLease
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &Error{Operation: "open", Cause: err}
	}

	// The modernc driver serializes access through a single connection.
	db.SetMaxOpenConns(1)

	q := &SQLite{db: db, lease: cfg.Lease, now: time.Now}
	if err := q.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return q, nil
}

func (q *SQLite) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	params      TEXT NOT NULL,
	attempts    INTEGER NOT NULL DEFAULT 0,
	enqueued_at INTEGER NOT NULL,
	claimed_at  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_tasks_claim ON tasks (claimed_at, enqueued_at);
`
	if _, err := q.db.Exec(schema); err != nil {
		return &Error{Operation: "migrate", Cause: err}
	}
	return nil
}

func (q *SQLite) Submit(ctx context.Context, kind string, params map[string]any) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", &Error{Operation: "submit", Cause: err}
	}

	id := newTaskID()
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO tasks (id, kind, params, attempts, enqueued_at) VALUES (?, ?, ?, 0, ?)`,
		id, kind, string(raw), q.now().UnixMilli())
	if err != nil {
		return "", &Error{Operation: "submit", Cause: err}
	}
	return id, nil
}

func (q *SQLite) Claim(ctx context.Context) (*Task, error) {
	now := q.now()
	cutoff := now.Add(-q.lease).UnixMilli()

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &Error{Operation: "claim", Cause: err}
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, kind, params, attempts, enqueued_at FROM tasks
		 WHERE claimed_at IS NULL OR claimed_at < ?
		 ORDER BY enqueued_at LIMIT 1`, cutoff)

	var (
		task       Task
		rawParams  string
		enqueuedMs int64
	)
	if err := row.Scan(&task.ID, &task.Kind, &rawParams, &task.Attempts, &enqueuedMs); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &Error{Operation: "claim", Cause: err}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET claimed_at = ?, attempts = attempts + 1 WHERE id = ?`,
		now.UnixMilli(), task.ID); err != nil {
		return nil, &Error{Operation: "claim", Cause: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, &Error{Operation: "claim", Cause: err}
	}

	if err := json.Unmarshal([]byte(rawParams), &task.Params); err != nil {
		return nil, &Error{Operation: "claim", Cause: err}
	}
	task.Attempts++
	task.EnqueuedAt = time.UnixMilli(enqueuedMs).UTC()
	return &task, nil
}

func (q *SQLite) Ack(ctx context.Context, id string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return &Error{Operation: "ack", Cause: err}
	}
	return nil
}

func (q *SQLite) Nack(ctx context.Context, id string) error {
	if _, err := q.db.ExecContext(ctx, `UPDATE tasks SET claimed_at = NULL WHERE id = ?`, id); err != nil {
		return &Error{Operation: "nack", Cause: err}
	}
	return nil
}

func (q *SQLite) Depth(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, &Error{Operation: "depth", Cause: err}
	}
	return n, nil
}

func (q *SQLite) Close() error { return q.db.Close() }
