package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"custodia-hq/saturn/pkg/document"
)

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string // "sqlite", "memory", ...
	Operation string // "open", "get", "save", ...
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

func newStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// SQLiteConfig contains configuration for the SQLite document repository.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/documents.db",
		MaxOpenConns: 10,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

const documentSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id                 TEXT PRIMARY KEY,
	doc_type           TEXT NOT NULL,
	path               TEXT NOT NULL DEFAULT '',
	title              TEXT NOT NULL DEFAULT '',
	properties         TEXT NOT NULL DEFAULT '{}',
	record             INTEGER NOT NULL DEFAULT 0,
	flexible           INTEGER NOT NULL DEFAULT 0,
	retain_until       INTEGER,
	saved_retain_until INTEGER,
	legal_hold         INTEGER NOT NULL DEFAULT 0,
	hold_description   TEXT NOT NULL DEFAULT '',
	rule_id            TEXT NOT NULL DEFAULT '',
	locked             INTEGER NOT NULL DEFAULT 0,
	trashed            INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_documents_rule_id ON documents(rule_id) WHERE rule_id != '';
CREATE INDEX IF NOT EXISTS idx_documents_retain_until ON documents(retain_until) WHERE retain_until IS NOT NULL;
`

// SQLiteRepository implements document.Repository using SQLite.
type SQLiteRepository struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteRepository opens (and if necessary initializes) a SQLite-backed
// document repository.
func NewSQLiteRepository(config *SQLiteConfig) (*SQLiteRepository, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "document.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, newStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)

	r := &SQLiteRepository{db: db, config: config, logger: logger}
	if err := r.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite document repository initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return r, nil
}

func (r *SQLiteRepository) initialize() error {
	if r.config.WALMode {
		if _, err := r.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return newStorageError("sqlite", "enable_wal", err)
		}
	}
	if _, err := r.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", r.config.BusyTimeout.Milliseconds())); err != nil {
		return newStorageError("sqlite", "set_busy_timeout", err)
	}
	if _, err := r.db.Exec(documentSchema); err != nil {
		return newStorageError("sqlite", "create_schema", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Get loads a document snapshot by id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*document.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, doc_type, path, title, properties, record, flexible,
		       retain_until, saved_retain_until, legal_hold, hold_description,
		       rule_id, locked, trashed
		FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, &document.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, newStorageError("sqlite", "get", err)
	}
	return doc, nil
}

// Save upserts a document snapshot. The side-effect options only suppress
// downstream listeners, which this embedded backend does not have, so they
// are accepted and ignored.
func (r *SQLiteRepository) Save(ctx context.Context, doc *document.Document, opts ...document.SaveOption) error {
	props, err := encodeProperties(doc.Properties)
	if err != nil {
		return newStorageError("sqlite", "save", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO documents (id, doc_type, path, title, properties, record, flexible,
			retain_until, saved_retain_until, legal_hold, hold_description, rule_id, locked, trashed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc_type = excluded.doc_type,
			path = excluded.path,
			title = excluded.title,
			properties = excluded.properties,
			record = excluded.record,
			flexible = excluded.flexible,
			retain_until = excluded.retain_until,
			saved_retain_until = excluded.saved_retain_until,
			legal_hold = excluded.legal_hold,
			hold_description = excluded.hold_description,
			rule_id = excluded.rule_id,
			locked = excluded.locked,
			trashed = excluded.trashed`,
		doc.ID, doc.Type, doc.Path, doc.Title, props,
		boolToInt(doc.Record), boolToInt(doc.Flexible),
		timeToMillis(doc.RetainUntil), timeToMillis(doc.SavedRetainUntil),
		boolToInt(doc.LegalHold), doc.HoldDescription, doc.RuleID,
		boolToInt(doc.Locked), boolToInt(doc.Trashed))
	if err != nil {
		return newStorageError("sqlite", "save", err)
	}
	return nil
}

// RecordIDsByRules returns ids of records attached to any of the given rules.
func (r *SQLiteRepository) RecordIDsByRules(ctx context.Context, ruleIDs []string) ([]string, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ruleIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ruleIDs))
	for i, id := range ruleIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id FROM documents
		WHERE record = 1 AND rule_id IN (%s)
		ORDER BY id`, placeholders), args...)
	if err != nil {
		return nil, newStorageError("sqlite", "records_by_rules", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// ExpiredRecordIDs returns ids of records whose concrete retain-until value
// has passed as of the given instant.
func (r *SQLiteRepository) ExpiredRecordIDs(ctx context.Context, asOf time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM documents
		WHERE record = 1
		  AND retain_until IS NOT NULL
		  AND retain_until != ?
		  AND retain_until <= ?
		ORDER BY id`,
		document.RetainUntilIndeterminate.UnixMilli(), asOf.UnixMilli())
	if err != nil {
		return nil, newStorageError("sqlite", "expired_records", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*document.Document, error) {
	var (
		doc               document.Document
		props             string
		record, flexible  int
		retainMs, savedMs sql.NullInt64
		legalHold         int
		locked, trashed   int
	)
	err := row.Scan(&doc.ID, &doc.Type, &doc.Path, &doc.Title, &props,
		&record, &flexible, &retainMs, &savedMs, &legalHold,
		&doc.HoldDescription, &doc.RuleID, &locked, &trashed)
	if err != nil {
		return nil, err
	}

	doc.Record = record != 0
	doc.Flexible = flexible != 0
	doc.LegalHold = legalHold != 0
	doc.Locked = locked != 0
	doc.Trashed = trashed != 0
	doc.RetainUntil = millisToTime(retainMs)
	doc.SavedRetainUntil = millisToTime(savedMs)

	doc.Properties, err = decodeProperties(props)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, newStorageError("sqlite", "scan", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("sqlite", "scan", err)
	}
	return ids, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timeToMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func millisToTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	if t.Equal(document.RetainUntilIndeterminate) {
		t = document.RetainUntilIndeterminate
	}
	return &t
}

// dateMarker tags date-typed property values inside the JSON properties
// column so they round-trip as time.Time.
const dateMarker = "__date__"

func encodeProperties(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	encoded := make(map[string]any, len(props))
	for k, v := range props {
		if t, ok := v.(time.Time); ok {
			encoded[k] = map[string]string{dateMarker: t.Format(time.RFC3339Nano)}
			continue
		}
		encoded[k] = v
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeProperties(data string) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	for k, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		s, ok := m[dateMarker].(string)
		if !ok || len(m) != 1 {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("invalid date property %q: %w", k, err)
		}
		raw[k] = t
	}
	return raw, nil
}
