// Package history persists a local record of publish attempts in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one publish attempt, successful or not.
type Record struct {
	ID       int64
	Release  string
	State    string // final publisher state
	Outcome  string // success|failed
	Commit   string
	Branch   string
	Duration time.Duration
	Error    string
	At       time.Time
}

// Store is a SQLite-backed publish history.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the history database. Use ":memory:" for an
// in-memory database; file paths get their parent directory created.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS publishes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		release_name TEXT NOT NULL,
		state TEXT NOT NULL,
		outcome TEXT NOT NULL,
		commit_hash TEXT,
		branch TEXT,
		duration_ms INTEGER NOT NULL,
		error TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_publishes_outcome ON publishes(outcome);
	CREATE INDEX IF NOT EXISTS idx_publishes_created_at ON publishes(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one publish attempt.
func (s *Store) Record(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := r.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO publishes (release_name, state, outcome, commit_hash, branch, duration_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Release, r.State, r.Outcome, r.Commit, r.Branch, r.Duration.Milliseconds(), r.Error, at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert publish record: %w", err)
	}
	return nil
}

// Recent returns the most recent n records, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, release_name, state, outcome, commit_hash, branch, duration_ms, error, created_at
		 FROM publishes ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query publish records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// LastSuccess returns the most recent successful publish, or sql.ErrNoRows
// wrapped when none exists.
func (s *Store) LastSuccess(ctx context.Context) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, release_name, state, outcome, commit_hash, branch, duration_ms, error, created_at
		 FROM publishes WHERE outcome = 'success' ORDER BY id DESC LIMIT 1`)
	r, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("query last success: %w", err)
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	var commit, branch, errMsg sql.NullString
	var durationMS, createdAt int64
	if err := row.Scan(&r.ID, &r.Release, &r.State, &r.Outcome, &commit, &branch, &durationMS, &errMsg, &createdAt); err != nil {
		return Record{}, err
	}
	r.Commit = commit.String
	r.Branch = branch.String
	r.Error = errMsg.String
	r.Duration = time.Duration(durationMS) * time.Millisecond
	r.At = time.Unix(createdAt, 0)
	return r, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
