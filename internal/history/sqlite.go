package history

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists history to a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database file at path. Init opens
// it.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the tables. Calling it again is a
// no-op.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// SaveRun inserts or replaces run.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, precision, options)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			precision = excluded.precision,
			options = excluded.options
	`, run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Precision, run.Options)
	return err
}

// GetRun returns the run with the given ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	run := Run{ID: id}
	var startedAt string
	err = db.QueryRowContext(ctx, `SELECT started_at, precision, options FROM runs WHERE id = ?`, id).
		Scan(&startedAt, &run.Precision, &run.Options)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// AppendRecord inserts rec.
func (s *SQLiteStore) AppendRecord(ctx context.Context, rec Record) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO records (run_id, kind, epoch, iteration, elapsed_ns, loss, accuracy, learn_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.Kind, rec.Epoch, rec.Iteration, int64(rec.Elapsed), rec.Loss, rec.Accuracy, rec.LearnRate)
	return err
}

// Records returns the records of a run in insertion order.
func (s *SQLiteStore) Records(ctx context.Context, runID string) ([]Record, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT kind, epoch, iteration, elapsed_ns, loss, accuracy, learn_rate
		FROM records WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec := Record{RunID: runID}
		var elapsed int64
		if err := rows.Scan(&rec.Kind, &rec.Epoch, &rec.Iteration, &elapsed, &rec.Loss, &rec.Accuracy, &rec.LearnRate); err != nil {
			return nil, err
		}
		rec.Elapsed = time.Duration(elapsed)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			precision TEXT NOT NULL,
			options TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			epoch INTEGER NOT NULL,
			iteration INTEGER NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			loss REAL NOT NULL,
			accuracy REAL NOT NULL,
			learn_rate REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS records_run ON records (run_id, seq);
	`)
	return err
}
