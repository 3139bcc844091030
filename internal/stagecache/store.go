package stagecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"parley/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS stage_records (
    run_id     TEXT NOT NULL,
    stage      TEXT NOT NULL,
    payload    BLOB NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (run_id, stage)
);
`

// Record is one persisted stage output.
type Record struct {
	RunID     string
	Stage     string
	Payload   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store manages stage-output persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the stage cache database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.CacheDir, "stages.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Has reports whether a record exists for (runID, stage). Read errors count
// as absence so callers fall through to recomputation.
func (s *Store) Has(ctx context.Context, runID, stage string) bool {
	var one int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT 1 FROM stage_records WHERE run_id = ? AND stage = ?`,
		runID, stage,
	).Scan(&one)
	return err == nil
}

// Get returns the payload for (runID, stage). A missing record yields
// (nil, false, nil); a corrupt or unreadable one yields (nil, false, err), the
// error carrying the underlying cause for the caller to log. Either way the
// record counts as absent: cache problems trigger recomputation, they never
// abort a run.
func (s *Store) Get(ctx context.Context, runID, stage string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT payload FROM stage_records WHERE run_id = ? AND stage = ?`,
		runID, stage,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read stage record %s/%s: %w", runID, stage, err)
	}
	if !json.Valid(payload) {
		return nil, false, fmt.Errorf("stage record %s/%s: payload is not valid JSON", runID, stage)
	}
	return payload, true, nil
}

// Put stores the payload for (runID, stage), replacing any previous record.
// Replacement only happens when the executor recomputes after a miss; the
// executor never calls Put for a stage it satisfied from cache.
func (s *Store) Put(ctx context.Context, runID, stage string, payload []byte) error {
	if strings.TrimSpace(runID) == "" {
		return errors.New("run id is required")
	}
	if strings.TrimSpace(stage) == "" {
		return errors.New("stage name is required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO stage_records (run_id, stage, payload, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (run_id, stage) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		runID, stage, payload, now, now,
	)
	if err != nil {
		return fmt.Errorf("write stage record %s/%s: %w", runID, stage, err)
	}
	return nil
}

// Invalidate removes the record for (runID, stage) if present.
func (s *Store) Invalidate(ctx context.Context, runID, stage string) error {
	_, err := s.db.ExecContext(
		ctx,
		`DELETE FROM stage_records WHERE run_id = ? AND stage = ?`,
		runID, stage,
	)
	if err != nil {
		return fmt.Errorf("invalidate stage record %s/%s: %w", runID, stage, err)
	}
	return nil
}

// InvalidateRun removes every record for runID.
func (s *Store) InvalidateRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM stage_records WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("invalidate run %s: %w", runID, err)
	}
	return nil
}

// List returns the records for runID ordered by creation time.
func (s *Store) List(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, stage, payload, created_at, updated_at
         FROM stage_records WHERE run_id = ? ORDER BY created_at, stage`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var created, updated string
		if err := rows.Scan(&rec.RunID, &rec.Stage, &rec.Payload, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan stage record: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Runs returns the distinct run identifiers present in the cache.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run_id FROM stage_records ORDER BY run_id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}
