// Package history stores completed intervals in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pomo/internal/logging"
	"pomo/internal/timer"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Mode names as stored in the database.
const (
	ModeFocus      = "focus"
	ModeShortBreak = "short break"
	ModeLongBreak  = "long break"
)

// Record is one completed interval.
type Record struct {
	ID          string
	RunID       string
	Mode        string
	StartedAt   time.Time
	EndedAt     time.Time
	Planned     time.Duration
	Description string
	Note        string
}

// IsFocus reports whether the record is a focus interval.
func (r Record) IsFocus() bool {
	return r.Mode == ModeFocus
}

// Store wraps SQLite access for interval history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// Single writer connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		// Best-effort close on migration failure.
		_ = db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS intervals (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			planned_ms INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_intervals_ended_at ON intervals(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_intervals_run_id ON intervals(run_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Insert stores a record. An empty ID is filled with a new UUID.
func (s *Store) Insert(ctx context.Context, r Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO intervals (id, run_id, mode, started_at, ended_at, planned_ms, description, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.RunID,
		r.Mode,
		formatTime(r.StartedAt),
		formatTime(r.EndedAt),
		r.Planned.Milliseconds(),
		r.Description,
		r.Note,
	)
	if err != nil {
		return "", fmt.Errorf("insert interval: %w", err)
	}
	return r.ID, nil
}

// List returns records that ended in [from, to), oldest first. A zero to
// means no upper bound.
func (s *Store) List(ctx context.Context, from, to time.Time) ([]Record, error) {
	query := `SELECT id, run_id, mode, started_at, ended_at, planned_ms, description, note
		FROM intervals WHERE ended_at >= ?`
	args := []any{formatTime(from)}
	if !to.IsZero() {
		query += ` AND ended_at < ?`
		args = append(args, formatTime(to))
	}
	query += ` ORDER BY ended_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list intervals: %w", err)
	}
	defer func() {
		// Best-effort rows close.
		_ = rows.Close()
	}()

	var out []Record
	for rows.Next() {
		var (
			r              Record
			started, ended string
			plannedMs      int64
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Mode, &started, &ended, &plannedMs, &r.Description, &r.Note); err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if r.EndedAt, err = parseTime(ended); err != nil {
			return nil, err
		}
		r.Planned = time.Duration(plannedMs) * time.Millisecond
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list intervals: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM intervals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count intervals: %w", err)
	}
	return n, nil
}

// Snapshot writes a consistent copy of the database to dst, which must not
// exist.
func (s *Store) Snapshot(ctx context.Context, dst string) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dst); err != nil {
		return fmt.Errorf("snapshot history: %w", err)
	}
	return nil
}

// Times are stored in UTC so that text ordering matches time ordering.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t.Local(), nil
}

// Recorder stores every completed interval of one program run.
type Recorder struct {
	store  *Store
	runID  string
	logger zerolog.Logger
}

// NewRecorder creates a Recorder with a fresh run ID.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{
		store:  store,
		runID:  uuid.NewString(),
		logger: logging.Component("history"),
	}
}

// RunID identifies the records written by this Recorder.
func (r *Recorder) RunID() string {
	return r.runID
}

// IntervalCompleted implements timer.Observer. Failures are logged.
func (r *Recorder) IntervalCompleted(iv timer.Interval) {
	rec := Record{
		RunID:       r.runID,
		Mode:        iv.Mode.String(),
		StartedAt:   iv.StartedAt,
		EndedAt:     iv.EndedAt,
		Planned:     iv.Planned,
		Description: iv.Description,
		Note:        iv.Note,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.store.Insert(ctx, rec); err != nil {
		r.logger.Error().Err(err).Str("mode", rec.Mode).Msg("record interval")
		return
	}
	r.logger.Debug().Str("mode", rec.Mode).Dur("planned", rec.Planned).Msg("interval recorded")
}
