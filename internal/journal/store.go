package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"requestarr/internal/config"
	"requestarr/internal/logging"
	"requestarr/internal/mediaserver"
	"requestarr/internal/services"
	"requestarr/internal/wizard"
)

// Store persists wizard runs and their transitions in SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy reruns op with doubling backoff while SQLite reports the
// database as locked. A second CLI process writing the same journal is the
// usual cause.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}

// Open creates or connects to the journal at cfg.JournalPath().
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath(), logger)
}

// OpenPath opens the journal database at path.
func OpenPath(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "journal"),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores t as an event and updates the run summary in one transaction.
func (s *Store) Record(ctx context.Context, t wizard.Transition) error {
	if strings.TrimSpace(t.RunID) == "" {
		return errors.New("journal: transition without run id")
	}
	at := t.At
	if at.IsZero() {
		at = time.Now()
	}
	stamp := at.UTC().Format(timeLayout)
	errText := ""
	if t.Err != nil {
		errText = t.Err.Error()
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, step, media_server_type, committed, last_error, started_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    step = excluded.step,
    media_server_type = excluded.media_server_type,
    committed = MAX(runs.committed, excluded.committed),
    last_error = excluded.last_error,
    updated_at = excluded.updated_at`,
			t.RunID, t.To.String(), t.ServerType.String(), boolToInt(t.Committed), errText, stamp, stamp,
		); err != nil {
			return fmt.Errorf("upsert run: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO events (run_id, event, from_step, to_step, committed, outcome, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.RunID, t.Event, t.From.String(), t.To.String(), boolToInt(t.Committed), string(services.Classify(t.Err)), errText, stamp,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		return tx.Commit()
	})
}

// Observe implements wizard.Observer. Journal failures never block the wizard.
func (s *Store) Observe(ctx context.Context, t wizard.Transition) {
	if err := s.Record(ctx, t); err != nil {
		s.logger.Warn("journal write failed",
			slog.String(logging.FieldRunID, t.RunID),
			slog.String("event", t.Event),
			logging.Error(err),
			slog.String("event_type", "journal_write_failed"),
		)
	}
}

// LastRun returns the most recently updated run, or nil when the journal is empty.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, step, media_server_type, committed, last_error, started_at, updated_at
FROM runs ORDER BY updated_at DESC, rowid DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun returns the run with id, or nil when it does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, step, media_server_type, committed, last_error, started_at, updated_at
FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Events returns the events of a run in the order they were recorded.
func (s *Store) Events(ctx context.Context, runID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, run_id, event, from_step, to_step, committed, outcome, error, created_at
FROM events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev                Event
			from, to, created string
			outcome           string
			committed         int
		)
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Name, &from, &to, &committed, &outcome, &ev.Error, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.From, _ = wizard.ParseStep(from)
		ev.To, _ = wizard.ParseStep(to)
		ev.Committed = committed != 0
		ev.Outcome = services.Outcome(outcome)
		ev.CreatedAt = parseTime(created)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Clear removes every run and event.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM runs")
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear journal: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run              Run
		step, kind       string
		started, updated string
		committed        int
	)
	if err := row.Scan(&run.ID, &step, &kind, &committed, &run.LastError, &started, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Step, _ = wizard.ParseStep(step)
	run.MediaServerType, _ = mediaserver.ParseType(kind)
	run.Committed = committed != 0
	run.StartedAt = parseTime(started)
	run.UpdatedAt = parseTime(updated)
	return &run, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
