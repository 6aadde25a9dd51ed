// Package history persists summarized census runs in a SQLite database so
// they can be listed, inspected and aggregated later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/catcensus/internal/models"
)

// ErrRunNotFound is returned by Get when no run matches the ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted summarize attempt.
type Run struct {
	ID            int64     `json:"-"`
	RunID         string    `json:"run_id"`
	Source        string    `json:"source"`
	Format        string    `json:"format"`
	Success       bool      `json:"success"`
	Mothers       int       `json:"mothers"`
	TotalKittens  int       `json:"total_kittens"`
	MaleKittens   int       `json:"male_kittens"`
	MotherSummary string    `json:"mother_summary,omitempty"`
	KittenSummary string    `json:"kitten_summary,omitempty"`
	ErrorMessage  string    `json:"error,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewRun converts a SourceResult into a Run ready to be recorded.
func NewRun(sr models.SourceResult) *Run {
	run := &Run{
		Source:     sr.Source,
		Format:     sr.Format,
		Success:    !sr.Failed(),
		DurationMs: sr.Duration.Milliseconds(),
	}
	if sr.Result != nil {
		run.Mothers = sr.Result.Mothers
		run.TotalKittens = sr.Result.Total
		run.MaleKittens = sr.Result.Male
		run.MotherSummary = sr.Result.MotherSummary
		run.KittenSummary = sr.Result.KittenSummary
	}
	if sr.Error != nil {
		run.ErrorMessage = sr.Error.Error()
	}
	return run
}

// Stats aggregates every recorded run.
type Stats struct {
	Runs         int        `json:"runs"`
	Failed       int        `json:"failed"`
	Mothers      int        `json:"mothers"`
	TotalKittens int        `json:"total_kittens"`
	MaleKittens  int        `json:"male_kittens"`
	FirstRun     *time.Time `json:"first_run,omitempty"`
	LastRun      *time.Time `json:"last_run,omitempty"`
}

// Store manages the SQLite database holding census runs
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every pooled connection to :memory: would get its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts run, assigning RunID and CreatedAt when they are empty.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	query := `INSERT INTO census_runs
		(run_id, source, format, success, mothers, total_kittens, male_kittens, mother_summary, kitten_summary, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Source,
		run.Format,
		run.Success,
		run.Mothers,
		run.TotalKittens,
		run.MaleKittens,
		run.MotherSummary,
		run.KittenSummary,
		run.ErrorMessage,
		run.DurationMs,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert census run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	run.ID = id

	return nil
}

const selectRunColumns = `SELECT id, run_id, source, format, success, mothers, total_kittens, male_kittens,
		mother_summary, kitten_summary, error_message, duration_ms, created_at
		FROM census_runs`

// List returns the most recent runs first. limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := selectRunColumns + ` ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// Get returns the run with the given run ID. A unique prefix of at least
// eight characters is accepted as well.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx, selectRunColumns+` WHERE run_id = ? OR (length(?) >= 8 AND substr(run_id, 1, length(?)) = ?) ORDER BY id LIMIT 2`,
		runID, runID, runID, runID)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	switch {
	case len(found) == 0:
		return nil, ErrRunNotFound
	case len(found) > 1 && found[0].RunID != runID:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", runID)
	default:
		return found[0], nil
	}
}

// Stats aggregates all recorded runs. Kitten counts only include
// successful runs.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0),
		COALESCE(SUM(CASE WHEN success THEN mothers ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN success THEN total_kittens ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN success THEN male_kittens ELSE 0 END), 0)
		FROM census_runs`

	stats := &Stats{}
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.Runs,
		&stats.Failed,
		&stats.Mothers,
		&stats.TotalKittens,
		&stats.MaleKittens,
	)
	if err != nil {
		return nil, fmt.Errorf("query run stats: %w", err)
	}

	if stats.Runs > 0 {
		var first, last time.Time
		if err := s.db.QueryRowContext(ctx, `SELECT created_at FROM census_runs ORDER BY created_at ASC, id ASC LIMIT 1`).Scan(&first); err != nil {
			return nil, fmt.Errorf("query first run: %w", err)
		}
		if err := s.db.QueryRowContext(ctx, `SELECT created_at FROM census_runs ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&last); err != nil {
			return nil, fmt.Errorf("query last run: %w", err)
		}
		stats.FirstRun = &first
		stats.LastRun = &last
	}

	return stats, nil
}

// Cleanup removes runs older than keepDays. 0 or negative keeps everything.
func (s *Store) Cleanup(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -keepDays).UTC()
	result, err := s.db.ExecContext(ctx, `DELETE FROM census_runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return deleted, nil
}

// Clear deletes runs. An empty source deletes every run.
func (s *Store) Clear(ctx context.Context, source string) (int64, error) {
	var (
		result sql.Result
		err    error
	)
	if source == "" {
		result, err = s.db.ExecContext(ctx, `DELETE FROM census_runs`)
	} else {
		result, err = s.db.ExecContext(ctx, `DELETE FROM census_runs WHERE source = ?`, source)
	}
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var motherSummary, kittenSummary, errorMessage sql.NullString
	var durationMs sql.NullInt64

	err := row.Scan(
		&run.ID,
		&run.RunID,
		&run.Source,
		&run.Format,
		&run.Success,
		&run.Mothers,
		&run.TotalKittens,
		&run.MaleKittens,
		&motherSummary,
		&kittenSummary,
		&errorMessage,
		&durationMs,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run row: %w", err)
	}

	run.MotherSummary = motherSummary.String
	run.KittenSummary = kittenSummary.String
	run.ErrorMessage = errorMessage.String
	run.DurationMs = durationMs.Int64

	return run, nil
}
