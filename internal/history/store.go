package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"epubshrink/internal/config"
)

// ErrNotFound is returned when no calibration is stored for a source.
var ErrNotFound = errors.New("history record not found")

const runColumns = "id, run_id, source_path, destination_path, original_bytes, final_bytes, reduction_percent, jpeg_quality, png_compression, scale_percent, target_height, target_width, entries, reduced, copied, unsupported, malformed, failed, started_at, finished_at"

// Store persists run history and calibration results in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
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

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
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

// RecordRun inserts a completed run. A missing RunID is generated.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if strings.TrimSpace(run.RunID) == "" {
		run.RunID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            run_id, source_path, destination_path, original_bytes, final_bytes, reduction_percent,
            jpeg_quality, png_compression, scale_percent, target_height, target_width,
            entries, reduced, copied, unsupported, malformed, failed, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		absPath(run.SourcePath),
		absPath(run.DestinationPath),
		run.OriginalBytes,
		run.FinalBytes,
		run.ReductionPercent,
		run.JPEGQuality,
		run.PNGCompression,
		run.ScalePercent,
		run.TargetHeight,
		run.TargetWidth,
		run.Entries,
		run.Reduced,
		run.Copied,
		run.Unsupported,
		run.Malformed,
		run.Failed,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	run.ID = id
	return nil
}

// ListRuns returns up to limit runs, most recent first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY finished_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// SaveCalibration stores the accepted calibration for source, replacing any
// earlier value.
func (s *Store) SaveCalibration(ctx context.Context, cal Calibration) error {
	if strings.TrimSpace(cal.SourcePath) == "" {
		return errors.New("calibration source path is empty")
	}
	if cal.UpdatedAt.IsZero() {
		cal.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO calibrations (source_path, scale_percent, quality_percent, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(source_path) DO UPDATE SET
             scale_percent = excluded.scale_percent,
             quality_percent = excluded.quality_percent,
             updated_at = excluded.updated_at`,
		absPath(cal.SourcePath),
		cal.ScalePercent,
		cal.QualityPercent,
		cal.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}
	return nil
}

// LoadCalibration returns the stored calibration for source or ErrNotFound.
func (s *Store) LoadCalibration(ctx context.Context, source string) (Calibration, error) {
	var (
		cal        Calibration
		updatedRaw string
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT source_path, scale_percent, quality_percent, updated_at FROM calibrations WHERE source_path = ?`,
		absPath(source),
	).Scan(&cal.SourcePath, &cal.ScalePercent, &cal.QualityPercent, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return Calibration{}, fmt.Errorf("%w: calibration for %s", ErrNotFound, source)
	}
	if err != nil {
		return Calibration{}, fmt.Errorf("load calibration: %w", err)
	}
	cal.UpdatedAt = parseTime(updatedRaw)
	return cal, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw string
	)
	if err := scanner.Scan(
		&run.ID,
		&run.RunID,
		&run.SourcePath,
		&run.DestinationPath,
		&run.OriginalBytes,
		&run.FinalBytes,
		&run.ReductionPercent,
		&run.JPEGQuality,
		&run.PNGCompression,
		&run.ScalePercent,
		&run.TargetHeight,
		&run.TargetWidth,
		&run.Entries,
		&run.Reduced,
		&run.Copied,
		&run.Unsupported,
		&run.Malformed,
		&run.Failed,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	return run, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
