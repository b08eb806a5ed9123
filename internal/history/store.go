package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one recorded tutorial attempt.
type Run struct {
	ID           string
	Script       string
	Status       string
	StartedAt    time.Time
	FinishedAt   time.Time
	OutputPath   string
	Error        string
	VideoSeconds float64
	// ClipCount is filled by Recent; Clips is only used when recording.
	ClipCount    int
	Clips        []Clip
}

// Duration is the wall-clock length of the run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Clip is a narration clip as it was placed in the video.
type Clip struct {
	Position int
	File     string
	Start    time.Time
	Offset   time.Duration
	Duration time.Duration
	Latency  time.Duration
	Text     string
}

// Store persists runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
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

// Record stores a run and its clips in one transaction.
func (s *Store) Record(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, script, status, started_at, finished_at, output_path, error_message, video_seconds)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Script,
		run.Status,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		nullableString(run.OutputPath),
		nullableString(run.Error),
		run.VideoSeconds,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, clip := range run.Clips {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO clips (run_id, position, file, started_at, offset_ms, duration_ms, latency_ms, text)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			clip.Position,
			clip.File,
			formatTime(clip.Start),
			clip.Offset.Milliseconds(),
			clip.Duration.Milliseconds(),
			clip.Latency.Milliseconds(),
			clip.Text,
		)
		if err != nil {
			return fmt.Errorf("insert clip %d: %w", clip.Position, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first, without their clips.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.script, r.status, r.started_at, r.finished_at, r.output_path, r.error_message, r.video_seconds,
                (SELECT COUNT(1) FROM clips c WHERE c.run_id = r.id)
         FROM runs r ORDER BY r.started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                 Run
			started, finished   string
			output, errorDetail sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Script, &run.Status, &started, &finished, &output, &errorDetail, &run.VideoSeconds, &run.ClipCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		run.OutputPath = output.String
		run.Error = errorDetail.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Clips returns the clips recorded for runID in timeline order.
func (s *Store) Clips(ctx context.Context, runID string) ([]Clip, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, file, started_at, offset_ms, duration_ms, latency_ms, text
         FROM clips WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query clips: %w", err)
	}
	defer rows.Close()

	var clips []Clip
	for rows.Next() {
		var (
			clip                        Clip
			started                     string
			offsetMS, durationMS, latMS int64
		)
		if err := rows.Scan(&clip.Position, &clip.File, &started, &offsetMS, &durationMS, &latMS, &clip.Text); err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		clip.Start = parseTime(started)
		clip.Offset = time.Duration(offsetMS) * time.Millisecond
		clip.Duration = time.Duration(durationMS) * time.Millisecond
		clip.Latency = time.Duration(latMS) * time.Millisecond
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clips: %w", err)
	}
	return clips, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
