package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"github.com/backmassage/calcanim/internal/scheduler"
	"github.com/backmassage/calcanim/internal/tool"
)

const defaultTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	wave TEXT NOT NULL,
	label TEXT NOT NULL,
	dir TEXT NOT NULL,
	lane INTEGER NOT NULL,
	status TEXT NOT NULL,
	exit_code INTEGER NOT NULL DEFAULT 0,
	attempts INTEGER NOT NULL DEFAULT 0,
	command TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	started_at INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	recorded_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_jobs_run ON jobs(run_id);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// Ledger is an open outcome database.
type Ledger struct {
	db   *sql.DB
	path string
}

// Entry is one recorded job.
type Entry struct {
	RunID     string
	Wave      string
	Label     string
	Dir       string
	Lane      int
	Status    scheduler.Status
	ExitCode  int
	Attempts  int
	Command   string
	Error     string
	StartedAt time.Time // Zero for skipped jobs.
	Duration  time.Duration
}

// RunSummary aggregates the jobs of one run.
type RunSummary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Open opens (creating if needed) the ledger at path and applies the schema.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// Lanes record through one connection; SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	initCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if _, err := db.ExecContext(initCtx, schema); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize ledger schema: %w", err), db.Close())
	}
	return &Ledger{db: db, path: path}, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string { return l.path }

// Close closes the database.
func (l *Ledger) Close() error { return l.db.Close() }

// RecordWave stores every result of report under runID in one transaction.
func (l *Ledger) RecordWave(ctx context.Context, runID string, report scheduler.WaveReport) (err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO jobs
		(run_id, wave, label, dir, lane, status, exit_code, attempts, command, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range report.Results {
		e := entryFor(runID, report.Wave, r)
		var started int64
		if !e.StartedAt.IsZero() {
			started = e.StartedAt.UnixMilli()
		}
		if _, err = stmt.ExecContext(ctx,
			e.RunID, e.Wave, e.Label, e.Dir, e.Lane, string(e.Status),
			e.ExitCode, e.Attempts, e.Command, e.Error,
			started, e.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("insert %s: %w", e.Label, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// entryFor flattens a job result. Command, exit code and attempts describe
// the first failing step, or the last step when the job succeeded.
func entryFor(runID, wave string, r scheduler.JobResult) Entry {
	e := Entry{
		RunID:     runID,
		Wave:      wave,
		Label:     r.Job.Label,
		Dir:       r.Job.Dir,
		Lane:      r.Lane,
		Status:    r.Status,
		StartedAt: r.Started,
		Duration:  r.Duration(),
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	var step *scheduler.StepResult
	for i := range r.Steps {
		step = &r.Steps[i]
		if step.Err != nil {
			break
		}
	}
	if step == nil {
		return e
	}
	e.Command = tool.FormatArgs(step.Args)
	e.Attempts = step.Attempts
	var te *tool.ToolError
	if errors.As(step.Err, &te) {
		e.ExitCode = te.ExitCode
	} else if step.Err != nil {
		e.ExitCode = -1
	}
	return e
}

// Runs lists the most recent runs first, at most limit (0 means all).
func (l *Ledger) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	q := `SELECT run_id, COUNT(*),
		SUM(CASE WHEN status = 'succeeded' THEN 1 ELSE 0 END),
		SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
		SUM(CASE WHEN status = 'skipped' THEN 1 ELSE 0 END)
		FROM jobs GROUP BY run_id ORDER BY MAX(id) DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.Total, &s.Succeeded, &s.Failed, &s.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LatestRun returns the most recently recorded run ID, or "" for an empty
// ledger.
func (l *Ledger) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := l.db.QueryRowContext(ctx, `SELECT run_id FROM jobs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query latest run: %w", err)
	}
	return id, nil
}

// Entries returns the jobs of runID in recording order. With failedOnly set
// only failed jobs are returned.
func (l *Ledger) Entries(ctx context.Context, runID string, failedOnly bool) ([]Entry, error) {
	q := `SELECT run_id, wave, label, dir, lane, status, exit_code, attempts, command, error, started_at, duration_ms
		FROM jobs WHERE run_id = ?`
	if failedOnly {
		q += " AND status = 'failed'"
	}
	q += " ORDER BY id"
	rows, err := l.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e              Entry
			status         string
			started, durMS int64
		)
		if err := rows.Scan(&e.RunID, &e.Wave, &e.Label, &e.Dir, &e.Lane, &status,
			&e.ExitCode, &e.Attempts, &e.Command, &e.Error, &started, &durMS); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Status = scheduler.Status(status)
		if started > 0 {
			e.StartedAt = time.UnixMilli(started)
		}
		e.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}
