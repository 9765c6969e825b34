// Package report keeps a sqlite-backed journal of pipeline runs.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/itsrody/Brave/engine"
)

// Journal persists run summaries for later inspection.
type Journal struct {
	db *sql.DB
}

// Open opens the run journal at path, creating the schema if needed.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("report: opening %s: %w", path, err)
	}

	// WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("report: enabling WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("report: enabling foreign keys: %w", err)
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("report: initializing schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	output_file TEXT,
	rule_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_lists (
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	skipped INTEGER NOT NULL,
	lines INTEGER NOT NULL,
	filters INTEGER NOT NULL,
	translated INTEGER NOT NULL,
	commented_out INTEGER NOT NULL,
	dropped INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Record writes one run and its per-list rows in a single transaction.
func (j *Journal) Record(ctx context.Context, stats *engine.RunStats) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("report: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, output_file, rule_count) VALUES (?, ?, ?, ?, ?)`,
		stats.RunID,
		stats.Started.Format(time.RFC3339Nano),
		stats.Finished.Format(time.RFC3339Nano),
		stats.OutputFile,
		stats.RuleCount,
	)
	if err != nil {
		return fmt.Errorf("report: inserting run %s: %w", stats.RunID, err)
	}

	for _, ls := range stats.Lists {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_lists (run_id, name, skipped, lines, filters, translated, commented_out, dropped, errors)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			stats.RunID, ls.Name, boolToInt(ls.Skipped), ls.Lines, ls.Filters,
			ls.Translated, ls.CommentedOut, ls.Dropped, ls.Errors,
		)
		if err != nil {
			return fmt.Errorf("report: inserting list stats for %s: %w", ls.Name, err)
		}
	}
	return tx.Commit()
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID         string
	Started    time.Time
	Finished   time.Time
	OutputFile string
	RuleCount  int
}

// LastRuns returns the most recent n runs, newest first. ULID run ids sort
// chronologically, so ordering by id is ordering by time.
func (j *Journal) LastRuns(ctx context.Context, n int) ([]RunRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, output_file, rule_count FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("report: querying runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished string
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.OutputFile, &rec.RuleCount); err != nil {
			return nil, fmt.Errorf("report: scanning run row: %w", err)
		}
		if rec.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("report: parsing started_at: %w", err)
		}
		if rec.Finished, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("report: parsing finished_at: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
