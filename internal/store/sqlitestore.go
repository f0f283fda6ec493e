package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chris-regnier/assay/internal/sarif"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	sarif      TEXT NOT NULL,
	decision   TEXT,
	verdict    TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);

CREATE TABLE IF NOT EXISTS issues (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	rule_id      TEXT NOT NULL,
	level        TEXT NOT NULL,
	uri          TEXT NOT NULL,
	start_line   INTEGER NOT NULL,
	start_column INTEGER NOT NULL,
	end_line     INTEGER NOT NULL,
	end_column   INTEGER NOT NULL,
	message      TEXT NOT NULL,
	fingerprint  TEXT
);
CREATE INDEX IF NOT EXISTS idx_issues_run ON issues(run_id);
CREATE INDEX IF NOT EXISTS idx_issues_rule ON issues(rule_id);
`

// SQLiteStore keeps runs in a SQLite database. The issues table flattens the
// SARIF results of each run so they can be queried directly.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens or creates the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) WriteSARIF(ctx context.Context, doc *sarif.Log) (id string, err error) {
	ctx, span := storeTracer.Start(ctx, "write sarif")
	defer span.End()

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fail(span, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fail(span, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id = generateID()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, sarif) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano), string(data)); err != nil {
		return "", fail(span, fmt.Errorf("inserting run: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO issues (run_id, rule_id, level, uri, start_line, start_column, end_line, end_column, message, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fail(span, err)
	}
	defer stmt.Close()

	for _, run := range doc.Runs {
		for _, r := range run.Results {
			var loc sarif.PhysicalLocation
			if len(r.Locations) > 0 {
				loc = r.Locations[0].PhysicalLocation
			}
			if _, err = stmt.ExecContext(ctx, id, r.RuleID, r.Level,
				loc.ArtifactLocation.URI,
				loc.Region.StartLine, loc.Region.StartColumn,
				loc.Region.EndLine, loc.Region.EndColumn,
				r.Message.Text, r.PartialFingerprints[sarif.FingerprintKey]); err != nil {
				return "", fail(span, fmt.Errorf("inserting issue: %w", err))
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fail(span, err)
	}

	span.SetAttributes(
		attribute.String("assay.store.id", id),
		attribute.Int("assay.store.result_count", resultCount(doc)),
	)
	return id, nil
}

func (s *SQLiteStore) WriteVerdict(ctx context.Context, sarifID string, verdict *Verdict) error {
	ctx, span := storeTracer.Start(ctx, "write verdict")
	defer span.End()

	data, err := json.Marshal(verdict)
	if err != nil {
		return fail(span, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET decision = ?, verdict = ? WHERE id = ?`,
		verdict.Decision, string(data), sarifID)
	if err != nil {
		return fail(span, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fail(span, fmt.Errorf("run %s: %w", sarifID, ErrNotFound))
	}

	span.SetAttributes(
		attribute.String("assay.store.id", sarifID),
		attribute.String("assay.decision", verdict.Decision),
	)
	return nil
}

func (s *SQLiteStore) ReadSARIF(ctx context.Context, id string) (*sarif.Log, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT sarif FROM runs WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reading sarif for %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	var log sarif.Log
	if err := json.Unmarshal([]byte(data), &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (s *SQLiteStore) ReadVerdict(ctx context.Context, sarifID string) (*Verdict, error) {
	var data sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT verdict FROM runs WHERE id = ?`, sarifID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !data.Valid) {
		return nil, fmt.Errorf("reading verdict for %s: %w", sarifID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var v Verdict
	if err := json.Unmarshal([]byte(data.String), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RuleCounts returns the number of stored issues per rule for a run.
func (s *SQLiteStore) RuleCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_id, COUNT(*) FROM issues WHERE run_id = ? GROUP BY rule_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var rule string
		var n int
		if err := rows.Scan(&rule, &n); err != nil {
			return nil, err
		}
		counts[rule] = n
	}
	return counts, rows.Err()
}
