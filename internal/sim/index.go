package sim

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// RunRecord is one finished match as stored in the results index.
type RunRecord struct {
	ID         int64
	RecordedAt time.Time
	Scenario   string
	Preset     string
	Seed       int64
	Outcome    Outcome
}

// ResultsIndex stores match summaries in a sqlite file.
type ResultsIndex struct {
	db *sql.DB
}

// OpenResultsIndex opens or creates the index at path.
func OpenResultsIndex(path string) (*ResultsIndex, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at TEXT NOT NULL,
		scenario TEXT NOT NULL,
		preset TEXT NOT NULL,
		seed INTEGER NOT NULL,
		rounds INTEGER NOT NULL,
		result TEXT NOT NULL,
		description TEXT NOT NULL,
		remaining INTEGER NOT NULL,
		stock_a INTEGER NOT NULL, stock_b INTEGER NOT NULL,
		collected_a INTEGER NOT NULL, collected_b INTEGER NOT NULL,
		delivered_a INTEGER NOT NULL, delivered_b INTEGER NOT NULL,
		spawned_a INTEGER NOT NULL, spawned_b INTEGER NOT NULL,
		alive_a INTEGER NOT NULL, alive_b INTEGER NOT NULL,
		dead_a INTEGER NOT NULL, dead_b INTEGER NOT NULL,
		warns_a INTEGER NOT NULL, warns_b INTEGER NOT NULL,
		errs_a INTEGER NOT NULL, errs_b INTEGER NOT NULL,
		faults_a INTEGER NOT NULL, faults_b INTEGER NOT NULL,
		leader_up_a INTEGER NOT NULL, leader_up_b INTEGER NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS runs_scenario ON runs(scenario, preset);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &ResultsIndex{db: db}, nil
}

// Close closes the database.
func (ix *ResultsIndex) Close() error { return ix.db.Close() }

const runColumns = `recorded_at, scenario, preset, seed, rounds, result, description, remaining,
	stock_a, stock_b, collected_a, collected_b, delivered_a, delivered_b, spawned_a, spawned_b,
	alive_a, alive_b, dead_a, dead_b, warns_a, warns_b, errs_a, errs_b, faults_a, faults_b,
	leader_up_a, leader_up_b`

// teamColumns pairs the per-team fields in runColumns order, team A
// first for each field.
func teamColumns(a, b *TeamOutcome) []any {
	return []any{
		&a.Stock, &b.Stock, &a.Collected, &b.Collected, &a.Delivered, &b.Delivered,
		&a.Spawned, &b.Spawned, &a.Alive, &b.Alive, &a.Dead, &b.Dead,
		&a.Warns, &b.Warns, &a.Errs, &b.Errs, &a.Faults, &b.Faults,
		&a.LeaderUp, &b.LeaderUp,
	}
}

// Record stores one run and returns its row id.
func (ix *ResultsIndex) Record(ctx context.Context, r RunRecord) (int64, error) {
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}
	o := r.Outcome
	args := []any{r.RecordedAt.Format(time.RFC3339), r.Scenario, r.Preset, r.Seed, o.Rounds, o.Result.String(), o.Description, o.Remaining}
	for _, p := range teamColumns(&o.Teams[TeamA], &o.Teams[TeamB]) {
		switch v := p.(type) {
		case *int:
			args = append(args, *v)
		case *bool:
			args = append(args, *v)
		}
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	res, err := ix.db.ExecContext(ctx, `INSERT INTO runs (`+runColumns+`) VALUES (`+marks+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return res.LastInsertId()
}

// Runs returns the stored runs for scenario (all scenarios when empty),
// oldest first.
func (ix *ResultsIndex) Runs(ctx context.Context, scenario string) ([]RunRecord, error) {
	q := `SELECT id, ` + runColumns + ` FROM runs`
	var args []any
	if scenario != "" {
		q += ` WHERE scenario = ?`
		args = append(args, scenario)
	}
	q += ` ORDER BY id`
	rows, err := ix.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r       RunRecord
			at, res string
		)
		dest := []any{&r.ID, &at, &r.Scenario, &r.Preset, &r.Seed, &r.Outcome.Rounds, &res, &r.Outcome.Description, &r.Outcome.Remaining}
		dest = append(dest, teamColumns(&r.Outcome.Teams[TeamA], &r.Outcome.Teams[TeamB])...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r.RecordedAt, _ = time.Parse(time.RFC3339, at)
		r.Outcome.Result = parseResult(res)
		out = append(out, r)
	}
	return out, rows.Err()
}

func parseResult(s string) Result {
	for _, r := range []Result{ResultTeamA, ResultTeamB, ResultDraw} {
		if r.String() == s {
			return r
		}
	}
	return ResultInconclusive
}
