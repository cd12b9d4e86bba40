// Package store persists run summaries and cohort traces in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"microsim/internal/store/migrations"
	"microsim/pkg/api"
)

// ErrNotFound is returned by GetRun for an unknown ID.
var ErrNotFound = errors.New("run not found")

// Run is one persisted run.
type Run struct {
	ID        string
	CreatedAt time.Time
	Summary   api.SummaryV1
	Trace     [][]int // (n_T+1) × n_S; empty when not stored
}

// Store provides SQLite-backed persistence for runs.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens (creating if needed) a store at path and applies migrations.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer; also keeps ":memory:" on a single connection.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveRun inserts a run with a fresh ID and returns it. trace may be nil.
func (s *Store) SaveRun(ctx context.Context, sum api.SummaryV1, trace [][]int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	labels, err := json.Marshal(nonNil(sum.StateLabels))
	if err != nil {
		return "", fmt.Errorf("marshal labels: %w", err)
	}
	occ, err := json.Marshal(nonNilInts(sum.FinalOccupancy))
	if err != nil {
		return "", fmt.Errorf("marshal occupancy: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, created_at, model, strategy, seed, individuals, states, cycles,
    cycle_length, cost_discount, effect_discount, mean_cost, mean_effect, se_cost, se_effect,
    state_labels, final_occupancy)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.now().UTC().UnixMilli(), sum.Model, sum.Strategy, sum.Seed,
		sum.Individuals, sum.States, sum.Cycles,
		sum.CycleLength, sum.CostDiscount, sum.EffectDiscount,
		sum.MeanCost, sum.MeanEffect, sum.SECost, sum.SEEffect,
		string(labels), string(occ),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if len(trace) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_trace (run_id, cycle, state, count) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return "", fmt.Errorf("prepare trace: %w", err)
		}
		defer stmt.Close()
		for t, row := range trace {
			for st, n := range row {
				if _, err := stmt.ExecContext(ctx, id, t, st, n); err != nil {
					return "", fmt.Errorf("insert trace: %w", err)
				}
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

const runColumns = `id, created_at, model, strategy, seed, individuals, states, cycles,
    cycle_length, cost_discount, effect_discount, mean_cost, mean_effect, se_cost, se_effect,
    state_labels, final_occupancy`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r           Run
		createdAt   int64
		labels, occ string
	)
	s := &r.Summary
	if err := row.Scan(&r.ID, &createdAt, &s.Model, &s.Strategy, &s.Seed,
		&s.Individuals, &s.States, &s.Cycles,
		&s.CycleLength, &s.CostDiscount, &s.EffectDiscount,
		&s.MeanCost, &s.MeanEffect, &s.SECost, &s.SEEffect,
		&labels, &occ,
	); err != nil {
		return Run{}, err
	}
	r.CreatedAt = time.UnixMilli(createdAt).UTC()
	s.RunID = r.ID
	if err := json.Unmarshal([]byte(labels), &s.StateLabels); err != nil {
		return Run{}, fmt.Errorf("unmarshal labels: %w", err)
	}
	if err := json.Unmarshal([]byte(occ), &s.FinalOccupancy); err != nil {
		return Run{}, fmt.Errorf("unmarshal occupancy: %w", err)
	}
	return r, nil
}

// GetRun loads one run and its trace.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	r, err := scanRun(s.sqlDB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT cycle, state, count FROM run_trace WHERE run_id = ? ORDER BY cycle, state`, id)
	if err != nil {
		return Run{}, fmt.Errorf("get trace: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t, st, n int
		if err := rows.Scan(&t, &st, &n); err != nil {
			return Run{}, fmt.Errorf("scan trace: %w", err)
		}
		for len(r.Trace) <= t {
			r.Trace = append(r.Trace, make([]int, r.Summary.States))
		}
		if st < len(r.Trace[t]) {
			r.Trace[t][st] = n
		}
	}
	return r, rows.Err()
}

// ListRuns returns the newest runs first; limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.sqlDB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
