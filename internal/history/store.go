// Package history persists solve runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/payment-allocator/internal/allocator"
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("solve run not found")

// fixed width keeps lexical order equal to time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// MethodSpend is the amount one method paid in a run.
type MethodSpend struct {
	MethodID string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
}

// ScenarioRecord is one strategy's result in a run. Err is empty on success.
type ScenarioRecord struct {
	Strategy string          `json:"strategy"`
	Total    decimal.Decimal `json:"total"`
	Err      string          `json:"error,omitempty"`
}

// Run is a stored solve.
type Run struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"createdAt"`
	Winner    string           `json:"winner"`
	Total     decimal.Decimal  `json:"total"`
	Orders    int              `json:"orders"`
	Spent     []MethodSpend    `json:"spent"`
	Scenarios []ScenarioRecord `json:"scenarios"`
}

// NewRun captures a solution under a fresh id.
func NewRun(s *allocator.Solution, orderCount int) Run {
	run := Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Winner:    s.Winner.Strategy,
		Total:     s.Winner.Total,
		Orders:    orderCount,
	}
	for _, id := range s.MethodIDs {
		run.Spent = append(run.Spent, MethodSpend{MethodID: id, Amount: s.Winner.Spent[id]})
	}
	for _, o := range s.Outcomes {
		rec := ScenarioRecord{Strategy: o.Strategy}
		if o.Err != nil {
			rec.Err = o.Err.Error()
		} else {
			rec.Total = o.Result.Total
		}
		run.Scenarios = append(run.Scenarios, rec)
	}
	return run
}

// Migrations returns the schema statements, one statement each.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS solve_runs (
			id          TEXT PRIMARY KEY,
			created_at  TEXT NOT NULL,
			winner      TEXT NOT NULL,
			total       TEXT NOT NULL,
			order_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_solve_runs_created ON solve_runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS run_spent (
			run_id    TEXT NOT NULL REFERENCES solve_runs(id) ON DELETE CASCADE,
			position  INTEGER NOT NULL,
			method_id TEXT NOT NULL,
			amount    TEXT NOT NULL,
			PRIMARY KEY(run_id, position)
		)`,

		`CREATE TABLE IF NOT EXISTS run_scenarios (
			run_id   TEXT NOT NULL REFERENCES solve_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			strategy TEXT NOT NULL,
			total    TEXT NOT NULL,
			error    TEXT NOT NULL DEFAULT '',
			PRIMARY KEY(run_id, position)
		)`,
	}
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range append([]string{`PRAGMA foreign_keys = ON`}, Migrations()...) {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate history database: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a run atomically.
func (s *Store) Save(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO solve_runs (id, created_at, winner, total, order_count) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Winner, run.Total.StringFixed(2), run.Orders,
	); err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	for i, m := range run.Spent {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_spent (run_id, position, method_id, amount) VALUES (?, ?, ?, ?)`,
			run.ID, i, m.MethodID, m.Amount.StringFixed(2),
		); err != nil {
			return fmt.Errorf("failed to save spend of run %s: %w", run.ID, err)
		}
	}
	for i, sc := range run.Scenarios {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_scenarios (run_id, position, strategy, total, error) VALUES (?, ?, ?, ?, ?)`,
			run.ID, i, sc.Strategy, sc.Total.StringFixed(2), sc.Err,
		); err != nil {
			return fmt.Errorf("failed to save scenarios of run %s: %w", run.ID, err)
		}
	}
	return tx.Commit()
}

// Get loads a run by id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, winner, total, order_count FROM solve_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadDetails(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = constants.DefaultHistoryListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, winner, total, order_count FROM solve_runs
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range runs {
		if err := s.loadDetails(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run       Run
		createdAt string
		total     string
	)
	if err := row.Scan(&run.ID, &createdAt, &run.Winner, &total, &run.Orders); err != nil {
		return nil, err
	}
	var err error
	if run.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("run %s: bad timestamp %q: %w", run.ID, createdAt, err)
	}
	if run.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("run %s: bad total %q: %w", run.ID, total, err)
	}
	return &run, nil
}

func (s *Store) loadDetails(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT method_id, amount FROM run_spent WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var m MethodSpend
		var amount string
		if err := rows.Scan(&m.MethodID, &amount); err != nil {
			_ = rows.Close()
			return err
		}
		if m.Amount, err = decimal.NewFromString(amount); err != nil {
			_ = rows.Close()
			return fmt.Errorf("run %s: bad amount %q: %w", run.ID, amount, err)
		}
		run.Spent = append(run.Spent, m)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT strategy, total, error FROM run_scenarios WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var sc ScenarioRecord
		var total string
		if err := rows.Scan(&sc.Strategy, &total, &sc.Err); err != nil {
			return err
		}
		if sc.Total, err = decimal.NewFromString(total); err != nil {
			return fmt.Errorf("run %s: bad scenario total %q: %w", run.ID, total, err)
		}
		run.Scenarios = append(run.Scenarios, sc)
	}
	return rows.Err()
}
