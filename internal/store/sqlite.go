package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"volsurge/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema migration, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol          TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	start_date      TEXT NOT NULL,
	end_date        TEXT NOT NULL,
	entry_threshold REAL NOT NULL,
	initial_capital REAL NOT NULL,
	final_value     REAL NOT NULL,
	total_return_pct REAL NOT NULL,
	trade_count     INTEGER NOT NULL,
	wins            INTEGER NOT NULL,
	losses          INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_trades (
	run_id     INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	ts         TEXT NOT NULL,
	action     TEXT NOT NULL,
	shares     INTEGER NOT NULL,
	price      REAL NOT NULL,
	cash_delta REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE TABLE IF NOT EXISTS run_snapshots (
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	date   TEXT NOT NULL,
	value  REAL NOT NULL,
	PRIMARY KEY (run_id, date)
);
CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol, created_at);
`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// RunStore implementation
// ---------------------------------------------------------------------------

// SaveRun inserts a run together with its trade ledger and portfolio
// snapshots in a single transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *BacktestRun) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (symbol, created_at, start_date, end_date,
			entry_threshold, initial_capital, final_value, total_return_pct,
			trade_count, wins, losses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Symbol, createdAt.UTC().Format(sqliteTimeLayout),
		run.StartDate, run.EndDate,
		run.EntryThreshold, run.InitialCapital, run.FinalValue, run.TotalReturnPct,
		run.TradeCount, run.Wins, run.Losses)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, e := range run.Ledger {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_trades (run_id, seq, ts, action, shares, price, cash_delta)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, e.Timestamp.Format(sqliteTimeLayout), string(e.Action),
			e.Shares, e.Price, e.CashDelta)
		if err != nil {
			return 0, fmt.Errorf("inserting trade %d: %w", i, err)
		}
	}

	for _, snap := range run.Snapshots {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_snapshots (run_id, date, value) VALUES (?, ?, ?)`,
			id, snap.Date, snap.Value)
		if err != nil {
			return 0, fmt.Errorf("inserting snapshot %s: %w", snap.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetRun retrieves a single run by ID, including its ledger and snapshots.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*BacktestRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, created_at, start_date, end_date,
			entry_threshold, initial_capital, final_value, total_return_pct,
			trade_count, wins, losses
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %d not found", id)
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, action, shares, price, cash_delta
		FROM run_trades WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ts     string
			action string
			e      domain.LedgerEntry
		)
		if err := rows.Scan(&ts, &action, &e.Shares, &e.Price, &e.CashDelta); err != nil {
			return nil, err
		}
		e.Timestamp, err = time.Parse(sqliteTimeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing trade timestamp %q: %w", ts, err)
		}
		e.Action = domain.TradeAction(action)
		run.Ledger = append(run.Ledger, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snapRows, err := s.db.QueryContext(ctx, `
		SELECT date, value FROM run_snapshots WHERE run_id = ? ORDER BY date`, id)
	if err != nil {
		return nil, err
	}
	defer snapRows.Close()
	for snapRows.Next() {
		var snap domain.PortfolioSnapshot
		if err := snapRows.Scan(&snap.Date, &snap.Value); err != nil {
			return nil, err
		}
		run.Snapshots = append(run.Snapshots, snap)
	}
	if err := snapRows.Err(); err != nil {
		return nil, err
	}

	return run, nil
}

// ListRuns returns the most recent runs, newest first. An empty symbol
// matches all symbols. Ledger and snapshots are left empty.
func (s *SQLiteStore) ListRuns(ctx context.Context, symbol string, limit int) ([]BacktestRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, symbol, created_at, start_date, end_date,
			entry_threshold, initial_capital, final_value, total_return_pct,
			trade_count, wins, losses
		FROM runs`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []BacktestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*BacktestRun, error) {
	var (
		run       BacktestRun
		createdAt string
	)
	err := row.Scan(&run.ID, &run.Symbol, &createdAt, &run.StartDate, &run.EndDate,
		&run.EntryThreshold, &run.InitialCapital, &run.FinalValue, &run.TotalReturnPct,
		&run.TradeCount, &run.Wins, &run.Losses)
	if err != nil {
		return nil, err
	}
	run.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	return &run, nil
}
