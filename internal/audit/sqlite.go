package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/wonny/varcalc/internal/risk"
)

// SQLiteJournal 로컬 실행 이력 (SQLITE_PATH)
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (or creates) the database and applies the schema.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal: %w", err)
	}
	// :memory: 는 커넥션마다 별도 DB
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// Save inserts one run row.
func (j *SQLiteJournal) Save(ctx context.Context, run RunContext, cfg risk.RiskConfig, result risk.VarResult) (Artifacts, error) {
	row := newJournalRow(run, cfg, result)

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO var_runs
		(run_id, created_at, operator, ticker, exchange, symbol, portfolio_value,
		 confidence, horizon, simulations, window_days,
		 parametric_var, historical_var, monte_carlo_var, profile_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Timestamp.UTC(), run.Operator, run.Ticker, run.Exchange, run.Symbol,
		row.portfolio.StringFixed(2),
		cfg.Confidence, cfg.Horizon, cfg.Simulations, run.Window,
		row.parametric.StringFixed(2), row.historical.StringFixed(2), row.mc.StringFixed(2),
		run.ProfileHash,
	)
	if err != nil {
		return Artifacts{}, fmt.Errorf("sqlite journal insert: %w", err)
	}
	return Artifacts{Journal: "sqlite:" + run.RunID}, nil
}

const sqliteSelect = `
	SELECT run_id, created_at, operator, ticker, exchange, symbol, portfolio_value,
	       confidence, horizon, simulations, window_days,
	       parametric_var, historical_var, monte_carlo_var, profile_hash
	FROM var_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(s rowScanner) (Record, error) {
	var (
		row                 journalRow
		createdAt           time.Time
		portfolio, p, h, mc string
	)
	err := s.Scan(
		&row.run.RunID, &createdAt, &row.run.Operator, &row.run.Ticker, &row.run.Exchange, &row.run.Symbol,
		&portfolio, &row.cfg.Confidence, &row.cfg.Horizon, &row.cfg.Simulations, &row.run.Window,
		&p, &h, &mc, &row.run.ProfileHash,
	)
	if err != nil {
		return Record{}, err
	}
	row.run.Timestamp = createdAt

	for dst, src := range map[*decimal.Decimal]string{&row.portfolio: portfolio, &row.parametric: p, &row.historical: h, &row.mc: mc} {
		if *dst, err = decimal.NewFromString(src); err != nil {
			return Record{}, fmt.Errorf("parse amount %q: %w", src, err)
		}
	}
	return row.record()
}

// Get loads one run by ID.
func (j *SQLiteJournal) Get(ctx context.Context, runID string) (Record, error) {
	rec, err := scanSQLite(j.db.QueryRowContext(ctx, sqliteSelect+` WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Record{}, fmt.Errorf("sqlite journal get: %w", err)
	}
	return rec, nil
}

// Recent lists the newest runs, optionally for one symbol.
func (j *SQLiteJournal) Recent(ctx context.Context, symbol string, limit int) ([]Record, error) {
	query := sqliteSelect
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, clampLimit(limit))

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite journal list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite journal scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
