package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/varcalc/internal/risk"
	"github.com/wonny/varcalc/pkg/database"
)

// PostgresRepository 서버 실행 이력 (DATABASE_URL)
// ⭐ SSOT: risk.var_runs 저장/조회는 여기서만
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository applies the schema and returns the repository.
func NewPostgresRepository(ctx context.Context, db *database.DB) (*PostgresRepository, error) {
	if err := db.EnsureSchema(ctx, postgresSchema...); err != nil {
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}
	return &PostgresRepository{pool: db.Pool}, nil
}

// Save upserts one run row.
func (r *PostgresRepository) Save(ctx context.Context, run RunContext, cfg risk.RiskConfig, result risk.VarResult) (Artifacts, error) {
	row := newJournalRow(run, cfg, result)

	query := `
		INSERT INTO risk.var_runs (
			run_id, created_at, operator, ticker, exchange, symbol, portfolio_value,
			confidence, horizon, simulations, window_days,
			parametric_var, historical_var, monte_carlo_var, profile_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (run_id) DO UPDATE SET
			parametric_var = EXCLUDED.parametric_var,
			historical_var = EXCLUDED.historical_var,
			monte_carlo_var = EXCLUDED.monte_carlo_var
	`

	_, err := r.pool.Exec(ctx, query,
		run.RunID, run.Timestamp, run.Operator, run.Ticker, run.Exchange, run.Symbol, row.portfolio,
		cfg.Confidence, cfg.Horizon, cfg.Simulations, run.Window,
		row.parametric, row.historical, row.mc, run.ProfileHash,
	)
	if err != nil {
		return Artifacts{}, fmt.Errorf("failed to save var run: %w", err)
	}
	return Artifacts{Journal: "postgres:" + run.RunID}, nil
}

const postgresSelect = `
	SELECT run_id::text, created_at, operator, ticker, exchange, symbol, portfolio_value,
	       confidence, horizon, simulations, window_days,
	       parametric_var, historical_var, monte_carlo_var, profile_hash
	FROM risk.var_runs`

func scanPostgres(s pgx.Row) (Record, error) {
	var row journalRow
	err := s.Scan(
		&row.run.RunID, &row.run.Timestamp, &row.run.Operator, &row.run.Ticker, &row.run.Exchange, &row.run.Symbol,
		&row.portfolio, &row.cfg.Confidence, &row.cfg.Horizon, &row.cfg.Simulations, &row.run.Window,
		&row.parametric, &row.historical, &row.mc, &row.run.ProfileHash,
	)
	if err != nil {
		return Record{}, err
	}
	return row.record()
}

// Get retrieves one run by ID
func (r *PostgresRepository) Get(ctx context.Context, runID string) (Record, error) {
	rec, err := scanPostgres(r.pool.QueryRow(ctx, postgresSelect+` WHERE run_id::text = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to get var run: %w", err)
	}
	return rec, nil
}

// Recent lists the newest runs, optionally for one symbol
func (r *PostgresRepository) Recent(ctx context.Context, symbol string, limit int) ([]Record, error) {
	query := postgresSelect + ` WHERE ($1 = '' OR symbol = $1) ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, symbol, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list var runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan var run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close is a no-op; the pool belongs to database.DB.
func (r *PostgresRepository) Close() error {
	return nil
}
