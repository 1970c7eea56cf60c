package audit

// sqliteSchema 로컬 저널 (SQLITE_PATH)
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS var_runs (
	run_id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	operator TEXT NOT NULL,
	ticker TEXT NOT NULL,
	exchange TEXT NOT NULL,
	symbol TEXT NOT NULL,
	portfolio_value TEXT NOT NULL,
	confidence REAL NOT NULL,
	horizon INTEGER NOT NULL,
	simulations INTEGER NOT NULL,
	window_days INTEGER NOT NULL,
	parametric_var TEXT NOT NULL,
	historical_var TEXT NOT NULL,
	monte_carlo_var TEXT NOT NULL,
	profile_hash TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_var_runs_symbol_time ON var_runs(symbol, created_at);
`

// postgresSchema 서버 저널 (DATABASE_URL)
var postgresSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS risk`,
	`CREATE TABLE IF NOT EXISTS risk.var_runs (
		run_id          UUID PRIMARY KEY,
		created_at      TIMESTAMPTZ NOT NULL,
		operator        TEXT NOT NULL,
		ticker          TEXT NOT NULL,
		exchange        TEXT NOT NULL,
		symbol          TEXT NOT NULL,
		portfolio_value NUMERIC(20,2) NOT NULL,
		confidence      DOUBLE PRECISION NOT NULL,
		horizon         INTEGER NOT NULL,
		simulations     INTEGER NOT NULL,
		window_days     INTEGER NOT NULL,
		parametric_var  NUMERIC(20,2) NOT NULL,
		historical_var  NUMERIC(20,2) NOT NULL,
		monte_carlo_var NUMERIC(20,2) NOT NULL,
		profile_hash    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_var_runs_symbol_time ON risk.var_runs (symbol, created_at DESC)`,
}
