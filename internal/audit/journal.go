package audit

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/varcalc/internal/risk"
)

// Journal 실행 이력 저장소 (SQLite / Postgres)
// 저장과 조회만; 과거 계산 재실행은 하지 않는다.
type Journal interface {
	Sink
	Get(ctx context.Context, runID string) (Record, error)
	Recent(ctx context.Context, symbol string, limit int) ([]Record, error)
	Close() error
}

// journalRow 두 저널이 공유하는 컬럼 표현
type journalRow struct {
	run                                   RunContext
	cfg                                   risk.RiskConfig
	portfolio, parametric, historical, mc decimal.Decimal
}

func newJournalRow(run RunContext, cfg risk.RiskConfig, result risk.VarResult) journalRow {
	return journalRow{
		run:        run,
		cfg:        cfg,
		portfolio:  decimal.NewFromFloat(run.PortfolioValue).Round(2),
		parametric: decimal.NewFromFloat(result.Value(risk.Parametric)).Round(2),
		historical: decimal.NewFromFloat(result.Value(risk.Historical)).Round(2),
		mc:         decimal.NewFromFloat(result.Value(risk.MonteCarlo)).Round(2),
	}
}

func (r journalRow) record() (Record, error) {
	run := r.run
	run.PortfolioValue = r.portfolio.InexactFloat64()
	cfg := r.cfg
	cfg.PortfolioValue = run.PortfolioValue

	result, err := risk.NewVarResult(map[risk.Method]float64{
		risk.Parametric: r.parametric.InexactFloat64(),
		risk.Historical: r.historical.InexactFloat64(),
		risk.MonteCarlo: r.mc.InexactFloat64(),
	})
	if err != nil {
		return Record{}, fmt.Errorf("decode run %s: %w", run.RunID, err)
	}
	return Record{Run: run, Config: cfg, Result: result}, nil
}

const defaultRecentLimit = 20

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultRecentLimit
	}
	return limit
}
